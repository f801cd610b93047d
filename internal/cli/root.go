package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taxdesk-backend/internal/config"
	"taxdesk-backend/internal/env"
	"taxdesk-backend/internal/logger"
)

func newRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "taxdesk-backend",
		Short:         "Storefront and admin API for form-driven service packages",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := env.Load(".env", ".env.local")
			return err
		},
	}

	d := config.Default()
	pf := root.PersistentFlags()
	pf.String("config", "", "path to a YAML config file")
	pf.String("env", d.Env, "environment name (dev, staging, prod)")
	pf.Bool("log-json", d.LogJSON, "JSON logs")
	pf.String("log-level", d.LogLevel, "log level")
	pf.String("db-driver", d.Database.Driver, "database driver (postgres, sqlite)")
	pf.String("db-dsn", d.Database.DSN, "database DSN")

	root.AddCommand(newServeCmd(version))
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newCreateAdminCmd())
	root.AddCommand(newVersionCmd(version))
	return root
}

// Execute runs the command line and reports any error on stderr.
func Execute(version string) error {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func loadConfig(cmd *cobra.Command) (config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "taxdesk-backend", version)
		},
	}
}
