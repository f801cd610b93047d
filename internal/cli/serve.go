package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"taxdesk-backend/internal/app"
	"taxdesk-backend/internal/config"
)

func newServeCmd(version string) *cobra.Command {
	d := config.Default()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log, version)
			if err != nil {
				log.Error("startup failed", "error", err)
				log.Sync()
				return err
			}
			defer a.Close(context.Background())

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
				Handler:           a.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Info("listening", "addr", srv.Addr, "env", cfg.Env, "version", version)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				log.Info("shutting down")
				return srv.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	f := cmd.Flags()
	f.Int("port", d.HTTP.Port, "HTTP port")
	f.String("jwt-secret", "", "HS256 signing secret")
	f.String("storage", d.Storage.Driver, "upload storage driver (fs, gcs)")
	f.String("uploads", d.Storage.Dir, "upload directory for the fs driver")
	f.String("app-url", d.Payment.AppURL, "storefront base URL for payment callbacks")
	f.String("redis-addr", "", "redis address for the catalog cache")
	f.Bool("otel-enabled", false, "export traces")
	return cmd
}
