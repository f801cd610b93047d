package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string         `mapstructure:"env"`
	LogJSON  bool           `mapstructure:"log_json"`
	LogLevel string         `mapstructure:"log_level"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Download DownloadConfig `mapstructure:"download"`
	Mail     MailConfig     `mapstructure:"mail"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Otel     OtelConfig     `mapstructure:"otel"`
}

type HTTPConfig struct {
	Port        int      `mapstructure:"port"`
	CorsOrigins []string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type PaymentConfig struct {
	ServerKey    string        `mapstructure:"server_key"`
	ClientKey    string        `mapstructure:"client_key"`
	MerchantName string        `mapstructure:"merchant_name"`
	SnapURL      string        `mapstructure:"snap_url"`
	APIURL       string        `mapstructure:"api_url"`
	AppURL       string        `mapstructure:"app_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	Dir           string `mapstructure:"dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	GCSBucket     string `mapstructure:"gcs_bucket"`
}

// DownloadConfig admits one external source for the download proxy. URLs
// produced by the configured store are always downloadable.
type DownloadConfig struct {
	AllowedPrefix string `mapstructure:"allowed_prefix"`
}

type MailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	BaseURL        string `mapstructure:"base_url"`
	FromEmail      string `mapstructure:"from_email"`
	FromName       string `mapstructure:"from_name"`
}

type RedisConfig struct {
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
}

type OtelConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

func Default() Config {
	return Config{
		Env:      "dev",
		LogJSON:  true,
		LogLevel: "info",
		HTTP: HTTPConfig{
			Port:        5000,
			CorsOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "taxdesk.db",
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Payment: PaymentConfig{
			MerchantName: "taxdesk",
			SnapURL:      "https://app.sandbox.midtrans.com",
			APIURL:       "https://api.sandbox.midtrans.com",
			AppURL:       "http://localhost:3000",
			Timeout:      10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "fs",
			Dir:    "./uploads",
		},
		Mail: MailConfig{
			BaseURL:  "https://api.sendgrid.com",
			FromName: "Taxdesk",
		},
		Redis: RedisConfig{
			CatalogTTL: 5 * time.Minute,
		},
		Otel: OtelConfig{
			SampleRatio: 0.1,
		},
	}
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"env":          "env",
	"port":         "http.port",
	"log-json":     "log_json",
	"log-level":    "log_level",
	"db-driver":    "database.driver",
	"db-dsn":       "database.dsn",
	"jwt-secret":   "auth.jwt_secret",
	"uploads":      "storage.dir",
	"storage":      "storage.driver",
	"app-url":      "payment.app_url",
	"redis-addr":   "redis.addr",
	"otel-enabled": "otel.enabled",
}

// Load reads defaults, then the optional YAML file at path, then
// TAXDESK_* environment variables, then any changed flags in fs.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix("TAXDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("env", c.Env)
	v.SetDefault("log_json", c.LogJSON)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("http.port", c.HTTP.Port)
	v.SetDefault("http.cors_origins", c.HTTP.CorsOrigins)
	v.SetDefault("database.driver", c.Database.Driver)
	v.SetDefault("database.dsn", c.Database.DSN)
	v.SetDefault("auth.jwt_secret", c.Auth.JWTSecret)
	v.SetDefault("auth.token_ttl", c.Auth.TokenTTL)
	v.SetDefault("payment.server_key", c.Payment.ServerKey)
	v.SetDefault("payment.client_key", c.Payment.ClientKey)
	v.SetDefault("payment.merchant_name", c.Payment.MerchantName)
	v.SetDefault("payment.snap_url", c.Payment.SnapURL)
	v.SetDefault("payment.api_url", c.Payment.APIURL)
	v.SetDefault("payment.app_url", c.Payment.AppURL)
	v.SetDefault("payment.timeout", c.Payment.Timeout)
	v.SetDefault("storage.driver", c.Storage.Driver)
	v.SetDefault("storage.dir", c.Storage.Dir)
	v.SetDefault("storage.public_base_url", c.Storage.PublicBaseURL)
	v.SetDefault("storage.gcs_bucket", c.Storage.GCSBucket)
	v.SetDefault("download.allowed_prefix", c.Download.AllowedPrefix)
	v.SetDefault("mail.sendgrid_api_key", c.Mail.SendGridAPIKey)
	v.SetDefault("mail.base_url", c.Mail.BaseURL)
	v.SetDefault("mail.from_email", c.Mail.FromEmail)
	v.SetDefault("mail.from_name", c.Mail.FromName)
	v.SetDefault("redis.addr", c.Redis.Addr)
	v.SetDefault("redis.password", c.Redis.Password)
	v.SetDefault("redis.db", c.Redis.DB)
	v.SetDefault("redis.catalog_ttl", c.Redis.CatalogTTL)
	v.SetDefault("otel.enabled", c.Otel.Enabled)
	v.SetDefault("otel.endpoint", c.Otel.Endpoint)
	v.SetDefault("otel.insecure", c.Otel.Insecure)
	v.SetDefault("otel.sample_ratio", c.Otel.SampleRatio)
}

func (c Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "fs":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs driver")
		}
	default:
		return fmt.Errorf("unsupported storage.driver %q", c.Storage.Driver)
	}
	if p := c.Download.AllowedPrefix; p != "" {
		if !strings.HasPrefix(p, "https://") && !strings.HasPrefix(p, "http://") {
			return fmt.Errorf("download.allowed_prefix must be an http(s) url")
		}
		if !strings.HasSuffix(p, "/") {
			return fmt.Errorf("download.allowed_prefix must end with /")
		}
	}
	return nil
}
