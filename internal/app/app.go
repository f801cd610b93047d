package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"taxdesk-backend/internal/config"
	"taxdesk-backend/internal/infrastructure/cache"
	"taxdesk-backend/internal/infrastructure/mail"
	"taxdesk-backend/internal/infrastructure/midtrans"
	"taxdesk-backend/internal/infrastructure/repo"
	"taxdesk-backend/internal/infrastructure/storage"
	"taxdesk-backend/internal/logger"
	"taxdesk-backend/internal/observability"
	"taxdesk-backend/internal/server"
	"taxdesk-backend/internal/usecase"
	"taxdesk-backend/internal/validation"
)

type Repos struct {
	Packages *repo.PackageRepo
	Orders   *repo.OrderRepo
	Users    *repo.UserRepo
}

type Services struct {
	Auth     *usecase.AuthService
	Users    *usecase.UserService
	Packages *usecase.PackageService
	Orders   *usecase.OrderService
	Payments *usecase.PaymentService
}

type App struct {
	Cfg      config.Config
	Log      *logger.Logger
	DB       *gorm.DB
	Repos    Repos
	Services Services
	Server   *server.Server

	closers []func(context.Context) error
}

// New opens every backing service and wires the HTTP server. Redis, the
// payment gateway and SendGrid are optional; without them the catalog is
// uncached, payments return 502 and mail is only logged.
func New(ctx context.Context, cfg config.Config, log *logger.Logger, version string) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{Cfg: cfg, Log: log}

	a.closers = append(a.closers, observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: "taxdesk-backend",
		Environment: cfg.Env,
		Version:     version,
		Endpoint:    cfg.Otel.Endpoint,
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	}))

	db, err := OpenDB(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.DB = db
	sqlDB, err := db.DB()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return sqlDB.Close() })

	a.Repos = Repos{
		Packages: repo.NewPackageRepo(db),
		Orders:   repo.NewOrderRepo(db),
		Users:    repo.NewUserRepo(db),
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		if rdb, err = cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Warn("redis unavailable, catalog cache disabled", "addr", cfg.Redis.Addr, "error", err)
			rdb = nil
		} else {
			a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		}
	}

	store, err := a.openStore(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	v := validation.New()
	a.Services.Auth = &usecase.AuthService{Users: a.Repos.Users, Validator: v, JWTSecret: cfg.Auth.JWTSecret, TokenTTL: cfg.Auth.TokenTTL}
	a.Services.Users = &usecase.UserService{Users: a.Repos.Users, Log: log}
	a.Services.Packages = &usecase.PackageService{
		Repo:      a.Repos.Packages,
		Cache:     cache.NewCatalog(rdb, cfg.Redis.CatalogTTL, log),
		Validator: v,
		Log:       log.With("service", "packages"),
	}
	a.Services.Orders = &usecase.OrderService{
		Orders:   a.Repos.Orders,
		Packages: a.Repos.Packages,
		Users:    a.Repos.Users,
		Notifier: &mail.StatusNotifier{Mailer: a.mailer(), AppURL: cfg.Payment.AppURL},
		Log:      log.With("service", "orders"),
	}
	a.Services.Payments = &usecase.PaymentService{
		Orders: a.Services.Orders,
		Users:  a.Repos.Users,
		AppURL: cfg.Payment.AppURL,
		Log:    log.With("service", "payments"),
	}
	if cfg.Payment.ServerKey != "" {
		gw, err := midtrans.New(midtrans.Config{
			ServerKey:    cfg.Payment.ServerKey,
			MerchantName: cfg.Payment.MerchantName,
			SnapURL:      cfg.Payment.SnapURL,
			APIURL:       cfg.Payment.APIURL,
			Timeout:      cfg.Payment.Timeout,
		})
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.Services.Payments.Gateway = gw
	} else {
		log.Warn("payment server key not set, payments disabled")
	}

	a.Server = server.New(server.Deps{
		Config:   cfg,
		Log:      log,
		DB:       sqlDB,
		Auth:     a.Services.Auth,
		Users:    a.Services.Users,
		Packages: a.Services.Packages,
		Orders:   a.Services.Orders,
		Payments: a.Services.Payments,
		Store:    store,
	})
	return a, nil
}

// OpenDB connects to the configured database and migrates the schema.
func OpenDB(cfg config.Config) (*gorm.DB, error) {
	db, err := repo.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (a *App) openStore(ctx context.Context) (storage.Store, error) {
	switch a.Cfg.Storage.Driver {
	case "gcs":
		s, err := storage.NewGCSStore(ctx, a.Cfg.Storage.GCSBucket, a.Cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
		return s, nil
	default:
		return storage.NewFSStore(a.Cfg.Storage.Dir, a.Cfg.Storage.PublicBaseURL), nil
	}
}

func (a *App) mailer() mail.Mailer {
	m := a.Cfg.Mail
	if m.SendGridAPIKey == "" {
		return &mail.LogMailer{Log: a.Log}
	}
	sg, err := mail.NewSendGrid(mail.SendGridConfig{
		APIKey:    m.SendGridAPIKey,
		BaseURL:   m.BaseURL,
		FromEmail: m.FromEmail,
		FromName:  m.FromName,
	}, a.Log)
	if err != nil {
		a.Log.Warn("sendgrid disabled", "error", err)
		return &mail.LogMailer{Log: a.Log}
	}
	return sg
}

func (a *App) Handler() http.Handler {
	return a.Server.Handler()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.Log.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
	a.Log.Sync()
}
