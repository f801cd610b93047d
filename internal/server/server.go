package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"taxdesk-backend/internal/config"
	"taxdesk-backend/internal/infrastructure/storage"
	"taxdesk-backend/internal/logger"
	"taxdesk-backend/internal/observability"
	"taxdesk-backend/internal/usecase"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Config   config.Config
	Log      *logger.Logger
	DB       Pinger
	Auth     *usecase.AuthService
	Users    *usecase.UserService
	Packages *usecase.PackageService
	Orders   *usecase.OrderService
	Payments *usecase.PaymentService
	Store    storage.Store
	HTTP     *http.Client
}

type Server struct {
	cfg      config.Config
	log      *logger.Logger
	db       Pinger
	auth     *usecase.AuthService
	users    *usecase.UserService
	packages *usecase.PackageService
	orders   *usecase.OrderService
	payments *usecase.PaymentService
	store    storage.Store
	http     *http.Client
	engine   *gin.Engine
}

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.HTTP == nil {
		d.HTTP = &http.Client{Timeout: 60 * time.Second}
	}
	s := &Server{
		cfg:      d.Config,
		log:      d.Log.With("component", "http"),
		db:       d.DB,
		auth:     d.Auth,
		users:    d.Users,
		packages: d.Packages,
		orders:   d.Orders,
		payments: d.Payments,
		store:    d.Store,
		http:     d.HTTP,
	}
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), s.requestID(), s.requestLog(), observability.MetricsMiddleware())
	if s.cfg.Otel.Enabled {
		r.Use(otelgin.Middleware("taxdesk-backend"))
	}
	r.Use(s.cors())

	r.GET("/healthz", s.handleHealth)
	r.GET("/metrics", observability.PrometheusHandler())
	if s.cfg.Storage.Driver == "fs" && s.cfg.Storage.Dir != "" {
		r.Static("/files", s.cfg.Storage.Dir)
	}

	api := r.Group("/api")
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/packages", s.handleListPackages)
	api.GET("/packages/:id", s.handleGetPackage)
	api.GET("/payment/config", s.handlePaymentConfig)
	api.POST("/payment/webhook", s.handleWebhook)

	authed := api.Group("", s.requireAuth())
	authed.GET("/me", s.handleMe)
	authed.PUT("/me", s.handleUpdateMe)
	authed.POST("/uploads", s.handleUpload)
	authed.POST("/packages/:id/orders", s.handleCreateOrder)
	authed.GET("/orders", s.handleListOrders)
	authed.GET("/orders/:id", s.handleGetOrder)
	authed.POST("/orders/:id/payment", s.handleReinitiate)

	admin := authed.Group("", s.requireAdmin())
	admin.GET("/download", s.handleDownload)
	admin.GET("/admin/packages", s.handleAdminPackages)
	admin.POST("/admin/packages", s.handleCreatePackage)
	admin.PUT("/admin/packages/:id", s.handleUpdatePackage)
	admin.DELETE("/admin/packages/:id", s.handleDeletePackage)
	admin.GET("/admin/orders", s.handleAdminOrders)
	admin.GET("/admin/orders/:id", s.handleGetOrder)
	admin.PATCH("/admin/orders/:id/status", s.handleSetOrderStatus)
	admin.POST("/admin/orders/:id/reconcile", s.handleReconcile)
	admin.GET("/admin/users", s.handleListUsers)
	admin.DELETE("/admin/users/:id", s.handleDeleteUser)
}

func (s *Server) cors() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	origins := s.cfg.HTTP.CorsOrigins
	if len(origins) == 0 || contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.db == nil {
		s.json(c, http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Warn("health check failed", "error", err)
		s.json(c, http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	s.json(c, http.StatusOK, gin.H{"status": "ok"})
}

// errorStatus maps usecase errors onto HTTP statuses and envelope codes.
func errorStatus(err error) (int, string) {
	var (
		validation   *usecase.ValidationError
		badRequest   usecase.ErrBadRequest
		unauthorized usecase.ErrUnauthorized
		forbidden    usecase.ErrForbidden
		signature    usecase.ErrSignature
		notFound     usecase.ErrNotFound
		conflict     usecase.ErrConflict
		invalid      usecase.ErrInvalidState
		gateway      *usecase.GatewayError
		misconfig    usecase.ErrMisconfigured
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, "ValidationFailed"
	case errors.As(err, &badRequest):
		return http.StatusBadRequest, "BadRequest"
	case errors.As(err, &unauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.As(err, &forbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.As(err, &signature):
		return http.StatusForbidden, "InvalidSignature"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "NotFound"
	case errors.As(err, &conflict):
		return http.StatusConflict, "Conflict"
	case errors.As(err, &invalid):
		return http.StatusConflict, "InvalidState"
	case errors.As(err, &gateway):
		return http.StatusBadGateway, "PaymentGatewayError"
	case errors.As(err, &misconfig):
		return http.StatusInternalServerError, "Misconfigured"
	default:
		return http.StatusInternalServerError, "ServerError"
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	s.failWith(c, err, nil)
}

// failWith writes the error envelope, merging extra into the "error" object.
func (s *Server) failWith(c *gin.Context, err error, extra gin.H) {
	status, code := errorStatus(err)
	msg := err.Error()
	if code == "ServerError" {
		s.log.Error("request failed", "path", c.FullPath(), "request_id", requestIDOf(c), "error", err)
		msg = "internal server error"
	}
	body := gin.H{
		"code":      code,
		"message":   msg,
		"requestId": requestIDOf(c),
	}
	var ve *usecase.ValidationError
	if errors.As(err, &ve) {
		body["fields"] = ve.Fields
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, gin.H{"error": body})
}

func (s *Server) err(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":      code,
			"message":   msg,
			"requestId": requestIDOf(c),
		},
	})
}

func (s *Server) json(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
