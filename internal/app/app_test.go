package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"taxdesk-backend/internal/config"
	"taxdesk-backend/internal/logger"
)

func TestNewWiresServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.Database.DSN = ":memory:"
	cfg.Auth.JWTSecret = "secret"
	cfg.Storage.Dir = t.TempDir()

	a, err := New(context.Background(), cfg, logger.FromZap(zaptest.NewLogger(t)), "test")
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close(context.Background())

	if a.Services.Payments.Gateway != nil {
		t.Fatalf("gateway must stay unset without a server key")
	}
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/packages", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("packages: %d %s", w.Code, w.Body.String())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	if _, err := New(context.Background(), cfg, logger.Nop(), "test"); err == nil {
		t.Fatalf("expected error without jwt secret")
	}
}
