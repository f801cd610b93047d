package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/usecase"
)

const (
	requestIDKey = "request_id"
	actorKey     = "actor"
)

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Request-ID"))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestIDOf(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDOf(c),
		}
		if status >= http.StatusInternalServerError {
			s.log.Warn("http request", kv...)
			return
		}
		s.log.Debug("http request", kv...)
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if len(h) <= 7 || !strings.EqualFold(h[:7], "Bearer ") {
			s.err(c, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		actor, err := s.auth.Verify(strings.TrimSpace(h[7:]))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func (s *Server) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !actorOf(c).IsAdmin() {
			s.fail(c, usecase.ErrForbidden("admin role required"))
			return
		}
		c.Next()
	}
}

func actorOf(c *gin.Context) domain.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(domain.Actor); ok {
			return a
		}
	}
	return domain.Actor{}
}
