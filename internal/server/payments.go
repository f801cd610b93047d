package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/observability"
	"taxdesk-backend/internal/usecase"
)

func (s *Server) handlePaymentConfig(c *gin.Context) {
	s.json(c, http.StatusOK, gin.H{
		"clientKey": s.cfg.Payment.ClientKey,
		"snapUrl":   s.cfg.Payment.SnapURL,
	})
}

// handleWebhook answers the gateway with its own {status,message} body
// rather than the API error envelope.
func (s *Server) handleWebhook(c *gin.Context) {
	var n domain.GatewayNotification
	if err := c.ShouldBindJSON(&n); err != nil {
		observability.RecordWebhook("bad_request")
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid payload"})
		return
	}
	res, err := s.payments.HandleWebhook(c.Request.Context(), n)
	if err != nil {
		var (
			sig       usecase.ErrSignature
			notFound  usecase.ErrNotFound
			misconfig usecase.ErrMisconfigured
		)
		switch {
		case errors.As(err, &sig):
			observability.RecordWebhook("invalid_signature")
			c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "Invalid signature"})
		case errors.As(err, &notFound):
			observability.RecordWebhook("not_found")
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "Order not found"})
		case errors.As(err, &misconfig):
			observability.RecordWebhook("error")
			s.log.Error("webhook rejected", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Server key not configured"})
		default:
			observability.RecordWebhook("error")
			s.log.Error("webhook failed", "order_id", n.OrderID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Internal server error"})
		}
		return
	}
	observability.RecordWebhook("ok")
	if res.Applied {
		observability.RecordPayment(string(res.PaymentStatus))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
