package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/observability"
)

type createOrderReq struct {
	FormData map[string]any     `json:"formData"`
	Files    []domain.OrderFile `json:"files"`
}

// handleCreateOrder stores the order and then opens a payment session. A
// gateway failure still leaves the order PENDING, so the response carries
// the orderId for a later retry.
func (s *Server) handleCreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid json")
		return
	}
	ctx := c.Request.Context()
	actor := actorOf(c)
	o, err := s.orders.Create(ctx, actor.UserID, c.Param("id"), req.FormData, req.Files)
	if err != nil {
		s.fail(c, err)
		return
	}
	observability.RecordOrderCreated()

	sess, err := s.payments.Initiate(ctx, o)
	if err != nil {
		s.failWith(c, err, gin.H{"orderId": o.ID})
		return
	}
	s.json(c, http.StatusCreated, sess)
}

func (s *Server) handleListOrders(c *gin.Context) {
	list, err := s.orders.ListForUser(c.Request.Context(), actorOf(c).UserID, c.Query("status"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, list)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	o, err := s.orders.Get(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, o)
}

func (s *Server) handleReinitiate(c *gin.Context) {
	sess, err := s.payments.Reinitiate(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, sess)
}

func (s *Server) handleAdminOrders(c *gin.Context) {
	rows, err := s.orders.ListForAdmin(c.Request.Context(), actorOf(c), c.Query("orderStatus"))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, rows)
}

type orderStatusReq struct {
	OrderStatus domain.OrderStatus `json:"orderStatus"`
}

func (s *Server) handleSetOrderStatus(c *gin.Context) {
	var req orderStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		s.err(c, http.StatusBadRequest, "BadRequest", "invalid json")
		return
	}
	change, err := s.orders.SetOrderStatus(c.Request.Context(), actorOf(c), c.Param("id"), req.OrderStatus)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.json(c, http.StatusOK, change)
}

func (s *Server) handleReconcile(c *gin.Context) {
	res, err := s.payments.Reconcile(c.Request.Context(), actorOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if res.Applied {
		observability.RecordPayment(string(res.PaymentStatus))
	}
	s.json(c, http.StatusOK, res)
}
