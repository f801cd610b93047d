package usecase

import (
	"context"
	"strings"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/logger"
)

type PaymentGateway interface {
	CreateSession(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentSession, error)
	TransactionStatus(ctx context.Context, orderID string) (*domain.GatewayNotification, error)
	VerifyNotification(n domain.GatewayNotification) bool
}

// PaymentService drives the gateway. Payment status changes go through
// Orders.
type PaymentService struct {
	Orders  *OrderService
	Users   UserRepo
	Gateway PaymentGateway
	AppURL  string
	Log     *logger.Logger
}

// MapGatewayStatus translates gateway transaction and fraud statuses into a
// payment status. Anything unrecognised stays PENDING.
func MapGatewayStatus(transactionStatus, fraudStatus string) domain.PaymentStatus {
	switch strings.ToLower(transactionStatus) {
	case "capture":
		if strings.ToLower(fraudStatus) == "accept" {
			return domain.PaymentPaid
		}
		return domain.PaymentPending
	case "settlement":
		return domain.PaymentPaid
	case "cancel", "expire", "deny":
		return domain.PaymentCancelled
	default:
		return domain.PaymentPending
	}
}

// Initiate opens a gateway payment session for the order. The order itself
// is not modified.
func (s *PaymentService) Initiate(ctx context.Context, o *domain.Order) (*domain.PaymentSession, error) {
	if s.Gateway == nil || strings.TrimSpace(s.AppURL) == "" {
		return nil, &GatewayError{Op: "initiate", Err: ErrMisconfigured("payment gateway")}
	}
	u := o.User
	if u == nil {
		var err error
		if u, err = s.Users.GetAny(ctx, o.UserID); err != nil {
			return nil, err
		}
		if u == nil {
			return nil, ErrNotFound("user")
		}
	}
	name := "Paket"
	if o.Package != nil {
		name = o.Package.Name
	}
	phone := u.Phone
	if v, ok := o.FormData["phone"].(string); ok && strings.TrimSpace(v) != "" {
		phone = v
	}
	base := strings.TrimRight(s.AppURL, "/") + "/order-status/" + o.ID
	req := domain.PaymentRequest{
		OrderID:  o.ID,
		Amount:   o.TotalAmount,
		Customer: domain.Customer{FirstName: u.Name, Email: u.Email, Phone: phone},
		Item:     domain.PaymentItem{ID: o.PackageID, Name: name, Price: o.TotalAmount},
		Callbacks: domain.PaymentCallbacks{
			Finish:  base + "?status=success",
			Error:   base + "?status=failed",
			Pending: base + "?status=pending",
		},
	}
	sess, err := s.Gateway.CreateSession(ctx, req)
	if err != nil {
		s.Log.Warn("payment initiation failed", "order_id", o.ID, "error", err)
		return nil, &GatewayError{Op: "initiate", Err: err}
	}
	s.Log.Info("payment initiated", "order_id", o.ID, "amount", o.TotalAmount)
	return sess, nil
}

// Reinitiate opens a new session for a still PENDING order owned by actor.
func (s *PaymentService) Reinitiate(ctx context.Context, actor domain.Actor, orderID string) (*domain.PaymentSession, error) {
	o, err := s.Orders.Lookup(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotFound("order")
	}
	if o.PaymentStatus != domain.PaymentPending {
		return nil, ErrInvalidState("order " + orderID + " is already " + string(o.PaymentStatus))
	}
	return s.Initiate(ctx, o)
}

type PaymentUpdate struct {
	OrderID       string               `json:"orderId"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Applied       bool                 `json:"applied"`
}

// HandleWebhook verifies and applies a gateway notification. Only a PENDING
// order changes state, so replays and late deliveries are harmless.
func (s *PaymentService) HandleWebhook(ctx context.Context, n domain.GatewayNotification) (*PaymentUpdate, error) {
	if s.Gateway == nil {
		return nil, ErrMisconfigured("payment server key")
	}
	if !s.Gateway.VerifyNotification(n) {
		s.Log.Warn("webhook signature rejected", "order_id", n.OrderID)
		return nil, ErrSignature("invalid signature")
	}
	mapped := MapGatewayStatus(n.TransactionStatus, n.FraudStatus)
	o, err := s.Orders.Lookup(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}
	s.Log.Info("webhook received", "order_id", o.ID, "transaction_status", n.TransactionStatus, "fraud_status", n.FraudStatus, "mapped", mapped)
	return s.apply(ctx, o, mapped)
}

// Reconcile queries the gateway for the order and applies the result the
// same way a webhook would.
func (s *PaymentService) Reconcile(ctx context.Context, actor domain.Actor, orderID string) (*PaymentUpdate, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if s.Gateway == nil {
		return nil, &GatewayError{Op: "status", Err: ErrMisconfigured("payment gateway")}
	}
	o, err := s.Orders.Lookup(ctx, orderID)
	if err != nil {
		return nil, err
	}
	st, err := s.Gateway.TransactionStatus(ctx, orderID)
	if err != nil {
		return nil, &GatewayError{Op: "status", Err: err}
	}
	return s.apply(ctx, o, MapGatewayStatus(st.TransactionStatus, st.FraudStatus))
}

func (s *PaymentService) apply(ctx context.Context, o *domain.Order, to domain.PaymentStatus) (*PaymentUpdate, error) {
	res := &PaymentUpdate{OrderID: o.ID, PaymentStatus: o.PaymentStatus}
	if to == domain.PaymentPending || o.PaymentStatus != domain.PaymentPending {
		if o.PaymentStatus != to {
			s.Log.Info("payment status unchanged", "order_id", o.ID, "current", o.PaymentStatus, "incoming", to)
		}
		return res, nil
	}
	cur, applied, err := s.Orders.SettlePayment(ctx, o.ID, to)
	if err != nil {
		return nil, err
	}
	res.PaymentStatus = cur
	res.Applied = applied
	if applied {
		s.Log.Info("payment status updated", "order_id", o.ID, "status", to)
	}
	return res, nil
}
