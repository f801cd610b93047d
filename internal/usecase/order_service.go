package usecase

import (
	"context"
	"strings"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/formschema"
	"taxdesk-backend/internal/logger"
)

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, status domain.PaymentStatus) ([]domain.Order, error)
	ListPaidByOrderStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (bool, error)
	TransitionPaymentStatus(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error)
	SetOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (bool, error)
}

type Notifier interface {
	SendOrderStatusEmail(ctx context.Context, toEmail, orderID, username string, status domain.OrderStatus) error
}

type OrderService struct {
	Orders   OrderRepo
	Packages PackageRepo
	Users    UserRepo
	Notifier Notifier
	Log      *logger.Logger
}

// Create validates the submission against the package form and stores the
// order with its files. File fields end up holding their uploaded URL.
func (s *OrderService) Create(ctx context.Context, userID, packageID string, formData map[string]any, files []domain.OrderFile) (*domain.Order, error) {
	pkg, err := s.Packages.Get(ctx, packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, ErrNotFound("package")
	}

	fileFields := map[string]bool{}
	for _, f := range pkg.Fields {
		if f.FieldType == domain.FieldFile {
			fileFields[f.FieldName] = true
		}
	}
	fieldErrs := map[string]string{}
	byField := map[string]domain.OrderFile{}
	for _, f := range files {
		name := strings.TrimSpace(f.FieldName)
		switch {
		case !fileFields[name]:
			fieldErrs[name] = "bukan field file pada paket ini"
		case strings.TrimSpace(f.FileURL) == "":
			fieldErrs[name] = "URL file kosong"
		case byField[name].FileURL != "":
			fieldErrs[name] = "hanya satu file per field"
		default:
			f.FieldName = name
			if f.FileName == "" {
				f.FileName = name
			}
			byField[name] = f
		}
	}

	submission := make(map[string]any, len(formData))
	for k, v := range formData {
		if !fileFields[k] {
			submission[k] = v
		}
	}
	for name := range byField {
		submission[name] = formschema.FilePendingUpload
	}
	res, err := formschema.Validate(pkg.Fields, submission)
	if err != nil {
		return nil, err
	}
	for k, v := range res.FieldErrors {
		if _, ok := fieldErrs[k]; !ok {
			fieldErrs[k] = v
		}
	}
	if len(fieldErrs) > 0 {
		return nil, &ValidationError{Fields: fieldErrs}
	}

	data := res.Data
	orderFiles := make([]domain.OrderFile, 0, len(byField))
	for _, f := range pkg.Fields {
		if file, ok := byField[f.FieldName]; ok {
			data[f.FieldName] = file.FileURL
			orderFiles = append(orderFiles, domain.OrderFile{
				FieldName: file.FieldName,
				FileName:  file.FileName,
				FileURL:   file.FileURL,
				FileSize:  file.FileSize,
			})
		}
	}

	o := &domain.Order{
		UserID:        userID,
		PackageID:     pkg.ID,
		FormData:      data,
		TotalAmount:   pkg.Price,
		PaymentStatus: domain.PaymentPending,
		OrderStatus:   domain.OrderRequested,
		Files:         orderFiles,
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	o.Package = pkg
	s.Log.Info("order created", "order_id", o.ID, "package_id", pkg.ID, "user_id", userID, "total", o.TotalAmount)
	return o, nil
}

// Get returns the order with details. Only the owner or an admin may see it.
func (s *OrderService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound("order")
	}
	if o.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, ErrNotFound("order")
	}
	return o, nil
}

// ListForUser accepts "ALL" (or empty) or a payment status.
func (s *OrderService) ListForUser(ctx context.Context, userID, filter string) ([]domain.Order, error) {
	var status domain.PaymentStatus
	f := strings.ToUpper(strings.TrimSpace(filter))
	if f != "" && f != "ALL" {
		status = domain.PaymentStatus(f)
		if !status.Valid() {
			return nil, ErrBadRequest("invalid status filter " + filter)
		}
	}
	return s.Orders.ListByUser(ctx, userID, status)
}

// ListForAdmin returns paid orders in the given fulfilment status,
// REQUESTED when filter is empty.
func (s *OrderService) ListForAdmin(ctx context.Context, actor domain.Actor, filter string) ([]domain.AdminOrderRow, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status := domain.OrderRequested
	if f := strings.ToUpper(strings.TrimSpace(filter)); f != "" {
		status = domain.OrderStatus(f)
		if !status.Valid() {
			return nil, ErrBadRequest("invalid orderStatus " + filter)
		}
	}
	orders, err := s.Orders.ListPaidByOrderStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.AdminOrderRow, 0, len(orders))
	for _, o := range orders {
		row := domain.AdminOrderRow{
			OrderID:       o.ID,
			TotalAmount:   o.TotalAmount,
			PaymentStatus: o.PaymentStatus,
			OrderStatus:   o.OrderStatus,
			CreatedAt:     o.CreatedAt,
		}
		if o.User != nil {
			row.UserName = o.User.Name
		}
		if o.Package != nil {
			row.PackageName = o.Package.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SetPaymentStatus overwrites the payment status unconditionally.
func (s *OrderService) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) error {
	if !status.Valid() {
		return ErrBadRequest("invalid payment status")
	}
	found, err := s.Orders.SetPaymentStatus(ctx, id, status)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound("order")
	}
	return nil
}

// Lookup loads an order without an ownership check, for callers acting on
// behalf of the system such as the payment gateway.
func (s *OrderService) Lookup(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound("order")
	}
	return o, nil
}

// SettlePayment moves a PENDING order to PAID or CANCELLED. It returns the
// status the order holds afterwards and whether this call changed it; an
// order that already left PENDING keeps its status.
func (s *OrderService) SettlePayment(ctx context.Context, id string, to domain.PaymentStatus) (domain.PaymentStatus, bool, error) {
	if !to.Valid() || to == domain.PaymentPending {
		return "", false, ErrBadRequest("invalid payment status")
	}
	ok, err := s.Orders.TransitionPaymentStatus(ctx, id, domain.PaymentPending, to)
	if err != nil {
		return "", false, err
	}
	if ok {
		return to, true, nil
	}
	cur, err := s.Lookup(ctx, id)
	if err != nil {
		return "", false, err
	}
	return cur.PaymentStatus, false, nil
}

type StatusChange struct {
	OrderID     string             `json:"orderId"`
	OrderStatus domain.OrderStatus `json:"orderStatus"`
	Notified    bool               `json:"notified"`
}

// SetOrderStatus moves an order through fulfilment and emails the owner.
// PROCESSING and COMPLETED need a PAID order. The change is kept even when
// the email fails; Notified reports the outcome.
func (s *OrderService) SetOrderStatus(ctx context.Context, actor domain.Actor, id string, status domain.OrderStatus) (*StatusChange, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrBadRequest("invalid order status")
	}
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound("order")
	}
	u, err := s.Users.GetAny(ctx, o.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound("user")
	}
	if (status == domain.OrderProcessing || status == domain.OrderCompleted) && o.PaymentStatus != domain.PaymentPaid {
		return nil, ErrInvalidState("order " + id + " is " + string(o.PaymentStatus) + ", fulfilment requires PAID")
	}
	found, err := s.Orders.SetOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound("order")
	}
	change := &StatusChange{OrderID: id, OrderStatus: status}
	if s.Notifier != nil {
		if err := s.Notifier.SendOrderStatusEmail(ctx, u.Email, id, u.Name, status); err != nil {
			s.Log.Warn("order status email failed", "order_id", id, "error", err)
		} else {
			change.Notified = true
		}
	}
	s.Log.Info("order status updated", "order_id", id, "status", status, "notified", change.Notified)
	return change, nil
}
