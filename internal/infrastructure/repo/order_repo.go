package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taxdesk-backend/internal/domain"
)

type OrderRepo struct {
	db *gorm.DB
}

func NewOrderRepo(db *gorm.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// withDetails preloads the user and package even when soft-deleted, so
// historical orders keep resolving them.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", unscoped).
		Preload("Package", unscoped).
		Preload("Package.Fields", orderedFields).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") })
}

// Create inserts the order and its files in one transaction.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return err
		}
		if len(o.Files) == 0 {
			return nil
		}
		for i := range o.Files {
			o.Files[i].OrderID = o.ID
		}
		return tx.Create(&o.Files).Error
	})
}

func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := withDetails(r.db.WithContext(ctx)).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser lists a user's orders, newest first. An empty status lists all.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string, status domain.PaymentStatus) ([]domain.Order, error) {
	q := withDetails(r.db.WithContext(ctx)).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("payment_status = ?", status)
	}
	var out []domain.Order
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListPaidByOrderStatus is the fulfilment queue: paid orders only.
func (r *OrderRepo) ListPaidByOrderStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.WithContext(ctx).
		Preload("User", unscoped).
		Preload("Package", unscoped).
		Where("payment_status = ? AND order_status = ?", domain.PaymentPaid, status).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *OrderRepo) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (bool, error) {
	return r.update(ctx, r.db.WithContext(ctx).Where("id = ?", id), map[string]any{"payment_status": status})
}

// TransitionPaymentStatus updates the payment status only while it still
// equals from.
func (r *OrderRepo) TransitionPaymentStatus(ctx context.Context, id string, from, to domain.PaymentStatus) (bool, error) {
	return r.update(ctx, r.db.WithContext(ctx).Where("id = ? AND payment_status = ?", id, from), map[string]any{"payment_status": to})
}

func (r *OrderRepo) SetOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (bool, error) {
	return r.update(ctx, r.db.WithContext(ctx).Where("id = ?", id), map[string]any{"order_status": status})
}

func (r *OrderRepo) update(ctx context.Context, q *gorm.DB, values map[string]any) (bool, error) {
	values["updated_at"] = time.Now().UTC()
	res := q.Model(&domain.Order{}).Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
