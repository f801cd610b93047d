package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentCancelled:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderRequested  OrderStatus = "REQUESTED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderRequested, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID            string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string            `gorm:"type:varchar(36);not null;index" json:"userId"`
	User          *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PackageID     string            `gorm:"type:varchar(36);not null;index" json:"packageId"`
	Package       *Package          `gorm:"foreignKey:PackageID" json:"package,omitempty"`
	FormData      datatypes.JSONMap `json:"formData"`
	TotalAmount   int64             `gorm:"not null" json:"totalAmount"`
	PaymentStatus PaymentStatus     `gorm:"size:16;not null;index" json:"paymentStatus"`
	OrderStatus   OrderStatus       `gorm:"size:16;not null;index" json:"orderStatus"`
	Files         []OrderFile       `gorm:"foreignKey:OrderID" json:"files"`
	CreatedAt     time.Time         `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OrderFile struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderID   string    `gorm:"type:varchar(36);not null;index" json:"orderId"`
	FieldName string    `gorm:"size:20;not null" json:"fieldName"`
	FileName  string    `gorm:"size:255;not null" json:"fileName"`
	FileURL   string    `gorm:"size:1024;not null" json:"fileUrl"`
	FileSize  int64     `json:"fileSize"`
	CreatedAt time.Time `json:"createdAt"`
}

func (f *OrderFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type AdminOrderRow struct {
	OrderID       string        `json:"orderId"`
	UserName      string        `json:"userName"`
	PackageName   string        `json:"packageName"`
	TotalAmount   int64         `json:"totalAmount"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	OrderStatus   OrderStatus   `json:"orderStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
}
