package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FieldType string

const (
	FieldText     FieldType = "TEXT"
	FieldEmail    FieldType = "EMAIL"
	FieldPhone    FieldType = "PHONE"
	FieldTextarea FieldType = "TEXTAREA"
	FieldSelect   FieldType = "SELECT"
	FieldDate     FieldType = "DATE"
	FieldFile     FieldType = "FILE"
)

var FieldTypes = []FieldType{FieldText, FieldEmail, FieldPhone, FieldTextarea, FieldSelect, FieldDate, FieldFile}

func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

type Package struct {
	ID          string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Image       string         `gorm:"size:255;not null" json:"image"`
	Description string         `gorm:"size:255;not null" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	Fields      []PackageField `gorm:"foreignKey:PackageID" json:"requiredFields"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deletedAt"`
}

func (p *Package) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PackageField is one input of a package's order form. Options is only set
// for SELECT fields.
type PackageField struct {
	ID         string                      `gorm:"type:varchar(36);primaryKey" json:"id"`
	PackageID  string                      `gorm:"type:varchar(36);not null;uniqueIndex:idx_package_field_name" json:"packageId"`
	FieldName  string                      `gorm:"size:20;not null;uniqueIndex:idx_package_field_name" json:"fieldName"`
	FieldLabel string                      `gorm:"size:20;not null" json:"fieldLabel"`
	FieldType  FieldType                   `gorm:"size:16;not null" json:"fieldType"`
	IsRequired bool                        `gorm:"not null;default:true" json:"isRequired"`
	Options    datatypes.JSONSlice[string] `json:"options"`
	Order      int                         `gorm:"column:sort_order;not null" json:"order"`
}

func (f *PackageField) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type PackageFieldInput struct {
	FieldName  string    `json:"fieldName" validate:"required,max=20,fieldname"`
	FieldLabel string    `json:"fieldLabel" validate:"required,max=20"`
	FieldType  FieldType `json:"fieldType" validate:"required,fieldtype"`
	IsRequired bool      `json:"isRequired"`
	Options    []string  `json:"options" validate:"dive,required,max=100"`
	Order      int       `json:"order" validate:"gte=0"`
}

type PackageInput struct {
	Name        string              `json:"name" validate:"required,max=100"`
	Image       string              `json:"image" validate:"required,max=255"`
	Description string              `json:"description" validate:"required,max=255"`
	Price       int64               `json:"price" validate:"gte=0"`
	Fields      []PackageFieldInput `json:"requiredFields" validate:"required,min=1,dive"`
}

type PackageSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Sold        int64     `json:"sold"`
	CreatedAt   time.Time `json:"createdAt"`
}
