package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"taxdesk-backend/internal/domain"
)

type PackageRepo struct {
	db *gorm.DB
}

func NewPackageRepo(db *gorm.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

func orderedFields(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC")
}

// Create inserts the package and its fields in one transaction.
func (r *PackageRepo) Create(ctx context.Context, p *domain.Package) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Fields").Create(p).Error; err != nil {
			return err
		}
		return insertFields(tx, p.ID, p.Fields)
	})
}

// Replace overwrites the package columns and swaps the whole field list.
// It reports false when the package is missing or soft-deleted.
func (r *PackageRepo) Replace(ctx context.Context, id string, p *domain.Package) (bool, error) {
	found := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Package{}).Where("id = ?", id).Updates(map[string]any{
			"name":        p.Name,
			"image":       p.Image,
			"description": p.Description,
			"price":       p.Price,
			"updated_at":  time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		found = true
		if err := tx.Where("package_id = ?", id).Delete(&domain.PackageField{}).Error; err != nil {
			return err
		}
		return insertFields(tx, id, p.Fields)
	})
	return found, err
}

func insertFields(tx *gorm.DB, packageID string, fields []domain.PackageField) error {
	if len(fields) == 0 {
		return nil
	}
	for i := range fields {
		fields[i].ID = ""
		fields[i].PackageID = packageID
	}
	return tx.Create(&fields).Error
}

// SoftDelete marks the package deleted. Deleting an already deleted
// package succeeds; an unknown id reports false.
func (r *PackageRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	var p domain.Package
	err := r.db.WithContext(ctx).Unscoped().Select("id", "deleted_at").First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if p.DeletedAt.Valid {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Delete(&domain.Package{}, "id = ?", id).Error; err != nil {
		return false, err
	}
	return true, nil
}

// Get returns an active package with its fields, or nil.
func (r *PackageRepo) Get(ctx context.Context, id string) (*domain.Package, error) {
	var p domain.Package
	err := r.db.WithContext(ctx).Preload("Fields", orderedFields).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PackageRepo) ListActive(ctx context.Context) ([]domain.Package, error) {
	var out []domain.Package
	err := r.db.WithContext(ctx).
		Preload("Fields", orderedFields).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// ListSummaries returns active packages with the number of orders placed
// for each.
func (r *PackageRepo) ListSummaries(ctx context.Context) ([]domain.PackageSummary, error) {
	var out []domain.PackageSummary
	err := r.db.WithContext(ctx).
		Model(&domain.Package{}).
		Select("packages.id, packages.name, packages.image, packages.description, packages.price, packages.created_at, COUNT(orders.id) AS sold").
		Joins("LEFT JOIN orders ON orders.package_id = packages.id").
		Group("packages.id, packages.name, packages.image, packages.description, packages.price, packages.created_at").
		Order("packages.created_at DESC").
		Scan(&out).Error
	return out, err
}
