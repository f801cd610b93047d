package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"taxdesk-backend/internal/domain"
)

type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create returns domain.ErrDuplicate when the email is taken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := r.db.WithContext(ctx).Create(u).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, id string) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// GetAny also returns soft-deleted users.
func (r *UserRepo) GetAny(ctx context.Context, id string) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx).Unscoped(), "id = ?", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(r.db.WithContext(ctx), "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) first(q *gorm.DB, cond string, arg any) (*domain.User, error) {
	var u domain.User
	err := q.First(&u, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ListCustomers(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.db.WithContext(ctx).
		Where("role = ?", domain.RoleUser).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *UserRepo) SoftDelete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id, name, phone string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"name":       name,
		"phone":      phone,
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
