package usecase

import (
	"context"
	"strings"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/logger"
)

type ProfileInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type UserService struct {
	Users UserRepo
	Log   *logger.Logger
}

// Me returns the caller's account. Deleted accounts are reported as
// unauthorized so their tokens stop working.
func (s *UserService) Me(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	u, err := s.Users.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthorized("account not found")
	}
	return u, nil
}

func (s *UserService) UpdateMe(ctx context.Context, actor domain.Actor, in ProfileInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	phone := strings.TrimSpace(in.Phone)
	fields := map[string]string{}
	if name == "" || len(name) > 100 {
		fields["name"] = "is required and must be at most 100 characters"
	}
	if len(phone) > 32 {
		fields["phone"] = "must be at most 32 characters"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	found, err := s.Users.UpdateProfile(ctx, actor.UserID, name, phone)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrUnauthorized("account not found")
	}
	return s.Users.Get(ctx, actor.UserID)
}

// ListCustomers returns active USER accounts, newest first.
func (s *UserService) ListCustomers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Users.ListCustomers(ctx)
}

func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return ErrConflict("cannot delete your own account")
	}
	found, err := s.Users.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound("user")
	}
	s.Log.Info("user deleted", "user_id", id)
	return nil
}
