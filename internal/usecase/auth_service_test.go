package usecase

import (
	"context"
	"errors"
	"testing"

	"taxdesk-backend/internal/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.authSvc.Register(ctx, RegisterInput{Name: "Budi", Email: "Budi@Example.com", Password: "Rahasia123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != domain.RoleUser || u.PasswordHash == "Rahasia123" {
		t.Fatalf("unexpected user %+v", u)
	}

	_, err = f.authSvc.Register(ctx, RegisterInput{Name: "Budi 2", Email: "budi@example.com", Password: "Rahasia123"})
	var conflict ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	token, got, err := f.authSvc.Login(ctx, "budi@example.com", "Rahasia123")
	if err != nil || got.ID != u.ID {
		t.Fatalf("login: %v", err)
	}
	actor, err := f.authSvc.Verify(token)
	if err != nil || actor.UserID != u.ID || actor.Role != domain.RoleUser {
		t.Fatalf("verify: %+v %v", actor, err)
	}

	var unauth ErrUnauthorized
	if _, _, err := f.authSvc.Login(ctx, "budi@example.com", "wrong"); !errors.As(err, &unauth) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.authSvc.Verify(token + "x"); !errors.As(err, &unauth) {
		t.Fatalf("tampered token should fail, got %v", err)
	}
}

func TestRegister_PasswordRules(t *testing.T) {
	f := newFixture(t)
	_, err := f.authSvc.Register(context.Background(), RegisterInput{Name: "Budi", Email: "budi@example.com", Password: "lowercase1"})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Fields["password"] == "" {
		t.Fatalf("expected password error, got %v", err)
	}
}

func TestLogin_DeletedUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.authSvc.Register(ctx, RegisterInput{Name: "Budi", Email: "budi@example.com", Password: "Rahasia123"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	users := &UserService{Users: f.users, Log: f.log}
	if err := users.Delete(ctx, admin, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := f.authSvc.Login(ctx, "budi@example.com", "Rahasia123"); err == nil {
		t.Fatalf("deleted users must not log in")
	}
	if _, err := users.Me(ctx, domain.Actor{UserID: u.ID}); err == nil {
		t.Fatalf("deleted users have no profile")
	}
}

func TestUserService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	users := &UserService{Users: f.users, Log: f.log}
	u := f.customer(t, "budi@example.com")
	me := domain.Actor{UserID: u.ID, Role: domain.RoleUser}

	got, err := users.UpdateMe(ctx, me, ProfileInput{Name: " Budi Santoso ", Phone: "0812"})
	if err != nil || got.Name != "Budi Santoso" || got.Phone != "0812" {
		t.Fatalf("update me: %+v %v", got, err)
	}
	var ve *ValidationError
	if _, err := users.UpdateMe(ctx, me, ProfileInput{Name: ""}); !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	list, err := users.ListCustomers(ctx, admin)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
	if _, err := users.ListCustomers(ctx, me); err == nil {
		t.Fatalf("customers must not list users")
	}
	var nf ErrNotFound
	if err := users.Delete(ctx, admin, "missing"); !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}
