package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/validation"
)

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetAny(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListCustomers(ctx context.Context) ([]domain.User, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	UpdateProfile(ctx context.Context, id, name, phone string) (bool, error)
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72,hasupper"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

const bcryptCost = 10

type AuthService struct {
	Users     UserRepo
	Validator *validatorv10.Validate
	JWTSecret string
	TokenTTL  time.Duration
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.create(ctx, in, domain.RoleUser)
}

// CreateAdmin seeds an administrator account.
func (s *AuthService) CreateAdmin(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.create(ctx, in, domain.RoleAdmin)
}

func (s *AuthService) create(ctx context.Context, in RegisterInput, role domain.Role) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := s.Validator.Struct(in); err != nil {
		return nil, &ValidationError{Fields: validation.Fields(err)}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, ErrConflict("email already registered")
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrUnauthorized("invalid email or password")
	}
	token, err := s.sign(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *AuthService) sign(u *domain.User) (string, error) {
	ttl := s.TokenTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    string(u.Role),
		"exp":     time.Now().Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.JWTSecret))
}

// Verify parses a bearer token into the calling actor.
func (s *AuthService) Verify(token string) (domain.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(s.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return domain.Actor{}, ErrUnauthorized("invalid token")
	}
	m, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, ErrUnauthorized("invalid token")
	}
	uid, _ := m["user_id"].(string)
	role, _ := m["role"].(string)
	if uid == "" {
		return domain.Actor{}, ErrUnauthorized("invalid token")
	}
	return domain.Actor{UserID: uid, Role: domain.Role(role)}, nil
}
