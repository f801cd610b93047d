package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/infrastructure/repo"
	"taxdesk-backend/internal/logger"
	"taxdesk-backend/internal/validation"
)

var admin = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}

type fixture struct {
	log      *logger.Logger
	packages *repo.PackageRepo
	orders   *repo.OrderRepo
	users    *repo.UserRepo
	gateway  *fakeGateway
	notifier *fakeNotifier

	pkgSvc   *PackageService
	orderSvc *OrderService
	paySvc   *PaymentService
	authSvc  *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := repo.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	f := &fixture{
		log:      logger.FromZap(zaptest.NewLogger(t)),
		packages: repo.NewPackageRepo(db),
		orders:   repo.NewOrderRepo(db),
		users:    repo.NewUserRepo(db),
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
	}
	v := validation.New()
	f.pkgSvc = &PackageService{Repo: f.packages, Validator: v, Log: f.log}
	f.orderSvc = &OrderService{Orders: f.orders, Packages: f.packages, Users: f.users, Notifier: f.notifier, Log: f.log}
	f.paySvc = &PaymentService{Orders: f.orderSvc, Users: f.users, Gateway: f.gateway, AppURL: "https://taxdesk.id", Log: f.log}
	f.authSvc = &AuthService{Users: f.users, Validator: v, JWTSecret: "test-secret"}
	return f
}

func (f *fixture) customer(t *testing.T, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: "Budi", Email: email, Phone: "081200000000", PasswordHash: "x", Role: domain.RoleUser}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func renewalInput() domain.PackageInput {
	return domain.PackageInput{
		Name:        "Tax Renewal",
		Image:       "https://utfs.io/f/renewal.png",
		Description: "Annual vehicle tax renewal",
		Price:       50000,
		Fields: []domain.PackageFieldInput{
			{FieldName: "ktp_number", FieldLabel: "Nomor KTP", FieldType: domain.FieldText, IsRequired: true, Order: 0},
		},
	}
}

func (f *fixture) pkg(t *testing.T, in domain.PackageInput) *domain.Package {
	t.Helper()
	p, err := f.pkgSvc.Create(context.Background(), admin, in)
	if err != nil {
		t.Fatalf("create package: %v", err)
	}
	return p
}

func (f *fixture) pendingOrder(t *testing.T, userID string, p *domain.Package) *domain.Order {
	t.Helper()
	o, err := f.orderSvc.Create(context.Background(), userID, p.ID, map[string]any{"ktp_number": "3174"}, nil)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return o
}

type fakeGateway struct {
	fail     error
	requests []domain.PaymentRequest
	status   *domain.GatewayNotification
}

func (g *fakeGateway) CreateSession(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentSession, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	g.requests = append(g.requests, req)
	return &domain.PaymentSession{OrderID: req.OrderID, Token: "tok-" + req.OrderID, RedirectURL: "https://pay/" + req.OrderID}, nil
}

func (g *fakeGateway) TransactionStatus(ctx context.Context, orderID string) (*domain.GatewayNotification, error) {
	if g.fail != nil {
		return nil, g.fail
	}
	if g.status == nil {
		return nil, errors.New("no status")
	}
	return g.status, nil
}

func (g *fakeGateway) VerifyNotification(n domain.GatewayNotification) bool {
	return n.SignatureKey == "valid"
}

type sentEmail struct {
	to, orderID, name string
	status            domain.OrderStatus
}

type fakeNotifier struct {
	fail error
	sent []sentEmail
}

func (n *fakeNotifier) SendOrderStatusEmail(ctx context.Context, toEmail, orderID, username string, status domain.OrderStatus) error {
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, sentEmail{toEmail, orderID, username, status})
	return nil
}

type fakeCache struct {
	stored      []domain.Package
	has         bool
	invalidated int
}

func (c *fakeCache) Packages(ctx context.Context) ([]domain.Package, bool) { return c.stored, c.has }
func (c *fakeCache) StorePackages(ctx context.Context, pkgs []domain.Package) {
	c.stored, c.has = pkgs, true
}
func (c *fakeCache) Invalidate(ctx context.Context) {
	c.stored, c.has = nil, false
	c.invalidated++
}
