package repo

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"taxdesk-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func samplePackage(name string, price int64) *domain.Package {
	return &domain.Package{
		Name:        name,
		Image:       "https://utfs.io/f/" + name + ".png",
		Description: name + " service",
		Price:       price,
		Fields: []domain.PackageField{
			{FieldName: "ktp_number", FieldLabel: "Nomor KTP", FieldType: domain.FieldText, IsRequired: true, Order: 1},
			{FieldName: "city", FieldLabel: "Kota", FieldType: domain.FieldSelect, Options: []string{"Jakarta"}, Order: 0},
		},
	}
}

func seedUser(t *testing.T, users *UserRepo, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: "Budi", Email: email, PasswordHash: "x", Role: domain.RoleUser}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestPackageRepo_CreateGetOrdersFields(t *testing.T) {
	ctx := context.Background()
	r := NewPackageRepo(newTestDB(t))
	p := samplePackage("renewal", 50000)
	if err := r.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := r.Get(ctx, p.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if len(got.Fields) != 2 || got.Fields[0].FieldName != "city" || got.Fields[1].FieldName != "ktp_number" {
		t.Fatalf("fields not ordered: %+v", got.Fields)
	}
	if len(got.Fields[0].Options) != 1 || got.Fields[0].Options[0] != "Jakarta" {
		t.Fatalf("options lost: %+v", got.Fields[0].Options)
	}
}

func TestPackageRepo_ReplaceSwapsAllFields(t *testing.T) {
	ctx := context.Background()
	r := NewPackageRepo(newTestDB(t))
	p := samplePackage("renewal", 50000)
	if err := r.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	upd := &domain.Package{
		Name: "renewal v2", Image: p.Image, Description: p.Description, Price: 75000,
		Fields: []domain.PackageField{
			{FieldName: "npwp", FieldLabel: "NPWP", FieldType: domain.FieldText, IsRequired: true, Order: 0},
		},
	}
	found, err := r.Replace(ctx, p.ID, upd)
	if err != nil || !found {
		t.Fatalf("replace: %v %v", found, err)
	}
	got, _ := r.Get(ctx, p.ID)
	if got.Name != "renewal v2" || got.Price != 75000 {
		t.Fatalf("columns not updated: %+v", got)
	}
	if len(got.Fields) != 1 || got.Fields[0].FieldName != "npwp" {
		t.Fatalf("expected exactly the submitted field, got %+v", got.Fields)
	}

	found, err = r.Replace(ctx, "missing", upd)
	if err != nil || found {
		t.Fatalf("expected not found, got %v %v", found, err)
	}
}

func TestPackageRepo_SoftDelete(t *testing.T) {
	ctx := context.Background()
	r := NewPackageRepo(newTestDB(t))
	p := samplePackage("renewal", 50000)
	if err := r.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 2; i++ {
		found, err := r.SoftDelete(ctx, p.ID)
		if err != nil || !found {
			t.Fatalf("delete #%d: %v %v", i, found, err)
		}
	}
	if got, _ := r.Get(ctx, p.ID); got != nil {
		t.Fatalf("deleted package should be hidden")
	}
	list, _ := r.ListActive(ctx)
	if len(list) != 0 {
		t.Fatalf("deleted package listed")
	}
	if found, _ := r.Replace(ctx, p.ID, samplePackage("x", 1)); found {
		t.Fatalf("deleted package should not be updatable")
	}
	if found, err := r.SoftDelete(ctx, "missing"); err != nil || found {
		t.Fatalf("unknown id: %v %v", found, err)
	}
}

func TestPackageRepo_ReplaceRollsBackOnFieldFailure(t *testing.T) {
	ctx := context.Background()
	r := NewPackageRepo(newTestDB(t))
	p := samplePackage("renewal", 50000)
	if err := r.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	upd := &domain.Package{
		Name: "renewal v2", Image: p.Image, Description: p.Description, Price: 75000,
		Fields: []domain.PackageField{
			{FieldName: "npwp", FieldLabel: "NPWP", FieldType: domain.FieldText, Order: 0},
			{FieldName: "npwp", FieldLabel: "NPWP lagi", FieldType: domain.FieldText, Order: 1},
		},
	}
	if _, err := r.Replace(ctx, p.ID, upd); err == nil {
		t.Fatalf("expected duplicate field name to fail")
	}
	got, err := r.Get(ctx, p.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Name != "renewal" || got.Price != 50000 {
		t.Fatalf("columns changed despite rollback: %+v", got)
	}
	if len(got.Fields) != 2 || got.Fields[0].FieldName != "city" || got.Fields[1].FieldName != "ktp_number" {
		t.Fatalf("fields changed despite rollback: %+v", got.Fields)
	}
}

func TestPackageRepo_CreateRollsBackOnFieldFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	r := NewPackageRepo(db)
	p := samplePackage("renewal", 50000)
	p.Fields[1].FieldName = p.Fields[0].FieldName
	if err := r.Create(ctx, p); err == nil {
		t.Fatalf("expected duplicate field name to fail")
	}
	var n int64
	if err := db.Unscoped().Model(&domain.Package{}).Count(&n).Error; err != nil || n != 0 {
		t.Fatalf("package row left behind: %d %v", n, err)
	}
}

func TestOrderRepo_CreateRollsBackOnFileFailure(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	packages := NewPackageRepo(db)
	orders := NewOrderRepo(db)
	u := seedUser(t, NewUserRepo(db), "budi@example.com")
	p := samplePackage("renewal", 50000)
	if err := packages.Create(ctx, p); err != nil {
		t.Fatalf("create package: %v", err)
	}
	o := &domain.Order{
		UserID: u.ID, PackageID: p.ID, TotalAmount: p.Price,
		FormData:      map[string]any{"ktp_number": "317"},
		PaymentStatus: domain.PaymentPending, OrderStatus: domain.OrderRequested,
		Files: []domain.OrderFile{
			{ID: "file-1", FieldName: "scan", FileName: "ktp.pdf", FileURL: "/files/documents/ktp.pdf", FileSize: 10},
			{ID: "file-1", FieldName: "npwp", FileName: "npwp.pdf", FileURL: "/files/documents/npwp.pdf", FileSize: 12},
		},
	}
	if err := orders.Create(ctx, o); err == nil {
		t.Fatalf("expected duplicate file id to fail")
	}
	var n int64
	if err := db.Model(&domain.Order{}).Count(&n).Error; err != nil || n != 0 {
		t.Fatalf("order row left behind: %d %v", n, err)
	}
	if err := db.Model(&domain.OrderFile{}).Count(&n).Error; err != nil || n != 0 {
		t.Fatalf("file rows left behind: %d %v", n, err)
	}
}

func TestOrderRepo_LifecycleAndQueries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	packages := NewPackageRepo(db)
	orders := NewOrderRepo(db)
	users := NewUserRepo(db)
	u := seedUser(t, users, "budi@example.com")
	p := samplePackage("renewal", 50000)
	if err := packages.Create(ctx, p); err != nil {
		t.Fatalf("create package: %v", err)
	}

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		o := &domain.Order{
			UserID: u.ID, PackageID: p.ID, TotalAmount: p.Price,
			FormData:      map[string]any{"ktp_number": "317"},
			PaymentStatus: domain.PaymentPending, OrderStatus: domain.OrderRequested,
			Files:     []domain.OrderFile{{FieldName: "scan", FileName: "ktp.pdf", FileURL: "https://utfs.io/f/ktp.pdf", FileSize: 10}},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := orders.Create(ctx, o); err != nil {
			t.Fatalf("create order: %v", err)
		}
		ids = append(ids, o.ID)
	}

	ok, err := orders.TransitionPaymentStatus(ctx, ids[0], domain.PaymentPending, domain.PaymentPaid)
	if err != nil || !ok {
		t.Fatalf("transition: %v %v", ok, err)
	}
	ok, _ = orders.TransitionPaymentStatus(ctx, ids[0], domain.PaymentPending, domain.PaymentCancelled)
	if ok {
		t.Fatalf("transition from a non-pending state must not apply")
	}
	if ok, _ := orders.SetPaymentStatus(ctx, ids[1], domain.PaymentPaid); !ok {
		t.Fatalf("set payment status")
	}
	if ok, _ := orders.SetOrderStatus(ctx, ids[1], domain.OrderProcessing); !ok {
		t.Fatalf("set order status")
	}

	mine, err := orders.ListByUser(ctx, u.ID, "")
	if err != nil || len(mine) != 3 {
		t.Fatalf("list by user: %d %v", len(mine), err)
	}
	if mine[0].ID != ids[2] {
		t.Fatalf("expected newest first")
	}
	if mine[0].Package == nil || len(mine[0].Files) != 1 || mine[0].User == nil {
		t.Fatalf("details not preloaded: %+v", mine[0])
	}
	paid, _ := orders.ListByUser(ctx, u.ID, domain.PaymentPaid)
	if len(paid) != 2 {
		t.Fatalf("expected 2 paid, got %d", len(paid))
	}

	queue, err := orders.ListPaidByOrderStatus(ctx, domain.OrderProcessing)
	if err != nil || len(queue) != 1 || queue[0].ID != ids[1] {
		t.Fatalf("admin queue: %+v %v", queue, err)
	}
	requested, _ := orders.ListPaidByOrderStatus(ctx, domain.OrderRequested)
	if len(requested) != 1 || requested[0].ID != ids[0] {
		t.Fatalf("unpaid orders must stay out of the queue: %+v", requested)
	}

	if _, err := packages.SoftDelete(ctx, p.ID); err != nil {
		t.Fatalf("delete package: %v", err)
	}
	o, err := orders.Get(ctx, ids[0])
	if err != nil || o == nil || o.Package == nil || o.Package.Name != "renewal" {
		t.Fatalf("historical order lost its package: %+v %v", o, err)
	}

	sums, err := packages.ListSummaries(ctx)
	if err != nil || len(sums) != 0 {
		t.Fatalf("summaries after delete: %+v %v", sums, err)
	}
}

func TestPackageRepo_Summaries(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	packages := NewPackageRepo(db)
	orders := NewOrderRepo(db)
	u := seedUser(t, NewUserRepo(db), "sari@example.com")
	a := samplePackage("a", 10)
	b := samplePackage("b", 20)
	for _, p := range []*domain.Package{a, b} {
		if err := packages.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		o := &domain.Order{UserID: u.ID, PackageID: a.ID, TotalAmount: a.Price, PaymentStatus: domain.PaymentPending, OrderStatus: domain.OrderRequested}
		if err := orders.Create(ctx, o); err != nil {
			t.Fatalf("order: %v", err)
		}
	}
	sums, err := packages.ListSummaries(ctx)
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	sold := map[string]int64{}
	for _, s := range sums {
		sold[s.ID] = s.Sold
	}
	if sold[a.ID] != 2 || sold[b.ID] != 0 || len(sums) != 2 {
		t.Fatalf("unexpected sold counts %v", sold)
	}
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepo(newTestDB(t))
	u := seedUser(t, users, "Budi@Example.com")
	if u.Email != "budi@example.com" {
		t.Fatalf("email not normalized: %s", u.Email)
	}
	dup := &domain.User{Name: "Other", Email: "budi@example.com", PasswordHash: "y", Role: domain.RoleUser}
	if err := users.Create(ctx, dup); err != domain.ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	admin := &domain.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "z", Role: domain.RoleAdmin}
	if err := users.Create(ctx, admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	list, _ := users.ListCustomers(ctx)
	if len(list) != 1 || list[0].ID != u.ID {
		t.Fatalf("customers: %+v", list)
	}
	if ok, _ := users.SoftDelete(ctx, u.ID); !ok {
		t.Fatalf("soft delete")
	}
	if got, _ := users.Get(ctx, u.ID); got != nil {
		t.Fatalf("deleted user visible")
	}
	if got, _ := users.GetAny(ctx, u.ID); got == nil {
		t.Fatalf("GetAny should see deleted users")
	}
	if got, _ := users.GetByEmail(ctx, "ADMIN@example.com"); got == nil || got.ID != admin.ID {
		t.Fatalf("lookup by email")
	}
}
