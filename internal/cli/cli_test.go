package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/infrastructure/repo"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("1.2.3")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.Contains(out, "1.2.3") {
		t.Fatalf("version: %q %v", out, err)
	}
}

func TestMigrateAndCreateAdmin(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "taxdesk.db")
	common := []string{"--db-driver", "sqlite", "--db-dsn", dsn, "--log-json=false", "--log-level", "error"}

	if _, err := run(t, append([]string{"migrate"}, common...)...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	out, err := run(t, append([]string{"create-admin", "--email", "Root@Taxdesk.id", "--password", "Admin12345"}, common...)...)
	if err != nil {
		t.Fatalf("create-admin: %v", err)
	}
	id := strings.TrimSpace(out)

	db, err := repo.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()
	u, err := repo.NewUserRepo(db).GetByEmail(context.Background(), "root@taxdesk.id")
	if err != nil || u == nil || u.ID != id || u.Role != domain.RoleAdmin {
		t.Fatalf("admin not stored: %+v %v", u, err)
	}

	if _, err := run(t, append([]string{"create-admin", "--email", "root@taxdesk.id", "--password", "Admin12345"}, common...)...); err == nil {
		t.Fatalf("duplicate admin should fail")
	}
	if _, err := run(t, append([]string{"create-admin", "--email", "x@taxdesk.id", "--password", "weak"}, common...)...); err == nil {
		t.Fatalf("weak password should fail")
	}
}
