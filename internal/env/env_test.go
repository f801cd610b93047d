package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	doc := `
# comment
TAXDESK_ENV=prod
export TAXDESK_HTTP_PORT = 8080 # inline
TAXDESK_AUTH_JWT_SECRET="s3cret # kept"
TAXDESK_MAIL_FROM_NAME='Tax Desk'
`
	got, err := Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][2]string{
		{"TAXDESK_ENV", "prod"},
		{"TAXDESK_HTTP_PORT", "8080"},
		{"TAXDESK_AUTH_JWT_SECRET", "s3cret # kept"},
		{"TAXDESK_MAIL_FROM_NAME", "Tax Desk"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: got %v want %v", i, got[i], want[i])
		}
	}
	if _, err := Parse(strings.NewReader("not a pair")); err == nil {
		t.Fatalf("expected error for malformed line")
	}
}

func TestLoadKeepsExistingEnvironment(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".env")
	if err := os.WriteFile(p, []byte("TAXDESK_TEST_A=file\nTAXDESK_TEST_B=file\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TAXDESK_TEST_A", "process")
	t.Setenv("TAXDESK_TEST_B", "")
	os.Unsetenv("TAXDESK_TEST_B")

	set, err := Load(filepath.Join(dir, "missing.env"), p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(set) != 1 || set[0] != "TAXDESK_TEST_B" {
		t.Fatalf("set %v", set)
	}
	if os.Getenv("TAXDESK_TEST_A") != "process" || os.Getenv("TAXDESK_TEST_B") != "file" {
		t.Fatalf("unexpected env A=%q B=%q", os.Getenv("TAXDESK_TEST_A"), os.Getenv("TAXDESK_TEST_B"))
	}
}
