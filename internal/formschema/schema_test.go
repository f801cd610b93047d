package formschema

import (
	"testing"

	"taxdesk-backend/internal/domain"
)

func fields() []domain.PackageField {
	return []domain.PackageField{
		{FieldName: "email", FieldLabel: "Email", FieldType: domain.FieldEmail, IsRequired: true, Order: 2},
		{FieldName: "ktp_number", FieldLabel: "Nomor KTP", FieldType: domain.FieldText, IsRequired: true, Order: 0},
		{FieldName: "phone", FieldLabel: "Telepon", FieldType: domain.FieldPhone, IsRequired: true, Order: 1},
		{FieldName: "city", FieldLabel: "Kota", FieldType: domain.FieldSelect, Options: []string{"Jakarta", "Bandung"}, Order: 3},
		{FieldName: "birth", FieldLabel: "Lahir", FieldType: domain.FieldDate, Order: 4},
		{FieldName: "ktp_scan", FieldLabel: "Scan KTP", FieldType: domain.FieldFile, IsRequired: true, Order: 5},
		{FieldName: "notes", FieldLabel: "Catatan", FieldType: domain.FieldTextarea, Order: 6},
	}
}

func TestValidate_RequiredTextEmpty(t *testing.T) {
	res, err := Validate([]domain.PackageField{
		{FieldName: "ktp_number", FieldLabel: "Nomor KTP", FieldType: domain.FieldText, IsRequired: true},
	}, map[string]any{"ktp_number": ""})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.OK {
		t.Fatalf("expected failure")
	}
	if res.FieldErrors["ktp_number"] != "Nomor KTP harus diisi" {
		t.Fatalf("unexpected errors %v", res.FieldErrors)
	}
}

func TestValidate_AllFieldsChecked(t *testing.T) {
	res, err := Validate(fields(), map[string]any{
		"email": "not-an-email",
		"phone": "123",
		"city":  "Surabaya",
		"birth": "yesterday",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if res.OK {
		t.Fatalf("expected failure")
	}
	want := []string{"ktp_number", "phone", "email", "city", "birth", "ktp_scan"}
	if len(res.Errors) != len(want) {
		t.Fatalf("got %d errors %v, want %v", len(res.Errors), res.Errors, want)
	}
	for i, name := range want {
		if res.Errors[i].Field != name {
			t.Fatalf("error %d: got %s want %s", i, res.Errors[i].Field, name)
		}
	}
	if _, ok := res.FieldErrors["notes"]; ok {
		t.Fatalf("optional field should not fail")
	}
}

func TestValidate_OK(t *testing.T) {
	res, err := Validate(fields(), map[string]any{
		"ktp_number": "3174000000000001",
		"phone":      "+62 812-3456-7890",
		"email":      "budi@example.com",
		"city":       "Bandung",
		"birth":      "1990-05-17",
		"ktp_scan":   FilePendingUpload,
		"notes":      "",
		"extra":      "dropped",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected ok, got %v", res.FieldErrors)
	}
	if _, ok := res.Data["extra"]; ok {
		t.Fatalf("unknown keys must be stripped")
	}
	if _, ok := res.Data["notes"]; ok {
		t.Fatalf("empty optional value should be omitted")
	}
	if res.Data["city"] != "Bandung" {
		t.Fatalf("unexpected data %v", res.Data)
	}
}

func TestValidPhone(t *testing.T) {
	cases := map[string]bool{
		"081234567890":           true,
		"+62 812-3456-7890":      true,
		"(021) 555.1234.5":       true,
		"+62 (812) 3456.7890":    true,
		"0062 812 3456 7890 123": true,
		"0812 345":               false,
		"0812-3456-78ab":         false,
		"":                       false,
	}
	for in, want := range cases {
		if got := validPhone(in); got != want {
			t.Fatalf("validPhone(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidate_FileNeedsSentinel(t *testing.T) {
	res, _ := Validate(fields()[5:6], map[string]any{"ktp_scan": "https://utfs.io/f/abc"})
	if res.OK || res.FieldErrors["ktp_scan"] == "" {
		t.Fatalf("expected file error, got %+v", res)
	}
}

func TestValidate_StringArray(t *testing.T) {
	f := []domain.PackageField{{FieldName: "plates", FieldLabel: "Plat", FieldType: domain.FieldText, IsRequired: true}}
	res, _ := Validate(f, map[string]any{"plates": []any{"B 1234 CD", "D 99 XY"}})
	if !res.OK {
		t.Fatalf("expected ok, got %v", res.FieldErrors)
	}
	res, _ = Validate(f, map[string]any{"plates": []any{"B 1234 CD", 7}})
	if res.OK {
		t.Fatalf("expected non-string element to fail")
	}
	res, _ = Validate(f, map[string]any{"plates": []any{}})
	if res.OK {
		t.Fatalf("expected empty list to fail a required field")
	}
}

func TestBuild_UnknownType(t *testing.T) {
	_, err := Build([]domain.PackageField{{FieldName: "n", FieldType: "NUMBER"}})
	if err == nil {
		t.Fatalf("expected error for unknown field type")
	}
}
