package validation

import (
	"testing"

	"taxdesk-backend/internal/domain"
)

func validInput() domain.PackageInput {
	return domain.PackageInput{
		Name:        "Tax Renewal",
		Image:       "https://utfs.io/f/renewal.png",
		Description: "Annual vehicle tax renewal",
		Price:       50000,
		Fields: []domain.PackageFieldInput{
			{FieldName: "ktp_number", FieldLabel: "Nomor KTP", FieldType: domain.FieldText, IsRequired: true, Order: 0},
			{FieldName: "city", FieldLabel: "Kota", FieldType: domain.FieldSelect, Options: []string{"Jakarta", "Bandung"}, Order: 1},
		},
	}
}

func TestPackageInput_Valid(t *testing.T) {
	if err := New().Struct(validInput()); err != nil {
		t.Fatalf("expected valid, got %v", Fields(err))
	}
}

func TestPackageInput_DuplicateFieldName(t *testing.T) {
	in := validInput()
	in.Fields[1].FieldName = "ktp_number"
	in.Fields[1].FieldType = domain.FieldText
	in.Fields[1].Options = nil
	err := New().Struct(in)
	if err == nil {
		t.Fatalf("expected duplicate error")
	}
	f := Fields(err)
	if _, ok := f["requiredFields[1].fieldName"]; !ok {
		t.Fatalf("expected requiredFields[1].fieldName in %v", f)
	}
}

func TestPackageInput_SelectOptions(t *testing.T) {
	in := validInput()
	in.Fields[1].Options = nil
	err := New().Struct(in)
	if err == nil {
		t.Fatalf("expected select options error")
	}
	if _, ok := Fields(err)["requiredFields[1].options"]; !ok {
		t.Fatalf("unexpected fields %v", Fields(err))
	}

	in = validInput()
	in.Fields[0].Options = []string{"x"}
	if err := New().Struct(in); err == nil {
		t.Fatalf("expected options on TEXT field to be rejected")
	}
}

func TestPackageInput_FieldRules(t *testing.T) {
	cases := map[string]func(*domain.PackageInput){
		"bad identifier": func(in *domain.PackageInput) { in.Fields[0].FieldName = "1abc" },
		"long name":      func(in *domain.PackageInput) { in.Fields[0].FieldName = "abcdefghijklmnopqrstu" },
		"bad type":       func(in *domain.PackageInput) { in.Fields[0].FieldType = "NUMBER" },
		"negative price": func(in *domain.PackageInput) { in.Price = -1 },
		"no fields":      func(in *domain.PackageInput) { in.Fields = nil },
		"negative order": func(in *domain.PackageInput) { in.Fields[0].Order = -1 },
		"missing image":  func(in *domain.PackageInput) { in.Image = "" },
	}
	for name, mutate := range cases {
		in := validInput()
		mutate(&in)
		if err := New().Struct(in); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestIsEmail(t *testing.T) {
	if !IsEmail("budi@example.com") {
		t.Fatalf("expected valid email")
	}
	if IsEmail("budi@") || IsEmail("") {
		t.Fatalf("expected invalid email")
	}
}
