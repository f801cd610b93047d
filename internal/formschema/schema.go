// Package formschema builds a validator for an order submission from a
// package's field definitions.
package formschema

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"taxdesk-backend/internal/domain"
	"taxdesk-backend/internal/validation"
)

// FilePendingUpload marks a FILE field whose upload is attached separately.
const FilePendingUpload = "__FILE_PENDING_UPLOAD__"

type check func(v string) string

type ruleBuilder func(f domain.PackageField) check

var rules = map[domain.FieldType]ruleBuilder{
	domain.FieldText:     nonEmpty,
	domain.FieldTextarea: nonEmpty,
	domain.FieldEmail: func(f domain.PackageField) check {
		return func(v string) string {
			if !validation.IsEmail(strings.TrimSpace(v)) {
				return "Format email tidak valid"
			}
			return ""
		}
	},
	domain.FieldPhone: func(f domain.PackageField) check {
		return func(v string) string {
			if !validPhone(v) {
				return "Nomor telepon minimal 10 digit"
			}
			return ""
		}
	},
	domain.FieldSelect: func(f domain.PackageField) check {
		allowed := make(map[string]bool, len(f.Options))
		for _, o := range f.Options {
			allowed[o] = true
		}
		return func(v string) string {
			if !allowed[v] {
				return f.FieldLabel + " tidak valid"
			}
			return ""
		}
	},
	domain.FieldDate: func(f domain.PackageField) check {
		return func(v string) string {
			if !validDate(strings.TrimSpace(v)) {
				return f.FieldLabel + " harus berupa tanggal"
			}
			return ""
		}
	},
	domain.FieldFile: func(f domain.PackageField) check {
		return func(v string) string {
			if v != FilePendingUpload {
				return "File harus diunggah"
			}
			return ""
		}
	},
}

func nonEmpty(f domain.PackageField) check {
	return func(v string) string {
		if strings.TrimSpace(v) == "" {
			return f.FieldLabel + " harus diisi"
		}
		return ""
	}
}

// validPhone wants at least 10 digits. Common separators are allowed; any
// other character rejects the number.
func validPhone(v string) bool {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "+")
	digits := 0
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(" -.()", r):
		default:
			return false
		}
	}
	return digits >= 10
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

func validDate(v string) bool {
	for _, l := range dateLayouts {
		if _, err := time.Parse(l, v); err == nil {
			return true
		}
	}
	return false
}

type compiledField struct {
	name     string
	label    string
	required bool
	check    check
}

type Schema struct {
	fields []compiledField
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	OK          bool
	Data        map[string]any
	FieldErrors map[string]string
	// Errors holds FieldErrors in field order.
	Errors []FieldError
}

// Build compiles fields into a Schema. It fails only for a field type it
// has no rule for.
func Build(fields []domain.PackageField) (*Schema, error) {
	sorted := make([]domain.PackageField, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	s := &Schema{fields: make([]compiledField, 0, len(sorted))}
	for _, f := range sorted {
		b, ok := rules[f.FieldType]
		if !ok {
			return nil, fmt.Errorf("formschema: no rule for field type %q (%s)", f.FieldType, f.FieldName)
		}
		s.fields = append(s.fields, compiledField{
			name:     f.FieldName,
			label:    f.FieldLabel,
			required: f.IsRequired,
			check:    b(f),
		})
	}
	return s, nil
}

// Validate checks every field and never stops at the first failure. Keys
// not defined by the schema are dropped from Data.
func (s *Schema) Validate(submission map[string]any) Result {
	res := Result{Data: map[string]any{}, FieldErrors: map[string]string{}}
	for _, f := range s.fields {
		raw, present := submission[f.name]
		values, msg := normalize(raw, present, f.label)
		if msg != "" {
			res.fail(f.name, msg)
			continue
		}
		if len(values) == 0 {
			if f.required {
				res.fail(f.name, f.label+" harus diisi")
			}
			continue
		}
		failed := false
		for _, v := range values {
			if m := f.check(v); m != "" {
				res.fail(f.name, m)
				failed = true
				break
			}
		}
		if failed {
			continue
		}
		if arr, ok := raw.([]any); ok {
			res.Data[f.name] = arr
		} else if arr, ok := raw.([]string); ok {
			res.Data[f.name] = arr
		} else {
			res.Data[f.name] = values[0]
		}
	}
	res.OK = len(res.Errors) == 0
	return res
}

func (r *Result) fail(field, msg string) {
	r.FieldErrors[field] = msg
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

// normalize turns a submitted value into its string values. An absent
// value, an empty string and an empty list all yield no values.
func normalize(raw any, present bool, label string) ([]string, string) {
	if !present || raw == nil {
		return nil, ""
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, ""
		}
		return []string{v}, ""
	case []string:
		return v, ""
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, label + " harus berupa teks"
			}
			out = append(out, s)
		}
		return out, ""
	default:
		return nil, label + " harus berupa teks"
	}
}

// Validate builds a schema for fields and applies it to submission.
func Validate(fields []domain.PackageField, submission map[string]any) (Result, error) {
	s, err := Build(fields)
	if err != nil {
		return Result{}, err
	}
	return s.Validate(submission), nil
}
