package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	validatorv10 "github.com/go-playground/validator/v10"

	"taxdesk-backend/internal/domain"
)

var fieldNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New returns a validator with the package input rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("fieldname", func(fl validatorv10.FieldLevel) bool {
		return fieldNameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("fieldtype", func(fl validatorv10.FieldLevel) bool {
		return domain.FieldType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("hasupper", func(fl validatorv10.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if unicode.IsUpper(r) {
				return true
			}
		}
		return false
	})
	v.RegisterStructValidation(packageStructValidation, domain.PackageInput{})
	return v
}

// packageStructValidation rejects duplicate field names and options on
// anything but SELECT fields.
func packageStructValidation(sl validatorv10.StructLevel) {
	in := sl.Current().Interface().(domain.PackageInput)
	seen := make(map[string]bool, len(in.Fields))
	for i, f := range in.Fields {
		name := strings.TrimSpace(f.FieldName)
		if name != "" && seen[name] {
			sl.ReportError(f.FieldName, fmt.Sprintf("requiredFields[%d].fieldName", i), "FieldName", "unique", "")
		}
		seen[name] = true
		isSelect := f.FieldType == domain.FieldSelect
		if isSelect && len(f.Options) == 0 {
			sl.ReportError(f.Options, fmt.Sprintf("requiredFields[%d].options", i), "Options", "select_options", "")
		}
		if !isSelect && len(f.Options) > 0 {
			sl.ReportError(f.Options, fmt.Sprintf("requiredFields[%d].options", i), "Options", "no_options", "")
		}
	}
}

// Fields flattens validator errors into a map keyed by JSON path.
func Fields(err error) map[string]string {
	out := map[string]string{}
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range ve {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		out[key] = message(fe)
	}
	return out
}

func message(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item(s)"
		}
		return "must be at least " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "fieldname":
		return "must start with a letter or underscore and contain only letters, digits and underscores"
	case "fieldtype":
		return "must be one of " + joinFieldTypes()
	case "unique":
		return "must be unique within the package"
	case "select_options":
		return "SELECT fields need at least one option"
	case "no_options":
		return "only SELECT fields may have options"
	case "hasupper":
		return "must contain at least one uppercase letter"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func joinFieldTypes() string {
	parts := make([]string, 0, len(domain.FieldTypes))
	for _, t := range domain.FieldTypes {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

var defaultValidator = New()

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return defaultValidator.Var(s, "required,email") == nil
}
