package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "confsite/pkg/domain-errors"
	s "confsite/pkg/string"
)

var defaultValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(wireName)
	return v
}

// wireName reports fields by their JSON name so messages match the payload
// the client sent.
func wireName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return s.ToSnakeCase(f.Name)
	}
	return name
}

// Validate validates a struct using the default validator and returns a
// domain error carrying one message per failing field.
func Validate(req any) error {
	err := defaultValidator.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return dErrors.New(dErrors.CodeValidation, "invalid request body")
	}

	fields := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		key := fieldKey(fe)
		if _, seen := fields[key]; !seen {
			fields[key] = ErrorMessage(fe)
		}
	}
	return dErrors.NewFields(ErrorMessage(validationErrs[0]), fields)
}

// fieldKey drops the root struct name from the namespace:
// "RegisterRequest.workshop_preferences.workshop_1" -> "workshop_preferences.workshop_1".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

// ErrorMessage converts a single field error into a human-readable message.
func ErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	if field == "" {
		field = s.ToSnakeCase(fe.StructField())
	}

	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "url":
		return fmt.Sprintf("%s must be a valid url", field)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	case "eq":
		return fmt.Sprintf("%s must be %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
