// Package validation checks request forms before anything reaches the network.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
}

// Error is a local validation failure. Message is shown to the user; Fields
// maps json field names to a short reason.
type Error struct {
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

func New(field, message string) *Error {
	return &Error{Message: message, Fields: map[string]string{field: "is invalid"}}
}

// Struct validates v's `validate` tags. On failure it returns an *Error
// carrying message and the per-field reasons.
func Struct(v any, message string) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	out := &Error{Message: message, Fields: make(map[string]string, len(fieldErrors))}
	for _, fe := range fieldErrors {
		out.Fields[fe.Field()] = reason(fe)
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	default:
		return "is invalid"
	}
}
