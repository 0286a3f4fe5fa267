// Package validate checks request payloads before they leave the client and
// decoded responses before they reach callers.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/ecotour/internal/errs"
)

var std = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates s against its `validate` tags and returns an
// *errs.ValidationError listing every failed field.
func Struct(s any) error {
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		out := &errs.ValidationError{Fields: make([]errs.FieldError, 0, len(fields))}
		for _, fe := range fields {
			out.Fields = append(out.Fields, errs.FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		return out
	}
	return fmt.Errorf("validate: %w", err)
}

// Validator is implemented by wire types that can check their own shape.
type Validator interface {
	Validate() error
}

// Decoded checks a freshly decoded response value. out is the pointer passed
// to the decoder; a pointer to a slice has each element checked.
func Decoded(out any) error {
	if v, ok := out.(Validator); ok {
		return v.Validate()
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil
	}
	el := rv.Elem()
	if el.Kind() != reflect.Slice {
		return nil
	}
	for i := 0; i < el.Len(); i++ {
		item := el.Index(i)
		var candidate any
		if item.Kind() == reflect.Pointer {
			if item.IsNil() {
				return fmt.Errorf("item %d: null record", i)
			}
			candidate = item.Interface()
		} else {
			candidate = item.Addr().Interface()
		}
		if v, ok := candidate.(Validator); ok {
			if err := v.Validate(); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
	}
	return nil
}
