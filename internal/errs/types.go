package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// User-facing fallbacks.
const (
	MsgNetwork = "Unable to reach the server, please check your connection."
	MsgGeneric = "Something went wrong, please try again."
)

// RequestError is returned by the HTTP client for every failed call.
// Status is 0 when no HTTP response was received.
type RequestError struct {
	Method  string
	Path    string
	Status  int
	Message string // backend-supplied message, may be empty
	Err     error  // underlying cause (transport or decode error), may be nil
}

func (e *RequestError) Error() string {
	var b strings.Builder
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.Path)
	}
	if e.Status == 0 {
		b.WriteString("request failed")
	} else {
		fmt.Fprintf(&b, "status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *RequestError) Unwrap() []error {
	out := []error{e.kind()}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func (e *RequestError) kind() error {
	switch {
	case e.Status == 0:
		return ErrNetwork
	case e.Status >= 200 && e.Status < 300:
		return ErrBadResponse
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrAlreadyExists
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrBackend
	}
}

// FieldError describes one failed client-side check.
type FieldError struct {
	Field string
	Rule  string
}

func (f FieldError) String() string {
	if f.Rule == "" {
		return f.Field
	}
	return f.Field + " (" + f.Rule + ")"
}

// ValidationError blocks a submission before any network call.
type ValidationError struct {
	Fields []FieldError
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, rule string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "validation: invalid " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnavailableError is returned when an availability check refuses a slot.
type UnavailableError struct {
	Reason string
}

func (e *UnavailableError) Error() string {
	if e.Reason == "" {
		return ErrSlotUnavailable.Error()
	}
	return ErrSlotUnavailable.Error() + ": " + e.Reason
}

func (e *UnavailableError) Unwrap() error { return ErrSlotUnavailable }

// UserMessage renders err as text suitable for showing to an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			parts = append(parts, f.Field)
		}
		return "Please check the following fields: " + strings.Join(parts, ", ")
	}
	var ue *UnavailableError
	if errors.As(err, &ue) {
		if ue.Reason != "" {
			return ue.Reason
		}
		return "This slot is not available."
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Please sign in first."
	case errors.Is(err, ErrSessionSuperseded):
		return "You have been signed out."
	}
	var re *RequestError
	if errors.As(err, &re) {
		if re.Status == 0 {
			return MsgNetwork
		}
		if re.Message != "" {
			return re.Message
		}
	}
	return MsgGeneric
}
