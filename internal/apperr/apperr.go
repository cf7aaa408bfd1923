// Package apperr defines the error taxonomy shared by upstream clients and
// the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a valid empty result, e.g. no geocoding match.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + ": not found"
}

// UpstreamError reports a non-2xx provider response or a transport failure.
// Status is 0 when no response was received.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	var b strings.Builder
	b.WriteString(e.Service)
	if e.Status != 0 {
		fmt.Fprintf(&b, " returned status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// ValidationError reports missing or incomplete locally-required fields.
type ValidationError struct {
	Message  string
	Required []string
}

func (e *ValidationError) Error() string {
	if len(e.Required) == 0 {
		return e.Message
	}
	return e.Message + " (required: " + strings.Join(e.Required, ", ") + ")"
}

// ParseError reports a provider or LLM body that is not valid JSON or does
// not match any known shape. Raw carries the body for diagnostics and
// Status the provider's HTTP status, when there was one.
type ParseError struct {
	Service string
	Status  int
	Raw     string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return e.Service + ": unparseable response"
	}
	return e.Service + ": unparseable response: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// NotFound builds a NotFoundError.
func NotFound(what string) error {
	return &NotFoundError{What: what}
}

// Invalid builds a ValidationError.
func Invalid(msg string, required ...string) error {
	return &ValidationError{Message: msg, Required: required}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
