package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies the failure class of a pipeline run. Every failure
// path resolves to exactly one of these; callers map them to their own
// surface (HTTP status, user copy, upgrade prompt).
type Code string

const (
	CodeLimitReached     Code = "LIMIT_REACHED"
	CodeModelUnavailable Code = "MODEL_UNAVAILABLE"
	CodeMalformedOutput  Code = "MALFORMED_OUTPUT"
	CodeValidationError  Code = "VALIDATION_ERROR"
)

// ErrModelUnavailable signals a backend-level failure: network error,
// timeout, non-success response or a broken stream. The pipeline does
// not retry; the caller decides whether to resubmit.
var ErrModelUnavailable = errors.New("model backend unavailable")

// LimitReachedError is returned when the entitlement check denies the
// run before any model call is made. Distinct from the other failures
// so callers can show an upgrade prompt instead of a generic error.
type LimitReachedError struct {
	Limit int // transactions allowed this period
}

func (e *LimitReachedError) Error() string {
	return fmt.Sprintf("transaction limit of %d reached for this period", e.Limit)
}

// MalformedOutputError means the model produced no extractable JSON, or
// JSON without the expected envelope. The underlying parse error, when
// present, is preserved for diagnostics.
type MalformedOutputError struct {
	Reason string
	Err    error
}

func (e *MalformedOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed model output: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed model output: %s", e.Reason)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// FieldError is one violated field in a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError enumerates every field of the model output that
// violated the transaction contract. Field-level detail is for internal
// diagnostics only, never shown raw to end users.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "model output failed validation: " + strings.Join(msgs, "; ")
}

// CodeOf maps a pipeline error onto its failure code. Unknown errors
// (infrastructure failures outside the taxonomy) return an empty Code.
func CodeOf(err error) Code {
	var limitErr *LimitReachedError
	var malformedErr *MalformedOutputError
	var validationErr *ValidationError

	switch {
	case errors.As(err, &limitErr):
		return CodeLimitReached
	case errors.Is(err, ErrModelUnavailable):
		return CodeModelUnavailable
	case errors.As(err, &malformedErr):
		return CodeMalformedOutput
	case errors.As(err, &validationErr):
		return CodeValidationError
	default:
		return ""
	}
}
