// Package apierror provides standardized error response structures for the API
// plus the domain error taxonomy shared by all services. All errors returned to
// clients go through this package to ensure consistency and to prevent leaking
// internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"fmt"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}

// ── Domain error taxonomy ────────────────────────────────────────────────────

// Kind classifies a domain error so handlers can map it to an HTTP status
// without string matching.
type Kind int

const (
	KindInternal          Kind = iota // unclassified — 500
	KindValidation                    // missing/malformed required fields — 400
	KindNotFound                      // referenced entity does not exist — 404/400
	KindState                         // operation invalid from current status — 400
	KindInsufficientStock             // stock would go negative — 400
	KindConflict                      // duplicate unique key — 400
)

// Error is the domain error carried from services up to handlers.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Statef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

func InsufficientStockf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInsufficientStock, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from any error in the chain; plain errors are
// KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
