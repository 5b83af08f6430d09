// Package service holds the booking engine: availability, the booking
// conflict guard and lifecycle, bulk schedule generation and the slot
// catalog.  Services depend on small store interfaces so that handlers
// and tests can swap the MySQL repositories for other implementations.
package service

import (
	"errors"
	"sort"
	"strings"
)

// Error kinds.  Handlers map them onto HTTP status codes with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrNoValidSchedules = errors.New("no valid schedules to create")
)

// Error carries a client-facing message and unwraps to one of the kinds
// above.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func notFound(msg string) error  { return &Error{Kind: ErrNotFound, Message: msg} }
func forbidden(msg string) error { return &Error{Kind: ErrForbidden, Message: msg} }
func conflict(msg string) error  { return &Error{Kind: ErrConflict, Message: msg} }

// ValidationError reports invalid input.  Fields maps a JSON field path to
// a message.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// fieldErrors accumulates per-field problems while validating an input.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err(msg string) error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Message: msg, Fields: f}
}

func invalid(field, msg string) error {
	return &ValidationError{Message: msg, Fields: map[string]string{field: msg}}
}
