package domain

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
)

// ValidationError lists every offending field, not only the first.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg, Fields: map[string][]string{}}
}

func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) HasErrors() bool { return len(e.Fields) > 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	if len(parts) == 0 {
		return e.Message
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

type NotFoundError struct{ Resource string }

func (e *NotFoundError) Error() string { return e.Resource + " not found" }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(resource string) error { return &NotFoundError{Resource: resource} }

type AuthError struct {
	Status  int // 401 or 403
	Message string
}

func (e *AuthError) Error() string { return e.Message }

func Unauthenticated(msg string) error {
	return &AuthError{Status: http.StatusUnauthorized, Message: msg}
}
func Forbidden(msg string) error { return &AuthError{Status: http.StatusForbidden, Message: msg} }

// DependencyError wraps a store or blob failure. Op is safe to show callers;
// Err is for logs only.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *DependencyError) Unwrap() error { return e.Err }

func Dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		de *DependencyError
		ve *ValidationError
		ae *AuthError
	)
	if errors.Is(err, ErrNotFound) || errors.As(err, &de) || errors.As(err, &ve) || errors.As(err, &ae) {
		return err
	}
	return &DependencyError{Op: op, Err: err}
}
