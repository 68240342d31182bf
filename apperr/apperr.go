// Package apperr defines the error taxonomy shared by the storage engines, the
// auth manager and the request handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrAuthentication is returned for any credential mismatch. It never says
	// whether the user exists.
	ErrAuthentication = errors.New("invalid username or password")

	// ErrUnauthorized is returned when a protected action has no bound session
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a referenced entity does not exist
	ErrNotFound = errors.New("not found")
)

// ValidationError lists every field that failed validation, not just the first.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConstraintViolation is a uniqueness or business-rule breach
type ConstraintViolation struct {
	Constraint string
	Message    string
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint %s violated: %s", e.Constraint, e.Message)
}

// InternalConsistencyError means referential integrity or a uniqueness
// invariant was found broken at read time. It must never be swallowed.
type InternalConsistencyError struct {
	Entity string
	ID     string
	Detail string
}

func (e *InternalConsistencyError) Error() string {
	return fmt.Sprintf("internal consistency error on %s %s: %s", e.Entity, e.ID, e.Detail)
}

func Conflict(constraint, msg string) error {
	return &ConstraintViolation{Constraint: constraint, Message: msg}
}

func Inconsistent(entity, id, detail string) error {
	return &InternalConsistencyError{Entity: entity, ID: id, Detail: detail}
}

// NotFound wraps ErrNotFound with the entity that was looked up
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Status maps an error to the HTTP status code a handler should respond with
func Status(err error) int {
	var ve *ValidationError
	var cv *ConstraintViolation
	var ice *InternalConsistencyError

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &cv):
		if cv.Constraint == ConstraintSelfFollow {
			return http.StatusBadRequest
		}
		return http.StatusConflict
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ice):
		return http.StatusInternalServerError
	}

	return http.StatusInternalServerError
}

// Constraint names
const (
	ConstraintUniqueUsername = "unique_username"
	ConstraintUniqueEmail    = "unique_email"
	ConstraintUniqueLike     = "unique_like"
	ConstraintUniqueFollow   = "unique_follow"
	ConstraintSelfFollow     = "no_self_follow"
)
