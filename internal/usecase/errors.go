package usecase

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"yamdb-api/internal/policy"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("you do not have permission to perform this action")
	ErrUnauthorized = errors.New("authentication credentials were not provided")
)

// NonFieldErrors is the key for validation errors not tied to one field.
const NonFieldErrors = "non_field_errors"

// ValidationError carries per-field messages keyed by json field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, key := range keys {
		msgs = append(msgs, fmt.Sprintf("%s: %s", key, e.Fields[key]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// validationErrors wraps the output of utils.ValidateStruct, nil when empty.
func validationErrors(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// decisionError turns a policy decision into the matching service error.
func decisionError(decision policy.Decision) error {
	switch decision {
	case policy.Allow:
		return nil
	case policy.DenyUnauthenticated:
		return ErrUnauthorized
	default:
		return ErrForbidden
	}
}
