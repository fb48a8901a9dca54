package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned by writes that matched no row. Reads return
	// nil, nil instead.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate wraps unique constraint violations.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReference wraps foreign key violations.
	ErrReference = errors.New("referenced record does not exist")
)

// Unique constraints the services tell apart.
const (
	ConstraintUsername          = "users_username_lower_key"
	ConstraintEmail             = "users_email_lower_key"
	ConstraintCategorySlug      = "categories_slug_key"
	ConstraintGenreSlug         = "genres_slug_key"
	ConstraintReviewAuthorTitle = "reviews_author_title_key"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ConstraintError reports which constraint a write violated. It matches
// ErrDuplicate or ErrReference with errors.Is.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s)", e.Kind, e.Constraint)
}

func (e *ConstraintError) Is(target error) bool {
	return target == e.Kind
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// ConstraintName returns the violated constraint carried by err, or "".
func ConstraintName(err error) string {
	var constraintErr *ConstraintError
	if errors.As(err, &constraintErr) {
		return constraintErr.Constraint
	}
	return ""
}

// mapPgError converts constraint violations into ConstraintError and leaves
// everything else untouched.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return &ConstraintError{Kind: ErrDuplicate, Constraint: pgErr.ConstraintName, Err: err}
	case pgForeignKeyViolation:
		return &ConstraintError{Kind: ErrReference, Constraint: pgErr.ConstraintName, Err: err}
	}
	return err
}
