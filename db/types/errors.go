package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "modernc.org/sqlite/lib"
)

// UnknownRevisionError indicates that a revision token doesn't exist in the
// migration chain.
type UnknownRevisionError struct {
	Revision string
}

// Error returns a string representation of the error.
func (e UnknownRevisionError) Error() string {
	return fmt.Sprintf("unknown revision '%s'", e.Revision)
}

// AmbiguousHeadError indicates that more than one migration claims to be the
// head of the chain, i.e. the chain branched without a declared merge.
type AmbiguousHeadError struct {
	Revisions []string
}

// Error returns a string representation of the error.
func (e AmbiguousHeadError) Error() string {
	return fmt.Sprintf("ambiguous head: revisions %s have no successor",
		strings.Join(e.Revisions, ", "))
}

// ConstraintViolationError indicates that the store rejected a structural
// operation because dependent data or referential constraints still exist.
type ConstraintViolationError struct {
	Revision string
	Err      error
}

// Error returns a string representation of the error.
func (e ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint violation in revision '%s': %s", e.Revision, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e ConstraintViolationError) Unwrap() error {
	return e.Err
}

// LockHeldError indicates that another migration run holds the schema lock.
type LockHeldError struct {
	Owner      string
	AcquiredAt time.Time
}

// Error returns a string representation of the error.
func (e LockHeldError) Error() string {
	return fmt.Sprintf("schema lock is held by runner %s since %s",
		e.Owner, e.AcquiredAt.Format(time.RFC3339))
}

// StepError indicates that a migration step failed. The chain is aborted at
// the failing revision; the recorded current revision is unchanged past the
// last durable step.
type StepError struct {
	Revision string
	Err      error
}

// Error returns a string representation of the error.
func (e StepError) Error() string {
	return fmt.Sprintf("revision '%s' failed: %s", e.Revision, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e StepError) Unwrap() error {
	return e.Err
}

// Err converts an expected error returned by the store into a friendly DB
// error of one of the types defined above.
func Err(revision string, err error) error {
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT,
			sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
			sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			sqlite3.SQLITE_CONSTRAINT_TRIGGER:
			return ConstraintViolationError{Revision: revision, Err: err}
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 23: integrity constraint violation. 2BP01: dependent objects
		// still exist, which PostgreSQL raises on DROP TABLE of a referenced
		// parent.
		if strings.HasPrefix(pgErr.Code, "23") || pgErr.Code == "2BP01" {
			return ConstraintViolationError{Revision: revision, Err: err}
		}
	}

	return StepError{Revision: revision, Err: err}
}
