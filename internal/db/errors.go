package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotProvisioned marks errors caused by a table that does not exist yet. Optional
// features (report configuration, report selections) degrade to defaults on it.
var ErrNotProvisioned = errors.New("feature not provisioned")

// Postgres SQLSTATE codes inspected by this package.
const (
	codeUndefinedTable  = "42P01"
	codeUniqueViolation = "23505"
)

// MissingTableError reports that a query hit an undefined table.
type MissingTableError struct {
	Table string
	Cause error
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("table %s is not provisioned: %v", e.Table, e.Cause)
}

func (e *MissingTableError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrNotProvisioned) match.
func (e *MissingTableError) Is(target error) bool {
	return target == ErrNotProvisioned
}

// classify converts an undefined-table error into a MissingTableError and wraps
// everything else with the operation description.
func classify(table, op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable {
		return &MissingTableError{Table: table, Cause: err}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}
