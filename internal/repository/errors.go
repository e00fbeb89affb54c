package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a row or document does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("record already exists")
	// ErrInUse is returned when a delete is blocked by dependent rows.
	ErrInUse = errors.New("record is referenced by other records")
	// ErrStaleStatus is returned by a compare-and-set whose expected status
	// no longer matches the stored one.
	ErrStaleStatus = errors.New("stored status differs from expected status")
	// ErrOutOfRange is returned when a value does not fit its column or
	// fails a CHECK constraint.
	ErrOutOfRange = errors.New("value out of range")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNumericOutOfRange   = "22003"
)

// translatePgError maps driver errors onto the package sentinels.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			return ErrInUse
		case pgCheckViolation, pgNumericOutOfRange:
			return fmt.Errorf("%w: %s", ErrOutOfRange, pgErr.Message)
		}
	}
	return err
}
