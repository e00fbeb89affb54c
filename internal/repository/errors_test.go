package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslatePgError(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), ErrNotFound},
		{"unique", &pgconn.PgError{Code: pgUniqueViolation}, ErrDuplicate},
		{"foreign key", &pgconn.PgError{Code: pgForeignKeyViolation}, ErrInUse},
		{"numeric overflow", &pgconn.PgError{Code: pgNumericOutOfRange, Message: "numeric field overflow"}, ErrOutOfRange},
		{"check", &pgconn.PgError{Code: pgCheckViolation}, ErrOutOfRange},
		{"other", boom, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translatePgError(tt.err), tt.want)
		})
	}
	assert.NoError(t, translatePgError(nil))
}
