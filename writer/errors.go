package writer

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// StoreError describes a rejected write against the storage backend.
// Retryable marks connectivity-class failures; constraint violations and
// records rejected by the schema are permanent for this tick.
type StoreError struct {
	Table     string
	Retryable bool
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a later attempt may succeed.
func (e *StoreError) IsRetryable() bool {
	return e.Retryable
}

// storeErr wraps a backend error, classifying it as retryable unless the
// server rejected the data itself (integrity violations, bad syntax or
// schema mismatches).
func storeErr(table string, err error) *StoreError {
	retryable := true

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "22", "23", "42":
			// data exception, integrity constraint violation, schema errors
			retryable = false
		}
	}

	return &StoreError{Table: table, Retryable: retryable, Err: err}
}
