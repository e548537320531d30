package writer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestStoreErrClassification(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"plain error", errors.New("connection refused"), true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, true},
		{"truncated code", &pgconn.PgError{Code: "4"}, true},
		{"empty code", &pgconn.PgError{}, true},
		{"numeric overflow", &pgconn.PgError{Code: "22003"}, false},
		{"not null violation", &pgconn.PgError{Code: "23502"}, false},
		{"undefined column", &pgconn.PgError{Code: "42703"}, false},
	}
	for _, c := range cases {
		se := storeErr("coins", c.err)
		if se.IsRetryable() != c.retryable {
			t.Errorf("%s: IsRetryable() = %v, want %v", c.name, se.IsRetryable(), c.retryable)
		}
		if se.Table != "coins" {
			t.Errorf("%s: table not recorded: %s", c.name, se.Table)
		}
	}
}

func TestStoreErrWrapsCause(t *testing.T) {
	cause := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	se := storeErr("global_metrics", fmt.Errorf("insert: %w", cause))

	var pgErr *pgconn.PgError
	if !errors.As(se, &pgErr) {
		t.Fatal("wrapped pg error should stay reachable via errors.As")
	}
	if se.IsRetryable() {
		t.Error("unique violation must not be retryable")
	}
}
