package pgutils

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastprodman/cashcow/pkg/retry"
)

var (
	// ErrConcurrencyConflict is a transient failure: a transaction kept
	// losing to concurrent writers. Callers may retry later.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrPersistence means the storage layer failed or was unreachable.
	ErrPersistence = errors.New("persistence failure")
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeInvalidTextRepr      = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

func IsUniqueViolation(err error) bool { return pgCode(err) == codeUniqueViolation }

func IsForeignKeyViolation(err error) bool { return pgCode(err) == codeForeignKeyViolation }

func IsCheckViolation(err error) bool { return pgCode(err) == codeCheckViolation }

// IsInvalidText reports malformed input such as a non-UUID id.
func IsInvalidText(err error) bool { return pgCode(err) == codeInvalidTextRepr }

// IsRetryable reports errors worth running the whole transaction again for.
func IsRetryable(err error) bool {
	switch pgCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	default:
		return false
	}
}

// Classify marks exhausted retries as ErrConcurrencyConflict and driver
// failures as ErrPersistence. Anything else (domain sentinels, context
// errors) is returned unchanged.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, retry.ErrExhausted):
		return fmt.Errorf("%w: %w", ErrConcurrencyConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case pgCode(err) != "", errors.Is(err, sql.ErrConnDone), errors.Is(err, sql.ErrTxDone), isConnectError(err):
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	default:
		return err
	}
}

func isConnectError(err error) bool {
	var (
		connErr *pgconn.ConnectError
		netErr  net.Error
	)

	return errors.As(err, &connErr) || errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn)
}
