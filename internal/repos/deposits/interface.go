package deposits

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrDuplicateRequest = errors.New("duplicate deposit request")
	ErrUnknownAccount   = errors.New("deposit for unknown account")
)

// Request is one audit record of a completed deposit.
type Request struct {
	ID               string
	AccountID        string
	Amount           int64
	ResultingBalance int64
	CreatedAt        time.Time
}

type Deposits interface {
	Insert(ctx context.Context, tx *sql.Tx, req Request) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]Request, error)
}
