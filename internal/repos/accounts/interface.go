package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type EntryKind string

const (
	EntryDeposit  EntryKind = "deposit"
	EntryReserve  EntryKind = "reserve"
	EntryRelease  EntryKind = "release"
	EntryRefund   EntryKind = "refund"
	EntryReversal EntryKind = "reversal"
)

// Entry is one append-only ledger line. Delta is negative for reservations.
type Entry struct {
	ID           string
	AccountID    string
	Kind         EntryKind
	Delta        int64
	BalanceAfter int64
	Reference    string
	CreatedAt    time.Time
}

type Accounts interface {
	// GetBalance returns 0 for accounts that have no row yet.
	GetBalance(ctx context.Context, accountID string) (int64, error)
	// IncreaseBalance creates the account on first credit and returns the new balance.
	IncreaseBalance(ctx context.Context, tx *sql.Tx, accountID string, amount int64) (int64, error)
	// DecreaseBalance debits only when balance >= amount, else ErrInsufficientFunds.
	DecreaseBalance(ctx context.Context, tx *sql.Tx, accountID string, amount int64) (int64, error)
	AppendEntry(ctx context.Context, tx *sql.Tx, entry Entry) error
	ListEntries(ctx context.Context, accountID string, limit int) ([]Entry, error)
}
