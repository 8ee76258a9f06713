package escrowrecords

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrRecordNotFound = errors.New("escrow record not found")
	// ErrDuplicateRecord is returned when the purchase already has a record.
	ErrDuplicateRecord = errors.New("escrow record already exists")
	ErrStatusMismatch  = errors.New("escrow record status mismatch")
)

type Status string

const (
	StatusHeld     Status = "held"
	StatusReleased Status = "released"
	StatusRefunded Status = "refunded"
)

type Record struct {
	ID         string
	PurchaseID string
	Amount     int64
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type EscrowRecords interface {
	Insert(ctx context.Context, tx *sql.Tx, rec Record) error
	GetByPurchase(ctx context.Context, purchaseID string) (Record, error)
	// CompareAndSetStatus returns the updated record so callers move exactly
	// the amount that was held.
	CompareAndSetStatus(ctx context.Context, tx *sql.Tx, purchaseID string, from, to Status, at time.Time) (Record, error)
}
