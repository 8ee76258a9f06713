package purchases

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrPurchaseNotFound = errors.New("purchase not found")
	// ErrStatusMismatch means the row was not in the expected status when
	// a compare-and-set ran.
	ErrStatusMismatch = errors.New("purchase status mismatch")
	// ErrInvalidPurchase means the row broke a table constraint, such as a
	// buyer buying from themselves.
	ErrInvalidPurchase = errors.New("purchase violates a constraint")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusHeld     Status = "held"
	StatusReleased Status = "released"
	StatusRefunded Status = "refunded"
	StatusFailed   Status = "failed"
)

type Purchase struct {
	ID          string
	BuyerID     string
	SellerID    string
	ProductName string
	Price       int64
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Purchases interface {
	Insert(ctx context.Context, tx *sql.Tx, p Purchase) error
	Get(ctx context.Context, id string) (Purchase, error)
	// GetForUpdate locks the row until tx ends.
	GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (Purchase, error)
	CompareAndSetStatus(ctx context.Context, tx *sql.Tx, id string, from, to Status, at time.Time) error
	ListByBuyer(ctx context.Context, buyerID string, limit int) ([]Purchase, error)
	ListBySeller(ctx context.Context, sellerID string, limit int) ([]Purchase, error)
	// ListByStatusBefore returns the oldest purchases in status whose last
	// update is before cutoff.
	ListByStatusBefore(ctx context.Context, status Status, cutoff time.Time, limit int) ([]Purchase, error)
}
