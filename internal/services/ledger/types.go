package ledger

import (
	"errors"
	"time"

	"github.com/fastprodman/cashcow/internal/repos/accounts"
)

var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrInvalidAccount = errors.New("account id required")
	// ErrInsufficientFunds is the repo sentinel, re-exported for callers of the service.
	ErrInsufficientFunds = accounts.ErrInsufficientFunds
)

type DepositReceipt struct {
	ID        string
	AccountID string
	Amount    int64
	Balance   int64
	CreatedAt time.Time
}
