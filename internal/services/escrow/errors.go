package escrow

import (
	"errors"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/accounts"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

var (
	ErrInvalidInput           = errors.New("invalid purchase request")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	ErrInsufficientFunds   = accounts.ErrInsufficientFunds
	ErrPurchaseNotFound    = purchases.ErrPurchaseNotFound
	ErrConcurrencyConflict = pgutils.ErrConcurrencyConflict
	ErrPersistence         = pgutils.ErrPersistence
)
