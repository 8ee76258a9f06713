package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

const defaultLimit = 50

func (s *EscrowService) GetPurchase(ctx context.Context, purchaseID string) (Purchase, error) {
	p, err := s.purchases.Get(ctx, purchaseID)
	if err != nil {
		return Purchase{}, fmt.Errorf("get purchase: %w", pgutils.Classify(err))
	}

	out := view(p, nil)
	s.attachEscrow(ctx, &out)

	return out, nil
}

// ListPurchases lists the user's purchases as buyer or as seller, newest first.
func (s *EscrowService) ListPurchases(ctx context.Context, userID string, role Role, limit int) ([]Purchase, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		list []purchases.Purchase
		err  error
	)

	switch role {
	case RoleBuyer:
		list, err = s.purchases.ListByBuyer(ctx, userID, limit)
	case RoleSeller:
		list, err = s.purchases.ListBySeller(ctx, userID, limit)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", pgutils.Classify(err))
	}

	return views(list), nil
}

// ListHeldBefore returns held purchases whose last transition is older than cutoff.
func (s *EscrowService) ListHeldBefore(ctx context.Context, cutoff time.Time, limit int) ([]Purchase, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	list, err := s.purchases.ListByStatusBefore(ctx, purchases.StatusHeld, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list held purchases: %w", pgutils.Classify(err))
	}

	return views(list), nil
}

func views(list []purchases.Purchase) []Purchase {
	out := make([]Purchase, 0, len(list))
	for _, p := range list {
		out = append(out, view(p, nil))
	}

	return out
}
