package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

type ReconcileOptions struct {
	// HoldWindow is how long a purchase may stay held before it is refunded.
	HoldWindow time.Duration
	// PendingGrace is how long a purchase may stay pending before it is compensated.
	PendingGrace time.Duration
	Batch        int
}

type ReconcileResult struct {
	Refunded    int
	Compensated int
}

// FailStalePending compensates pending purchases older than olderThan. Those
// are left behind when both the escrow hold and its compensation failed.
func (s *EscrowService) FailStalePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	stale, err := s.purchases.ListByStatusBefore(ctx, purchases.StatusPending, s.now().Add(-olderThan), limit)
	if err != nil {
		return 0, fmt.Errorf("list pending purchases: %w", pgutils.Classify(err))
	}

	var (
		n    int
		errs []error
	)

	for _, p := range stale {
		held, err := s.compensate(ctx, p.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if !held {
			n++
		}
	}

	return n, errors.Join(errs...)
}

// Reconcile runs one pass of the timeout job: refund expired holds, then
// compensate stuck pending purchases. Per-purchase failures are logged and
// the pass continues.
func (s *EscrowService) Reconcile(ctx context.Context, opts ReconcileOptions) (ReconcileResult, error) {
	var res ReconcileResult

	expired, err := s.ListHeldBefore(ctx, s.now().Add(-opts.HoldWindow), opts.Batch)
	if err != nil {
		return res, fmt.Errorf("reconcile: %w", err)
	}

	for _, p := range expired {
		_, err = s.CancelPurchase(ctx, p.ID)
		if err != nil {
			if ctx.Err() != nil {
				return res, fmt.Errorf("reconcile: %w", ctx.Err())
			}

			slog.Warn("refund expired hold", "purchase_id", p.ID, "error", err)

			continue
		}

		res.Refunded++
	}

	n, err := s.FailStalePending(ctx, opts.PendingGrace, opts.Batch)
	res.Compensated = n

	if err != nil {
		slog.Warn("compensate stale pending purchases", "compensated", n, "error", err)
	}

	return res, nil
}
