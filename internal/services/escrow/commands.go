package escrow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fastprodman/cashcow/internal/events"
)

// HandleCommand applies a queued settlement command. Commands that can never
// succeed (unknown purchase, illegal transition, unknown type) are logged and
// acknowledged with nil. Transient failures are returned so the caller can
// retry.
func (s *EscrowService) HandleCommand(ctx context.Context, cmd events.Command) error {
	var err error

	switch cmd.Type {
	case events.CommandConfirmDelivery:
		_, err = s.ConfirmDelivery(ctx, cmd.PurchaseID)
	case events.CommandCancelPurchase:
		_, err = s.CancelPurchase(ctx, cmd.PurchaseID)
	default:
		slog.Warn("unknown command type", "command_id", cmd.ID, "command_type", cmd.Type)
		return nil
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidStateTransition), errors.Is(err, ErrPurchaseNotFound):
		slog.Warn("command rejected",
			"command_id", cmd.ID,
			"command_type", cmd.Type,
			"purchase_id", cmd.PurchaseID,
			"error", err,
		)

		return nil
	default:
		return err
	}
}
