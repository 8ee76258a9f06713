package escrow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fastprodman/cashcow/internal/events"
	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/accounts"
	"github.com/fastprodman/cashcow/internal/repos/escrowrecords"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

type settlement struct {
	purchaseTo purchases.Status
	recordTo   escrowrecords.Status
	entryKind  accounts.EntryKind
	event      events.Type
	payee      func(p purchases.Purchase) string
}

var (
	release = settlement{
		purchaseTo: purchases.StatusReleased,
		recordTo:   escrowrecords.StatusReleased,
		entryKind:  accounts.EntryRelease,
		event:      events.TypePurchaseReleased,
		payee:      func(p purchases.Purchase) string { return p.SellerID },
	}
	refund = settlement{
		purchaseTo: purchases.StatusRefunded,
		recordTo:   escrowrecords.StatusRefunded,
		entryKind:  accounts.EntryRefund,
		event:      events.TypePurchaseRefunded,
		payee:      func(p purchases.Purchase) string { return p.BuyerID },
	}
)

// ConfirmDelivery releases the escrowed funds to the seller. Confirming a
// released purchase again is a no-op. Any other status than held fails with
// ErrInvalidStateTransition.
func (s *EscrowService) ConfirmDelivery(ctx context.Context, purchaseID string) (Purchase, error) {
	out, err := s.settle(ctx, purchaseID, release)
	if err != nil {
		return Purchase{}, fmt.Errorf("confirm delivery: %w", err)
	}

	return out, nil
}

// CancelPurchase refunds the escrowed funds to the buyer. Cancelling a
// refunded purchase again is a no-op.
func (s *EscrowService) CancelPurchase(ctx context.Context, purchaseID string) (Purchase, error) {
	out, err := s.settle(ctx, purchaseID, refund)
	if err != nil {
		return Purchase{}, fmt.Errorf("cancel purchase: %w", err)
	}

	return out, nil
}

func (s *EscrowService) settle(ctx context.Context, purchaseID string, st settlement) (Purchase, error) {
	var (
		out     Purchase
		payee   string
		changed bool
	)

	err := pgutils.RunTx(ctx, s.db, s.policy, func(tx *sql.Tx) error {
		changed = false

		p, err := s.purchases.GetForUpdate(ctx, tx, purchaseID)
		if err != nil {
			return fmt.Errorf("lock purchase: %w", err)
		}

		switch p.Status {
		case st.purchaseTo:
			out = view(p, nil)
			return nil
		case purchases.StatusHeld:
		default:
			return fmt.Errorf("%w: purchase %s is %s, cannot become %s",
				ErrInvalidStateTransition, p.ID, p.Status, st.purchaseTo)
		}

		now := s.now()

		rec, err := s.records.CompareAndSetStatus(ctx, tx, p.ID, escrowrecords.StatusHeld, st.recordTo, now)
		if err != nil {
			if errors.Is(err, escrowrecords.ErrStatusMismatch) {
				return fmt.Errorf("%w: escrow record of %s is not held", ErrInvalidStateTransition, p.ID)
			}

			return fmt.Errorf("settle escrow record: %w", err)
		}

		err = s.purchases.CompareAndSetStatus(ctx, tx, p.ID, purchases.StatusHeld, st.purchaseTo, now)
		if err != nil {
			return fmt.Errorf("settle purchase: %w", err)
		}

		payee = st.payee(p)

		_, err = s.ledger.CreditTx(ctx, tx, payee, rec.Amount, st.entryKind, p.ID)
		if err != nil {
			return fmt.Errorf("credit %s: %w", st.entryKind, err)
		}

		p.Status = st.purchaseTo
		p.UpdatedAt = now
		out = view(p, &rec)
		changed = true

		return nil
	})
	if err != nil {
		return Purchase{}, err
	}

	if !changed {
		s.attachEscrow(ctx, &out)
		return out, nil
	}

	s.publish(ctx, out, st.event)

	slog.Info("purchase settled",
		"purchase_id", out.ID,
		"status", out.Status,
		"payee", payee,
		"amount", out.EscrowAmount,
	)

	return out, nil
}

// attachEscrow fills the escrow fields of out when a record exists. Lookup
// errors are logged and leave the fields empty.
func (s *EscrowService) attachEscrow(ctx context.Context, out *Purchase) {
	rec, err := s.records.GetByPurchase(ctx, out.ID)
	if err != nil {
		if !errors.Is(err, escrowrecords.ErrRecordNotFound) {
			slog.Warn("load escrow record", "purchase_id", out.ID, "error", err)
		}

		return
	}

	out.EscrowID = rec.ID
	out.EscrowStatus = rec.Status
	out.EscrowAmount = rec.Amount
}
