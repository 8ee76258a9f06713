// Package escrow moves a buyer's funds into escrow for a purchase and
// settles them to the seller (release) or back to the buyer (refund).
//
// Every money movement runs inside a database transaction that locks the
// purchase row and advances status with a compare-and-set, so a purchase
// settles exactly once no matter how many callers race for it.
package escrow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/cashcow/internal/events"
	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/accounts"
	"github.com/fastprodman/cashcow/internal/repos/escrowrecords"
	pgescrowrecords "github.com/fastprodman/cashcow/internal/repos/escrowrecords/postgres"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
	pgpurchases "github.com/fastprodman/cashcow/internal/repos/purchases/postgres"
	"github.com/fastprodman/cashcow/pkg/retry"
)

const compensationTimeout = 10 * time.Second

type EscrowService struct {
	db        *sql.DB
	ledger    Ledger
	purchases purchases.Purchases
	records   escrowrecords.EscrowRecords
	publisher events.Publisher
	policy    retry.Policy
	now       func() time.Time
}

func New(dbx *sql.DB, ledger Ledger, publisher events.Publisher, policy retry.Policy) *EscrowService {
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &EscrowService{
		db:        dbx,
		ledger:    ledger,
		purchases: pgpurchases.New(dbx),
		records:   pgescrowrecords.New(dbx),
		publisher: publisher,
		policy:    policy,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// InitiatePurchase reserves the price from the buyer and holds it in escrow.
//
//  1. Reserve funds and insert the purchase as pending (one tx).
//  2. Insert the escrow record and move the purchase to held (one tx).
//  3. If step 2 fails, fail the purchase and credit the buyer back.
//
// A failure in step 2 reaches the caller as ErrPersistence even when the
// compensation succeeded.
func (s *EscrowService) InitiatePurchase(ctx context.Context, req PurchaseRequest) (Purchase, error) {
	err := validateRequest(req)
	if err != nil {
		return Purchase{}, err
	}

	balance, err := s.ledger.GetBalance(ctx, req.BuyerID)
	if err != nil {
		return Purchase{}, fmt.Errorf("initiate purchase: %w", err)
	}

	if balance < req.Product.Price {
		return Purchase{}, fmt.Errorf("initiate purchase: %w", ErrInsufficientFunds)
	}

	now := s.now()
	p := purchases.Purchase{
		ID:          uuid.NewString(),
		BuyerID:     req.BuyerID,
		SellerID:    req.SellerID,
		ProductName: strings.TrimSpace(req.Product.Name),
		Price:       req.Product.Price,
		Status:      purchases.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = pgutils.RunTx(ctx, s.db, s.policy, func(tx *sql.Tx) error {
		_, err := s.ledger.ReserveTx(ctx, tx, p.BuyerID, p.Price, p.ID)
		if err != nil {
			return fmt.Errorf("reserve funds: %w", err)
		}

		err = s.purchases.Insert(ctx, tx, p)
		if errors.Is(err, purchases.ErrInvalidPurchase) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}

		if err != nil {
			return fmt.Errorf("insert pending purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return Purchase{}, fmt.Errorf("initiate purchase: %w", err)
	}

	rec := escrowrecords.Record{
		ID:         uuid.NewString(),
		PurchaseID: p.ID,
		Amount:     p.Price,
		Status:     escrowrecords.StatusHeld,
		CreatedAt:  now,
	}

	err = pgutils.RunTx(ctx, s.db, s.policy, func(tx *sql.Tx) error {
		err := s.records.Insert(ctx, tx, rec)
		if err != nil {
			return fmt.Errorf("insert escrow record: %w", err)
		}

		err = s.purchases.CompareAndSetStatus(ctx, tx, p.ID, purchases.StatusPending, purchases.StatusHeld, now)
		if err != nil {
			return fmt.Errorf("mark purchase held: %w", err)
		}

		return nil
	})
	if err != nil {
		slog.Error("escrow hold failed, compensating", "purchase_id", p.ID, "buyer_id", p.BuyerID, "error", err)

		held, cerr := s.compensate(ctx, p.ID)
		if cerr != nil {
			slog.Error("compensation failed, purchase left pending for the reconciler",
				"purchase_id", p.ID,
				"error", cerr,
			)
		}

		if !held {
			if !errors.Is(err, ErrPersistence) {
				err = fmt.Errorf("%w: %w", ErrPersistence, err)
			}

			return Purchase{}, fmt.Errorf("initiate purchase: %w", err)
		}

		// the hold committed even though we saw an error
		slog.Warn("escrow hold committed despite error", "purchase_id", p.ID)
	}

	p.Status = purchases.StatusHeld
	out := view(p, &rec)

	s.publish(ctx, out, events.TypePurchaseHeld)

	slog.Info("purchase held",
		"purchase_id", p.ID,
		"buyer_id", p.BuyerID,
		"seller_id", p.SellerID,
		"amount", p.Price,
	)

	return out, nil
}

// compensate fails a pending purchase and credits the reserved funds back
// to the buyer. It reports held=true when the purchase turned out to be held
// already, in which case nothing is changed.
func (s *EscrowService) compensate(ctx context.Context, purchaseID string) (held bool, err error) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err = pgutils.RunTx(cctx, s.db, s.policy, func(tx *sql.Tx) error {
		held = false

		p, err := s.purchases.GetForUpdate(cctx, tx, purchaseID)
		if err != nil {
			return fmt.Errorf("lock purchase: %w", err)
		}

		switch p.Status {
		case purchases.StatusPending:
		case purchases.StatusHeld:
			held = true
			return nil
		default:
			// already compensated
			return nil
		}

		err = s.purchases.CompareAndSetStatus(cctx, tx, p.ID, purchases.StatusPending, purchases.StatusFailed, s.now())
		if err != nil {
			return fmt.Errorf("mark purchase failed: %w", err)
		}

		_, err = s.ledger.CreditTx(cctx, tx, p.BuyerID, p.Price, accounts.EntryReversal, p.ID)
		if err != nil {
			return fmt.Errorf("reverse reservation: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("compensate purchase %s: %w", purchaseID, err)
	}

	return held, nil
}

func (s *EscrowService) publish(ctx context.Context, p Purchase, t events.Type) {
	e := events.New(t)
	e.PurchaseID = p.ID
	e.BuyerID = p.BuyerID
	e.SellerID = p.SellerID
	e.Product = p.ProductName
	e.Amount = p.Price

	err := s.publisher.Publish(ctx, e)
	if err != nil {
		slog.Warn("publish escrow event", "event_type", t, "purchase_id", p.ID, "error", err)
	}
}

func validateRequest(req PurchaseRequest) error {
	switch {
	case strings.TrimSpace(req.BuyerID) == "":
		return fmt.Errorf("%w: buyer id required", ErrInvalidInput)
	case strings.TrimSpace(req.SellerID) == "":
		return fmt.Errorf("%w: seller id required", ErrInvalidInput)
	case req.BuyerID == req.SellerID:
		return fmt.Errorf("%w: buyer and seller must differ", ErrInvalidInput)
	case strings.TrimSpace(req.Product.Name) == "":
		return fmt.Errorf("%w: product name required", ErrInvalidInput)
	case req.Product.Price <= 0:
		return fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	default:
		return nil
	}
}
