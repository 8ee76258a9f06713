package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/cashcow/internal/events"
	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/accounts"
	pgaccounts "github.com/fastprodman/cashcow/internal/repos/accounts/postgres"
	"github.com/fastprodman/cashcow/internal/repos/deposits"
	pgdeposits "github.com/fastprodman/cashcow/internal/repos/deposits/postgres"
	"github.com/fastprodman/cashcow/pkg/retry"
)

const defaultLimit = 50

type LedgerService struct {
	db        *sql.DB
	accounts  accounts.Accounts
	deposits  deposits.Deposits
	publisher events.Publisher
	policy    retry.Policy
	now       func() time.Time
}

func New(dbx *sql.DB, publisher events.Publisher, policy retry.Policy) *LedgerService {
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &LedgerService{
		db:        dbx,
		accounts:  pgaccounts.New(dbx),
		deposits:  pgdeposits.New(dbx),
		publisher: publisher,
		policy:    policy,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// GetBalance never locks. Unknown accounts have balance 0.
func (s *LedgerService) GetBalance(ctx context.Context, accountID string) (int64, error) {
	if strings.TrimSpace(accountID) == "" {
		return 0, ErrInvalidAccount
	}

	balance, err := s.accounts.GetBalance(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", pgutils.Classify(err))
	}

	return balance, nil
}

// Deposit credits amount and returns the new balance.
func (s *LedgerService) Deposit(ctx context.Context, accountID string, amount int64) (int64, error) {
	err := validate(accountID, amount)
	if err != nil {
		return 0, err
	}

	var balance int64

	err = pgutils.RunTx(ctx, s.db, s.policy, func(tx *sql.Tx) error {
		b, err := s.CreditTx(ctx, tx, accountID, amount, accounts.EntryDeposit, "")
		if err != nil {
			return err
		}

		balance = b

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deposit: %w", err)
	}

	return balance, nil
}

// Reserve takes amount out of the spendable balance, or fails with
// ErrInsufficientFunds leaving the balance untouched.
func (s *LedgerService) Reserve(ctx context.Context, accountID string, amount int64) error {
	err := validate(accountID, amount)
	if err != nil {
		return err
	}

	err = pgutils.RunTx(ctx, s.db, s.policy, func(tx *sql.Tx) error {
		_, err := s.ReserveTx(ctx, tx, accountID, amount, "")
		return err
	})
	if err != nil {
		return fmt.Errorf("reserve: %w", err)
	}

	return nil
}

// CreditTx is the credit half of a larger transaction. It journals the
// movement under kind with reference (usually a purchase id).
func (s *LedgerService) CreditTx(
	ctx context.Context,
	tx *sql.Tx,
	accountID string,
	amount int64,
	kind accounts.EntryKind,
	reference string,
) (int64, error) {
	err := validate(accountID, amount)
	if err != nil {
		return 0, err
	}

	balance, err := s.accounts.IncreaseBalance(ctx, tx, accountID, amount)
	if err != nil {
		return 0, fmt.Errorf("increase balance: %w", err)
	}

	err = s.accounts.AppendEntry(ctx, tx, accounts.Entry{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Kind:         kind,
		Delta:        amount,
		BalanceAfter: balance,
		Reference:    reference,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return 0, fmt.Errorf("journal credit: %w", err)
	}

	return balance, nil
}

// ReserveTx is the debit half of a larger transaction.
func (s *LedgerService) ReserveTx(
	ctx context.Context,
	tx *sql.Tx,
	accountID string,
	amount int64,
	reference string,
) (int64, error) {
	err := validate(accountID, amount)
	if err != nil {
		return 0, err
	}

	balance, err := s.accounts.DecreaseBalance(ctx, tx, accountID, amount)
	if err != nil {
		return 0, fmt.Errorf("decrease balance: %w", err)
	}

	err = s.accounts.AppendEntry(ctx, tx, accounts.Entry{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Kind:         accounts.EntryReserve,
		Delta:        -amount,
		BalanceAfter: balance,
		Reference:    reference,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return 0, fmt.Errorf("journal reserve: %w", err)
	}

	return balance, nil
}

// RequestDeposit credits the account and records the request in the same
// transaction.
func (s *LedgerService) RequestDeposit(ctx context.Context, accountID string, amount int64) (DepositReceipt, error) {
	err := validate(accountID, amount)
	if err != nil {
		return DepositReceipt{}, err
	}

	var receipt DepositReceipt

	err = pgutils.RunTx(ctx, s.db, s.policy, func(tx *sql.Tx) error {
		receipt = DepositReceipt{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Amount:    amount,
			CreatedAt: s.now(),
		}

		balance, err := s.CreditTx(ctx, tx, accountID, amount, accounts.EntryDeposit, receipt.ID)
		if err != nil {
			return err
		}

		receipt.Balance = balance

		return s.deposits.Insert(ctx, tx, deposits.Request{
			ID:               receipt.ID,
			AccountID:        accountID,
			Amount:           amount,
			ResultingBalance: balance,
			CreatedAt:        receipt.CreatedAt,
		})
	})
	if err != nil {
		return DepositReceipt{}, fmt.Errorf("request deposit: %w", err)
	}

	e := events.New(events.TypeDepositCompleted)
	e.AccountID = accountID
	e.Amount = amount

	perr := s.publisher.Publish(ctx, e)
	if perr != nil {
		slog.Warn("publish deposit event", "account_id", accountID, "deposit_id", receipt.ID, "error", perr)
	}

	return receipt, nil
}

// History lists ledger entries newest first.
func (s *LedgerService) History(ctx context.Context, accountID string, limit int) ([]accounts.Entry, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrInvalidAccount
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	entries, err := s.accounts.ListEntries(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", pgutils.Classify(err))
	}

	return entries, nil
}

// Deposits lists the audit trail of deposit requests newest first.
func (s *LedgerService) Deposits(ctx context.Context, accountID string, limit int) ([]deposits.Request, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, ErrInvalidAccount
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	out, err := s.deposits.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list deposits: %w", pgutils.Classify(err))
	}

	return out, nil
}

func validate(accountID string, amount int64) error {
	if strings.TrimSpace(accountID) == "" {
		return ErrInvalidAccount
	}

	if amount <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidAmount, amount)
	}

	return nil
}
