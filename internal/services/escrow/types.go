package escrow

import (
	"context"
	"database/sql"
	"time"

	"github.com/fastprodman/cashcow/internal/repos/accounts"
	"github.com/fastprodman/cashcow/internal/repos/escrowrecords"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

// Ledger is the slice of the balance ledger the workflow composes into its
// own transactions.
type Ledger interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
	ReserveTx(ctx context.Context, tx *sql.Tx, accountID string, amount int64, reference string) (int64, error)
	CreditTx(ctx context.Context, tx *sql.Tx, accountID string, amount int64, kind accounts.EntryKind, reference string) (int64, error)
}

type Product struct {
	Name  string
	Price int64
}

type PurchaseRequest struct {
	BuyerID  string
	SellerID string
	Product  Product
}

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// Purchase is a purchase together with its escrow record, if one exists.
type Purchase struct {
	ID           string
	BuyerID      string
	SellerID     string
	ProductName  string
	Price        int64
	Status       purchases.Status
	EscrowID     string
	EscrowStatus escrowrecords.Status
	EscrowAmount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsParty reports whether userID is the buyer or the seller.
func (p Purchase) IsParty(userID string) bool {
	return userID != "" && (p.BuyerID == userID || p.SellerID == userID)
}

func view(p purchases.Purchase, rec *escrowrecords.Record) Purchase {
	out := Purchase{
		ID:          p.ID,
		BuyerID:     p.BuyerID,
		SellerID:    p.SellerID,
		ProductName: p.ProductName,
		Price:       p.Price,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	if rec != nil {
		out.EscrowID = rec.ID
		out.EscrowStatus = rec.Status
		out.EscrowAmount = rec.Amount
	}

	return out
}
