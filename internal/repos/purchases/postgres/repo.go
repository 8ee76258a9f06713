package purchases

import (
	"database/sql"

	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

var _ purchases.Purchases = (*purchasesRepo)(nil)

type purchasesRepo struct{ db *sql.DB }

func New(db *sql.DB) *purchasesRepo {
	return &purchasesRepo{db: db}
}

const purchaseColumns = `id, buyer_id, seller_id, product_name, price, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row rowScanner) (purchases.Purchase, error) {
	var (
		p      purchases.Purchase
		status string
	)

	err := row.Scan(&p.ID, &p.BuyerID, &p.SellerID, &p.ProductName, &p.Price, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return purchases.Purchase{}, err
	}

	p.Status = purchases.Status(status)

	return p, nil
}
