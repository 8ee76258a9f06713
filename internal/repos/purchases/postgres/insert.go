package purchases

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

func (r *purchasesRepo) Insert(ctx context.Context, tx *sql.Tx, p purchases.Purchase) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (id, buyer_id, seller_id, product_name, price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, p.ID, p.BuyerID, p.SellerID, p.ProductName, p.Price, string(p.Status), p.CreatedAt)
	if err != nil {
		if pgutils.IsCheckViolation(err) {
			return purchases.ErrInvalidPurchase
		}

		return fmt.Errorf("insert purchase: %w", err)
	}

	return nil
}
