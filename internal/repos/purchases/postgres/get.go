package purchases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

// Get reads without locking. Malformed ids read as not found.
func (r *purchasesRepo) Get(ctx context.Context, id string) (purchases.Purchase, error) {
	p, err := scanPurchase(r.db.QueryRowContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE id = $1
	`, id))
	if err != nil {
		return purchases.Purchase{}, mapGetErr(err)
	}

	return p, nil
}

func (r *purchasesRepo) GetForUpdate(ctx context.Context, tx *sql.Tx, id string) (purchases.Purchase, error) {
	p, err := scanPurchase(tx.QueryRowContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return purchases.Purchase{}, mapGetErr(err)
	}

	return p, nil
}

func mapGetErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) || pgutils.IsInvalidText(err) {
		return purchases.ErrPurchaseNotFound
	}

	return fmt.Errorf("select purchase: %w", err)
}
