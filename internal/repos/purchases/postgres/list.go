package purchases

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

func (r *purchasesRepo) ListByBuyer(ctx context.Context, buyerID string, limit int) ([]purchases.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE buyer_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, buyerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select purchases by buyer: %w", err)
	}

	return collect(rows)
}

func (r *purchasesRepo) ListBySeller(ctx context.Context, sellerID string, limit int) ([]purchases.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE seller_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, sellerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select purchases by seller: %w", err)
	}

	return collect(rows)
}

func (r *purchasesRepo) ListByStatusBefore(
	ctx context.Context,
	status purchases.Status,
	cutoff time.Time,
	limit int,
) ([]purchases.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+purchaseColumns+`
		FROM purchases
		WHERE status = $1
		  AND updated_at < $2
		ORDER BY updated_at, id
		LIMIT $3
	`, string(status), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("select purchases by status: %w", err)
	}

	return collect(rows)
}

func collect(rows *sql.Rows) ([]purchases.Purchase, error) {
	//nolint:errcheck
	defer rows.Close()

	out := make([]purchases.Purchase, 0)

	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}

		out = append(out, p)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	return out, nil
}
