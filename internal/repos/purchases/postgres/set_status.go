package purchases

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/cashcow/internal/repos/purchases"
)

// CompareAndSetStatus moves the purchase from one status to another only if
// it is still in from. Zero rows affected returns ErrStatusMismatch.
func (r *purchasesRepo) CompareAndSetStatus(
	ctx context.Context,
	tx *sql.Tx,
	id string,
	from, to purchases.Status,
	at time.Time,
) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE purchases
		SET status = $3,
		    updated_at = $4
		WHERE id = $1
		  AND status = $2
	`, id, string(from), string(to), at)
	if err != nil {
		return fmt.Errorf("update purchase status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return purchases.ErrStatusMismatch
	}

	return nil
}
