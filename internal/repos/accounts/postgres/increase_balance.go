package accounts

import (
	"context"
	"database/sql"
	"fmt"
)

// IncreaseBalance is a single upsert, so concurrent credits to the same
// account serialize on the row and none is lost.
func (r *accountsRepo) IncreaseBalance(ctx context.Context, tx *sql.Tx, accountID string, amount int64) (int64, error) {
	var balance int64

	err := tx.QueryRowContext(ctx, `
		INSERT INTO accounts (id, balance, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET balance = accounts.balance + EXCLUDED.balance,
		    updated_at = NOW()
		RETURNING balance
	`, accountID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("increase balance: %w", err)
	}

	return balance, nil
}
