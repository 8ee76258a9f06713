package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func (r *accountsRepo) GetBalance(ctx context.Context, accountID string) (int64, error) {
	var balance int64

	err := r.db.QueryRowContext(ctx, `
		SELECT balance
		FROM accounts
		WHERE id = $1
	`, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}
