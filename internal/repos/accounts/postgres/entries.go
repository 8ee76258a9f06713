package accounts

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/cashcow/internal/repos/accounts"
)

func (r *accountsRepo) AppendEntry(ctx context.Context, tx *sql.Tx, e accounts.Entry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, account_id, kind, delta, balance_after, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.AccountID, string(e.Kind), e.Delta, e.BalanceAfter, e.Reference, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	return nil
}

func (r *accountsRepo) ListEntries(ctx context.Context, accountID string, limit int) ([]accounts.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, kind, delta, balance_after, reference, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []accounts.Entry

	for rows.Next() {
		var e accounts.Entry

		err = rows.Scan(&e.ID, &e.AccountID, &e.Kind, &e.Delta, &e.BalanceAfter, &e.Reference, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		out = append(out, e)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return out, nil
}
