package deposits

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/deposits"
)

var _ deposits.Deposits = (*depositsRepo)(nil)

type depositsRepo struct{ db *sql.DB }

func New(db *sql.DB) *depositsRepo {
	return &depositsRepo{db: db}
}

func (r *depositsRepo) Insert(ctx context.Context, tx *sql.Tx, req deposits.Request) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO deposit_requests (id, account_id, amount, resulting_balance, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, req.ID, req.AccountID, req.Amount, req.ResultingBalance, req.CreatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return deposits.ErrDuplicateRequest
		}

		if pgutils.IsForeignKeyViolation(err) {
			return deposits.ErrUnknownAccount
		}

		return fmt.Errorf("insert deposit request: %w", err)
	}

	return nil
}

func (r *depositsRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]deposits.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, account_id, amount, resulting_balance, created_at
		FROM deposit_requests
		WHERE account_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("select deposit requests: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]deposits.Request, 0)

	for rows.Next() {
		var d deposits.Request

		err = rows.Scan(&d.ID, &d.AccountID, &d.Amount, &d.ResultingBalance, &d.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan deposit request: %w", err)
		}

		out = append(out, d)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate deposit requests: %w", err)
	}

	return out, nil
}
