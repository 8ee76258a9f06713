package escrowrecords

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/escrowrecords"
)

var _ escrowrecords.EscrowRecords = (*recordsRepo)(nil)

type recordsRepo struct{ db *sql.DB }

func New(db *sql.DB) *recordsRepo {
	return &recordsRepo{db: db}
}

func (r *recordsRepo) Insert(ctx context.Context, tx *sql.Tx, rec escrowrecords.Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO escrow_records (id, purchase_id, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`, rec.ID, rec.PurchaseID, rec.Amount, string(rec.Status), rec.CreatedAt)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return escrowrecords.ErrDuplicateRecord
		}

		return fmt.Errorf("insert escrow record: %w", err)
	}

	return nil
}

func (r *recordsRepo) GetByPurchase(ctx context.Context, purchaseID string) (escrowrecords.Record, error) {
	var (
		rec    escrowrecords.Record
		status string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, purchase_id, amount, status, created_at, updated_at
		FROM escrow_records
		WHERE purchase_id = $1
	`, purchaseID).Scan(&rec.ID, &rec.PurchaseID, &rec.Amount, &status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgutils.IsInvalidText(err) {
			return escrowrecords.Record{}, escrowrecords.ErrRecordNotFound
		}

		return escrowrecords.Record{}, fmt.Errorf("select escrow record: %w", err)
	}

	rec.Status = escrowrecords.Status(status)

	return rec, nil
}

func (r *recordsRepo) CompareAndSetStatus(
	ctx context.Context,
	tx *sql.Tx,
	purchaseID string,
	from, to escrowrecords.Status,
	at time.Time,
) (escrowrecords.Record, error) {
	var (
		rec    escrowrecords.Record
		status string
	)

	err := tx.QueryRowContext(ctx, `
		UPDATE escrow_records
		SET status = $3,
		    updated_at = $4
		WHERE purchase_id = $1
		  AND status = $2
		RETURNING id, purchase_id, amount, status, created_at, updated_at
	`, purchaseID, string(from), string(to), at).
		Scan(&rec.ID, &rec.PurchaseID, &rec.Amount, &status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return escrowrecords.Record{}, escrowrecords.ErrStatusMismatch
		}

		return escrowrecords.Record{}, fmt.Errorf("update escrow record status: %w", err)
	}

	rec.Status = escrowrecords.Status(status)

	return rec, nil
}
