package escrowrecords

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/cashcow/internal/infra/pgtestutil"
	"github.com/fastprodman/cashcow/internal/repos/escrowrecords"
)

func seedPurchase(t *testing.T, db *sql.DB) string {
	t.Helper()

	id := uuid.NewString()

	_, err := db.Exec(`
		INSERT INTO purchases (id, buyer_id, seller_id, product_name, price, status)
		VALUES ($1, 'buyer', 'seller', 'chair', 700, 'held')
	`, id)
	if err != nil {
		t.Fatalf("seed purchase: %v", err)
	}

	return id
}

func insertRecord(t *testing.T, db *sql.DB, rec escrowrecords.Record) error {
	t.Helper()

	repo := New(db)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	//nolint:errcheck
	defer tx.Rollback()

	err = repo.Insert(context.Background(), tx, rec)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	return nil
}

func TestEscrowRecords_InsertAndGet(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)
	purchaseID := seedPurchase(t, db)
	now := time.Now().UTC().Truncate(time.Microsecond)

	rec := escrowrecords.Record{
		ID: uuid.NewString(), PurchaseID: purchaseID, Amount: 700, Status: escrowrecords.StatusHeld, CreatedAt: now,
	}

	err := insertRecord(t, db, rec)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	// second record for the same purchase violates the unique constraint
	dup := rec
	dup.ID = uuid.NewString()

	err = insertRecord(t, db, dup)
	if !errors.Is(err, escrowrecords.ErrDuplicateRecord) {
		t.Fatalf("want ErrDuplicateRecord, got %v", err)
	}

	got, err := repo.GetByPurchase(context.Background(), purchaseID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != rec.ID || got.Amount != 700 || got.Status != escrowrecords.StatusHeld {
		t.Fatalf("unexpected record: %+v", got)
	}

	_, err = repo.GetByPurchase(context.Background(), uuid.NewString())
	if !errors.Is(err, escrowrecords.ErrRecordNotFound) {
		t.Fatalf("want ErrRecordNotFound, got %v", err)
	}
}

func TestEscrowRecords_CompareAndSetStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to escrowrecords.Status
		wantErr  error
	}{
		{name: "held_to_released", from: escrowrecords.StatusHeld, to: escrowrecords.StatusReleased},
		{name: "held_to_refunded", from: escrowrecords.StatusHeld, to: escrowrecords.StatusRefunded},
		{
			name:    "released_expected_but_held",
			from:    escrowrecords.StatusReleased,
			to:      escrowrecords.StatusRefunded,
			wantErr: escrowrecords.ErrStatusMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			repo := New(db)
			purchaseID := seedPurchase(t, db)

			err := insertRecord(t, db, escrowrecords.Record{
				ID: uuid.NewString(), PurchaseID: purchaseID, Amount: 700, Status: escrowrecords.StatusHeld, CreatedAt: time.Now(),
			})
			if err != nil {
				t.Fatalf("insert: %v", err)
			}

			ctx := context.Background()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			//nolint:errcheck
			defer tx.Rollback()

			got, err := repo.CompareAndSetStatus(ctx, tx, purchaseID, tt.from, tt.to, time.Now())

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("cas: %v", err)
			}

			if got.Status != tt.to || got.Amount != 700 {
				t.Fatalf("unexpected record after cas: %+v", got)
			}
		})
	}
}
