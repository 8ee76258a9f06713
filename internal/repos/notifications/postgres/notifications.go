package notifications

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/notifications"
)

var _ notifications.Notifications = (*notificationsRepo)(nil)

type notificationsRepo struct{ db *sql.DB }

func New(db *sql.DB) *notificationsRepo {
	return &notificationsRepo{db: db}
}

func (r *notificationsRepo) Insert(ctx context.Context, tx *sql.Tx, n notifications.Notification) error {
	var purchaseID sql.NullString
	if n.PurchaseID != "" {
		purchaseID = sql.NullString{String: n.PurchaseID, Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, kind, purchase_id, body, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, string(n.Kind), purchaseID, n.Body, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

func (r *notificationsRepo) ListByUser(ctx context.Context, userID string, limit int) ([]notifications.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, kind, purchase_id, body, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("select notifications: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]notifications.Notification, 0)

	for rows.Next() {
		var (
			n          notifications.Notification
			kind       string
			purchaseID sql.NullString
		)

		err = rows.Scan(&n.ID, &n.UserID, &kind, &purchaseID, &n.Body, &n.Read, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}

		n.Kind = notifications.Kind(kind)
		n.PurchaseID = purchaseID.String
		out = append(out, n)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return out, nil
}

func (r *notificationsRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM notifications
		WHERE user_id = $1
		  AND NOT read
	`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}

	return n, nil
}

// MarkRead is idempotent for an already read notification.
func (r *notificationsRepo) MarkRead(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1
		  AND user_id = $2
	`, id, userID)
	if err != nil {
		if pgutils.IsInvalidText(err) {
			return notifications.ErrNotificationNotFound
		}

		return fmt.Errorf("mark notification read: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if n == 0 {
		return notifications.ErrNotificationNotFound
	}

	return nil
}

func (r *notificationsRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = TRUE
		WHERE user_id = $1
		  AND NOT read
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return n, nil
}
