package notifications

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notification not found")

type Kind string

const (
	KindOrderPlaced      Kind = "order_placed"
	KindPurchaseHeld     Kind = "purchase_held"
	KindPurchaseReleased Kind = "purchase_released"
	KindPurchaseRefunded Kind = "purchase_refunded"
	KindDeposit          Kind = "deposit"
	KindMessage          Kind = "message"
)

// Notification.PurchaseID is empty when the notification is not about a purchase.
type Notification struct {
	ID         string
	UserID     string
	Kind       Kind
	PurchaseID string
	Body       string
	Read       bool
	CreatedAt  time.Time
}

type Notifications interface {
	Insert(ctx context.Context, tx *sql.Tx, n Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead only touches notifications owned by userID.
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
