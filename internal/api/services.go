package api

import (
	"context"

	"github.com/fastprodman/cashcow/internal/repos/accounts"
	"github.com/fastprodman/cashcow/internal/repos/deposits"
	"github.com/fastprodman/cashcow/internal/repos/messages"
	"github.com/fastprodman/cashcow/internal/repos/notifications"
	"github.com/fastprodman/cashcow/internal/services/escrow"
	"github.com/fastprodman/cashcow/internal/services/ledger"
)

type LedgerService interface {
	GetBalance(ctx context.Context, accountID string) (int64, error)
	History(ctx context.Context, accountID string, limit int) ([]accounts.Entry, error)
	RequestDeposit(ctx context.Context, accountID string, amount int64) (ledger.DepositReceipt, error)
	Deposits(ctx context.Context, accountID string, limit int) ([]deposits.Request, error)
}

type EscrowService interface {
	InitiatePurchase(ctx context.Context, req escrow.PurchaseRequest) (escrow.Purchase, error)
	GetPurchase(ctx context.Context, purchaseID string) (escrow.Purchase, error)
	ListPurchases(ctx context.Context, userID string, role escrow.Role, limit int) ([]escrow.Purchase, error)
	ConfirmDelivery(ctx context.Context, purchaseID string) (escrow.Purchase, error)
	CancelPurchase(ctx context.Context, purchaseID string) (escrow.Purchase, error)
}

type NotificationService interface {
	List(ctx context.Context, userID string, limit int) ([]notifications.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	SendMessage(ctx context.Context, senderID, receiverID, body string) (messages.Message, error)
	Inbox(ctx context.Context, userID string, limit int) ([]messages.Message, error)
}

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Ledger        LedgerService
	Escrow        EscrowService
	Notifications NotificationService
}
