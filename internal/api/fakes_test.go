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

type fakeLedger struct {
	balance  func(ctx context.Context, accountID string) (int64, error)
	history  func(ctx context.Context, accountID string, limit int) ([]accounts.Entry, error)
	deposit  func(ctx context.Context, accountID string, amount int64) (ledger.DepositReceipt, error)
	deposits func(ctx context.Context, accountID string, limit int) ([]deposits.Request, error)
}

func (f *fakeLedger) GetBalance(ctx context.Context, accountID string) (int64, error) {
	return f.balance(ctx, accountID)
}

func (f *fakeLedger) History(ctx context.Context, accountID string, limit int) ([]accounts.Entry, error) {
	return f.history(ctx, accountID, limit)
}

func (f *fakeLedger) RequestDeposit(ctx context.Context, accountID string, amount int64) (ledger.DepositReceipt, error) {
	return f.deposit(ctx, accountID, amount)
}

func (f *fakeLedger) Deposits(ctx context.Context, accountID string, limit int) ([]deposits.Request, error) {
	return f.deposits(ctx, accountID, limit)
}

type fakeEscrow struct {
	initiate func(ctx context.Context, req escrow.PurchaseRequest) (escrow.Purchase, error)
	get      func(ctx context.Context, id string) (escrow.Purchase, error)
	list     func(ctx context.Context, userID string, role escrow.Role, limit int) ([]escrow.Purchase, error)
	confirm  func(ctx context.Context, id string) (escrow.Purchase, error)
	cancel   func(ctx context.Context, id string) (escrow.Purchase, error)
}

func (f *fakeEscrow) InitiatePurchase(ctx context.Context, req escrow.PurchaseRequest) (escrow.Purchase, error) {
	return f.initiate(ctx, req)
}

func (f *fakeEscrow) GetPurchase(ctx context.Context, id string) (escrow.Purchase, error) {
	return f.get(ctx, id)
}

func (f *fakeEscrow) ListPurchases(ctx context.Context, userID string, role escrow.Role, limit int) ([]escrow.Purchase, error) {
	return f.list(ctx, userID, role, limit)
}

func (f *fakeEscrow) ConfirmDelivery(ctx context.Context, id string) (escrow.Purchase, error) {
	return f.confirm(ctx, id)
}

func (f *fakeEscrow) CancelPurchase(ctx context.Context, id string) (escrow.Purchase, error) {
	return f.cancel(ctx, id)
}

type fakeNotifications struct {
	list        func(ctx context.Context, userID string, limit int) ([]notifications.Notification, error)
	unread      func(ctx context.Context, userID string) (int64, error)
	markRead    func(ctx context.Context, userID, id string) error
	markAllRead func(ctx context.Context, userID string) (int64, error)
	send        func(ctx context.Context, senderID, receiverID, body string) (messages.Message, error)
	inbox       func(ctx context.Context, userID string, limit int) ([]messages.Message, error)
}

func (f *fakeNotifications) List(ctx context.Context, userID string, limit int) ([]notifications.Notification, error) {
	return f.list(ctx, userID, limit)
}

func (f *fakeNotifications) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return f.unread(ctx, userID)
}

func (f *fakeNotifications) MarkRead(ctx context.Context, userID, id string) error {
	return f.markRead(ctx, userID, id)
}

func (f *fakeNotifications) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return f.markAllRead(ctx, userID)
}

func (f *fakeNotifications) SendMessage(ctx context.Context, senderID, receiverID, body string) (messages.Message, error) {
	return f.send(ctx, senderID, receiverID, body)
}

func (f *fakeNotifications) Inbox(ctx context.Context, userID string, limit int) ([]messages.Message, error) {
	return f.inbox(ctx, userID, limit)
}
