// Package events carries escrow and ledger notifications out of the
// request path. Delivery is at-most-once: publishing never blocks a money
// movement and a lost event never undoes one.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypePurchaseHeld     Type = "purchase.held"
	TypePurchaseReleased Type = "purchase.released"
	TypePurchaseRefunded Type = "purchase.refunded"
	TypeDepositCompleted Type = "deposit.completed"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	PurchaseID string    `json:"purchaseId,omitempty"`
	AccountID  string    `json:"accountId,omitempty"`
	BuyerID    string    `json:"buyerId,omitempty"`
	SellerID   string    `json:"sellerId,omitempty"`
	Product    string    `json:"product,omitempty"`
	Amount     int64     `json:"amount"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New stamps an event of type t with a fresh id and the current time.
func New(t Type) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
	}
}

// Key groups events of the same purchase (or account) on one partition.
func (e Event) Key() string {
	if e.PurchaseID != "" {
		return e.PurchaseID
	}

	return e.AccountID
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Handler func(ctx context.Context, e Event) error

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error

	for _, p := range m {
		err := p.Publish(ctx, e)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Forward returns a handler that republishes every event it receives.
func Forward(p Publisher) Handler {
	return func(ctx context.Context, e Event) error {
		return p.Publish(ctx, e)
	}
}

type CommandType string

const (
	CommandConfirmDelivery CommandType = "delivery.confirmed"
	CommandCancelPurchase  CommandType = "purchase.cancelled"
)

// Command is a queued work item asking the escrow workflow to settle a purchase.
type Command struct {
	ID         string      `json:"id"`
	Type       CommandType `json:"type"`
	PurchaseID string      `json:"purchaseId"`
}

type CommandHandler func(ctx context.Context, c Command) error
