package notifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/cashcow/internal/events"
	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/repos/messages"
	pgmessages "github.com/fastprodman/cashcow/internal/repos/messages/postgres"
	"github.com/fastprodman/cashcow/internal/repos/notifications"
	pgnotifications "github.com/fastprodman/cashcow/internal/repos/notifications/postgres"
	"github.com/fastprodman/cashcow/internal/repos/unread"
	"github.com/fastprodman/cashcow/pkg/retry"
)

const (
	defaultLimit   = 50
	maxMessageBody = 2000
)

var (
	ErrInvalidMessage       = errors.New("invalid message")
	ErrNotificationNotFound = notifications.ErrNotificationNotFound
)

type NotificationService struct {
	db            *sql.DB
	notifications notifications.Notifications
	messages      messages.Messages
	unread        unread.Counter
	policy        retry.Policy
	now           func() time.Time
}

func New(dbx *sql.DB, counter unread.Counter, policy retry.Policy) *NotificationService {
	if counter == nil {
		counter = unread.Nop{}
	}

	return &NotificationService{
		db:            dbx,
		notifications: pgnotifications.New(dbx),
		messages:      pgmessages.New(dbx),
		unread:        counter,
		policy:        policy,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe registers the service on the bus for every event it turns into
// a notification.
func (s *NotificationService) Subscribe(bus *events.Bus) {
	bus.Subscribe(s.HandleEvent,
		events.TypePurchaseHeld,
		events.TypePurchaseReleased,
		events.TypePurchaseRefunded,
		events.TypeDepositCompleted,
	)
}

// HandleEvent stores the notifications an event produces for its parties.
func (s *NotificationService) HandleEvent(ctx context.Context, e events.Event) error {
	batch := s.fromEvent(e)
	if len(batch) == 0 {
		return nil
	}

	err := pgutils.RunTx(ctx, s.db, s.policy, func(tx *sql.Tx) error {
		for _, n := range batch {
			err := s.notifications.Insert(ctx, tx, n)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("notify %s: %w", e.Type, err)
	}

	for _, n := range batch {
		s.invalidate(ctx, n.UserID)
	}

	return nil
}

func (s *NotificationService) fromEvent(e events.Event) []notifications.Notification {
	product := e.Product
	if product == "" {
		product = "your item"
	}

	note := func(userID string, kind notifications.Kind, body string) notifications.Notification {
		return notifications.Notification{
			ID:         uuid.NewString(),
			UserID:     userID,
			Kind:       kind,
			PurchaseID: e.PurchaseID,
			Body:       body,
			CreatedAt:  s.now(),
		}
	}

	switch e.Type {
	case events.TypePurchaseHeld:
		return []notifications.Notification{
			note(e.SellerID, notifications.KindOrderPlaced, fmt.Sprintf("New order for %s", product)),
			note(e.BuyerID, notifications.KindPurchaseHeld, fmt.Sprintf("Payment of %d for %s is held in escrow", e.Amount, product)),
		}
	case events.TypePurchaseReleased:
		return []notifications.Notification{
			note(e.SellerID, notifications.KindPurchaseReleased, fmt.Sprintf("%d for %s has been released to you", e.Amount, product)),
		}
	case events.TypePurchaseRefunded:
		return []notifications.Notification{
			note(e.BuyerID, notifications.KindPurchaseRefunded, fmt.Sprintf("%d for %s has been refunded", e.Amount, product)),
		}
	case events.TypeDepositCompleted:
		return []notifications.Notification{
			note(e.AccountID, notifications.KindDeposit, fmt.Sprintf("Deposit of %d completed", e.Amount)),
		}
	default:
		return nil
	}
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]notifications.Notification, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	list, err := s.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", pgutils.Classify(err))
	}

	return list, nil
}

// UnreadCount serves the navbar badge. A cache miss or cache failure falls
// back to counting in the database.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, ok, err := s.unread.Get(ctx, userID)
	if err != nil {
		slog.Warn("unread cache get", "user_id", userID, "error", err)
	}

	if ok {
		return n, nil
	}

	n, err = s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", pgutils.Classify(err))
	}

	err = s.unread.Set(ctx, userID, n)
	if err != nil {
		slog.Warn("unread cache set", "user_id", userID, "error", err)
	}

	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	err := s.notifications.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return fmt.Errorf("mark read: %w", pgutils.Classify(err))
	}

	s.invalidate(ctx, userID)

	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", pgutils.Classify(err))
	}

	s.invalidate(ctx, userID)

	return n, nil
}

// SendMessage stores the message and a notification for the receiver in
// one transaction.
func (s *NotificationService) SendMessage(ctx context.Context, senderID, receiverID, body string) (messages.Message, error) {
	body = strings.TrimSpace(body)

	switch {
	case strings.TrimSpace(senderID) == "" || strings.TrimSpace(receiverID) == "":
		return messages.Message{}, fmt.Errorf("%w: sender and receiver required", ErrInvalidMessage)
	case senderID == receiverID:
		return messages.Message{}, fmt.Errorf("%w: cannot message yourself", ErrInvalidMessage)
	case body == "":
		return messages.Message{}, fmt.Errorf("%w: empty body", ErrInvalidMessage)
	case utf8.RuneCountInString(body) > maxMessageBody:
		return messages.Message{}, fmt.Errorf("%w: body longer than %d characters", ErrInvalidMessage, maxMessageBody)
	}

	msg := messages.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Body:       body,
		CreatedAt:  s.now(),
	}

	err := pgutils.RunTx(ctx, s.db, s.policy, func(tx *sql.Tx) error {
		err := s.messages.Insert(ctx, tx, msg)
		if err != nil {
			return err
		}

		return s.notifications.Insert(ctx, tx, notifications.Notification{
			ID:        uuid.NewString(),
			UserID:    receiverID,
			Kind:      notifications.KindMessage,
			Body:      fmt.Sprintf("New message from %s", senderID),
			CreatedAt: msg.CreatedAt,
		})
	})
	if err != nil {
		return messages.Message{}, fmt.Errorf("send message: %w", err)
	}

	s.invalidate(ctx, receiverID)

	return msg, nil
}

func (s *NotificationService) Inbox(ctx context.Context, userID string, limit int) ([]messages.Message, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	list, err := s.messages.ListByReceiver(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", pgutils.Classify(err))
	}

	return list, nil
}

func (s *NotificationService) invalidate(ctx context.Context, userID string) {
	err := s.unread.Invalidate(ctx, userID)
	if err != nil {
		slog.Warn("unread cache invalidate", "user_id", userID, "error", err)
	}
}
