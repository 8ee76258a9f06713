package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/cashcow/internal/events"
	"github.com/fastprodman/cashcow/internal/infra/pgtestutil"
	"github.com/fastprodman/cashcow/internal/repos/notifications"
	unreadredis "github.com/fastprodman/cashcow/internal/repos/unread/redis"
	"github.com/fastprodman/cashcow/pkg/retry"
)

func newService(t *testing.T) (*NotificationService, *miniredis.Miniredis) {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)
	t.Cleanup(cleanup)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(db, unreadredis.New(client, time.Minute), retry.DefaultPolicy), mr
}

func heldEvent() events.Event {
	e := events.New(events.TypePurchaseHeld)
	e.PurchaseID = "6f1c1d2e-8f5e-4b8a-9a55-0f8f0c4d2b11"
	e.BuyerID = "buyer"
	e.SellerID = "seller"
	e.Product = "bike"
	e.Amount = 400

	return e
}

func TestHandleEvent_PurchaseHeldNotifiesBothParties(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := t.Context()

	require.NoError(t, svc.HandleEvent(ctx, heldEvent()))

	sellerNotes, err := svc.List(ctx, "seller", 0)
	require.NoError(t, err)
	require.Len(t, sellerNotes, 1)
	assert.Equal(t, notifications.KindOrderPlaced, sellerNotes[0].Kind)
	assert.Equal(t, "New order for bike", sellerNotes[0].Body)
	assert.Equal(t, heldEvent().PurchaseID, sellerNotes[0].PurchaseID)

	buyerNotes, err := svc.List(ctx, "buyer", 0)
	require.NoError(t, err)
	require.Len(t, buyerNotes, 1)
	assert.Equal(t, notifications.KindPurchaseHeld, buyerNotes[0].Kind)
}

func TestHandleEvent_Routing(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)

	tests := []struct {
		name      string
		eventType events.Type
		wantUser  string
		wantKind  notifications.Kind
	}{
		{name: "released_goes_to_seller", eventType: events.TypePurchaseReleased, wantUser: "seller", wantKind: notifications.KindPurchaseReleased},
		{name: "refunded_goes_to_buyer", eventType: events.TypePurchaseRefunded, wantUser: "buyer", wantKind: notifications.KindPurchaseRefunded},
		{name: "deposit_goes_to_account", eventType: events.TypeDepositCompleted, wantUser: "depositor", wantKind: notifications.KindDeposit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := heldEvent()
			e.Type = tt.eventType
			e.AccountID = "depositor"

			require.NoError(t, svc.HandleEvent(t.Context(), e))

			list, err := svc.List(t.Context(), tt.wantUser, 0)
			require.NoError(t, err)
			require.NotEmpty(t, list)
			assert.Equal(t, tt.wantKind, list[0].Kind)
		})
	}

	// unknown events are ignored
	require.NoError(t, svc.HandleEvent(t.Context(), events.Event{Type: "something.else"}))
}

func TestUnreadCount_CachedAndInvalidated(t *testing.T) {
	t.Parallel()

	svc, mr := newService(t)
	ctx := t.Context()

	require.NoError(t, svc.HandleEvent(ctx, heldEvent()))

	n, err := svc.UnreadCount(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, mr.Exists("cashcow:unread:seller"))

	// a second event drops the cached value
	require.NoError(t, svc.HandleEvent(ctx, heldEvent()))
	assert.False(t, mr.Exists("cashcow:unread:seller"))

	n, err = svc.UnreadCount(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	changed, err := svc.MarkAllRead(ctx, "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	n, err = svc.UnreadCount(ctx, "seller")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUnreadCount_FallsBackWhenCacheDown(t *testing.T) {
	t.Parallel()

	svc, mr := newService(t)
	ctx := t.Context()

	require.NoError(t, svc.HandleEvent(ctx, heldEvent()))

	mr.Close()

	n, err := svc.UnreadCount(ctx, "buyer")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := t.Context()

	require.NoError(t, svc.HandleEvent(ctx, heldEvent()))

	list, err := svc.List(ctx, "buyer", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	err = svc.MarkRead(ctx, "seller", list[0].ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, svc.MarkRead(ctx, "buyer", list[0].ID))

	n, err := svc.UnreadCount(ctx, "buyer")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSendMessage(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := t.Context()

	tests := []struct {
		name     string
		sender   string
		receiver string
		body     string
		wantErr  error
	}{
		{name: "ok", sender: "buyer", receiver: "seller", body: "  is it still for sale?  "},
		{name: "self", sender: "buyer", receiver: "buyer", body: "hi", wantErr: ErrInvalidMessage},
		{name: "blank_body", sender: "buyer", receiver: "seller", body: "   ", wantErr: ErrInvalidMessage},
		{name: "no_receiver", sender: "buyer", body: "hi", wantErr: ErrInvalidMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := svc.SendMessage(ctx, tt.sender, tt.receiver, tt.body)

			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "want %v, got %v", tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "is it still for sale?", msg.Body)
		})
	}

	inbox, err := svc.Inbox(ctx, "seller", 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "buyer", inbox[0].SenderID)

	notes, err := svc.List(ctx, "seller", 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, notifications.KindMessage, notes[0].Kind)
}

func TestSendMessage_LimitCountsCharacters(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)
	ctx := t.Context()

	// 4 bytes per rune, far over the limit in bytes
	atLimit := strings.Repeat("🐄", maxMessageBody)

	msg, err := svc.SendMessage(ctx, "buyer", "courier", atLimit)
	require.NoError(t, err)
	assert.Equal(t, atLimit, msg.Body)

	_, err = svc.SendMessage(ctx, "buyer", "courier", atLimit+"!")
	require.ErrorIs(t, err, ErrInvalidMessage)

	inbox, err := svc.Inbox(ctx, "courier", 0)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
}

func TestSubscribe_DeliversThroughBus(t *testing.T) {
	t.Parallel()

	svc, _ := newService(t)

	bus := events.NewBus(8)
	svc.Subscribe(bus)

	go bus.Run(context.Background())

	require.NoError(t, bus.Publish(t.Context(), heldEvent()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, bus.Close(ctx))

	n, err := svc.UnreadCount(t.Context(), "seller")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
