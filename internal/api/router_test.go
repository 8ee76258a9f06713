package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/cashcow/internal/repos/accounts"
	"github.com/fastprodman/cashcow/internal/repos/deposits"
	"github.com/fastprodman/cashcow/internal/repos/escrowrecords"
	"github.com/fastprodman/cashcow/internal/repos/messages"
	"github.com/fastprodman/cashcow/internal/repos/purchases"
	"github.com/fastprodman/cashcow/internal/services/escrow"
	"github.com/fastprodman/cashcow/internal/services/ledger"
	"github.com/fastprodman/cashcow/internal/services/notifications"
)

func do(t *testing.T, h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())

	return body
}

func heldPurchase() escrow.Purchase {
	return escrow.Purchase{
		ID:           "p-1",
		BuyerID:      "buyer",
		SellerID:     "seller",
		ProductName:  "bike",
		Price:        400,
		Status:       purchases.StatusHeld,
		EscrowID:     "e-1",
		EscrowStatus: escrowrecords.StatusHeld,
		EscrowAmount: 400,
		CreatedAt:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := do(t, NewRouter(Services{}), http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequireUser(t *testing.T) {
	t.Parallel()

	router := NewRouter(Services{})

	for _, path := range []string{"/accounts/me/balance", "/purchases", "/notifications/unread-count", "/messages"} {
		rec := do(t, router, http.MethodGet, path, "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, codeUnauthorized, decodeError(t, rec).Code)
	}
}

func TestGetBalance(t *testing.T) {
	t.Parallel()

	router := NewRouter(Services{Ledger: &fakeLedger{
		balance: func(_ context.Context, accountID string) (int64, error) {
			if accountID == "rich" {
				return 500, nil
			}

			return 0, nil
		},
	}})

	rec := do(t, router, http.MethodGet, "/accounts/me/balance", "rich", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accountId":"rich","balance":500}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/accounts/me/balance", "newcomer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accountId":"newcomer","balance":0}`, rec.Body.String())
}

func TestRequestDeposit(t *testing.T) {
	t.Parallel()

	var gotAmount int64

	router := NewRouter(Services{Ledger: &fakeLedger{
		deposit: func(_ context.Context, accountID string, amount int64) (ledger.DepositReceipt, error) {
			gotAmount = amount
			return ledger.DepositReceipt{ID: "d-1", AccountID: accountID, Amount: amount, Balance: 500}, nil
		},
	}})

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "ok", body: `{"amount":500}`, wantStatus: http.StatusCreated},
		{name: "zero", body: `{"amount":0}`, wantStatus: http.StatusBadRequest},
		{name: "negative", body: `{"amount":-3}`, wantStatus: http.StatusBadRequest},
		{name: "unknown_field", body: `{"amount":5,"currency":"EUR"}`, wantStatus: http.StatusBadRequest},
		{name: "not_json", body: `amount=5`, wantStatus: http.StatusBadRequest},
		{name: "fractional", body: `{"amount":1.5}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, "/accounts/me/deposits", "u1", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, int64(500), gotAmount)
}

func TestInitiatePurchase(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       `{"sellerId":"seller","product":{"name":"bike","price":400}}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "insufficient_funds",
			body:       `{"sellerId":"seller","product":{"name":"bike","price":400}}`,
			svcErr:     fmt.Errorf("initiate purchase: %w", escrow.ErrInsufficientFunds),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   codeInsufficientFunds,
		},
		{
			name:       "self_purchase",
			body:       `{"sellerId":"buyer","product":{"name":"bike","price":400}}`,
			svcErr:     fmt.Errorf("%w: buyer and seller must differ", escrow.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidInput,
		},
		{
			name:       "missing_product_name",
			body:       `{"sellerId":"seller","product":{"price":400}}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidInput,
		},
		{
			name:       "persistence_failure",
			body:       `{"sellerId":"seller","product":{"name":"bike","price":400}}`,
			svcErr:     fmt.Errorf("initiate purchase: %w", escrow.ErrPersistence),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   codeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got escrow.PurchaseRequest

			router := NewRouter(Services{Escrow: &fakeEscrow{
				initiate: func(_ context.Context, req escrow.PurchaseRequest) (escrow.Purchase, error) {
					got = req
					if tt.svcErr != nil {
						return escrow.Purchase{}, tt.svcErr
					}

					return heldPurchase(), nil
				},
			}})

			rec := do(t, router, http.MethodPost, "/purchases", "buyer", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}

			assert.Equal(t, "buyer", got.BuyerID)
			assert.Equal(t, int64(400), got.Product.Price)

			var resp purchaseResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "held", resp.Status)
			require.NotNil(t, resp.Escrow)
			assert.Equal(t, int64(400), resp.Escrow.Amount)
		})
	}
}

func TestPurchaseAccessControl(t *testing.T) {
	t.Parallel()

	confirmed := 0

	router := NewRouter(Services{Escrow: &fakeEscrow{
		get: func(_ context.Context, id string) (escrow.Purchase, error) {
			if id != "p-1" {
				return escrow.Purchase{}, escrow.ErrPurchaseNotFound
			}

			return heldPurchase(), nil
		},
		confirm: func(_ context.Context, id string) (escrow.Purchase, error) {
			confirmed++

			p := heldPurchase()
			p.Status = purchases.StatusReleased
			p.EscrowStatus = escrowrecords.StatusReleased

			return p, nil
		},
		cancel: func(_ context.Context, id string) (escrow.Purchase, error) {
			return escrow.Purchase{}, fmt.Errorf("cancel purchase: %w", escrow.ErrInvalidStateTransition)
		},
	}})

	tests := []struct {
		name       string
		method     string
		path       string
		user       string
		wantStatus int
	}{
		{name: "buyer_reads", method: http.MethodGet, path: "/purchases/p-1", user: "buyer", wantStatus: http.StatusOK},
		{name: "seller_reads", method: http.MethodGet, path: "/purchases/p-1", user: "seller", wantStatus: http.StatusOK},
		{name: "stranger_reads", method: http.MethodGet, path: "/purchases/p-1", user: "mallory", wantStatus: http.StatusForbidden},
		{name: "unknown_purchase", method: http.MethodGet, path: "/purchases/p-404", user: "buyer", wantStatus: http.StatusNotFound},
		{name: "seller_cannot_confirm", method: http.MethodPost, path: "/purchases/p-1/confirm", user: "seller", wantStatus: http.StatusForbidden},
		{name: "buyer_confirms", method: http.MethodPost, path: "/purchases/p-1/confirm", user: "buyer", wantStatus: http.StatusOK},
		{name: "stranger_cannot_cancel", method: http.MethodPost, path: "/purchases/p-1/cancel", user: "mallory", wantStatus: http.StatusForbidden},
		{name: "cancel_terminal_conflicts", method: http.MethodPost, path: "/purchases/p-1/cancel", user: "seller", wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.path, tt.user, "")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, 1, confirmed)
}

func TestConcurrencyConflictSetsRetryAfter(t *testing.T) {
	t.Parallel()

	router := NewRouter(Services{Escrow: &fakeEscrow{
		get: func(context.Context, string) (escrow.Purchase, error) { return heldPurchase(), nil },
		confirm: func(context.Context, string) (escrow.Purchase, error) {
			return escrow.Purchase{}, fmt.Errorf("confirm delivery: %w", escrow.ErrConcurrencyConflict)
		},
	}})

	rec := do(t, router, http.MethodPost, "/purchases/p-1/confirm", "buyer", "")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, retryAfterSeconds, rec.Header().Get("Retry-After"))
	assert.Equal(t, codeConflict, decodeError(t, rec).Code)
}

func TestListPurchases(t *testing.T) {
	t.Parallel()

	var (
		gotRole  escrow.Role
		gotLimit int
	)

	router := NewRouter(Services{Escrow: &fakeEscrow{
		list: func(_ context.Context, _ string, role escrow.Role, limit int) ([]escrow.Purchase, error) {
			gotRole, gotLimit = role, limit
			if role != escrow.RoleBuyer && role != escrow.RoleSeller {
				return nil, escrow.ErrInvalidInput
			}

			return []escrow.Purchase{heldPurchase()}, nil
		},
	}})

	rec := do(t, router, http.MethodGet, "/purchases", "buyer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, escrow.RoleBuyer, gotRole)
	assert.Equal(t, defaultLimit, gotLimit)

	rec = do(t, router, http.MethodGet, "/purchases?role=seller&limit=1000", "seller", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, escrow.RoleSeller, gotRole)
	assert.Equal(t, maxLimit, gotLimit)

	rec = do(t, router, http.MethodGet, "/purchases?role=admin", "seller", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/purchases?limit=abc", "seller", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationRoutes(t *testing.T) {
	t.Parallel()

	router := NewRouter(Services{Notifications: &fakeNotifications{
		unread: func(context.Context, string) (int64, error) { return 3, nil },
		markRead: func(_ context.Context, _ string, id string) error {
			if id != "n-1" {
				return notifications.ErrNotificationNotFound
			}

			return nil
		},
		markAllRead: func(context.Context, string) (int64, error) { return 3, nil },
		send: func(_ context.Context, sender, receiver, body string) (messages.Message, error) {
			if sender == receiver {
				return messages.Message{}, notifications.ErrInvalidMessage
			}

			return messages.Message{ID: "m-1", SenderID: sender, ReceiverID: receiver, Body: body}, nil
		},
	}})

	rec := do(t, router, http.MethodGet, "/notifications/unread-count", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread":3}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/notifications/n-1/read", "u1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodPost, "/notifications/n-2/read", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/notifications/read-all", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"marked":3}`, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/messages", "u1", `{"receiverId":"u2","body":"hi"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, router, http.MethodPost, "/messages", "u1", `{"receiverId":"u1","body":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/messages", "u1", `{"receiverId":"u2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnhandledErrorIs500(t *testing.T) {
	t.Parallel()

	router := NewRouter(Services{Ledger: &fakeLedger{
		balance: func(context.Context, string) (int64, error) { return 0, fmt.Errorf("boom") },
	}})

	rec := do(t, router, http.MethodGet, "/accounts/me/balance", "u1", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, codeInternal, decodeError(t, rec).Code)
}

func TestLedgerAndDepositLists(t *testing.T) {
	t.Parallel()

	var gotLimits []int

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	router := NewRouter(Services{Ledger: &fakeLedger{
		history: func(_ context.Context, accountID string, limit int) ([]accounts.Entry, error) {
			gotLimits = append(gotLimits, limit)

			return []accounts.Entry{{
				ID: "e-1", AccountID: accountID, Kind: accounts.EntryReserve,
				Delta: -300, BalanceAfter: 200, Reference: "p-1", CreatedAt: at,
			}}, nil
		},
		deposits: func(_ context.Context, accountID string, limit int) ([]deposits.Request, error) {
			gotLimits = append(gotLimits, limit)

			return []deposits.Request{{
				ID: "d-1", AccountID: accountID, Amount: 500, ResultingBalance: 500, CreatedAt: at,
			}}, nil
		},
	}})

	rec := do(t, router, http.MethodGet, "/accounts/me/ledger", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[{"id":"e-1","kind":"reserve","delta":-300,"balanceAfter":200,
		"reference":"p-1","createdAt":"2026-02-03T04:05:06Z"}]}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/accounts/me/deposits?limit=1000", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deposits":[{"id":"d-1","accountId":"u1","amount":500,"balance":500,
		"createdAt":"2026-02-03T04:05:06Z"}]}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/accounts/me/ledger?limit=-1", "u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, []int{defaultLimit, maxLimit}, gotLimits)
}
