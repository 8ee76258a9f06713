package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fastprodman/cashcow/internal/infra/pgutils"
	"github.com/fastprodman/cashcow/internal/services/escrow"
	"github.com/fastprodman/cashcow/internal/services/ledger"
	"github.com/fastprodman/cashcow/internal/services/notifications"
)

const (
	codeInvalidInput      = "invalid_input"
	codeUnauthorized      = "unauthorized"
	codeForbidden         = "forbidden"
	codeNotFound          = "not_found"
	codeInsufficientFunds = "insufficient_funds"
	codeInvalidTransition = "invalid_state_transition"
	codeConflict          = "concurrency_conflict"
	codeUnavailable       = "persistence_failure"
	codeInternal          = "internal"

	retryAfterSeconds = "1"
)

// writeServiceError maps a service error onto a status and error code.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAccount),
		errors.Is(err, escrow.ErrInvalidInput),
		errors.Is(err, notifications.ErrInvalidMessage):
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, escrow.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, codeInsufficientFunds, "insufficient funds")
	case errors.Is(err, escrow.ErrPurchaseNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "purchase not found")
	case errors.Is(err, notifications.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, "notification not found")
	case errors.Is(err, escrow.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, "purchase cannot make this transition")
	case errors.Is(err, pgutils.ErrConcurrencyConflict):
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeError(w, http.StatusServiceUnavailable, codeConflict, "too much contention, retry later")
	case errors.Is(err, pgutils.ErrPersistence),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		slog.Error("storage failure", "method", r.Method, "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		writeError(w, http.StatusServiceUnavailable, codeUnavailable, "storage unavailable, retry later")
	default:
		slog.Error("unhandled service error", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
	}
}
