package api

import (
	"net/http"
)

// GetBalanceHandler handles GET /accounts/me/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r.Context())

	bal, err := h.svc.Ledger.GetBalance(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{AccountID: userID, Balance: bal})
}

// LedgerHandler handles GET /accounts/me/ledger
func (h *HandlerProvider) LedgerHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	entries, err := h.svc.Ledger.History(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": toEntryResponses(entries)})
}

// RequestDepositHandler handles POST /accounts/me/deposits
func (h *HandlerProvider) RequestDepositHandler(w http.ResponseWriter, r *http.Request) {
	var req depositRequest

	err := h.decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	receipt, err := h.svc.Ledger.RequestDeposit(r.Context(), userIDFrom(r.Context()), req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, depositResponse{
		ID:        receipt.ID,
		AccountID: receipt.AccountID,
		Amount:    receipt.Amount,
		Balance:   receipt.Balance,
		CreatedAt: receipt.CreatedAt,
	})
}

// ListDepositsHandler handles GET /accounts/me/deposits
func (h *HandlerProvider) ListDepositsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	reqs, err := h.svc.Ledger.Deposits(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deposits": toDepositResponses(reqs)})
}
