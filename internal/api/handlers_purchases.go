package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fastprodman/cashcow/internal/services/escrow"
)

// InitiatePurchaseHandler handles POST /purchases
func (h *HandlerProvider) InitiatePurchaseHandler(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest

	err := h.decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	p, err := h.svc.Escrow.InitiatePurchase(r.Context(), escrow.PurchaseRequest{
		BuyerID:  userIDFrom(r.Context()),
		SellerID: req.SellerID,
		Product:  escrow.Product{Name: req.Product.Name, Price: req.Product.Price},
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPurchaseResponse(p))
}

// ListPurchasesHandler handles GET /purchases?role=buyer|seller
func (h *HandlerProvider) ListPurchasesHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	role := escrow.Role(r.URL.Query().Get("role"))
	if role == "" {
		role = escrow.RoleBuyer
	}

	list, err := h.svc.Escrow.ListPurchases(r.Context(), userIDFrom(r.Context()), role, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]purchaseResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toPurchaseResponse(p))
	}

	writeJSON(w, http.StatusOK, map[string]any{"purchases": out})
}

// GetPurchaseHandler handles GET /purchases/{purchaseId}
func (h *HandlerProvider) GetPurchaseHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPurchase(w, r, func(p escrow.Purchase, userID string) bool { return p.IsParty(userID) })
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toPurchaseResponse(p))
}

// ConfirmDeliveryHandler handles POST /purchases/{purchaseId}/confirm.
// Only the buyer confirms delivery.
func (h *HandlerProvider) ConfirmDeliveryHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r,
		func(p escrow.Purchase, userID string) bool { return p.BuyerID == userID },
		h.svc.Escrow.ConfirmDelivery,
	)
}

// CancelPurchaseHandler handles POST /purchases/{purchaseId}/cancel.
// Either party may cancel a held purchase.
func (h *HandlerProvider) CancelPurchaseHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r,
		func(p escrow.Purchase, userID string) bool { return p.IsParty(userID) },
		h.svc.Escrow.CancelPurchase,
	)
}

func (h *HandlerProvider) transition(
	w http.ResponseWriter,
	r *http.Request,
	allowed func(p escrow.Purchase, userID string) bool,
	apply func(ctx context.Context, purchaseID string) (escrow.Purchase, error),
) {
	p, ok := h.loadPurchase(w, r, allowed)
	if !ok {
		return
	}

	out, err := apply(r.Context(), p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPurchaseResponse(out))
}

// loadPurchase fetches {purchaseId} and checks the caller against allowed.
// It writes the error response itself and reports false on failure.
func (h *HandlerProvider) loadPurchase(
	w http.ResponseWriter,
	r *http.Request,
	allowed func(p escrow.Purchase, userID string) bool,
) (escrow.Purchase, bool) {
	id := chi.URLParam(r, "purchaseId")

	p, err := h.svc.Escrow.GetPurchase(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return escrow.Purchase{}, false
	}

	if !allowed(p, userIDFrom(r.Context())) {
		writeError(w, http.StatusForbidden, codeForbidden, "not allowed for this purchase")
		return escrow.Purchase{}, false
	}

	return p, true
}
