package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(svc Services) http.Handler {
	h := NewHandler(svc)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Route("/accounts/me", func(r chi.Router) {
			r.Get("/balance", h.GetBalanceHandler)
			r.Get("/ledger", h.LedgerHandler)
			r.Get("/deposits", h.ListDepositsHandler)
			r.Post("/deposits", h.RequestDepositHandler)
		})

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", h.InitiatePurchaseHandler)
			r.Get("/", h.ListPurchasesHandler)
			r.Get("/{purchaseId}", h.GetPurchaseHandler)
			r.Post("/{purchaseId}/confirm", h.ConfirmDeliveryHandler)
			r.Post("/{purchaseId}/cancel", h.CancelPurchaseHandler)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotificationsHandler)
			r.Get("/unread-count", h.UnreadCountHandler)
			r.Post("/read-all", h.MarkAllReadHandler)
			r.Post("/{notificationId}/read", h.MarkReadHandler)
		})

		r.Post("/messages", h.SendMessageHandler)
		r.Get("/messages", h.InboxHandler)
	})

	return r
}
