package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListNotificationsHandler handles GET /notifications
func (h *HandlerProvider) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	list, err := h.svc.Notifications.List(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"notifications": toNotificationResponses(list)})
}

// UnreadCountHandler handles GET /notifications/unread-count
func (h *HandlerProvider) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notifications.UnreadCount(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"unread": n})
}

// MarkReadHandler handles POST /notifications/{notificationId}/read
func (h *HandlerProvider) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Notifications.MarkRead(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "notificationId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllReadHandler handles POST /notifications/read-all
func (h *HandlerProvider) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notifications.MarkAllRead(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"marked": n})
}

// SendMessageHandler handles POST /messages
func (h *HandlerProvider) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req messageRequest

	err := h.decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	msg, err := h.svc.Notifications.SendMessage(r.Context(), userIDFrom(r.Context()), req.ReceiverID, req.Body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// InboxHandler handles GET /messages
func (h *HandlerProvider) InboxHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
		return
	}

	list, err := h.svc.Notifications.Inbox(r.Context(), userIDFrom(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]messageResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMessageResponse(m))
	}

	writeJSON(w, http.StatusOK, map[string]any{"messages": out})
}
