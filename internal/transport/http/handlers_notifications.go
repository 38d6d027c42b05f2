package httptransport

import (
	"net/http"

	"fedevents/internal/notification"
	"fedevents/internal/platform/middleware"
	"fedevents/internal/transport/http/shared"
	dErrors "fedevents/pkg/domain-errors"
)

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := notification.Query{
		UserID: middleware.GetUserID(ctx),
		Filter: notification.ReadFilter(r.URL.Query().Get("filtro")),
		Search: r.URL.Query().Get("buscar"),
	}
	if q.Filter == "" {
		q.Filter = notification.FilterAll
	}
	items, err := h.notifications.List(ctx, q)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	out := make([]notificationPayload, 0, len(items))
	for _, n := range items {
		out = append(out, toNotificationPayload(n))
	}
	shared.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleNotificationSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.notifications.Summary(ctx, middleware.GetUserID(ctx), 5)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	recent := make([]notificationPayload, 0, len(summary.Recent))
	for _, n := range summary.Recent {
		recent = append(recent, toNotificationPayload(n))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"no_leidas": summary.TotalUnread,
		"recientes": recent,
	})
}

type markReadRequest struct {
	Leido bool `json:"leido"`
}

func (h *Handler) handleMarkNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "notificationID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req markReadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.notifications.MarkRead(ctx, id, middleware.GetUserID(ctx), req.Leido); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkAllNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req markReadRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	affected, err := h.notifications.MarkAll(ctx, middleware.GetUserID(ctx), req.Leido)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"afectadas": affected})
}

func (h *Handler) handleRemoveNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathID(r, "notificationID")
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.notifications.Remove(ctx, id, middleware.GetUserID(ctx)); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearNotifications hard-deletes the caller's whole ledger. The
// query parameter confirmar=true guards against accidental calls.
func (h *Handler) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.URL.Query().Get("confirmar") != "true" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "clearing requires confirmar=true"))
		return
	}
	deleted, err := h.notifications.Clear(ctx, middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]int{"eliminadas": deleted})
}
