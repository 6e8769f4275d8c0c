package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/services"
)

// NotificationHandlers serves the signed-in customer's notification feed.
type NotificationHandlers struct {
	authn         *auth.Authenticator
	notifications services.NotificationService
}

// NewNotificationHandlers constructs notification handlers.
func NewNotificationHandlers(authn *auth.Authenticator, notifications services.NotificationService) *NotificationHandlers {
	return &NotificationHandlers{authn: authn, notifications: notifications}
}

// Routes registers the /notifications endpoints.
func (h *NotificationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Get("/", h.list)
	r.Get("/unread_count", h.unreadCount)
	r.Put("/read_all", h.markAllRead)
	r.Put("/{notificationID}/read", h.markRead)
	r.Delete("/{notificationID}", h.remove)
}

func (h *NotificationHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	items, err := h.notifications.List(ctx, identity.Email)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, items)
}

func (h *NotificationHandlers) unreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	count, err := h.notifications.UnreadCount(ctx, identity.Email)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *NotificationHandlers) markRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(ctx, identity.Email, chi.URLParam(r, "notificationID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *NotificationHandlers) markAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	updated, err := h.notifications.MarkAllRead(ctx, identity.Email)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]int{"updated": updated})
}

func (h *NotificationHandlers) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	if err := h.notifications.Delete(ctx, identity.Email, chi.URLParam(r, "notificationID")); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}
