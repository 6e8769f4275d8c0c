package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/flowerdream/api/internal/domain"
)

func newNotificationsRouter(svc *fakeNotificationService) http.Handler {
	h := NewNotificationHandlers(testAuthenticator(), svc)
	return NewRouter(WithNotificationRoutes(h.Routes))
}

func TestNotificationListUsesIdentityEmail(t *testing.T) {
	var captured string
	svc := &fakeNotificationService{
		listFn: func(_ context.Context, email string) ([]domain.Notification, error) {
			captured = email
			return []domain.Notification{{ID: "n-1", Title: "Заказ создан"}}, nil
		},
	}
	router := newNotificationsRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/api/notifications", customerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured != "anna@example.com" {
		t.Fatalf("expected identity email, got %q", captured)
	}

	var items []map[string]any
	decodeBody(t, rec, &items)
	if len(items) != 1 || items[0]["title"] != "Заказ создан" {
		t.Fatalf("unexpected items: %v", items)
	}
}

func TestNotificationUnreadCount(t *testing.T) {
	svc := &fakeNotificationService{
		unreadFn: func(context.Context, string) (int, error) { return 3, nil },
	}
	router := newNotificationsRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/api/notifications/unread_count", customerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string]any
	decodeBody(t, rec, &payload)
	if payload["unread"] != float64(3) {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestNotificationMarkReadAndDelete(t *testing.T) {
	var readID, deletedID string
	svc := &fakeNotificationService{
		markReadFn: func(_ context.Context, _ string, id string) error {
			readID = id
			return nil
		},
		deleteFn: func(_ context.Context, _ string, id string) error {
			deletedID = id
			return nil
		},
	}
	router := newNotificationsRouter(svc)

	rec := doJSON(t, router, http.MethodPut, "/api/notifications/n-7/read", customerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if readID != "n-7" {
		t.Fatalf("expected n-7 marked read, got %q", readID)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/notifications/n-7", customerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deletedID != "n-7" {
		t.Fatalf("expected n-7 deleted, got %q", deletedID)
	}
}

func TestNotificationMarkAllRead(t *testing.T) {
	svc := &fakeNotificationService{
		markAllReadFn: func(context.Context, string) (int, error) { return 4, nil },
	}
	router := newNotificationsRouter(svc)

	rec := doJSON(t, router, http.MethodPut, "/api/notifications/read_all", customerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string]any
	decodeBody(t, rec, &payload)
	if payload["updated"] != float64(4) {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestNotificationRoutesRequireAuth(t *testing.T) {
	router := newNotificationsRouter(&fakeNotificationService{})

	rec := doJSON(t, router, http.MethodGet, "/api/notifications", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
