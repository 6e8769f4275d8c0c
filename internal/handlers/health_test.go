package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthzReportsOK(t *testing.T) {
	router := NewRouter(WithHealthHandlers(NewHealthHandlers(pingerFunc(func(context.Context) error {
		return nil
	}))))

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload map[string]any
	decodeBody(t, rec, &payload)
	if payload["status"] != "ok" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestHealthzReportsDegradedStore(t *testing.T) {
	router := NewRouter(WithHealthHandlers(NewHealthHandlers(pingerFunc(func(context.Context) error {
		return errors.New("firestore unreachable")
	}))))

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var payload map[string]any
	decodeBody(t, rec, &payload)
	if payload["status"] != "degraded" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	router := NewRouter()

	rec := doJSON(t, router, http.MethodGet, "/api/unknown", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var payload map[string]any
	decodeBody(t, rec, &payload)
	if payload["error"] != "route_not_found" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}
