package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/services"
)

func newOrdersRouter(svc *fakeOrderService) http.Handler {
	h := NewOrderHandlers(testAuthenticator(), svc)
	return NewRouter(WithOrderRoutes(h.Routes))
}

func TestPlaceOrderUsesCallerIdentity(t *testing.T) {
	var captured services.PlaceOrderCommand
	svc := &fakeOrderService{
		placeFn: func(_ context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
			captured = cmd
			return domain.Order{ID: "order-001", CreatedBy: cmd.CustomerEmail, Status: domain.StatusNew}, nil
		},
	}
	router := newOrdersRouter(svc)

	body := `{
		"items":[{"type":"bouquet","item_id":"b-1","name":"Нежность","price":2500,"quantity":1}],
		"delivery_type":"самовывоз",
		"recipient_name":"Анна",
		"recipient_phone":"+79990001122"
	}`
	rec := doJSON(t, router, http.MethodPost, "/api/orders", customerToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.CustomerEmail != "anna@example.com" {
		t.Fatalf("expected identity email on command, got %q", captured.CustomerEmail)
	}
	if captured.DeliveryType != domain.DeliveryPickup {
		t.Fatalf("expected pickup delivery, got %q", captured.DeliveryType)
	}

	var order map[string]any
	decodeBody(t, rec, &order)
	if order["id"] != "order-001" {
		t.Fatalf("unexpected order payload: %v", order)
	}
}

func TestPlaceOrderRequiresAuth(t *testing.T) {
	svc := &fakeOrderService{
		placeFn: func(context.Context, services.PlaceOrderCommand) (domain.Order, error) {
			t.Fatal("service should not be reached without auth")
			return domain.Order{}, nil
		},
	}
	router := newOrdersRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/api/orders", "", `{}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPlaceOrderMapsInsufficientStock(t *testing.T) {
	svc := &fakeOrderService{
		placeFn: func(context.Context, services.PlaceOrderCommand) (domain.Order, error) {
			return domain.Order{}, fmt.Errorf("%w: stock check failed", services.ErrOrderInsufficientStock)
		},
	}
	router := newOrdersRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/api/orders", customerToken, `{"items":[]}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var envelope map[string]any
	decodeBody(t, rec, &envelope)
	if envelope["error"] != "insufficient_stock" {
		t.Fatalf("unexpected envelope: %v", envelope)
	}
}

func TestListOrdersScopesNonAdminToOwnEmail(t *testing.T) {
	var captured services.OrderListFilter
	svc := &fakeOrderService{
		listFn: func(_ context.Context, filter services.OrderListFilter) ([]domain.Order, error) {
			captured = filter
			return []domain.Order{}, nil
		},
	}
	router := newOrdersRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/api/orders", customerToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.CustomerEmail != "anna@example.com" {
		t.Fatalf("expected customer scope, got %q", captured.CustomerEmail)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/orders", adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.CustomerEmail != "" {
		t.Fatalf("expected admin to see every order, got scope %q", captured.CustomerEmail)
	}
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	svc := &fakeOrderService{
		getFn: func(_ context.Context, id string) (domain.Order, error) {
			return domain.Order{ID: id, CreatedBy: "другой@example.com"}, nil
		},
	}
	router := newOrdersRouter(svc)

	rec := doJSON(t, router, http.MethodGet, "/api/orders/order-001", customerToken, "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign order, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/orders/order-001", adminToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected admin access, got %d", rec.Code)
	}
}

func TestChangeStatusIsAdminOnly(t *testing.T) {
	var captured services.ChangeOrderStatusCommand
	svc := &fakeOrderService{
		changeStatusFn: func(_ context.Context, cmd services.ChangeOrderStatusCommand) (domain.Order, error) {
			captured = cmd
			return domain.Order{ID: cmd.OrderID, Status: cmd.TargetStatus}, nil
		},
	}
	router := newOrdersRouter(svc)

	rec := doJSON(t, router, http.MethodPut, "/api/orders/order-001/status", customerToken, `{"status":"в_обработке"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/orders/order-001/status", adminToken, `{"status":"в_обработке"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.OrderID != "order-001" || captured.TargetStatus != domain.StatusProcessing {
		t.Fatalf("unexpected command: %+v", captured)
	}

	rec = doJSON(t, router, http.MethodPut, "/api/orders/order-001/status", adminToken, `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without status, got %d", rec.Code)
	}
}

func TestSubmitReviewPassesIdentityEmail(t *testing.T) {
	var captured services.SubmitReviewCommand
	svc := &fakeOrderService{
		submitReviewFn: func(_ context.Context, cmd services.SubmitReviewCommand) (domain.Order, error) {
			captured = cmd
			return domain.Order{ID: cmd.OrderID}, nil
		},
	}
	router := newOrdersRouter(svc)

	rec := doJSON(t, router, http.MethodPost, "/api/orders/order-001/review", customerToken,
		`{"rating_product":5,"rating_delivery":4,"comment":"Спасибо!"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.CustomerEmail != "anna@example.com" || captured.RatingProduct != 5 || captured.RatingDelivery != 4 {
		t.Fatalf("unexpected command: %+v", captured)
	}
}
