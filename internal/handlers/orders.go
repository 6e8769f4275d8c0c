package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/platform/httpx"
	"github.com/flowerdream/api/internal/services"
)

// OrderHandlers exposes the customer and admin order endpoints.
type OrderHandlers struct {
	authn  *auth.Authenticator
	orders services.OrderService
}

// NewOrderHandlers constructs order handlers enforcing Firebase authentication.
func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{authn: authn, orders: orders}
}

// Routes registers the /orders endpoints.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireAuth())
	}
	r.Post("/", h.placeOrder)
	r.Get("/", h.listOrders)
	r.Get("/{orderID}", h.getOrder)

	admin := func(next http.Handler) http.Handler { return next }
	if h.authn != nil {
		admin = h.authn.RequireAuth(auth.RoleAdmin)
	}
	r.With(admin).Put("/{orderID}/status", h.changeStatus)

	r.Post("/{orderID}/review", h.submitReview)
}

type placeOrderRequest struct {
	Items           []domain.OrderItem         `json:"items"`
	CustomBouquet   []domain.CustomBouquetLine `json:"custom_bouquet"`
	DeliveryType    string                     `json:"delivery_type"`
	DeliveryAddress string                     `json:"delivery_address"`
	DeliveryDate    string                     `json:"delivery_date"`
	DeliveryTime    string                     `json:"delivery_time"`
	RecipientName   string                     `json:"recipient_name"`
	RecipientPhone  string                     `json:"recipient_phone"`
	SenderName      string                     `json:"sender_name"`
	CardMessage     string                     `json:"card_message"`
	PaymentMethod   string                     `json:"payment_method"`
}

func (h *OrderHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, defaultMaxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req placeOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	order, err := h.orders.Place(ctx, services.PlaceOrderCommand{
		CustomerEmail:   identity.Email,
		Items:           req.Items,
		CustomBouquet:   req.CustomBouquet,
		DeliveryType:    domain.DeliveryType(strings.TrimSpace(req.DeliveryType)),
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		DeliveryTime:    req.DeliveryTime,
		RecipientName:   req.RecipientName,
		RecipientPhone:  req.RecipientPhone,
		SenderName:      req.SenderName,
		CardMessage:     req.CardMessage,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, order)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	filter := services.OrderListFilter{
		CustomerEmail: identity.Email,
		Sort:          strings.TrimSpace(r.URL.Query().Get("order")),
	}
	// Administrators see every order.
	if identity.HasRole(auth.RoleAdmin) {
		filter.CustomerEmail = ""
	}

	orders, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orders)
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	if !identity.HasRole(auth.RoleAdmin) && !strings.EqualFold(order.CreatedBy, identity.Email) {
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "order belongs to another customer", http.StatusForbidden))
		return
	}
	writeJSONResponse(w, http.StatusOK, order)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandlers) changeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, defaultMaxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req changeStatusRequest
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.Status) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "status is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.ChangeStatus(ctx, services.ChangeOrderStatusCommand{
		OrderID:      chi.URLParam(r, "orderID"),
		TargetStatus: domain.OrderStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, order)
}

type submitReviewRequest struct {
	RatingProduct  int    `json:"rating_product"`
	RatingDelivery int    `json:"rating_delivery"`
	Comment        string `json:"comment"`
}

func (h *OrderHandlers) submitReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, defaultMaxBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req submitReviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	order, err := h.orders.SubmitReview(ctx, services.SubmitReviewCommand{
		OrderID:        chi.URLParam(r, "orderID"),
		CustomerEmail:  identity.Email,
		RatingProduct:  req.RatingProduct,
		RatingDelivery: req.RatingDelivery,
		Comment:        req.Comment,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, order)
}
