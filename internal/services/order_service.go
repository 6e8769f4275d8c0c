package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/repositories"
)

const (
	defaultPaymentMethod = "наличные"
	paymentStatusPaid    = "оплачен"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidState indicates an invalid status transition was attempted.
	ErrOrderInvalidState = errors.New("order: invalid status transition")
	// ErrOrderInsufficientStock indicates a line exceeds the available quantity.
	ErrOrderInsufficientStock = errors.New("order: insufficient stock")
	// ErrOrderReviewNotAllowed indicates the order is not reviewable.
	ErrOrderReviewNotAllowed = errors.New("order: review not allowed")
	// ErrOrderForbidden indicates the caller does not own the order.
	ErrOrderForbidden = errors.New("order: forbidden")
)

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders        repositories.OrderRepository
	Flowers       repositories.FlowerRepository
	Bouquets      repositories.BouquetRepository
	Notifications repositories.NotificationRepository
	Mailer        OrderMailer
	Events        OrderEventPublisher
	Clock         func() time.Time
	IDGenerator   func() string
	Logger        func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders        repositories.OrderRepository
	flowers       repositories.FlowerRepository
	bouquets      repositories.BouquetRepository
	notifications repositories.NotificationRepository
	mailer        OrderMailer
	events        OrderEventPublisher
	clock         func() time.Time
	newID         func() string
	logger        func(context.Context, string, map[string]any)
	sanitizer     *bluemonday.Policy
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Flowers == nil {
		return nil, errors.New("order service: flower repository is required")
	}
	if deps.Bouquets == nil {
		return nil, errors.New("order service: bouquet repository is required")
	}
	if deps.Notifications == nil {
		return nil, errors.New("order service: notification repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:        deps.Orders,
		flowers:       deps.Flowers,
		bouquets:      deps.Bouquets,
		notifications: deps.Notifications,
		mailer:        deps.Mailer,
		events:        deps.Events,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:     idGen,
		logger:    logger,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

// stockMovement is one catalog decrement implied by an order.
type stockMovement struct {
	itemType domain.ItemType
	itemID   string
	name     string
	quantity int
}

func (s *orderService) Place(ctx context.Context, cmd PlaceOrderCommand) (Order, error) {
	email := strings.TrimSpace(cmd.CustomerEmail)
	if email == "" {
		return Order{}, fmt.Errorf("%w: customer email is required", ErrOrderInvalidInput)
	}
	if len(cmd.Items) == 0 {
		return Order{}, fmt.Errorf("%w: order must contain at least one item", ErrOrderInvalidInput)
	}
	switch cmd.DeliveryType {
	case domain.DeliveryCourier:
		if strings.TrimSpace(cmd.DeliveryAddress) == "" {
			return Order{}, fmt.Errorf("%w: delivery address is required for courier delivery", ErrOrderInvalidInput)
		}
	case domain.DeliveryPickup:
	default:
		return Order{}, fmt.Errorf("%w: unknown delivery type %q", ErrOrderInvalidInput, cmd.DeliveryType)
	}
	if strings.TrimSpace(cmd.RecipientPhone) == "" {
		return Order{}, fmt.Errorf("%w: recipient phone is required", ErrOrderInvalidInput)
	}

	total := 0.0
	for i, item := range cmd.Items {
		if strings.TrimSpace(item.Name) == "" {
			return Order{}, fmt.Errorf("%w: item %d has no name", ErrOrderInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return Order{}, fmt.Errorf("%w: item %q has non-positive quantity", ErrOrderInvalidInput, item.Name)
		}
		if item.Price < 0 {
			return Order{}, fmt.Errorf("%w: item %q has negative price", ErrOrderInvalidInput, item.Name)
		}
		switch item.Type {
		case domain.ItemTypeFlower, domain.ItemTypeBouquet:
			if strings.TrimSpace(item.ItemID) == "" {
				return Order{}, fmt.Errorf("%w: item %q has no catalog id", ErrOrderInvalidInput, item.Name)
			}
		case domain.ItemTypeCustom:
		default:
			return Order{}, fmt.Errorf("%w: item %q has unknown type %q", ErrOrderInvalidInput, item.Name, item.Type)
		}
		total += float64(item.Quantity) * item.Price
	}
	for _, line := range cmd.CustomBouquet {
		if strings.TrimSpace(line.FlowerID) == "" {
			return Order{}, fmt.Errorf("%w: custom bouquet line has no flower id", ErrOrderInvalidInput)
		}
		if line.Quantity <= 0 {
			return Order{}, fmt.Errorf("%w: custom bouquet line %q has non-positive quantity", ErrOrderInvalidInput, line.FlowerName)
		}
	}

	movements := collectStockMovements(cmd.Items, cmd.CustomBouquet)

	// Fresh snapshot check so a short order line fails with a readable
	// message before any stock is touched.
	if err := s.checkStock(ctx, movements); err != nil {
		return Order{}, err
	}

	applied, err := s.applyMovements(ctx, movements)
	if err != nil {
		s.revertMovements(ctx, applied)
		return Order{}, err
	}

	now := s.clock()
	paymentMethod := strings.TrimSpace(cmd.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = defaultPaymentMethod
	}

	order := domain.Order{
		ID:              s.newID(),
		Items:           append([]domain.OrderItem(nil), cmd.Items...),
		CustomBouquet:   append([]domain.CustomBouquetLine(nil), cmd.CustomBouquet...),
		TotalAmount:     total,
		Status:          domain.StatusNew,
		DeliveryType:    cmd.DeliveryType,
		DeliveryAddress: strings.TrimSpace(cmd.DeliveryAddress),
		DeliveryDate:    strings.TrimSpace(cmd.DeliveryDate),
		DeliveryTime:    strings.TrimSpace(cmd.DeliveryTime),
		RecipientName:   strings.TrimSpace(cmd.RecipientName),
		RecipientPhone:  strings.TrimSpace(cmd.RecipientPhone),
		SenderName:      strings.TrimSpace(cmd.SenderName),
		CardMessage:     strings.TrimSpace(cmd.CardMessage),
		PaymentStatus:   paymentStatusPaid,
		PaymentMethod:   paymentMethod,
		CreatedBy:       email,
	}

	created, err := s.orders.Insert(ctx, order)
	if err != nil {
		s.revertMovements(ctx, applied)
		return Order{}, s.mapRepositoryError(err)
	}

	s.notify(ctx, created, domain.NotificationOrderCreated, domain.NoticeFor(domain.StatusNew))

	s.publishEvent(ctx, OrderEventMessage{
		EventType:     OrderEventCreated,
		OrderID:       created.ID,
		Status:        created.Status,
		DeliveryType:  created.DeliveryType,
		CustomerEmail: created.CreatedBy,
		TotalAmount:   created.TotalAmount,
		OccurredAt:    now,
	})

	if s.mailer != nil {
		if err := s.mailer.SendOrderConfirmation(ctx, created); err != nil {
			s.logger(ctx, "order.email.confirmation.failed", map[string]any{
				"order": created.ID,
				"error": err.Error(),
			})
		}
	}

	return created, nil
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error) {
	sort := filter.Sort
	if sort == "" {
		sort = "-created_date"
	}

	var (
		orders []domain.Order
		err    error
	)
	if email := strings.TrimSpace(filter.CustomerEmail); email != "" {
		orders, err = s.orders.ListByCustomer(ctx, email, sort)
	} else {
		orders, err = s.orders.List(ctx, sort)
	}
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) ChangeStatus(ctx context.Context, cmd ChangeOrderStatusCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	target := cmd.TargetStatus
	if !target.Valid() {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, target)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if strings.TrimSpace(order.CreatedBy) == "" {
		return Order{}, fmt.Errorf("%w: order %q has no owner", ErrOrderInvalidState, orderID)
	}

	prev := order.Status
	if prev == target {
		return order, nil
	}
	if prev.Terminal() {
		return Order{}, fmt.Errorf("%w: order is already %s", ErrOrderInvalidState, prev)
	}
	if !domain.CanTransition(order.DeliveryType, prev, target) {
		return Order{}, fmt.Errorf("%w: %q -> %q is not allowed for %s", ErrOrderInvalidState, prev, target, order.DeliveryType)
	}

	if domain.RestoresStock(prev, target) {
		movements := collectStockMovements(order.Items, order.CustomBouquet)
		s.restoreMovements(ctx, order.ID, movements)
	}

	updated, err := s.orders.Update(ctx, order.ID, map[string]any{"status": string(target)})
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	notice := domain.NoticeFor(target)
	s.notify(ctx, updated, domain.NotificationOrderStatus, notice)

	s.publishEvent(ctx, OrderEventMessage{
		EventType:      OrderEventStatusChanged,
		OrderID:        updated.ID,
		Status:         updated.Status,
		PreviousStatus: prev,
		DeliveryType:   updated.DeliveryType,
		CustomerEmail:  updated.CreatedBy,
		TotalAmount:    updated.TotalAmount,
		OccurredAt:     s.clock(),
	})

	if s.mailer != nil {
		if err := s.mailer.SendOrderStatus(ctx, updated, notice); err != nil {
			s.logger(ctx, "order.email.status.failed", map[string]any{
				"order":  updated.ID,
				"status": string(updated.Status),
				"error":  err.Error(),
			})
		}
	}

	return updated, nil
}

func (s *orderService) SubmitReview(ctx context.Context, cmd SubmitReviewCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if email := strings.TrimSpace(cmd.CustomerEmail); email != "" && !strings.EqualFold(email, order.CreatedBy) {
		return Order{}, fmt.Errorf("%w: order %q belongs to another customer", ErrOrderForbidden, orderID)
	}
	if order.Status != domain.StatusDelivered && order.Status != domain.StatusPickedUp {
		return Order{}, fmt.Errorf("%w: order status is %q", ErrOrderReviewNotAllowed, order.Status)
	}
	if order.Reviewed() {
		return Order{}, fmt.Errorf("%w: order already reviewed", ErrOrderReviewNotAllowed)
	}
	if cmd.RatingProduct < 1 || cmd.RatingProduct > 5 {
		return Order{}, fmt.Errorf("%w: product rating must be between 1 and 5", ErrOrderInvalidInput)
	}

	ratingDelivery := cmd.RatingDelivery
	if order.DeliveryType == domain.DeliveryPickup {
		// Pickup orders have no courier to rate.
		ratingDelivery = 5
	} else if ratingDelivery < 1 || ratingDelivery > 5 {
		return Order{}, fmt.Errorf("%w: delivery rating must be between 1 and 5", ErrOrderInvalidInput)
	}

	comment := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Comment))

	updated, err := s.orders.Update(ctx, order.ID, map[string]any{
		"rating_product":  cmd.RatingProduct,
		"rating_delivery": ratingDelivery,
		"review_comment":  comment,
		"review_date":     s.clock(),
	})
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return updated, nil
}

// collectStockMovements aggregates the catalog decrements implied by the
// order lines. Custom items carry no stock themselves; their flowers are
// listed in the custom bouquet lines.
func collectStockMovements(items []domain.OrderItem, custom []domain.CustomBouquetLine) []stockMovement {
	type key struct {
		itemType domain.ItemType
		itemID   string
	}
	index := make(map[key]int)
	movements := make([]stockMovement, 0, len(items)+len(custom))

	add := func(itemType domain.ItemType, itemID, name string, quantity int) {
		k := key{itemType: itemType, itemID: itemID}
		if i, ok := index[k]; ok {
			movements[i].quantity += quantity
			return
		}
		index[k] = len(movements)
		movements = append(movements, stockMovement{itemType: itemType, itemID: itemID, name: name, quantity: quantity})
	}

	for _, item := range items {
		switch item.Type {
		case domain.ItemTypeFlower, domain.ItemTypeBouquet:
			add(item.Type, item.ItemID, item.Name, item.Quantity)
		}
	}
	for _, line := range custom {
		add(domain.ItemTypeFlower, line.FlowerID, line.FlowerName, line.Quantity)
	}
	return movements
}

func (s *orderService) checkStock(ctx context.Context, movements []stockMovement) error {
	for _, m := range movements {
		var (
			available int
			name      string
		)
		switch m.itemType {
		case domain.ItemTypeFlower:
			flower, err := s.flowers.FindByID(ctx, m.itemID)
			if err != nil {
				if repositories.IsNotFound(err) {
					return fmt.Errorf("%w: %q is no longer in the catalog", ErrOrderInvalidInput, m.name)
				}
				return s.mapRepositoryError(err)
			}
			available, name = flower.StockQuantity, flower.Name
		case domain.ItemTypeBouquet:
			bouquet, err := s.bouquets.FindByID(ctx, m.itemID)
			if err != nil {
				if repositories.IsNotFound(err) {
					return fmt.Errorf("%w: %q is no longer in the catalog", ErrOrderInvalidInput, m.name)
				}
				return s.mapRepositoryError(err)
			}
			available, name = bouquet.StockQuantity, bouquet.Name
		}
		if available < m.quantity {
			return fmt.Errorf("%w: %w", ErrOrderInsufficientStock, &repositories.InsufficientStockError{
				ItemID:    m.itemID,
				Name:      name,
				Requested: m.quantity,
				Available: available,
			})
		}
	}
	return nil
}

// applyMovements decrements stock one line at a time. Each decrement is an
// atomic conditional update, so a concurrent overdraw fails here rather
// than driving a quantity negative. On failure the already-applied prefix
// is returned so the caller can revert it.
func (s *orderService) applyMovements(ctx context.Context, movements []stockMovement) ([]stockMovement, error) {
	applied := make([]stockMovement, 0, len(movements))
	for _, m := range movements {
		if err := s.adjust(ctx, m.itemType, m.itemID, -m.quantity); err != nil {
			if stockErr, ok := repositories.AsInsufficientStock(err); ok {
				return applied, fmt.Errorf("%w: %w", ErrOrderInsufficientStock, stockErr)
			}
			return applied, s.mapRepositoryError(err)
		}
		applied = append(applied, m)
	}
	return applied, nil
}

func (s *orderService) revertMovements(ctx context.Context, applied []stockMovement) {
	for _, m := range applied {
		if err := s.adjust(ctx, m.itemType, m.itemID, m.quantity); err != nil {
			s.logger(ctx, "order.stock.revert.failed", map[string]any{
				"item":  m.itemID,
				"delta": m.quantity,
				"error": err.Error(),
			})
		}
	}
}

// restoreMovements returns consumed units to the catalog on cancellation.
// Failures are logged rather than blocking the cancellation itself.
func (s *orderService) restoreMovements(ctx context.Context, orderID string, movements []stockMovement) {
	for _, m := range movements {
		if err := s.adjust(ctx, m.itemType, m.itemID, m.quantity); err != nil {
			s.logger(ctx, "order.stock.restore.failed", map[string]any{
				"order": orderID,
				"item":  m.itemID,
				"delta": m.quantity,
				"error": err.Error(),
			})
		}
	}
}

func (s *orderService) adjust(ctx context.Context, itemType domain.ItemType, id string, delta int) error {
	switch itemType {
	case domain.ItemTypeFlower:
		_, err := s.flowers.AdjustStock(ctx, id, delta)
		return err
	case domain.ItemTypeBouquet:
		_, err := s.bouquets.AdjustStock(ctx, id, delta)
		return err
	default:
		return fmt.Errorf("%w: unknown stock item type %q", ErrOrderInvalidInput, itemType)
	}
}

func (s *orderService) notify(ctx context.Context, order domain.Order, kind domain.NotificationType, notice domain.StatusNotice) {
	_, err := s.notifications.Insert(ctx, domain.Notification{
		UserEmail:   order.CreatedBy,
		OrderID:     order.ID,
		Title:       notice.Title,
		Message:     notice.Message,
		Type:        kind,
		OrderStatus: order.Status,
	})
	if err != nil {
		s.logger(ctx, "order.notification.failed", map[string]any{
			"order": order.ID,
			"type":  string(kind),
			"error": err.Error(),
		})
	}
}

func (s *orderService) publishEvent(ctx context.Context, message OrderEventMessage) {
	if s.events == nil {
		return
	}
	if _, err := s.events.PublishOrderEvent(ctx, message); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  message.EventType,
			"order": message.OrderID,
			"error": err.Error(),
		})
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}
