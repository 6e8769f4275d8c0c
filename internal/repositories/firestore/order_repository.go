package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/flowerdream/api/internal/domain"
	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
	"github.com/flowerdream/api/internal/repositories"
)

// OrderRepository persists customer orders in Firestore.
type OrderRepository struct {
	deps Deps
	base *pfirestore.BaseRepository[domain.Order]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(deps Deps) (*OrderRepository, error) {
	if err := deps.normalise(); err != nil {
		return nil, err
	}
	base := pfirestore.NewBaseRepository[domain.Order](deps.Provider, CollectionOrders, nil, nil)
	return &OrderRepository{deps: deps, base: base}, nil
}

// List returns all orders, optionally sorted.
func (r *OrderRepository) List(ctx context.Context, sort string) ([]domain.Order, error) {
	return r.query(ctx, nil, sort)
}

// ListByCustomer returns orders created by the given customer email.
func (r *OrderRepository) ListByCustomer(ctx context.Context, email string, sort string) ([]domain.Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("order repository: customer email is required")
	}
	return r.query(ctx, map[string]any{"created_by": email}, sort)
}

// FindByID fetches a single order.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	id, err := requireID("order", id)
	if err != nil {
		return domain.Order{}, err
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	order := doc.Data
	order.ID = doc.ID
	return order, nil
}

// Insert stores a new order, assigning id and timestamps.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = r.deps.IDGenerator()
	}
	now := r.deps.Clock().UTC()
	order.CreatedDate = now
	order.UpdatedDate = now

	if _, err := r.base.Create(ctx, order.ID, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// Update applies a partial update and returns the refreshed order.
func (r *OrderRepository) Update(ctx context.Context, id string, updates map[string]any) (domain.Order, error) {
	id, err := requireID("order", id)
	if err != nil {
		return domain.Order{}, err
	}

	ops, err := buildUpdates(updates, r.deps.Clock())
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := r.base.Update(ctx, id, ops); err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, id)
}

func (r *OrderRepository) query(ctx context.Context, filters map[string]any, sort string) ([]domain.Order, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		query = applyFilters(query, filters)
		return pfirestore.ApplyOrder(query, sort)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		order := doc.Data
		order.ID = doc.ID
		orders = append(orders, order)
	}
	return orders, nil
}

// Ensure interface compliance.
var _ repositories.OrderRepository = (*OrderRepository)(nil)
