package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	domain "github.com/flowerdream/api/internal/domain"
	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
	"github.com/flowerdream/api/internal/repositories"
)

// FlowerRepository persists individual flowers in Firestore.
type FlowerRepository struct {
	deps Deps
	base *pfirestore.BaseRepository[domain.Flower]
}

// NewFlowerRepository constructs a Firestore-backed flower repository.
func NewFlowerRepository(deps Deps) (*FlowerRepository, error) {
	if err := deps.normalise(); err != nil {
		return nil, err
	}
	base := pfirestore.NewBaseRepository[domain.Flower](deps.Provider, CollectionFlowers, nil, nil)
	return &FlowerRepository{deps: deps, base: base}, nil
}

// List returns all flowers, optionally sorted.
func (r *FlowerRepository) List(ctx context.Context, sort string) ([]domain.Flower, error) {
	return r.Filter(ctx, nil, sort)
}

// Filter returns flowers matching all equality filters, optionally sorted.
func (r *FlowerRepository) Filter(ctx context.Context, filters map[string]any, sort string) ([]domain.Flower, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		query = applyFilters(query, filters)
		return pfirestore.ApplyOrder(query, sort)
	})
	if err != nil {
		return nil, err
	}

	flowers := make([]domain.Flower, 0, len(docs))
	for _, doc := range docs {
		flower := doc.Data
		flower.ID = doc.ID
		flowers = append(flowers, flower)
	}
	return flowers, nil
}

// FindByID fetches a single flower.
func (r *FlowerRepository) FindByID(ctx context.Context, id string) (domain.Flower, error) {
	id, err := requireID("flower", id)
	if err != nil {
		return domain.Flower{}, err
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Flower{}, err
	}
	flower := doc.Data
	flower.ID = doc.ID
	return flower, nil
}

// Insert stores a new flower, assigning id and timestamps.
func (r *FlowerRepository) Insert(ctx context.Context, flower domain.Flower) (domain.Flower, error) {
	if flower.ID == "" {
		flower.ID = r.deps.IDGenerator()
	}
	now := r.deps.Clock().UTC()
	flower.CreatedDate = now
	flower.UpdatedDate = now

	if _, err := r.base.Create(ctx, flower.ID, flower); err != nil {
		return domain.Flower{}, err
	}
	return flower, nil
}

// Update applies a partial update and returns the refreshed flower.
func (r *FlowerRepository) Update(ctx context.Context, id string, updates map[string]any) (domain.Flower, error) {
	id, err := requireID("flower", id)
	if err != nil {
		return domain.Flower{}, err
	}

	ops, err := buildUpdates(updates, r.deps.Clock())
	if err != nil {
		return domain.Flower{}, err
	}
	if _, err := r.base.Update(ctx, id, ops); err != nil {
		return domain.Flower{}, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a flower.
func (r *FlowerRepository) Delete(ctx context.Context, id string) error {
	id, err := requireID("flower", id)
	if err != nil {
		return err
	}
	return r.base.Delete(ctx, id)
}

// BulkInsert stores multiple flowers, assigning ids and timestamps.
func (r *FlowerRepository) BulkInsert(ctx context.Context, flowers []domain.Flower) ([]domain.Flower, error) {
	if len(flowers) == 0 {
		return []domain.Flower{}, nil
	}

	now := r.deps.Clock().UTC()
	ids := make([]string, 0, len(flowers))
	values := make([]domain.Flower, 0, len(flowers))
	for _, flower := range flowers {
		if flower.ID == "" {
			flower.ID = r.deps.IDGenerator()
		}
		flower.CreatedDate = now
		flower.UpdatedDate = now
		ids = append(ids, flower.ID)
		values = append(values, flower)
	}

	if err := r.base.BulkCreate(ctx, ids, values); err != nil {
		return nil, err
	}
	return values, nil
}

// AdjustStock atomically changes the stock quantity, failing when the
// decrement would drop below zero. The in_stock flag follows the quantity.
func (r *FlowerRepository) AdjustStock(ctx context.Context, id string, delta int) (domain.Flower, error) {
	id, err := requireID("flower", id)
	if err != nil {
		return domain.Flower{}, err
	}

	docRef, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return domain.Flower{}, err
	}

	var updated domain.Flower
	err = r.deps.Provider.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var flower domain.Flower
		if err := snap.DataTo(&flower); err != nil {
			return fmt.Errorf("decode flower %s: %w", id, err)
		}

		next := flower.StockQuantity + delta
		if next < 0 {
			return &repositories.InsufficientStockError{
				ItemID:    id,
				Name:      flower.Name,
				Requested: -delta,
				Available: flower.StockQuantity,
			}
		}

		now := r.deps.Clock().UTC()
		if err := tx.Update(docRef, []firestore.Update{
			{Path: "stock_quantity", Value: next},
			{Path: "in_stock", Value: next > 0},
			{Path: fieldUpdatedDate, Value: now},
		}); err != nil {
			return err
		}

		flower.ID = id
		flower.StockQuantity = next
		flower.InStock = next > 0
		flower.UpdatedDate = now
		updated = flower
		return nil
	})
	if err != nil {
		return domain.Flower{}, err
	}
	return updated, nil
}

// Ensure interface compliance.
var _ repositories.FlowerRepository = (*FlowerRepository)(nil)
