package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	domain "github.com/flowerdream/api/internal/domain"
	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
	"github.com/flowerdream/api/internal/repositories"
)

// BouquetRepository persists ready-made bouquets in Firestore.
type BouquetRepository struct {
	deps Deps
	base *pfirestore.BaseRepository[domain.Bouquet]
}

// NewBouquetRepository constructs a Firestore-backed bouquet repository.
func NewBouquetRepository(deps Deps) (*BouquetRepository, error) {
	if err := deps.normalise(); err != nil {
		return nil, err
	}
	base := pfirestore.NewBaseRepository[domain.Bouquet](deps.Provider, CollectionBouquets, nil, nil)
	return &BouquetRepository{deps: deps, base: base}, nil
}

// List returns all bouquets, optionally sorted.
func (r *BouquetRepository) List(ctx context.Context, sort string) ([]domain.Bouquet, error) {
	return r.Filter(ctx, nil, sort)
}

// Filter returns bouquets matching all equality filters, optionally sorted.
func (r *BouquetRepository) Filter(ctx context.Context, filters map[string]any, sort string) ([]domain.Bouquet, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		query = applyFilters(query, filters)
		return pfirestore.ApplyOrder(query, sort)
	})
	if err != nil {
		return nil, err
	}

	bouquets := make([]domain.Bouquet, 0, len(docs))
	for _, doc := range docs {
		bouquet := doc.Data
		bouquet.ID = doc.ID
		bouquets = append(bouquets, bouquet)
	}
	return bouquets, nil
}

// FindByID fetches a single bouquet.
func (r *BouquetRepository) FindByID(ctx context.Context, id string) (domain.Bouquet, error) {
	id, err := requireID("bouquet", id)
	if err != nil {
		return domain.Bouquet{}, err
	}

	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Bouquet{}, err
	}
	bouquet := doc.Data
	bouquet.ID = doc.ID
	return bouquet, nil
}

// Insert stores a new bouquet, assigning id and timestamps.
func (r *BouquetRepository) Insert(ctx context.Context, bouquet domain.Bouquet) (domain.Bouquet, error) {
	if bouquet.ID == "" {
		bouquet.ID = r.deps.IDGenerator()
	}
	now := r.deps.Clock().UTC()
	bouquet.CreatedDate = now
	bouquet.UpdatedDate = now

	if _, err := r.base.Create(ctx, bouquet.ID, bouquet); err != nil {
		return domain.Bouquet{}, err
	}
	return bouquet, nil
}

// Update applies a partial update and returns the refreshed bouquet.
func (r *BouquetRepository) Update(ctx context.Context, id string, updates map[string]any) (domain.Bouquet, error) {
	id, err := requireID("bouquet", id)
	if err != nil {
		return domain.Bouquet{}, err
	}

	ops, err := buildUpdates(updates, r.deps.Clock())
	if err != nil {
		return domain.Bouquet{}, err
	}
	if _, err := r.base.Update(ctx, id, ops); err != nil {
		return domain.Bouquet{}, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a bouquet.
func (r *BouquetRepository) Delete(ctx context.Context, id string) error {
	id, err := requireID("bouquet", id)
	if err != nil {
		return err
	}
	return r.base.Delete(ctx, id)
}

// BulkInsert stores multiple bouquets, assigning ids and timestamps.
func (r *BouquetRepository) BulkInsert(ctx context.Context, bouquets []domain.Bouquet) ([]domain.Bouquet, error) {
	if len(bouquets) == 0 {
		return []domain.Bouquet{}, nil
	}

	now := r.deps.Clock().UTC()
	ids := make([]string, 0, len(bouquets))
	values := make([]domain.Bouquet, 0, len(bouquets))
	for _, bouquet := range bouquets {
		if bouquet.ID == "" {
			bouquet.ID = r.deps.IDGenerator()
		}
		bouquet.CreatedDate = now
		bouquet.UpdatedDate = now
		ids = append(ids, bouquet.ID)
		values = append(values, bouquet)
	}

	if err := r.base.BulkCreate(ctx, ids, values); err != nil {
		return nil, err
	}
	return values, nil
}

// AdjustStock atomically changes the stock quantity, failing when the
// decrement would drop below zero.
func (r *BouquetRepository) AdjustStock(ctx context.Context, id string, delta int) (domain.Bouquet, error) {
	id, err := requireID("bouquet", id)
	if err != nil {
		return domain.Bouquet{}, err
	}

	docRef, err := r.base.DocumentRef(ctx, id)
	if err != nil {
		return domain.Bouquet{}, err
	}

	var updated domain.Bouquet
	err = r.deps.Provider.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var bouquet domain.Bouquet
		if err := snap.DataTo(&bouquet); err != nil {
			return fmt.Errorf("decode bouquet %s: %w", id, err)
		}

		next := bouquet.StockQuantity + delta
		if next < 0 {
			return &repositories.InsufficientStockError{
				ItemID:    id,
				Name:      bouquet.Name,
				Requested: -delta,
				Available: bouquet.StockQuantity,
			}
		}

		now := r.deps.Clock().UTC()
		if err := tx.Update(docRef, []firestore.Update{
			{Path: "stock_quantity", Value: next},
			{Path: fieldUpdatedDate, Value: now},
		}); err != nil {
			return err
		}

		bouquet.ID = id
		bouquet.StockQuantity = next
		bouquet.UpdatedDate = now
		updated = bouquet
		return nil
	})
	if err != nil {
		return domain.Bouquet{}, err
	}
	return updated, nil
}

// Ensure interface compliance.
var _ repositories.BouquetRepository = (*BouquetRepository)(nil)
