package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
	"github.com/flowerdream/api/internal/repositories"
)

var storeCollections = map[string]struct{}{
	CollectionFlowers:       {},
	CollectionBouquets:      {},
	CollectionOrders:        {},
	CollectionNotifications: {},
	CollectionBackups:       {},
}

// CollectionStore implements schemaless CRUD over the whitelisted collections.
type CollectionStore struct {
	deps  Deps
	repos map[string]*pfirestore.BaseRepository[map[string]any]
}

// NewCollectionStore constructs a Firestore-backed collection store.
func NewCollectionStore(deps Deps) (*CollectionStore, error) {
	if err := deps.normalise(); err != nil {
		return nil, err
	}

	repos := make(map[string]*pfirestore.BaseRepository[map[string]any], len(storeCollections))
	for name := range storeCollections {
		repos[name] = pfirestore.NewBaseRepository(deps.Provider, name,
			pfirestore.MapEncoder[map[string]any](), pfirestore.MapDecoder())
	}

	return &CollectionStore{deps: deps, repos: repos}, nil
}

// List returns all documents in the collection, optionally sorted.
func (s *CollectionStore) List(ctx context.Context, collection string, sort string) ([]map[string]any, error) {
	return s.Filter(ctx, collection, nil, sort)
}

// Filter returns documents matching all equality filters, optionally sorted.
func (s *CollectionStore) Filter(ctx context.Context, collection string, filters map[string]any, sort string) ([]map[string]any, error) {
	repo, err := s.repo(collection)
	if err != nil {
		return nil, err
	}

	docs, err := repo.Query(ctx, func(query firestore.Query) firestore.Query {
		query = applyFilters(query, filters)
		return pfirestore.ApplyOrder(query, sort)
	})
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, withID(doc.Data, doc.ID))
	}
	return out, nil
}

// FindByID fetches a single document.
func (s *CollectionStore) FindByID(ctx context.Context, collection string, id string) (map[string]any, error) {
	repo, err := s.repo(collection)
	if err != nil {
		return nil, err
	}
	id, err = requireID(collection, id)
	if err != nil {
		return nil, err
	}

	doc, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return withID(doc.Data, doc.ID), nil
}

// Insert stores a new document, assigning id and timestamps.
func (s *CollectionStore) Insert(ctx context.Context, collection string, data map[string]any) (map[string]any, error) {
	repo, err := s.repo(collection)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, errors.New("collection store: document data is required")
	}

	id := s.deps.IDGenerator()
	now := s.deps.Clock().UTC()

	payload := make(map[string]any, len(data)+2)
	for key, value := range data {
		switch key {
		case fieldID, fieldCreatedDate, fieldUpdatedDate:
			continue
		}
		payload[key] = value
	}
	payload[fieldCreatedDate] = now
	payload[fieldUpdatedDate] = now

	if _, err := repo.Create(ctx, id, payload); err != nil {
		return nil, err
	}
	return withID(payload, id), nil
}

// Update applies a partial update and returns the refreshed document.
func (s *CollectionStore) Update(ctx context.Context, collection string, id string, data map[string]any) (map[string]any, error) {
	repo, err := s.repo(collection)
	if err != nil {
		return nil, err
	}
	id, err = requireID(collection, id)
	if err != nil {
		return nil, err
	}

	ops, err := buildUpdates(data, s.deps.Clock())
	if err != nil {
		return nil, err
	}
	if _, err := repo.Update(ctx, id, ops); err != nil {
		return nil, err
	}

	doc, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return withID(doc.Data, doc.ID), nil
}

// Delete removes a document.
func (s *CollectionStore) Delete(ctx context.Context, collection string, id string) error {
	repo, err := s.repo(collection)
	if err != nil {
		return err
	}
	id, err = requireID(collection, id)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, id)
}

// BulkInsert stores multiple documents, assigning ids and timestamps to each.
func (s *CollectionStore) BulkInsert(ctx context.Context, collection string, items []map[string]any) ([]map[string]any, error) {
	repo, err := s.repo(collection)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []map[string]any{}, nil
	}

	now := s.deps.Clock().UTC()
	ids := make([]string, 0, len(items))
	payloads := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payload := make(map[string]any, len(item)+2)
		for key, value := range item {
			switch key {
			case fieldID, fieldCreatedDate, fieldUpdatedDate:
				continue
			}
			payload[key] = value
		}
		payload[fieldCreatedDate] = now
		payload[fieldUpdatedDate] = now

		ids = append(ids, s.deps.IDGenerator())
		payloads = append(payloads, payload)
	}

	if err := repo.BulkCreate(ctx, ids, payloads); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(payloads))
	for i, payload := range payloads {
		out = append(out, withID(payload, ids[i]))
	}
	return out, nil
}

// DeleteAll removes every document in the collection. Used by backup restore.
func (s *CollectionStore) DeleteAll(ctx context.Context, collection string) error {
	repo, err := s.repo(collection)
	if err != nil {
		return err
	}
	return repo.DeleteAll(ctx)
}

func (s *CollectionStore) repo(collection string) (*pfirestore.BaseRepository[map[string]any], error) {
	if s == nil {
		return nil, errors.New("collection store not initialised")
	}
	name := strings.TrimSpace(collection)
	repo, ok := s.repos[name]
	if !ok {
		return nil, fmt.Errorf("collection store: unknown collection %q", name)
	}
	return repo, nil
}

func withID(data map[string]any, id string) map[string]any {
	out := make(map[string]any, len(data)+1)
	for key, value := range data {
		out[key] = value
	}
	out[fieldID] = id
	return out
}

// Ensure interface compliance.
var _ repositories.CollectionStore = (*CollectionStore)(nil)
