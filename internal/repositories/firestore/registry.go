package firestore

import (
	"context"
	"fmt"

	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
	"github.com/flowerdream/api/internal/repositories"
)

// Registry wires all Firestore repositories behind the repositories.Registry interface.
type Registry struct {
	provider *pfirestore.Provider

	collections   *CollectionStore
	flowers       *FlowerRepository
	bouquets      *BouquetRepository
	orders        *OrderRepository
	notifications *NotificationRepository
	backups       *BackupRepository
}

// NewRegistry constructs the repository registry from shared dependencies.
func NewRegistry(deps Deps) (*Registry, error) {
	if err := deps.normalise(); err != nil {
		return nil, err
	}

	collections, err := NewCollectionStore(deps)
	if err != nil {
		return nil, fmt.Errorf("collection store: %w", err)
	}
	flowers, err := NewFlowerRepository(deps)
	if err != nil {
		return nil, fmt.Errorf("flower repository: %w", err)
	}
	bouquets, err := NewBouquetRepository(deps)
	if err != nil {
		return nil, fmt.Errorf("bouquet repository: %w", err)
	}
	orders, err := NewOrderRepository(deps)
	if err != nil {
		return nil, fmt.Errorf("order repository: %w", err)
	}
	notifications, err := NewNotificationRepository(deps)
	if err != nil {
		return nil, fmt.Errorf("notification repository: %w", err)
	}
	backups, err := NewBackupRepository(deps)
	if err != nil {
		return nil, fmt.Errorf("backup repository: %w", err)
	}

	return &Registry{
		provider:      deps.Provider,
		collections:   collections,
		flowers:       flowers,
		bouquets:      bouquets,
		orders:        orders,
		notifications: notifications,
		backups:       backups,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

// Ping verifies Firestore connectivity with a minimal read.
func (r *Registry) Ping(ctx context.Context) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	_, err = client.Collection(CollectionFlowers).Limit(1).Documents(ctx).GetAll()
	return pfirestore.WrapError("registry.ping", err)
}

// Collections returns the schemaless collection store.
func (r *Registry) Collections() repositories.CollectionStore { return r.collections }

// Flowers returns the flower repository.
func (r *Registry) Flowers() repositories.FlowerRepository { return r.flowers }

// Bouquets returns the bouquet repository.
func (r *Registry) Bouquets() repositories.BouquetRepository { return r.bouquets }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Notifications returns the notification repository.
func (r *Registry) Notifications() repositories.NotificationRepository { return r.notifications }

// Backups returns the backup repository.
func (r *Registry) Backups() repositories.BackupRepository { return r.backups }

// Ensure interface compliance.
var _ repositories.Registry = (*Registry)(nil)
