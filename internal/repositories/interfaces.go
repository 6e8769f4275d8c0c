package repositories

import (
	"context"

	domain "github.com/flowerdream/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error
	Ping(ctx context.Context) error

	Collections() CollectionStore
	Flowers() FlowerRepository
	Bouquets() BouquetRepository
	Orders() OrderRepository
	Notifications() NotificationRepository
	Backups() BackupRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CollectionStore provides schemaless CRUD over a whitelisted set of named
// collections. Documents are raw maps; the store assigns id, created_date,
// and updated_date on insert and refreshes updated_date on update.
type CollectionStore interface {
	List(ctx context.Context, collection string, sort string) ([]map[string]any, error)
	Filter(ctx context.Context, collection string, filters map[string]any, sort string) ([]map[string]any, error)
	FindByID(ctx context.Context, collection string, id string) (map[string]any, error)
	Insert(ctx context.Context, collection string, data map[string]any) (map[string]any, error)
	Update(ctx context.Context, collection string, id string, data map[string]any) (map[string]any, error)
	Delete(ctx context.Context, collection string, id string) error
	BulkInsert(ctx context.Context, collection string, items []map[string]any) ([]map[string]any, error)
	DeleteAll(ctx context.Context, collection string) error
}

// FlowerRepository persists individual flowers with transactional stock control.
type FlowerRepository interface {
	List(ctx context.Context, sort string) ([]domain.Flower, error)
	Filter(ctx context.Context, filters map[string]any, sort string) ([]domain.Flower, error)
	FindByID(ctx context.Context, id string) (domain.Flower, error)
	Insert(ctx context.Context, flower domain.Flower) (domain.Flower, error)
	Update(ctx context.Context, id string, updates map[string]any) (domain.Flower, error)
	Delete(ctx context.Context, id string) error
	BulkInsert(ctx context.Context, flowers []domain.Flower) ([]domain.Flower, error)
	AdjustStock(ctx context.Context, id string, delta int) (domain.Flower, error)
}

// BouquetRepository persists ready-made bouquets with transactional stock control.
type BouquetRepository interface {
	List(ctx context.Context, sort string) ([]domain.Bouquet, error)
	Filter(ctx context.Context, filters map[string]any, sort string) ([]domain.Bouquet, error)
	FindByID(ctx context.Context, id string) (domain.Bouquet, error)
	Insert(ctx context.Context, bouquet domain.Bouquet) (domain.Bouquet, error)
	Update(ctx context.Context, id string, updates map[string]any) (domain.Bouquet, error)
	Delete(ctx context.Context, id string) error
	BulkInsert(ctx context.Context, bouquets []domain.Bouquet) ([]domain.Bouquet, error)
	AdjustStock(ctx context.Context, id string, delta int) (domain.Bouquet, error)
}

// OrderRepository persists customer orders.
type OrderRepository interface {
	List(ctx context.Context, sort string) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, email string, sort string) ([]domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	Insert(ctx context.Context, order domain.Order) (domain.Order, error)
	Update(ctx context.Context, id string, updates map[string]any) (domain.Order, error)
}

// NotificationRepository persists per-customer notifications.
type NotificationRepository interface {
	List(ctx context.Context, sort string) ([]domain.Notification, error)
	ListByUser(ctx context.Context, email string, sort string) ([]domain.Notification, error)
	ListUnread(ctx context.Context, email string) ([]domain.Notification, error)
	FindByID(ctx context.Context, id string) (domain.Notification, error)
	Insert(ctx context.Context, notification domain.Notification) (domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// BackupRepository persists catalog snapshots.
type BackupRepository interface {
	List(ctx context.Context, sort string) ([]domain.Backup, error)
	FindByID(ctx context.Context, id string) (domain.Backup, error)
	Insert(ctx context.Context, backup domain.Backup) (domain.Backup, error)
	Delete(ctx context.Context, id string) error
}

// IsNotFound reports whether err categorises as a missing document.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	if asRepositoryError(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

// IsConflict reports whether err categorises as a conflicting update.
func IsConflict(err error) bool {
	var repoErr RepositoryError
	if asRepositoryError(err, &repoErr) {
		return repoErr.IsConflict()
	}
	return false
}

// IsUnavailable reports whether err categorises as a transient backend outage.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	if asRepositoryError(err, &repoErr) {
		return repoErr.IsUnavailable()
	}
	return false
}
