package firestore

import (
	"context"

	"cloud.google.com/go/firestore"

	domain "github.com/flowerdream/api/internal/domain"
	pfirestore "github.com/flowerdream/api/internal/platform/firestore"
	"github.com/flowerdream/api/internal/repositories"
)

// NotificationRepository persists admin notifications in Firestore.
type NotificationRepository struct {
	deps Deps
	base *pfirestore.BaseRepository[domain.Notification]
}

// NewNotificationRepository constructs a Firestore-backed notification repository.
func NewNotificationRepository(deps Deps) (*NotificationRepository, error) {
	if err := deps.normalise(); err != nil {
		return nil, err
	}
	base := pfirestore.NewBaseRepository[domain.Notification](deps.Provider, CollectionNotifications, nil, nil)
	return &NotificationRepository{deps: deps, base: base}, nil
}

// List returns all notifications, optionally sorted.
func (r *NotificationRepository) List(ctx context.Context, sort string) ([]domain.Notification, error) {
	return r.query(ctx, nil, sort)
}

// ListByUser returns the notifications addressed to the given email.
func (r *NotificationRepository) ListByUser(ctx context.Context, email string, sort string) ([]domain.Notification, error) {
	return r.query(ctx, map[string]any{"user_email": email}, sort)
}

// ListUnread returns the user's notifications that have not been marked read.
func (r *NotificationRepository) ListUnread(ctx context.Context, email string) ([]domain.Notification, error) {
	return r.query(ctx, map[string]any{"user_email": email, "is_read": false}, "-created_date")
}

// FindByID loads a single notification.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (domain.Notification, error) {
	id, err := requireID("notification", id)
	if err != nil {
		return domain.Notification{}, err
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}
	notification := doc.Data
	notification.ID = doc.ID
	return notification, nil
}

// Insert stores a new notification, assigning id and timestamps.
func (r *NotificationRepository) Insert(ctx context.Context, notification domain.Notification) (domain.Notification, error) {
	if notification.ID == "" {
		notification.ID = r.deps.IDGenerator()
	}
	now := r.deps.Clock().UTC()
	notification.CreatedDate = now
	notification.UpdatedDate = now

	if _, err := r.base.Create(ctx, notification.ID, notification); err != nil {
		return domain.Notification{}, err
	}
	return notification, nil
}

// MarkRead flags the notification as read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	id, err := requireID("notification", id)
	if err != nil {
		return err
	}

	ops, err := buildUpdates(map[string]any{"is_read": true}, r.deps.Clock())
	if err != nil {
		return err
	}
	_, err = r.base.Update(ctx, id, ops)
	return err
}

// Delete removes a notification.
func (r *NotificationRepository) Delete(ctx context.Context, id string) error {
	id, err := requireID("notification", id)
	if err != nil {
		return err
	}
	return r.base.Delete(ctx, id)
}

func (r *NotificationRepository) query(ctx context.Context, filters map[string]any, sort string) ([]domain.Notification, error) {
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		query = applyFilters(query, filters)
		return pfirestore.ApplyOrder(query, sort)
	})
	if err != nil {
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(docs))
	for _, doc := range docs {
		notification := doc.Data
		notification.ID = doc.ID
		notifications = append(notifications, notification)
	}
	return notifications, nil
}

// Ensure interface compliance.
var _ repositories.NotificationRepository = (*NotificationRepository)(nil)
