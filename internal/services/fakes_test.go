package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/repositories"
)

// notFoundError satisfies repositories.RepositoryError for fake lookups.
type notFoundError struct {
	msg string
}

func (e *notFoundError) Error() string       { return e.msg }
func (e *notFoundError) IsNotFound() bool    { return true }
func (e *notFoundError) IsConflict() bool    { return false }
func (e *notFoundError) IsUnavailable() bool { return false }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

type fakeFlowerRepo struct {
	flowers map[string]domain.Flower
	adjusts []string
	failOn  map[string]error
}

func newFakeFlowerRepo(flowers ...domain.Flower) *fakeFlowerRepo {
	repo := &fakeFlowerRepo{flowers: make(map[string]domain.Flower), failOn: make(map[string]error)}
	for _, f := range flowers {
		repo.flowers[f.ID] = f
	}
	return repo
}

func (r *fakeFlowerRepo) List(_ context.Context, _ string) ([]domain.Flower, error) {
	out := make([]domain.Flower, 0, len(r.flowers))
	for _, f := range r.flowers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeFlowerRepo) Filter(ctx context.Context, _ map[string]any, sort string) ([]domain.Flower, error) {
	return r.List(ctx, sort)
}

func (r *fakeFlowerRepo) FindByID(_ context.Context, id string) (domain.Flower, error) {
	f, ok := r.flowers[id]
	if !ok {
		return domain.Flower{}, &notFoundError{msg: "flower " + id + " not found"}
	}
	return f, nil
}

func (r *fakeFlowerRepo) Insert(_ context.Context, flower domain.Flower) (domain.Flower, error) {
	if flower.ID == "" {
		flower.ID = fmt.Sprintf("flw-%03d", len(r.flowers)+1)
	}
	r.flowers[flower.ID] = flower
	return flower, nil
}

func (r *fakeFlowerRepo) Update(_ context.Context, id string, updates map[string]any) (domain.Flower, error) {
	f, ok := r.flowers[id]
	if !ok {
		return domain.Flower{}, &notFoundError{msg: "flower " + id + " not found"}
	}
	if name, ok := updates["name"].(string); ok {
		f.Name = name
	}
	if price, ok := updates["price"].(float64); ok {
		f.Price = price
	}
	if qty, ok := updates["stock_quantity"].(int); ok {
		f.StockQuantity = qty
		f.InStock = qty > 0
	}
	r.flowers[id] = f
	return f, nil
}

func (r *fakeFlowerRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.flowers[id]; !ok {
		return &notFoundError{msg: "flower " + id + " not found"}
	}
	delete(r.flowers, id)
	return nil
}

func (r *fakeFlowerRepo) BulkInsert(ctx context.Context, flowers []domain.Flower) ([]domain.Flower, error) {
	out := make([]domain.Flower, 0, len(flowers))
	for _, f := range flowers {
		inserted, err := r.Insert(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *fakeFlowerRepo) AdjustStock(_ context.Context, id string, delta int) (domain.Flower, error) {
	if err := r.failOn[id]; err != nil {
		return domain.Flower{}, err
	}
	f, ok := r.flowers[id]
	if !ok {
		return domain.Flower{}, &notFoundError{msg: "flower " + id + " not found"}
	}
	next := f.StockQuantity + delta
	if next < 0 {
		return domain.Flower{}, &repositories.InsufficientStockError{
			ItemID:    id,
			Name:      f.Name,
			Requested: -delta,
			Available: f.StockQuantity,
		}
	}
	f.StockQuantity = next
	f.InStock = next > 0
	r.flowers[id] = f
	r.adjusts = append(r.adjusts, fmt.Sprintf("%s:%+d", id, delta))
	return f, nil
}

type fakeBouquetRepo struct {
	bouquets map[string]domain.Bouquet
	adjusts  []string
}

func newFakeBouquetRepo(bouquets ...domain.Bouquet) *fakeBouquetRepo {
	repo := &fakeBouquetRepo{bouquets: make(map[string]domain.Bouquet)}
	for _, b := range bouquets {
		repo.bouquets[b.ID] = b
	}
	return repo
}

func (r *fakeBouquetRepo) List(_ context.Context, _ string) ([]domain.Bouquet, error) {
	out := make([]domain.Bouquet, 0, len(r.bouquets))
	for _, b := range r.bouquets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBouquetRepo) Filter(ctx context.Context, _ map[string]any, sort string) ([]domain.Bouquet, error) {
	return r.List(ctx, sort)
}

func (r *fakeBouquetRepo) FindByID(_ context.Context, id string) (domain.Bouquet, error) {
	b, ok := r.bouquets[id]
	if !ok {
		return domain.Bouquet{}, &notFoundError{msg: "bouquet " + id + " not found"}
	}
	return b, nil
}

func (r *fakeBouquetRepo) Insert(_ context.Context, bouquet domain.Bouquet) (domain.Bouquet, error) {
	if bouquet.ID == "" {
		bouquet.ID = fmt.Sprintf("bqt-%03d", len(r.bouquets)+1)
	}
	r.bouquets[bouquet.ID] = bouquet
	return bouquet, nil
}

func (r *fakeBouquetRepo) Update(_ context.Context, id string, updates map[string]any) (domain.Bouquet, error) {
	b, ok := r.bouquets[id]
	if !ok {
		return domain.Bouquet{}, &notFoundError{msg: "bouquet " + id + " not found"}
	}
	if name, ok := updates["name"].(string); ok {
		b.Name = name
	}
	if qty, ok := updates["stock_quantity"].(int); ok {
		b.StockQuantity = qty
	}
	r.bouquets[id] = b
	return b, nil
}

func (r *fakeBouquetRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.bouquets[id]; !ok {
		return &notFoundError{msg: "bouquet " + id + " not found"}
	}
	delete(r.bouquets, id)
	return nil
}

func (r *fakeBouquetRepo) BulkInsert(ctx context.Context, bouquets []domain.Bouquet) ([]domain.Bouquet, error) {
	out := make([]domain.Bouquet, 0, len(bouquets))
	for _, b := range bouquets {
		inserted, err := r.Insert(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (r *fakeBouquetRepo) AdjustStock(_ context.Context, id string, delta int) (domain.Bouquet, error) {
	b, ok := r.bouquets[id]
	if !ok {
		return domain.Bouquet{}, &notFoundError{msg: "bouquet " + id + " not found"}
	}
	next := b.StockQuantity + delta
	if next < 0 {
		return domain.Bouquet{}, &repositories.InsufficientStockError{
			ItemID:    id,
			Name:      b.Name,
			Requested: -delta,
			Available: b.StockQuantity,
		}
	}
	b.StockQuantity = next
	r.bouquets[id] = b
	r.adjusts = append(r.adjusts, fmt.Sprintf("%s:%+d", id, delta))
	return b, nil
}

type fakeOrderRepo struct {
	orders    map[string]domain.Order
	insertErr error
}

func newFakeOrderRepo(orders ...domain.Order) *fakeOrderRepo {
	repo := &fakeOrderRepo{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (r *fakeOrderRepo) List(_ context.Context, _ string) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOrderRepo) ListByCustomer(ctx context.Context, email string, sort string) ([]domain.Order, error) {
	all, _ := r.List(ctx, sort)
	out := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if strings.EqualFold(o.CreatedBy, email) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id string) (domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, &notFoundError{msg: "order " + id + " not found"}
	}
	return o, nil
}

func (r *fakeOrderRepo) Insert(_ context.Context, order domain.Order) (domain.Order, error) {
	if r.insertErr != nil {
		return domain.Order{}, r.insertErr
	}
	if order.ID == "" {
		order.ID = fmt.Sprintf("ord-%03d", len(r.orders)+1)
	}
	r.orders[order.ID] = order
	return order, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, id string, updates map[string]any) (domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, &notFoundError{msg: "order " + id + " not found"}
	}
	if status, ok := updates["status"].(string); ok {
		o.Status = domain.OrderStatus(status)
	}
	if rating, ok := updates["rating_product"].(int); ok {
		o.RatingProduct = rating
	}
	if rating, ok := updates["rating_delivery"].(int); ok {
		o.RatingDelivery = rating
	}
	if comment, ok := updates["review_comment"].(string); ok {
		o.ReviewComment = comment
	}
	if date, ok := updates["review_date"].(time.Time); ok {
		o.ReviewDate = date
	}
	r.orders[id] = o
	return o, nil
}

type fakeNotificationRepo struct {
	notifications []domain.Notification
	insertErr     error
}

func (r *fakeNotificationRepo) List(_ context.Context, _ string) ([]domain.Notification, error) {
	return append([]domain.Notification(nil), r.notifications...), nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, email string, _ string) ([]domain.Notification, error) {
	out := make([]domain.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		if strings.EqualFold(n.UserEmail, email) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) ListUnread(_ context.Context, email string) ([]domain.Notification, error) {
	out := make([]domain.Notification, 0, len(r.notifications))
	for _, n := range r.notifications {
		if strings.EqualFold(n.UserEmail, email) && !n.IsRead {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) FindByID(_ context.Context, id string) (domain.Notification, error) {
	for _, n := range r.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return domain.Notification{}, &notFoundError{msg: "notification " + id + " not found"}
}

func (r *fakeNotificationRepo) Insert(_ context.Context, notification domain.Notification) (domain.Notification, error) {
	if r.insertErr != nil {
		return domain.Notification{}, r.insertErr
	}
	if notification.ID == "" {
		notification.ID = fmt.Sprintf("ntf-%03d", len(r.notifications)+1)
	}
	r.notifications = append(r.notifications, notification)
	return notification, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id string) error {
	for i, n := range r.notifications {
		if n.ID == id {
			r.notifications[i].IsRead = true
			return nil
		}
	}
	return &notFoundError{msg: "notification " + id + " not found"}
}

func (r *fakeNotificationRepo) Delete(_ context.Context, id string) error {
	for i, n := range r.notifications {
		if n.ID == id {
			r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
			return nil
		}
	}
	return &notFoundError{msg: "notification " + id + " not found"}
}

type fakeBackupRepo struct {
	backups map[string]domain.Backup
}

func newFakeBackupRepo(backups ...domain.Backup) *fakeBackupRepo {
	repo := &fakeBackupRepo{backups: make(map[string]domain.Backup)}
	for _, b := range backups {
		repo.backups[b.ID] = b
	}
	return repo
}

func (r *fakeBackupRepo) List(_ context.Context, _ string) ([]domain.Backup, error) {
	out := make([]domain.Backup, 0, len(r.backups))
	for _, b := range r.backups {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeBackupRepo) FindByID(_ context.Context, id string) (domain.Backup, error) {
	b, ok := r.backups[id]
	if !ok {
		return domain.Backup{}, &notFoundError{msg: "backup " + id + " not found"}
	}
	return b, nil
}

func (r *fakeBackupRepo) Insert(_ context.Context, backup domain.Backup) (domain.Backup, error) {
	if backup.ID == "" {
		backup.ID = fmt.Sprintf("bak-%03d", len(r.backups)+1)
	}
	r.backups[backup.ID] = backup
	return backup, nil
}

func (r *fakeBackupRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.backups[id]; !ok {
		return &notFoundError{msg: "backup " + id + " not found"}
	}
	delete(r.backups, id)
	return nil
}

// fakeCollectionStore keeps schemaless rows per collection.
type fakeCollectionStore struct {
	rows    map[string][]map[string]any
	nextID  int
	deletes []string
}

func newFakeCollectionStore() *fakeCollectionStore {
	return &fakeCollectionStore{rows: make(map[string][]map[string]any)}
}

func (s *fakeCollectionStore) seed(collection string, rows ...map[string]any) {
	s.rows[collection] = append(s.rows[collection], rows...)
}

func (s *fakeCollectionStore) List(_ context.Context, collection string, _ string) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(s.rows[collection]))
	for _, row := range s.rows[collection] {
		clone := make(map[string]any, len(row))
		for k, v := range row {
			clone[k] = v
		}
		out = append(out, clone)
	}
	return out, nil
}

func (s *fakeCollectionStore) Filter(ctx context.Context, collection string, _ map[string]any, sort string) ([]map[string]any, error) {
	return s.List(ctx, collection, sort)
}

func (s *fakeCollectionStore) FindByID(_ context.Context, collection string, id string) (map[string]any, error) {
	for _, row := range s.rows[collection] {
		if row["id"] == id {
			return row, nil
		}
	}
	return nil, &notFoundError{msg: collection + "/" + id + " not found"}
}

func (s *fakeCollectionStore) Insert(_ context.Context, collection string, data map[string]any) (map[string]any, error) {
	s.nextID++
	clone := make(map[string]any, len(data)+1)
	for k, v := range data {
		clone[k] = v
	}
	clone["id"] = fmt.Sprintf("doc-%03d", s.nextID)
	s.rows[collection] = append(s.rows[collection], clone)
	return clone, nil
}

func (s *fakeCollectionStore) Update(ctx context.Context, collection string, id string, data map[string]any) (map[string]any, error) {
	for _, row := range s.rows[collection] {
		if row["id"] == id {
			for k, v := range data {
				row[k] = v
			}
			return row, nil
		}
	}
	return nil, &notFoundError{msg: collection + "/" + id + " not found"}
}

func (s *fakeCollectionStore) Delete(_ context.Context, collection string, id string) error {
	rows := s.rows[collection]
	for i, row := range rows {
		if row["id"] == id {
			s.rows[collection] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return &notFoundError{msg: collection + "/" + id + " not found"}
}

func (s *fakeCollectionStore) BulkInsert(ctx context.Context, collection string, items []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		inserted, err := s.Insert(ctx, collection, item)
		if err != nil {
			return nil, err
		}
		out = append(out, inserted)
	}
	return out, nil
}

func (s *fakeCollectionStore) DeleteAll(_ context.Context, collection string) error {
	s.deletes = append(s.deletes, collection)
	s.rows[collection] = nil
	return nil
}

type captureOrderEvents struct {
	messages []OrderEventMessage
	err      error
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, message OrderEventMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, message)
	return fmt.Sprintf("msg-%03d", len(c.messages)), nil
}

type captureMailer struct {
	confirmations []domain.Order
	statuses      []domain.StatusNotice
	err           error
}

func (c *captureMailer) SendOrderConfirmation(_ context.Context, order domain.Order) error {
	if c.err != nil {
		return c.err
	}
	c.confirmations = append(c.confirmations, order)
	return nil
}

func (c *captureMailer) SendOrderStatus(_ context.Context, _ domain.Order, notice domain.StatusNotice) error {
	if c.err != nil {
		return c.err
	}
	c.statuses = append(c.statuses, notice)
	return nil
}
