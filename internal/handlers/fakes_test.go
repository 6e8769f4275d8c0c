package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/flowerdream/api/internal/domain"
	"github.com/flowerdream/api/internal/platform/auth"
	"github.com/flowerdream/api/internal/services"
)

const (
	customerToken = "customer-token"
	adminToken    = "admin-token"
)

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	switch idToken {
	case customerToken:
		return &firebaseauth.Token{
			UID: "user-1",
			Claims: map[string]interface{}{
				"email": "anna@example.com",
				"name":  "Anna",
				"role":  "user",
			},
		}, nil
	case adminToken:
		return &firebaseauth.Token{
			UID: "admin-1",
			Claims: map[string]interface{}{
				"email": "root@flowerdream.ru",
				"role":  "admin",
			},
		}, nil
	default:
		return nil, errors.New("unknown token")
	}
}

func testAuthenticator() *auth.Authenticator {
	return auth.NewAuthenticator(stubVerifier{})
}

var errTestUnavailable = errors.New("store unavailable")

type storeNotFoundError struct{ id string }

func (e *storeNotFoundError) Error() string       { return fmt.Sprintf("document %q not found", e.id) }
func (e *storeNotFoundError) IsNotFound() bool    { return true }
func (e *storeNotFoundError) IsConflict() bool    { return false }
func (e *storeNotFoundError) IsUnavailable() bool { return false }

// memoryStore is an in-memory CollectionStore used by proxy handler tests.
type memoryStore struct {
	rows     map[string][]map[string]any
	nextID   int
	lastSort string
	failWith error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{rows: make(map[string][]map[string]any)}
}

func (s *memoryStore) seed(collection string, row map[string]any) map[string]any {
	s.nextID++
	row["id"] = fmt.Sprintf("doc-%03d", s.nextID)
	s.rows[collection] = append(s.rows[collection], row)
	return row
}

func (s *memoryStore) List(_ context.Context, collection string, sort string) ([]map[string]any, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	s.lastSort = sort
	return append([]map[string]any(nil), s.rows[collection]...), nil
}

func (s *memoryStore) Filter(_ context.Context, collection string, filters map[string]any, _ string) ([]map[string]any, error) {
	var out []map[string]any
	for _, row := range s.rows[collection] {
		match := true
		for key, want := range filters {
			if row[key] != want {
				match = false
				break
			}
		}
		if match {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memoryStore) FindByID(_ context.Context, collection string, id string) (map[string]any, error) {
	for _, row := range s.rows[collection] {
		if row["id"] == id {
			return row, nil
		}
	}
	return nil, &storeNotFoundError{id: id}
}

func (s *memoryStore) Insert(_ context.Context, collection string, data map[string]any) (map[string]any, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	row := make(map[string]any, len(data)+2)
	for key, value := range data {
		row[key] = value
	}
	s.nextID++
	row["id"] = fmt.Sprintf("doc-%03d", s.nextID)
	row["created_date"] = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	s.rows[collection] = append(s.rows[collection], row)
	return row, nil
}

func (s *memoryStore) Update(_ context.Context, collection string, id string, data map[string]any) (map[string]any, error) {
	for _, row := range s.rows[collection] {
		if row["id"] == id {
			for key, value := range data {
				row[key] = value
			}
			return row, nil
		}
	}
	return nil, &storeNotFoundError{id: id}
}

func (s *memoryStore) Delete(_ context.Context, collection string, id string) error {
	rows := s.rows[collection]
	for i, row := range rows {
		if row["id"] == id {
			s.rows[collection] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return &storeNotFoundError{id: id}
}

func (s *memoryStore) BulkInsert(ctx context.Context, collection string, items []map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		row, err := s.Insert(ctx, collection, item)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *memoryStore) DeleteAll(_ context.Context, collection string) error {
	s.rows[collection] = nil
	return nil
}

// fakeOrderService stubs OrderService with function fields.
type fakeOrderService struct {
	placeFn        func(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error)
	listFn         func(ctx context.Context, filter services.OrderListFilter) ([]domain.Order, error)
	getFn          func(ctx context.Context, id string) (domain.Order, error)
	changeStatusFn func(ctx context.Context, cmd services.ChangeOrderStatusCommand) (domain.Order, error)
	submitReviewFn func(ctx context.Context, cmd services.SubmitReviewCommand) (domain.Order, error)
}

func (f *fakeOrderService) Place(ctx context.Context, cmd services.PlaceOrderCommand) (domain.Order, error) {
	return f.placeFn(ctx, cmd)
}

func (f *fakeOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) ([]domain.Order, error) {
	return f.listFn(ctx, filter)
}

func (f *fakeOrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return f.getFn(ctx, id)
}

func (f *fakeOrderService) ChangeStatus(ctx context.Context, cmd services.ChangeOrderStatusCommand) (domain.Order, error) {
	return f.changeStatusFn(ctx, cmd)
}

func (f *fakeOrderService) SubmitReview(ctx context.Context, cmd services.SubmitReviewCommand) (domain.Order, error) {
	return f.submitReviewFn(ctx, cmd)
}

// fakeNotificationService stubs NotificationService with function fields.
type fakeNotificationService struct {
	listFn        func(ctx context.Context, email string) ([]domain.Notification, error)
	unreadFn      func(ctx context.Context, email string) (int, error)
	markReadFn    func(ctx context.Context, email, id string) error
	markAllReadFn func(ctx context.Context, email string) (int, error)
	deleteFn      func(ctx context.Context, email, id string) error
}

func (f *fakeNotificationService) List(ctx context.Context, email string) ([]domain.Notification, error) {
	return f.listFn(ctx, email)
}

func (f *fakeNotificationService) UnreadCount(ctx context.Context, email string) (int, error) {
	return f.unreadFn(ctx, email)
}

func (f *fakeNotificationService) MarkRead(ctx context.Context, email, id string) error {
	return f.markReadFn(ctx, email, id)
}

func (f *fakeNotificationService) MarkAllRead(ctx context.Context, email string) (int, error) {
	return f.markAllReadFn(ctx, email)
}

func (f *fakeNotificationService) Delete(ctx context.Context, email, id string) error {
	return f.deleteFn(ctx, email, id)
}

// fakeBackupService stubs BackupService with function fields.
type fakeBackupService struct {
	listFn    func(ctx context.Context) ([]domain.Backup, error)
	createFn  func(ctx context.Context, backupType domain.BackupType, createdBy string) (domain.Backup, error)
	restoreFn func(ctx context.Context, backupID string) (services.RestoreReport, error)
	deleteFn  func(ctx context.Context, backupID string) error
}

func (f *fakeBackupService) List(ctx context.Context) ([]domain.Backup, error) {
	return f.listFn(ctx)
}

func (f *fakeBackupService) Create(ctx context.Context, backupType domain.BackupType, createdBy string) (domain.Backup, error) {
	return f.createFn(ctx, backupType, createdBy)
}

func (f *fakeBackupService) Restore(ctx context.Context, backupID string) (services.RestoreReport, error) {
	return f.restoreFn(ctx, backupID)
}

func (f *fakeBackupService) Delete(ctx context.Context, backupID string) error {
	return f.deleteFn(ctx, backupID)
}

// fakeImportService stubs ImportService with function fields.
type fakeImportService struct {
	templateFn func(kind services.ImportKind) ([]byte, string, error)
	importFn   func(ctx context.Context, kind services.ImportKind, fileName string, content io.Reader, createdBy string) (services.ImportReport, error)
}

func (f *fakeImportService) TemplateCSV(kind services.ImportKind) ([]byte, string, error) {
	return f.templateFn(kind)
}

func (f *fakeImportService) Import(ctx context.Context, kind services.ImportKind, fileName string, content io.Reader, createdBy string) (services.ImportReport, error) {
	return f.importFn(ctx, kind, fileName, content, createdBy)
}

// fakeUploadService stubs UploadService with a function field.
type fakeUploadService struct {
	uploadFn func(ctx context.Context, fileName, contentType string, content io.Reader) (services.UploadedFile, error)
}

func (f *fakeUploadService) UploadImage(ctx context.Context, fileName, contentType string, content io.Reader) (services.UploadedFile, error) {
	return f.uploadFn(ctx, fileName, contentType, content)
}
