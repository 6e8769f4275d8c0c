package services

import (
	"context"
	"io"
	"time"

	domain "github.com/flowerdream/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Flower            = domain.Flower
	Bouquet           = domain.Bouquet
	CompositionLine   = domain.CompositionLine
	Order             = domain.Order
	OrderItem         = domain.OrderItem
	CustomBouquetLine = domain.CustomBouquetLine
	OrderStatus       = domain.OrderStatus
	DeliveryType      = domain.DeliveryType
	Notification      = domain.Notification
	Backup            = domain.Backup
	BackupType        = domain.BackupType
	StatusNotice      = domain.StatusNotice
)

// Order lifecycle event types published for downstream consumers.
const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status.changed"
)

// OrderEventMessage is the wire payload for order lifecycle events.
type OrderEventMessage struct {
	EventType      string              `json:"event_type"`
	OrderID        string              `json:"order_id"`
	Status         domain.OrderStatus  `json:"status"`
	PreviousStatus domain.OrderStatus  `json:"previous_status,omitempty"`
	DeliveryType   domain.DeliveryType `json:"delivery_type"`
	CustomerEmail  string              `json:"customer_email,omitempty"`
	TotalAmount    float64             `json:"total_amount,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

// OrderEventPublisher publishes order domain events for downstream consumers.
// The returned id is the broker message identifier.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) (string, error)
}

// OrderMailer dispatches customer-facing order emails.
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, order domain.Order) error
	SendOrderStatus(ctx context.Context, order domain.Order, notice domain.StatusNotice) error
}

// PlaceOrderCommand captures a checkout submission.
type PlaceOrderCommand struct {
	CustomerEmail   string
	Items           []domain.OrderItem
	CustomBouquet   []domain.CustomBouquetLine
	DeliveryType    domain.DeliveryType
	DeliveryAddress string
	DeliveryDate    string
	DeliveryTime    string
	RecipientName   string
	RecipientPhone  string
	SenderName      string
	CardMessage     string
	PaymentMethod   string
}

// ChangeOrderStatusCommand moves an order to a new lifecycle status.
type ChangeOrderStatusCommand struct {
	OrderID      string
	TargetStatus domain.OrderStatus
}

// SubmitReviewCommand records a one-shot customer review on a completed order.
type SubmitReviewCommand struct {
	OrderID        string
	CustomerEmail  string
	RatingProduct  int
	RatingDelivery int
	Comment        string
}

// OrderListFilter scopes order listings.
type OrderListFilter struct {
	// CustomerEmail limits results to orders placed by that customer.
	// Empty means all orders (admin surface).
	CustomerEmail string
	Sort          string
}

// OrderService encapsulates the order lifecycle: placement with stock
// consumption, status transitions, cancellation restock, and reviews.
type OrderService interface {
	Place(ctx context.Context, cmd PlaceOrderCommand) (Order, error)
	ListOrders(ctx context.Context, filter OrderListFilter) ([]Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	ChangeStatus(ctx context.Context, cmd ChangeOrderStatusCommand) (Order, error)
	SubmitReview(ctx context.Context, cmd SubmitReviewCommand) (Order, error)
}

// CatalogService manages the flower and bouquet catalog.
type CatalogService interface {
	ListFlowers(ctx context.Context, sort string) ([]Flower, error)
	GetFlower(ctx context.Context, id string) (Flower, error)
	CreateFlower(ctx context.Context, flower Flower) (Flower, error)
	UpdateFlower(ctx context.Context, id string, updates map[string]any) (Flower, error)
	DeleteFlower(ctx context.Context, id string) error
	BulkCreateFlowers(ctx context.Context, flowers []Flower) ([]Flower, error)

	ListBouquets(ctx context.Context, sort string) ([]Bouquet, error)
	GetBouquet(ctx context.Context, id string) (Bouquet, error)
	CreateBouquet(ctx context.Context, bouquet Bouquet) (Bouquet, error)
	UpdateBouquet(ctx context.Context, id string, updates map[string]any) (Bouquet, error)
	DeleteBouquet(ctx context.Context, id string) error
	BulkCreateBouquets(ctx context.Context, bouquets []Bouquet) ([]Bouquet, error)
}

// ImportKind names a CSV-importable catalog collection.
type ImportKind string

const (
	ImportFlowers  ImportKind = "flowers"
	ImportBouquets ImportKind = "bouquets"
)

// ImportReport summarises a completed CSV import.
type ImportReport struct {
	Kind      ImportKind `json:"kind"`
	FileURL   string     `json:"file_url"`
	RowCount  int        `json:"row_count"`
	Inserted  int        `json:"inserted"`
	CreatedBy string     `json:"created_by,omitempty"`
}

// ImportService handles CSV template export and catalog imports.
type ImportService interface {
	TemplateCSV(kind ImportKind) ([]byte, string, error)
	Import(ctx context.Context, kind ImportKind, fileName string, content io.Reader, createdBy string) (ImportReport, error)
}

// UploadedFile describes a stored upload.
type UploadedFile struct {
	URL        string    `json:"url"`
	Object     string    `json:"object"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// UploadService stores customer and admin file uploads and returns public URLs.
type UploadService interface {
	UploadImage(ctx context.Context, fileName, contentType string, content io.Reader) (UploadedFile, error)
}

// RestoreReport summarises a completed backup restore.
type RestoreReport struct {
	BackupID string     `json:"backup_id"`
	Type     BackupType `json:"type"`
	Deleted  int        `json:"deleted"`
	Restored int        `json:"restored"`
}

// BackupService snapshots and restores catalog collections.
type BackupService interface {
	List(ctx context.Context) ([]Backup, error)
	Create(ctx context.Context, backupType BackupType, createdBy string) (Backup, error)
	Restore(ctx context.Context, backupID string) (RestoreReport, error)
	Delete(ctx context.Context, backupID string) error
}

// NotificationService exposes the signed-in customer's notification feed.
type NotificationService interface {
	List(ctx context.Context, email string) ([]Notification, error)
	UnreadCount(ctx context.Context, email string) (int, error)
	MarkRead(ctx context.Context, email string, id string) error
	MarkAllRead(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string, id string) error
}
