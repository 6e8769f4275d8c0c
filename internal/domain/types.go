package domain

import (
	"time"
)

// FlowerColor enumerates the colours the catalog recognises.
type FlowerColor string

const (
	ColorRed    FlowerColor = "красный"
	ColorPink   FlowerColor = "розовый"
	ColorWhite  FlowerColor = "белый"
	ColorYellow FlowerColor = "желтый"
	ColorOrange FlowerColor = "оранжевый"
	ColorPurple FlowerColor = "фиолетовый"
	ColorBlue   FlowerColor = "синий"
	ColorMixed  FlowerColor = "микс"
)

// FlowerCategory enumerates catalog categories for single flowers.
type FlowerCategory string

const (
	CategoryRoses         FlowerCategory = "розы"
	CategoryTulips        FlowerCategory = "тюльпаны"
	CategoryPeonies       FlowerCategory = "пионы"
	CategoryChrysanthemum FlowerCategory = "хризантемы"
	CategoryLilies        FlowerCategory = "лилии"
	CategoryGerberas      FlowerCategory = "герберы"
	CategoryCarnations    FlowerCategory = "гвоздики"
	CategoryOrchids       FlowerCategory = "орхидеи"
	CategoryAlstroemeria  FlowerCategory = "альстромерии"
	CategoryExotic        FlowerCategory = "экзотика"
)

// Occasion enumerates bouquet occasions.
type Occasion string

const (
	OccasionBirthday    Occasion = "день_рождения"
	OccasionWedding     Occasion = "свадьба"
	OccasionAnniversary Occasion = "юбилей"
	OccasionRomance     Occasion = "романтика"
	OccasionSympathy    Occasion = "без_повода"
)

// Flower is a single sellable stem in the catalog.
type Flower struct {
	ID            string         `firestore:"-" json:"id"`
	Name          string         `firestore:"name" json:"name"`
	Description   string         `firestore:"description" json:"description"`
	Price         float64        `firestore:"price" json:"price"`
	ImageURL      string         `firestore:"image_url" json:"image_url"`
	Color         FlowerColor    `firestore:"color" json:"color"`
	Category      FlowerCategory `firestore:"category" json:"category"`
	InStock       bool           `firestore:"in_stock" json:"in_stock"`
	StockQuantity int            `firestore:"stock_quantity" json:"stock_quantity"`
	CreatedBy     string         `firestore:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedDate   time.Time      `firestore:"created_date" json:"created_date"`
	UpdatedDate   time.Time      `firestore:"updated_date" json:"updated_date"`
}

// CompositionLine describes one flower kind inside a predefined bouquet.
// Informational only: flower_name is not a foreign key into Flower stock.
type CompositionLine struct {
	FlowerName string `firestore:"flower_name" json:"flower_name"`
	Quantity   int    `firestore:"quantity" json:"quantity"`
}

// Bouquet is a predefined arrangement in the catalog.
type Bouquet struct {
	ID            string            `firestore:"-" json:"id"`
	Name          string            `firestore:"name" json:"name"`
	Description   string            `firestore:"description" json:"description"`
	Price         float64           `firestore:"price" json:"price"`
	ImageURL      string            `firestore:"image_url" json:"image_url"`
	Occasion      Occasion          `firestore:"occasion" json:"occasion"`
	IsPopular     bool              `firestore:"is_popular" json:"is_popular"`
	StockQuantity int               `firestore:"stock_quantity" json:"stock_quantity"`
	Size          string            `firestore:"size" json:"size"`
	Composition   []CompositionLine `firestore:"composition" json:"composition"`
	CreatedBy     string            `firestore:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedDate   time.Time         `firestore:"created_date" json:"created_date"`
	UpdatedDate   time.Time         `firestore:"updated_date" json:"updated_date"`
}

// ItemType discriminates order line items.
type ItemType string

const (
	ItemTypeBouquet ItemType = "bouquet"
	ItemTypeFlower  ItemType = "flower"
	ItemTypeCustom  ItemType = "custom"
)

// OrderItem is one line of an order referencing a catalog entity.
type OrderItem struct {
	Type     ItemType `firestore:"type" json:"type"`
	ItemID   string   `firestore:"item_id,omitempty" json:"item_id,omitempty"`
	Name     string   `firestore:"name" json:"name"`
	Quantity int      `firestore:"quantity" json:"quantity"`
	Price    float64  `firestore:"price" json:"price"`
}

// CustomBouquetLine is one flower selection inside a customer-assembled bouquet.
type CustomBouquetLine struct {
	FlowerID   string  `firestore:"flower_id" json:"flower_id"`
	FlowerName string  `firestore:"flower_name" json:"flower_name"`
	Quantity   int     `firestore:"quantity" json:"quantity"`
	Price      float64 `firestore:"price" json:"price"`
}

// DeliveryType selects between courier delivery and in-store pickup.
type DeliveryType string

const (
	DeliveryCourier DeliveryType = "доставка"
	DeliveryPickup  DeliveryType = "самовывоз"
)

// Order is a placed customer order. Orders are never deleted.
type Order struct {
	ID              string              `firestore:"-" json:"id"`
	Items           []OrderItem         `firestore:"items" json:"items"`
	CustomBouquet   []CustomBouquetLine `firestore:"custom_bouquet,omitempty" json:"custom_bouquet,omitempty"`
	TotalAmount     float64             `firestore:"total_amount" json:"total_amount"`
	Status          OrderStatus         `firestore:"status" json:"status"`
	DeliveryType    DeliveryType        `firestore:"delivery_type" json:"delivery_type"`
	DeliveryAddress string              `firestore:"delivery_address,omitempty" json:"delivery_address,omitempty"`
	DeliveryDate    string              `firestore:"delivery_date,omitempty" json:"delivery_date,omitempty"`
	DeliveryTime    string              `firestore:"delivery_time,omitempty" json:"delivery_time,omitempty"`
	RecipientName   string              `firestore:"recipient_name,omitempty" json:"recipient_name,omitempty"`
	RecipientPhone  string              `firestore:"recipient_phone" json:"recipient_phone"`
	SenderName      string              `firestore:"sender_name,omitempty" json:"sender_name,omitempty"`
	CardMessage     string              `firestore:"card_message,omitempty" json:"card_message,omitempty"`
	PaymentStatus   string              `firestore:"payment_status" json:"payment_status"`
	PaymentMethod   string              `firestore:"payment_method" json:"payment_method"`
	RatingProduct   int                 `firestore:"rating_product,omitempty" json:"rating_product,omitempty"`
	RatingDelivery  int                 `firestore:"rating_delivery,omitempty" json:"rating_delivery,omitempty"`
	ReviewComment   string              `firestore:"review_comment,omitempty" json:"review_comment,omitempty"`
	ReviewDate      time.Time           `firestore:"review_date,omitempty" json:"review_date,omitempty"`
	CreatedBy       string              `firestore:"created_by" json:"created_by"`
	CreatedDate     time.Time           `firestore:"created_date" json:"created_date"`
	UpdatedDate     time.Time           `firestore:"updated_date" json:"updated_date"`
}

// Reviewed reports whether a product rating has already been recorded.
func (o Order) Reviewed() bool {
	return o.RatingProduct > 0
}

// NotificationType distinguishes notification origins.
type NotificationType string

const (
	NotificationOrderCreated NotificationType = "order_created"
	NotificationOrderStatus  NotificationType = "order_status"
)

// Notification is an in-app message addressed to a customer.
type Notification struct {
	ID          string           `firestore:"-" json:"id"`
	UserEmail   string           `firestore:"user_email" json:"user_email"`
	OrderID     string           `firestore:"order_id" json:"order_id"`
	Title       string           `firestore:"title" json:"title"`
	Message     string           `firestore:"message" json:"message"`
	Type        NotificationType `firestore:"type" json:"type"`
	OrderStatus OrderStatus      `firestore:"order_status" json:"order_status"`
	IsRead      bool             `firestore:"is_read" json:"is_read"`
	CreatedDate time.Time        `firestore:"created_date" json:"created_date"`
	UpdatedDate time.Time        `firestore:"updated_date" json:"updated_date"`
}

// BackupType names the collection a backup snapshots.
type BackupType string

const (
	BackupFlowers  BackupType = "flowers"
	BackupBouquets BackupType = "bouquets"
)

// Backup is a point-in-time snapshot of one catalog collection. The data
// rows carry no store-assigned id or timestamps so restore can bulk-insert
// without collision.
type Backup struct {
	ID          string           `firestore:"-" json:"id"`
	Name        string           `firestore:"name" json:"name"`
	Type        BackupType       `firestore:"type" json:"type"`
	Data        []map[string]any `firestore:"data" json:"data"`
	ItemsCount  int              `firestore:"items_count" json:"items_count"`
	CreatedBy   string           `firestore:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedDate time.Time        `firestore:"created_date" json:"created_date"`
	UpdatedDate time.Time        `firestore:"updated_date" json:"updated_date"`
}
