package domain

// OrderStatus is the lifecycle state of an order. The values are wire data
// shared with the storefront and kept verbatim.
type OrderStatus string

const (
	StatusNew        OrderStatus = "новый"
	StatusProcessing OrderStatus = "в_обработке"
	StatusAssembling OrderStatus = "собирается"
	StatusInTransit  OrderStatus = "в_пути"
	StatusDelivered  OrderStatus = "доставлен"
	StatusReady      OrderStatus = "готов_к_выдаче"
	StatusPickedUp   OrderStatus = "выдан"
	StatusCancelled  OrderStatus = "отменен"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusAssembling, StatusInTransit,
		StatusDelivered, StatusReady, StatusPickedUp, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusPickedUp, StatusCancelled:
		return true
	}
	return false
}

var deliveryTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:        {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusAssembling, StatusCancelled},
	StatusAssembling: {StatusInTransit, StatusCancelled},
	StatusInTransit:  {StatusDelivered},
}

var pickupTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:        {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusAssembling, StatusCancelled},
	StatusAssembling: {StatusReady, StatusCancelled},
	StatusReady:      {StatusPickedUp},
}

// NextStatuses returns the transitions available from the given status for
// the order's delivery flow.
func NextStatuses(delivery DeliveryType, from OrderStatus) []OrderStatus {
	table := deliveryTransitions
	if delivery == DeliveryPickup {
		table = pickupTransitions
	}
	next := table[from]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether the order flow permits moving from one
// status to another for the given delivery type.
func CanTransition(delivery DeliveryType, from, to OrderStatus) bool {
	for _, candidate := range NextStatuses(delivery, from) {
		if candidate == to {
			return true
		}
	}
	return false
}

// RestoresStock reports whether a transition into the target status returns
// consumed units to the catalog. Only the first entry into "отменен" does.
func RestoresStock(previous, next OrderStatus) bool {
	return next == StatusCancelled && previous != StatusCancelled
}

// StatusNotice is the per-status notification payload shown to customers.
type StatusNotice struct {
	Title   string
	Message string
}

// NoticeFor resolves the notification title and message for a status. The
// mapping is exhaustive over the lifecycle states; unknown statuses fall
// back to a generic notice.
func NoticeFor(status OrderStatus) StatusNotice {
	switch status {
	case StatusNew:
		return StatusNotice{Title: "Заказ создан", Message: "Ваш заказ успешно создан и ожидает обработки"}
	case StatusProcessing:
		return StatusNotice{Title: "Заказ в обработке", Message: "Ваш заказ принят в обработку"}
	case StatusAssembling:
		return StatusNotice{Title: "Заказ собирается", Message: "Флористы начали собирать ваш букет"}
	case StatusInTransit:
		return StatusNotice{Title: "Заказ в пути", Message: "Курьер выехал к вам. Скоро с вами свяжутся для уточнения времени"}
	case StatusDelivered:
		return StatusNotice{Title: "Заказ доставлен", Message: "Ваш заказ успешно доставлен. Оставьте отзыв!"}
	case StatusReady:
		return StatusNotice{Title: "Заказ готов", Message: "Ваш заказ готов к выдаче. Ждем вас в магазине!"}
	case StatusPickedUp:
		return StatusNotice{Title: "Заказ выдан", Message: "Спасибо за покупку! Оставьте отзыв!"}
	case StatusCancelled:
		return StatusNotice{Title: "Заказ отменен", Message: "Ваш заказ был отменен. Товары возвращены на склад."}
	default:
		return StatusNotice{Title: "Статус изменен", Message: "Новый статус: " + string(status)}
	}
}
