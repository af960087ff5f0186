package model

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionOrder encodes the forward-only order lifecycle. Cancellation
// is allowed from any non-terminal state and is always soft.
func CanTransitionOrder(from, to OrderStatus) bool {
	if to == OrderCancelled {
		return !from.Terminal()
	}
	switch from {
	case OrderPending:
		return to == OrderConfirmed
	case OrderConfirmed:
		return to == OrderShipped
	case OrderShipped:
		return to == OrderDelivered
	}
	return false
}

// OrderPart is a line item on a purchase order, stored as jsonb.
type OrderPart struct {
	PartID    string  `json:"part_id,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type Order struct {
	ID                   string
	OrderNumber          string
	Supplier             SupplierRef
	Parts                []OrderPart
	TotalAmount          float64
	Status               OrderStatus
	OrderDate            time.Time
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	CustomTimeLimitHours int
	CountdownEndTime     *time.Time
	OverdueNotifiedAt    *time.Time
	Notes                string
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
