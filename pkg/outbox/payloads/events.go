package payloads

import (
	"time"

	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/google/uuid"
)

// OrderLineSnapshot carries the per-book breakdown inside order events.
type OrderLineSnapshot struct {
	ISBN           string `json:"isbn"`
	Title          string `json:"title"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
	TotalCents     int    `json:"total_cents"`
}

// OrderCreatedEvent signals a checkout that committed into an order.
type OrderCreatedEvent struct {
	OrderID           uuid.UUID            `json:"order_id"`
	CustomerID        uuid.UUID            `json:"customer_id"`
	ShippingMethod    enums.ShippingMethod `json:"shipping_method"`
	SubtotalCents     int                  `json:"subtotal_cents"`
	ShippingCostCents int                  `json:"shipping_cost_cents"`
	TotalCents        int                  `json:"total_cents"`
	Lines             []OrderLineSnapshot  `json:"lines"`
	PlacedAt          time.Time            `json:"placed_at"`
}

// CartConvertedEvent reports that a cart was cleared after its order committed.
type CartConvertedEvent struct {
	CartID      uuid.UUID `json:"cart_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	OrderID     uuid.UUID `json:"order_id"`
	LineCount   int       `json:"line_count"`
	ConvertedAt time.Time `json:"converted_at"`
}
