package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
)

// OrderLineDTO is the receipt view of a single book in an order.
type OrderLineDTO struct {
	ISBN           string `json:"isbn"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Qty            int    `json:"qty"`
	TotalCents     int    `json:"total_cents"`
}

// OrderDTO is the full receipt returned after checkout and on lookup.
type OrderDTO struct {
	ID                 uuid.UUID            `json:"id"`
	Status             enums.OrderStatus    `json:"status"`
	ShippingMethod     enums.ShippingMethod `json:"shipping_method"`
	SubtotalCents      int                  `json:"subtotal_cents"`
	ShippingCostCents  int                  `json:"shipping_cost_cents"`
	TotalCents         int                  `json:"total_cents"`
	FreeShippingEarned bool                 `json:"free_shipping_earned"`
	Lines              []OrderLineDTO       `json:"lines"`
	PlacedAt           time.Time            `json:"placed_at"`
}

// OrderSummaryDTO is the condensed row used by the order history list.
type OrderSummaryDTO struct {
	ID             uuid.UUID            `json:"id"`
	Status         enums.OrderStatus    `json:"status"`
	ShippingMethod enums.ShippingMethod `json:"shipping_method"`
	TotalCents     int                  `json:"total_cents"`
	TotalItems     int                  `json:"total_items"`
	PlacedAt       time.Time            `json:"placed_at"`
}

// OrderListDTO wraps a history page plus the next cursor.
type OrderListDTO struct {
	Orders     []OrderSummaryDTO `json:"orders"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func toOrderDTO(order models.Order) OrderDTO {
	lines := make([]OrderLineDTO, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, OrderLineDTO{
			ISBN:           item.ISBN,
			Title:          item.Title,
			Author:         item.Author,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.TotalCents,
		})
	}
	return OrderDTO{
		ID:                 order.ID,
		Status:             order.Status,
		ShippingMethod:     order.ShippingMethod,
		SubtotalCents:      order.SubtotalCents,
		ShippingCostCents:  order.ShippingCostCents,
		TotalCents:         order.TotalCents,
		FreeShippingEarned: order.FreeShippingEarned,
		Lines:              lines,
		PlacedAt:           order.PlacedAt,
	}
}
