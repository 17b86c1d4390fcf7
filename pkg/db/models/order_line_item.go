package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem captures the snapshot of each book within an order.
type OrderLineItem struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	ISBN           string    `gorm:"column:isbn;not null"`
	Title          string    `gorm:"column:title;not null"`
	Author         string    `gorm:"column:author;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Qty            int       `gorm:"column:qty;not null"`
	TotalCents     int       `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
