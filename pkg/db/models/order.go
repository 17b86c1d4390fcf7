package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/enums"
)

// Order captures a committed checkout with its priced totals.
type Order struct {
	ID                 uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID         uuid.UUID            `gorm:"column:customer_id;type:uuid;not null;index:orders_customer_id_idx"`
	IdempotencyKey     *string              `gorm:"column:idempotency_key;uniqueIndex:orders_idempotency_key_key"`
	Status             enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'placed'"`
	ShippingMethod     enums.ShippingMethod `gorm:"column:shipping_method;type:shipping_method;not null"`
	SubtotalCents      int                  `gorm:"column:subtotal_cents;not null"`
	ShippingCostCents  int                  `gorm:"column:shipping_cost_cents;not null"`
	TotalCents         int                  `gorm:"column:total_cents;not null"`
	FreeShippingEarned bool                 `gorm:"column:free_shipping_earned;not null;default:false"`
	Items              []OrderLineItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt           time.Time            `gorm:"column:placed_at;autoCreateTime"`
	CreatedAt          time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
