package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to customers.
type Notification struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID              `gorm:"column:customer_id;type:uuid;not null;index:notifications_customer_id_idx"`
	Type       enums.NotificationType `gorm:"column:type;type:notification_type_enum;not null"`
	Title      string                 `gorm:"column:title;not null"`
	Message    string                 `gorm:"column:message;not null"`
	Link       *string                `gorm:"column:link"`
	ReadAt     *time.Time             `gorm:"column:read_at"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}
