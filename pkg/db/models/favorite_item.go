package models

import (
	"time"

	"github.com/google/uuid"
)

// FavoriteItem links a customer to a saved book.
type FavoriteItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index:favorite_items_customer_id_idx;uniqueIndex:favorite_items_customer_isbn_key"`
	ISBN       string    `gorm:"column:isbn;not null;index:favorite_items_isbn_idx;uniqueIndex:favorite_items_customer_isbn_key"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
