package models

import (
	"time"
)

// Book represents a catalog listing keyed by ISBN.
type Book struct {
	ISBN                 string    `gorm:"column:isbn;primaryKey"`
	Title                string    `gorm:"column:title;not null"`
	Author               string    `gorm:"column:author;not null"`
	Description          *string   `gorm:"column:description"`
	ImageURL             *string   `gorm:"column:image_url"`
	PriceCents           int       `gorm:"column:price_cents;not null"`
	DiscountedPriceCents *int      `gorm:"column:discounted_price_cents"`
	Stock                int       `gorm:"column:stock;not null;default:0"`
	IsActive             bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectiveUnitPriceCents returns the discounted price when one is set.
func (b Book) EffectiveUnitPriceCents() int {
	if b.DiscountedPriceCents != nil {
		return *b.DiscountedPriceCents
	}
	return b.PriceCents
}
