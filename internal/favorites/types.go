package favorites

import "time"

// FavoriteItemDTO wraps the book summary included in a favorites row.
type FavoriteItemDTO struct {
	ISBN                 string    `json:"isbn"`
	Title                string    `json:"title"`
	Author               string    `json:"author"`
	PriceCents           int       `json:"price_cents"`
	DiscountedPriceCents *int      `json:"discounted_price_cents,omitempty"`
	EffectivePriceCents  int       `json:"effective_price_cents"`
	InStock              bool      `json:"in_stock"`
	FavoritedAt          time.Time `json:"favorited_at"`
}

// FavoritesPageDTO returns a cursor-paginated favorites view.
type FavoritesPageDTO struct {
	Items      []FavoriteItemDTO `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// FavoriteIDsDTO is a lightweight projection containing only ISBNs.
type FavoriteIDsDTO struct {
	ISBNs      []string `json:"isbns"`
	NextCursor string   `json:"next_cursor,omitempty"`
}
