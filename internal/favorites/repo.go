package favorites

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

// Repository encapsulates favorites persistence. Every user action maps to
// exactly one write: add inserts a single row, remove deletes a single row,
// and nothing ever replays the whole list.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a favorites repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a favorite and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, customerID uuid.UUID, isbn string) error {
	if customerID == uuid.Nil || isbn == "" {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO favorite_items (id, customer_id, isbn, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (customer_id, isbn) DO NOTHING`,
			uuid.New(), customerID, isbn, time.Now().UTC()).
		Error
}

// RemoveItem deletes the favorite if it exists.
func (r *Repository) RemoveItem(ctx context.Context, customerID uuid.UUID, isbn string) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND isbn = ?", customerID, isbn).
		Delete(&models.FavoriteItem{}).
		Error
}

// ListISBNs returns the customer's favorited ISBNs, newest first.
func (r *Repository) ListISBNs(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*FavoriteIDsDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.FavoriteItem{}).
		Where("customer_id = ?", customerID)

	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []models.FavoriteItem
	if err := query.
		Order("created_at DESC").Order("id DESC").
		Limit(limitWithBuffer).
		Find(&records).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(records) > normalizedLimit {
		records = records[:normalizedLimit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	isbns := make([]string, 0, len(records))
	for _, record := range records {
		isbns = append(isbns, record.ISBN)
	}
	return &FavoriteIDsDTO{ISBNs: isbns, NextCursor: nextCursor}, nil
}

// ListItems returns the customer's favorites joined with their books.
func (r *Repository) ListItems(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*FavoritesPageDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Table("favorite_items fi").
		Select("fi.id AS favorite_id, fi.created_at AS favorited_at, b.isbn, b.title, b.author, b.price_cents, b.discounted_price_cents, b.stock").
		Joins("JOIN books b ON b.isbn = fi.isbn").
		Where("fi.customer_id = ?", customerID)

	if decodedCursor != nil {
		query = query.Where("(fi.created_at < ?) OR (fi.created_at = ? AND fi.id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []favoriteBookRecord
	if err := query.
		Order("fi.created_at DESC").Order("fi.id DESC").
		Limit(limitWithBuffer).
		Scan(&records).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if len(records) > normalizedLimit {
		records = records[:normalizedLimit]
		last := records[len(records)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.FavoritedAt, ID: last.FavoriteID})
	}

	items := make([]FavoriteItemDTO, 0, len(records))
	for _, record := range records {
		items = append(items, record.toDTO())
	}
	return &FavoritesPageDTO{Items: items, NextCursor: nextCursor}, nil
}

type favoriteBookRecord struct {
	FavoriteID           uuid.UUID `gorm:"column:favorite_id"`
	FavoritedAt          time.Time `gorm:"column:favorited_at"`
	ISBN                 string    `gorm:"column:isbn"`
	Title                string    `gorm:"column:title"`
	Author               string    `gorm:"column:author"`
	PriceCents           int       `gorm:"column:price_cents"`
	DiscountedPriceCents *int      `gorm:"column:discounted_price_cents"`
	Stock                int       `gorm:"column:stock"`
}

func (r favoriteBookRecord) toDTO() FavoriteItemDTO {
	effective := r.PriceCents
	if r.DiscountedPriceCents != nil {
		effective = *r.DiscountedPriceCents
	}
	return FavoriteItemDTO{
		ISBN:                 r.ISBN,
		Title:                r.Title,
		Author:               r.Author,
		PriceCents:           r.PriceCents,
		DiscountedPriceCents: r.DiscountedPriceCents,
		EffectivePriceCents:  effective,
		InStock:              r.Stock > 0,
		FavoritedAt:          r.FavoritedAt,
	}
}
