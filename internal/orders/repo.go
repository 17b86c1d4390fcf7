package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) FindByIDAndCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIdempotencyKey(ctx context.Context, customerID uuid.UUID, key string) (*models.Order, error) {
	if strings.TrimSpace(key) == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ? AND idempotency_key = ?", customerID, key).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListDTO, error) {
	normalizedLimit := pagination.NormalizeLimit(params.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID)

	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var records []models.Order
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
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	summaries := make([]OrderSummaryDTO, 0, len(records))
	for _, order := range records {
		totalItems := 0
		for _, item := range order.Items {
			totalItems += item.Qty
		}
		summaries = append(summaries, OrderSummaryDTO{
			ID:             order.ID,
			Status:         order.Status,
			ShippingMethod: order.ShippingMethod,
			TotalCents:     order.TotalCents,
			TotalItems:     totalItems,
			PlacedAt:       order.PlacedAt,
		})
	}

	return &OrderListDTO{Orders: summaries, NextCursor: nextCursor}, nil
}
