package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

// Repository exposes persistence helpers for customer notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, query notificationQuery) ([]models.Notification, *pagination.Cursor, error)
	MarkRead(ctx context.Context, customerID, notificationID uuid.UUID, now time.Time) (markOutcome, error)
	MarkAllRead(ctx context.Context, customerID uuid.UUID, now time.Time) (int64, error)
}

// notificationQuery scopes a listing to one customer with cursor paging.
type notificationQuery struct {
	CustomerID uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

// markOutcome distinguishes "already read" from "no such notification".
type markOutcome struct {
	Updated bool
	Found   bool
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &gormRepository{db: tx}
}

func (r *gormRepository) scoped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Notification{})
}

func (r *gormRepository) Create(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *gormRepository) List(ctx context.Context, query notificationQuery) ([]models.Notification, *pagination.Cursor, error) {
	pageSize := pagination.NormalizeLimit(query.Limit)

	stmt := r.scoped(ctx).Where("customer_id = ?", query.CustomerID)
	if query.UnreadOnly {
		stmt = stmt.Where("read_at IS NULL")
	}
	if query.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			query.Cursor.CreatedAt, query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.Notification
	err := stmt.Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(query.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	// An extra row past the page means there is a next page; its position
	// becomes the cursor.
	if len(rows) <= pageSize {
		return rows, nil, nil
	}
	next := rows[pageSize]
	return rows[:pageSize], &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
}

func (r *gormRepository) MarkRead(ctx context.Context, customerID, notificationID uuid.UUID, now time.Time) (markOutcome, error) {
	update := r.scoped(ctx).
		Where("id = ? AND customer_id = ? AND read_at IS NULL", notificationID, customerID).
		UpdateColumn("read_at", now)
	if update.Error != nil {
		return markOutcome{}, update.Error
	}
	if update.RowsAffected > 0 {
		return markOutcome{Updated: true, Found: true}, nil
	}

	// Nothing changed. Tell apart an already-read notification from one
	// the customer does not own.
	var count int64
	err := r.scoped(ctx).
		Where("id = ? AND customer_id = ?", notificationID, customerID).
		Count(&count).Error
	if err != nil {
		return markOutcome{}, err
	}
	return markOutcome{Found: count > 0}, nil
}

func (r *gormRepository) MarkAllRead(ctx context.Context, customerID uuid.UUID, now time.Time) (int64, error) {
	update := r.scoped(ctx).
		Where("customer_id = ? AND read_at IS NULL", customerID).
		UpdateColumn("read_at", now)
	if update.Error != nil {
		return 0, update.Error
	}
	return update.RowsAffected, nil
}
