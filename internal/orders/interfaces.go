package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

// Repository defines persistence operations for committed orders. Orders are
// created only by the checkout gate inside a transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByIDAndCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, customerID uuid.UUID, key string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListDTO, error)
}
