package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderLineItem{}))
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, placedAt time.Time, idempotencyKey *string) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:                uuid.New(),
		CustomerID:        customerID,
		IdempotencyKey:    idempotencyKey,
		Status:            enums.OrderStatusPlaced,
		ShippingMethod:    enums.ShippingMethodStandard,
		SubtotalCents:     4848,
		ShippingCostCents: 500,
		TotalCents:        5348,
		PlacedAt:          placedAt,
		CreatedAt:         placedAt,
		Items: []models.OrderLineItem{
			{
				ID:             uuid.New(),
				ISBN:           "9780134190440",
				Title:          "The Go Programming Language",
				Author:         "Donovan & Kernighan",
				UnitPriceCents: 1999,
				Qty:            2,
				TotalCents:     3998,
			},
			{
				ID:             uuid.New(),
				ISBN:           "9780596007126",
				Title:          "Head First Design Patterns",
				Author:         "Freeman",
				UnitPriceCents: 850,
				Qty:            1,
				TotalCents:     850,
			},
		},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	key := "checkout-" + uuid.NewString()
	order := seedOrder(t, db, customerID, time.Now().UTC(), &key)

	found, err := repo.FindByIDAndCustomer(ctx, order.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Len(t, found.Items, 2)
	assert.Equal(t, "9780134190440", found.Items[0].ISBN)

	// Scoped to the owning customer.
	_, err = repo.FindByIDAndCustomer(ctx, order.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	byKey, err := repo.FindByIdempotencyKey(ctx, customerID, key)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byKey.ID)

	_, err = repo.FindByIdempotencyKey(ctx, customerID, "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryIdempotencyKeyUnique(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	key := "checkout-dup"
	seedOrder(t, db, customerID, time.Now().UTC(), &key)

	dup := &models.Order{
		ID:             uuid.New(),
		CustomerID:     customerID,
		IdempotencyKey: &key,
		Status:         enums.OrderStatusPlaced,
		ShippingMethod: enums.ShippingMethodStandard,
		TotalCents:     100,
	}
	_, err := repo.Create(ctx, dup)
	assert.Error(t, err)
}

func TestRepositoryListByCustomer(t *testing.T) {
	t.Parallel()

	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	customerID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrder(t, db, customerID, base.Add(time.Duration(i)*time.Minute), nil)
	}
	seedOrder(t, db, uuid.New(), base, nil)

	page, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.NotEmpty(t, page.NextCursor)
	assert.Equal(t, 3, page.Orders[0].TotalItems)
	assert.True(t, page.Orders[0].PlacedAt.After(page.Orders[1].PlacedAt))

	rest, err := repo.ListByCustomer(ctx, customerID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Empty(t, rest.NextCursor)
}
