package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

// Service exposes receipt and history lookups for a customer's own orders.
type Service interface {
	GetReceipt(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error)
	ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListDTO, error)
}

type service struct {
	repo Repository
}

// NewService builds an orders service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repository is required")
	}
	return &service{repo: repo}, nil
}

// GetReceipt returns the full receipt, scoped to the owning customer.
func (s *service) GetReceipt(ctx context.Context, customerID, orderID uuid.UUID) (*OrderDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByIDAndCustomer(ctx, orderID, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := toOrderDTO(*order)
	return &dto, nil
}

// ListOrders returns the customer's order history, newest first.
func (s *service) ListOrders(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*OrderListDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	list, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}
