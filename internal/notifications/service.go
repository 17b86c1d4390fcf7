package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, customerID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, customerID uuid.UUID) (int64, error)
}

// ListParams configures pagination for notifications.
type ListParams struct {
	CustomerID uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

type service struct {
	repo Repository
}

// NewService wires notifications dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func requireCustomer(customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if err := requireCustomer(params.CustomerID); err != nil {
		return nil, err
	}

	query := notificationQuery{
		CustomerID: params.CustomerID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, customerID, notificationID uuid.UUID) error {
	if err := requireCustomer(customerID); err != nil {
		return err
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	outcome, err := s.repo.MarkRead(ctx, customerID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !outcome.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, customerID uuid.UUID) (int64, error) {
	if err := requireCustomer(customerID); err != nil {
		return 0, err
	}

	count, err := s.repo.MarkAllRead(ctx, customerID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
