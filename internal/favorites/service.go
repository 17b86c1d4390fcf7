package favorites

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

type bookLoader interface {
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
}

// Service exposes business rules for favorites management.
type Service interface {
	ListFavorites(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*FavoritesPageDTO, error)
	ListFavoriteISBNs(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*FavoriteIDsDTO, error)
	AddItem(ctx context.Context, customerID uuid.UUID, isbn string) error
	RemoveItem(ctx context.Context, customerID uuid.UUID, isbn string) error
}

type service struct {
	repo  *Repository
	books bookLoader
}

// NewService builds a favorites service with the required dependencies.
func NewService(repo *Repository, books bookLoader) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favorites repo is required")
	}
	if books == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book loader is required")
	}
	return &service{repo: repo, books: books}, nil
}

// ListFavorites returns the paginated favorites for a customer.
func (s *service) ListFavorites(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*FavoritesPageDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	return s.repo.ListItems(ctx, customerID, params)
}

// ListFavoriteISBNs returns only the favorited ISBNs.
func (s *service) ListFavoriteISBNs(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*FavoriteIDsDTO, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	return s.repo.ListISBNs(ctx, customerID, params)
}

// AddItem ensures the book exists and records the favorite.
func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, isbn string) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	if isbn == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "isbn is required")
	}
	if _, err := s.books.FindByISBN(ctx, isbn); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "book not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	return s.repo.AddItem(ctx, customerID, isbn)
}

// RemoveItem drops the favorite regardless of prior state.
func (s *service) RemoveItem(ctx context.Context, customerID uuid.UUID, isbn string) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	return s.repo.RemoveItem(ctx, customerID, isbn)
}
