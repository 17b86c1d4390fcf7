package catalog

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

// BookDTO is the storefront projection of a catalog listing.
type BookDTO struct {
	ISBN                 string    `json:"isbn"`
	Title                string    `json:"title"`
	Author               string    `json:"author"`
	Description          *string   `json:"description,omitempty"`
	ImageURL             *string   `json:"image_url,omitempty"`
	PriceCents           int       `json:"price_cents"`
	DiscountedPriceCents *int      `json:"discounted_price_cents,omitempty"`
	EffectivePriceCents  int       `json:"effective_price_cents"`
	Stock                int       `json:"stock"`
	InStock              bool      `json:"in_stock"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// BookPageDTO wraps a listing page with its next-page cursor.
type BookPageDTO struct {
	Books      []BookDTO `json:"books"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ListInput captures the browse query parameters.
type ListInput struct {
	Cursor string
	Limit  int
	Query  string
}

// Service exposes the public catalog browse surface.
type Service interface {
	ListBooks(ctx context.Context, input ListInput) (*BookPageDTO, error)
	GetBook(ctx context.Context, isbn string) (*BookDTO, error)
}

type service struct {
	repo *Repository
}

// NewService builds a catalog service.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListBooks(ctx context.Context, input ListInput) (*BookPageDTO, error) {
	if input.Limit > pagination.MaxLimit {
		input.Limit = pagination.MaxLimit
	}
	books, nextCursor, err := s.repo.List(ctx, input.Cursor, input.Limit, input.Query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books")
	}
	dtos := make([]BookDTO, 0, len(books))
	for _, book := range books {
		dtos = append(dtos, toDTO(book))
	}
	return &BookPageDTO{Books: dtos, NextCursor: nextCursor}, nil
}

func (s *service) GetBook(ctx context.Context, isbn string) (*BookDTO, error) {
	if isbn == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required")
	}
	book, err := s.repo.FindByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if !book.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	dto := toDTO(*book)
	return &dto, nil
}

func toDTO(book models.Book) BookDTO {
	return BookDTO{
		ISBN:                 book.ISBN,
		Title:                book.Title,
		Author:               book.Author,
		Description:          book.Description,
		ImageURL:             book.ImageURL,
		PriceCents:           book.PriceCents,
		DiscountedPriceCents: book.DiscountedPriceCents,
		EffectivePriceCents:  book.EffectiveUnitPriceCents(),
		Stock:                book.Stock,
		InStock:              book.Stock > 0,
		UpdatedAt:            book.UpdatedAt,
	}
}
