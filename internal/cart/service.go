package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/internal/pricing"
	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/types"
)

type bookLoader interface {
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
}

type lockProbe interface {
	HasCartLock(ctx context.Context, customerID string) (bool, error)
}

// CartDTO is the storefront view of a cart after a fetch or mutation. A
// refused mutation carries the conflict instead of an error so the client
// can render the maximum purchasable quantity.
type CartDTO struct {
	CartID         uuid.UUID            `json:"cart_id"`
	Lines          []Line               `json:"lines"`
	ShippingMethod enums.ShippingMethod `json:"shipping_method"`
	Revision       int64                `json:"revision"`
	Pricing        pricing.Quote        `json:"pricing"`
	Conflict       *types.StockConflict `json:"conflict,omitempty"`
}

// Service exposes cart operations for a single authenticated customer.
type Service interface {
	GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error)
	AddItem(ctx context.Context, customerID uuid.UUID, isbn string, qty int) (*CartDTO, error)
	SetQuantity(ctx context.Context, customerID uuid.UUID, isbn string, qty int) (*CartDTO, error)
	RemoveItem(ctx context.Context, customerID uuid.UUID, isbn string) (*CartDTO, error)
	SetShippingMethod(ctx context.Context, customerID uuid.UUID, method enums.ShippingMethod) (*CartDTO, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type service struct {
	snapshots *SnapshotRepository
	books     bookLoader
	locks     lockProbe
}

// NewService builds a cart service backed by the snapshot repository, the
// catalog, and the checkout lock probe.
func NewService(snapshots *SnapshotRepository, books bookLoader, locks lockProbe) (Service, error) {
	if snapshots == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "snapshot repository is required")
	}
	if books == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book loader is required")
	}
	if locks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lock probe is required")
	}
	return &service{snapshots: snapshots, books: books, locks: locks}, nil
}

// GetCart rehydrates the customer's cart; a missing snapshot yields an
// empty cart without creating one.
func (s *service) GetCart(ctx context.Context, customerID uuid.UUID) (*CartDTO, error) {
	store, err := s.hydrate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.project(store, nil)
}

// AddItem merges the requested quantity into the cart and persists the
// result when the mutation applied.
func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, isbn string, qty int) (*CartDTO, error) {
	if err := s.ensureUnlocked(ctx, customerID); err != nil {
		return nil, err
	}
	book, err := s.loadBook(ctx, isbn)
	if err != nil {
		return nil, err
	}
	store, err := s.hydrate(ctx, customerID)
	if err != nil {
		return nil, err
	}

	conflict := store.AddItem(BookSnapshot{
		ISBN:           book.ISBN,
		Title:          book.Title,
		Author:         book.Author,
		ImageURL:       book.ImageURL,
		UnitPriceCents: book.EffectiveUnitPriceCents(),
		Stock:          book.Stock,
	}, qty)
	if conflict != nil {
		return s.project(store, conflict)
	}
	if err := s.snapshots.Save(ctx, customerID, store.Snapshot()); err != nil {
		return nil, err
	}
	return s.project(store, nil)
}

// SetQuantity replaces a line's quantity after refreshing its stock snapshot
// from the catalog. A quantity below 1 removes the line.
func (s *service) SetQuantity(ctx context.Context, customerID uuid.UUID, isbn string, qty int) (*CartDTO, error) {
	if err := s.ensureUnlocked(ctx, customerID); err != nil {
		return nil, err
	}
	store, err := s.hydrate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if qty >= 1 {
		book, err := s.loadBook(ctx, isbn)
		if err != nil {
			return nil, err
		}
		store.RefreshStock(isbn, book.Stock)
	}

	conflict, found := store.SetQuantity(isbn, qty)
	if !found {
		// Below 1 the call is a removal, and removing an absent line is a
		// no-op. Only a real quantity change needs an existing line.
		if qty < 1 {
			return s.project(store, nil)
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	if conflict != nil {
		return s.project(store, conflict)
	}
	if err := s.snapshots.Save(ctx, customerID, store.Snapshot()); err != nil {
		return nil, err
	}
	return s.project(store, nil)
}

// RemoveItem drops a line. Removing an absent line succeeds without a write.
func (s *service) RemoveItem(ctx context.Context, customerID uuid.UUID, isbn string) (*CartDTO, error) {
	if err := s.ensureUnlocked(ctx, customerID); err != nil {
		return nil, err
	}
	store, err := s.hydrate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if store.RemoveItem(isbn) {
		if err := s.snapshots.Save(ctx, customerID, store.Snapshot()); err != nil {
			return nil, err
		}
	}
	return s.project(store, nil)
}

// SetShippingMethod switches the cart's shipping selection.
func (s *service) SetShippingMethod(ctx context.Context, customerID uuid.UUID, method enums.ShippingMethod) (*CartDTO, error) {
	if err := s.ensureUnlocked(ctx, customerID); err != nil {
		return nil, err
	}
	store, err := s.hydrate(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !store.SetShippingMethod(method) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method: "+method.String())
	}
	if err := s.snapshots.Save(ctx, customerID, store.Snapshot()); err != nil {
		return nil, err
	}
	return s.project(store, nil)
}

// Clear empties the cart and drops the persisted snapshot.
func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if err := s.ensureUnlocked(ctx, customerID); err != nil {
		return err
	}
	return s.snapshots.Delete(ctx, customerID)
}

func (s *service) ensureUnlocked(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	locked, err := s.locks.HasCartLock(ctx, customerID.String())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "probe checkout lock")
	}
	if locked {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is locked by an in-flight checkout")
	}
	return nil
}

func (s *service) hydrate(ctx context.Context, customerID uuid.UUID) (*Store, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id is required")
	}
	snap, err := s.snapshots.Find(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return NewStore(), nil
	}
	return Restore(*snap), nil
}

func (s *service) loadBook(ctx context.Context, isbn string) (*models.Book, error) {
	if isbn == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required")
	}
	book, err := s.books.FindByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if !book.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book is not available")
	}
	if book.EffectiveUnitPriceCents() < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book price cannot be negative")
	}
	return book, nil
}

func (s *service) project(store *Store, conflict *types.StockConflict) (*CartDTO, error) {
	quote, err := pricing.Compute(store.PricingLines(), store.ShippingMethod())
	if err != nil {
		return nil, err
	}
	return &CartDTO{
		CartID:         store.ID(),
		Lines:          store.Lines(),
		ShippingMethod: store.ShippingMethod(),
		Revision:       store.Revision(),
		Pricing:        quote,
		Conflict:       conflict,
	}, nil
}
