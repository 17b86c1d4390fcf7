package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
)

type stubSnapshotStore struct {
	values map[string]string
	sets   int
	dels   int
}

func newStubSnapshotStore() *stubSnapshotStore {
	return &stubSnapshotStore{values: map[string]string{}}
}

func (s *stubSnapshotStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		s.values[key] = string(v)
	case string:
		s.values[key] = v
	}
	s.sets++
	return nil
}

func (s *stubSnapshotStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (s *stubSnapshotStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	s.dels++
	return nil
}

func (s *stubSnapshotStore) CartSnapshotKey(customerID string) string {
	return "folio:cart:" + customerID
}

type stubBookLoader struct {
	books map[string]*models.Book
}

func (s *stubBookLoader) FindByISBN(_ context.Context, isbn string) (*models.Book, error) {
	book, ok := s.books[isbn]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return book, nil
}

type stubLockProbe struct {
	locked bool
}

func (s *stubLockProbe) HasCartLock(context.Context, string) (bool, error) {
	return s.locked, nil
}

func newTestService(t *testing.T, books map[string]*models.Book, locks *stubLockProbe) (Service, *stubSnapshotStore) {
	t.Helper()
	store := newStubSnapshotStore()
	repo, err := NewSnapshotRepository(store, time.Hour)
	if err != nil {
		t.Fatalf("snapshot repo: %v", err)
	}
	svc, err := NewService(repo, &stubBookLoader{books: books}, locks)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return svc, store
}

func testBook(isbn string, priceCents, stock int) *models.Book {
	return &models.Book{
		ISBN:       isbn,
		Title:      "Title " + isbn,
		Author:     "Author " + isbn,
		PriceCents: priceCents,
		Stock:      stock,
		IsActive:   true,
	}
}

func TestServiceAddItemPersistsAndPrices(t *testing.T) {
	t.Parallel()

	discounted := 3500
	books := map[string]*models.Book{
		"9780134190440": {
			ISBN:                 "9780134190440",
			Title:                "The Go Programming Language",
			Author:               "Donovan & Kernighan",
			PriceCents:           3999,
			DiscountedPriceCents: &discounted,
			Stock:                12,
			IsActive:             true,
		},
	}
	svc, store := newTestService(t, books, &stubLockProbe{})
	customerID := uuid.New()
	ctx := context.Background()

	dto, err := svc.AddItem(ctx, customerID, "9780134190440", 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if dto.Conflict != nil {
		t.Fatalf("unexpected conflict: %+v", dto.Conflict)
	}
	if len(dto.Lines) != 1 || dto.Lines[0].Qty != 2 {
		t.Fatalf("unexpected lines: %+v", dto.Lines)
	}
	if dto.Lines[0].UnitPriceCents != 3500 {
		t.Fatalf("expected discounted unit price, got %d", dto.Lines[0].UnitPriceCents)
	}
	if dto.Pricing.SubtotalCents != 7000 {
		t.Fatalf("unexpected subtotal: %d", dto.Pricing.SubtotalCents)
	}
	if dto.Pricing.ShippingCostCents != 500 {
		t.Fatalf("unexpected shipping: %d", dto.Pricing.ShippingCostCents)
	}
	if store.sets != 1 {
		t.Fatalf("expected exactly one snapshot save, got %d", store.sets)
	}

	// A fresh hydrate sees the persisted cart.
	reloaded, err := svc.GetCart(ctx, customerID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if reloaded.Revision != dto.Revision || len(reloaded.Lines) != 1 {
		t.Fatalf("unexpected reloaded cart: %+v", reloaded)
	}
}

func TestServiceAddItemConflictSkipsSave(t *testing.T) {
	t.Parallel()

	books := map[string]*models.Book{"9780132350884": testBook("9780132350884", 4200, 0)}
	svc, store := newTestService(t, books, &stubLockProbe{})
	ctx := context.Background()

	dto, err := svc.AddItem(ctx, uuid.New(), "9780132350884", 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if dto.Conflict == nil || dto.Conflict.Reason != enums.StockConflictOutOfStock {
		t.Fatalf("expected out-of-stock conflict, got %+v", dto.Conflict)
	}
	if len(dto.Lines) != 0 {
		t.Fatal("cart must stay empty")
	}
	if store.sets != 0 {
		t.Fatal("rejected mutations must not write a snapshot")
	}
}

func TestServiceRejectsMutationsWhileLocked(t *testing.T) {
	t.Parallel()

	books := map[string]*models.Book{"9780134190440": testBook("9780134190440", 3999, 5)}
	svc, _ := newTestService(t, books, &stubLockProbe{locked: true})

	_, err := svc.AddItem(context.Background(), uuid.New(), "9780134190440", 1)
	if err == nil {
		t.Fatal("expected lock rejection")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceSetQuantityRefreshesStock(t *testing.T) {
	t.Parallel()

	book := testBook("9781491941959", 2500, 8)
	books := map[string]*models.Book{book.ISBN: book}
	svc, _ := newTestService(t, books, &stubLockProbe{})
	customerID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, customerID, book.ISBN, 2); err != nil {
		t.Fatalf("add item: %v", err)
	}

	// Stock dropped since the line was added; the fresh snapshot wins.
	book.Stock = 3
	dto, err := svc.SetQuantity(ctx, customerID, book.ISBN, 5)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if dto.Conflict == nil || dto.Conflict.AvailableQty != 3 {
		t.Fatalf("expected conflict with max 3, got %+v", dto.Conflict)
	}
	if dto.Lines[0].Qty != 2 {
		t.Fatalf("quantity must be preserved, got %d", dto.Lines[0].Qty)
	}
}

func TestServiceSetQuantityMissingLine(t *testing.T) {
	t.Parallel()

	books := map[string]*models.Book{"9781491941959": testBook("9781491941959", 2500, 8)}
	svc, _ := newTestService(t, books, &stubLockProbe{})

	_, err := svc.SetQuantity(context.Background(), uuid.New(), "9781491941959", 2)
	if err == nil {
		t.Fatal("expected not found")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceSetQuantityZeroOnAbsentLineIsNoop(t *testing.T) {
	t.Parallel()

	books := map[string]*models.Book{"9780134190440": testBook("9780134190440", 3999, 5)}
	svc, store := newTestService(t, books, &stubLockProbe{})
	customerID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, customerID, "9780134190440", 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	savesBefore := store.sets

	// Zero is a removal, and removing a line that is not in the cart
	// succeeds without touching anything.
	dto, err := svc.SetQuantity(ctx, customerID, "9781491941959", 0)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if len(dto.Lines) != 1 || dto.Lines[0].ISBN != "9780134190440" {
		t.Fatalf("unexpected lines: %+v", dto.Lines)
	}
	if store.sets != savesBefore {
		t.Fatal("no-op removal must not rewrite the snapshot")
	}
}

func TestServiceClearDeletesSnapshot(t *testing.T) {
	t.Parallel()

	books := map[string]*models.Book{"9780134190440": testBook("9780134190440", 3999, 5)}
	svc, store := newTestService(t, books, &stubLockProbe{})
	customerID := uuid.New()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, customerID, "9780134190440", 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := svc.Clear(ctx, customerID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(store.values) != 0 {
		t.Fatal("expected the snapshot to be deleted")
	}

	dto, err := svc.GetCart(ctx, customerID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(dto.Lines) != 0 {
		t.Fatal("expected an empty cart after clear")
	}
}

func TestServiceInactiveBook(t *testing.T) {
	t.Parallel()

	book := testBook("9780596007126", 1800, 4)
	book.IsActive = false
	svc, _ := newTestService(t, map[string]*models.Book{book.ISBN: book}, &stubLockProbe{})

	_, err := svc.AddItem(context.Background(), uuid.New(), book.ISBN, 1)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}
