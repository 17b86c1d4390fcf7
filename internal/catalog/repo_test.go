package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Book{}); err != nil {
		t.Fatalf("migrate books: %v", err)
	}
	return db
}

func seedBook(t *testing.T, db *gorm.DB, isbn string, stock int) {
	t.Helper()
	book := models.Book{
		ISBN:       isbn,
		Title:      "Title " + isbn,
		Author:     "Author " + isbn,
		PriceCents: 1999,
		Stock:      stock,
		IsActive:   true,
	}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
}

func TestDecrementStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	seedBook(t, db, "9780134190440", 5)

	ok, err := repo.DecrementStock(ctx, "9780134190440", 3)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if !ok {
		t.Fatal("expected decrement to succeed")
	}

	// Not enough left for four more.
	ok, err = repo.DecrementStock(ctx, "9780134190440", 4)
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if ok {
		t.Fatal("expected decrement to be refused")
	}

	var book models.Book
	if err := db.First(&book, "isbn = ?", "9780134190440").Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if book.Stock != 2 {
		t.Fatalf("expected stock 2, got %d", book.Stock)
	}
}

func TestDecrementStockInsideTransactionRollsBack(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	seedBook(t, db, "9781491941959", 4)

	err := db.Transaction(func(tx *gorm.DB) error {
		txRepo := repo.WithTx(tx)
		ok, terr := txRepo.DecrementStock(ctx, "9781491941959", 2)
		if terr != nil {
			return terr
		}
		if !ok {
			t.Fatal("expected decrement inside tx to succeed")
		}
		return gorm.ErrInvalidTransaction
	})
	if err == nil {
		t.Fatal("expected transaction to fail")
	}

	var book models.Book
	if err := db.First(&book, "isbn = ?", "9781491941959").Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if book.Stock != 4 {
		t.Fatalf("expected rollback to restore stock, got %d", book.Stock)
	}
}

func TestListPaginatesByISBN(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	for _, isbn := range []string{"9780000000001", "9780000000002", "9780000000003"} {
		seedBook(t, db, isbn, 1)
	}
	seedBook(t, db, "9780000000000", 1)
	if err := db.Model(&models.Book{}).Where("isbn = ?", "9780000000000").Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate book: %v", err)
	}

	page, cursor, err := repo.List(ctx, "", 2, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 || cursor == "" {
		t.Fatalf("expected full first page with cursor, got %d rows", len(page))
	}
	if page[0].ISBN != "9780000000001" {
		t.Fatalf("unexpected ordering: %s", page[0].ISBN)
	}

	rest, cursor, err := repo.List(ctx, cursor, 2, "")
	if err != nil {
		t.Fatalf("list rest: %v", err)
	}
	if len(rest) != 1 || cursor != "" {
		t.Fatalf("expected final page, got %d rows cursor=%q", len(rest), cursor)
	}
	if rest[0].ISBN != "9780000000003" {
		t.Fatalf("unexpected final row: %s", rest[0].ISBN)
	}
}

func TestListFiltersByQuery(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	if err := db.Create(&models.Book{ISBN: "9780134190440", Title: "The Go Programming Language", Author: "Donovan", PriceCents: 3999, Stock: 3, IsActive: true}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	seedBook(t, db, "9780596007126", 2)

	page, _, err := repo.List(ctx, "", 10, "go programming")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 1 || page[0].ISBN != "9780134190440" {
		t.Fatalf("unexpected query result: %+v", page)
	}
}
