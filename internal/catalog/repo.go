package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

// Repository encapsulates book persistence. It is the authoritative stock
// source: the cart keeps snapshots, but checkout always comes back here.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByISBN loads a single book.
func (r *Repository) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Where("isbn = ?", isbn).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns active books ordered by ISBN with keyset pagination. The
// cursor is the last ISBN of the previous page.
func (r *Repository) List(ctx context.Context, cursor string, limit int, query string) ([]models.Book, string, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)
	afterISBN, err := pagination.ParseKeyCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	dbQuery := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("is_active = ?", true)

	if afterISBN != "" {
		dbQuery = dbQuery.Where("isbn > ?", afterISBN)
	}
	if trimmed := strings.TrimSpace(query); trimmed != "" {
		pattern := "%" + strings.ToLower(trimmed) + "%"
		dbQuery = dbQuery.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ?", pattern, pattern)
	}

	var books []models.Book
	if err := dbQuery.Order("isbn ASC").Limit(limitWithBuffer).Find(&books).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(books) > normalizedLimit {
		books = books[:normalizedLimit]
		nextCursor = pagination.EncodeKeyCursor(books[len(books)-1].ISBN)
	}
	return books, nextCursor, nil
}

// DecrementStock conditionally takes qty units off a book's stock. It only
// succeeds when enough stock remains, so concurrent checkouts cannot drive
// stock negative. Runs against whatever DB the repository is bound to, which
// during checkout is the surrounding transaction.
func (r *Repository) DecrementStock(ctx context.Context, isbn string, qty int) (bool, error) {
	if qty < 1 {
		return false, gorm.ErrInvalidValue
	}
	res := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("isbn = ? AND stock >= ?", isbn, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
