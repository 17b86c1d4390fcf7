package checkout

import (
	"context"

	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/internal/cart"
	"github.com/foliobooks/bookstore-backend/internal/catalog"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
)

// ReservationResult reports whether a line's stock decrement went through.
type ReservationResult struct {
	ISBN     string
	Qty      int
	Reserved bool
}

type stockReserver interface {
	Reserve(ctx context.Context, tx *gorm.DB, lines []cart.Line) ([]ReservationResult, error)
}

// catalogReserver decrements book stock through the catalog repository,
// bound to the checkout transaction. The conditional update refuses any
// decrement that would drive stock negative.
type catalogReserver struct {
	repo *catalog.Repository
}

// NewCatalogReserver adapts the catalog repository into the reserver the
// checkout service runs inside its transaction.
func NewCatalogReserver(repo *catalog.Repository) stockReserver {
	return catalogReserver{repo: repo}
}

func (r catalogReserver) Reserve(ctx context.Context, tx *gorm.DB, lines []cart.Line) ([]ReservationResult, error) {
	txRepo := r.repo.WithTx(tx)
	results := make([]ReservationResult, 0, len(lines))
	for _, line := range lines {
		if line.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be at least 1")
		}
		ok, err := txRepo.DecrementStock(ctx, line.ISBN, line.Qty)
		if err != nil {
			return nil, err
		}
		results = append(results, ReservationResult{ISBN: line.ISBN, Qty: line.Qty, Reserved: ok})
	}
	return results, nil
}
