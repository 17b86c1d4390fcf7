package cart

import (
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/foliobooks/bookstore-backend/pkg/types"
)

// Guard enforces the stock ceiling on cart mutations. It never clamps an
// existing quantity: a rejected request leaves the line exactly as it was,
// and the conflict carries the most the customer could still ask for.
type Guard struct{}

// Validate checks a requested quantity against the line's stock snapshot.
// A requested quantity below 1 is a removal signal, not an error; the store
// handles it before the guard is consulted.
func (Guard) Validate(line Line, requestedQty int) *types.StockConflict {
	if requestedQty < 1 {
		return nil
	}
	if line.StockSnapshot <= 0 {
		return &types.StockConflict{
			ISBN:         line.ISBN,
			Reason:       enums.StockConflictOutOfStock,
			RequestedQty: requestedQty,
			AvailableQty: 0,
		}
	}
	if requestedQty > line.StockSnapshot {
		return &types.StockConflict{
			ISBN:         line.ISBN,
			Reason:       enums.StockConflictExceedsAvailable,
			RequestedQty: requestedQty,
			AvailableQty: line.StockSnapshot,
		}
	}
	return nil
}
