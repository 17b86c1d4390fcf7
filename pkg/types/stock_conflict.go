package types

import (
	"github.com/foliobooks/bookstore-backend/pkg/enums"
)

// StockConflict captures a quantity the stock guard refused, along with the
// most the customer could still request.
type StockConflict struct {
	ISBN         string                    `json:"isbn"`
	Reason       enums.StockConflictReason `json:"reason"`
	RequestedQty int                       `json:"requested_qty"`
	AvailableQty int                       `json:"available_qty"`
}
