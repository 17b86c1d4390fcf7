package enums

// StockConflictReason enumerates why a requested quantity was refused
// against the available stock.
type StockConflictReason string

const (
	StockConflictExceedsAvailable StockConflictReason = "exceeds_available"
	StockConflictOutOfStock       StockConflictReason = "out_of_stock"
)

var validStockConflictReasons = []StockConflictReason{
	StockConflictExceedsAvailable,
	StockConflictOutOfStock,
}

// String implements fmt.Stringer.
func (s StockConflictReason) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s StockConflictReason) IsValid() bool {
	return isOneOf(s, validStockConflictReasons)
}

// ParseStockConflictReason converts raw input into a StockConflictReason.
func ParseStockConflictReason(value string) (StockConflictReason, error) {
	return parseEnum(value, "stock conflict reason", validStockConflictReasons)
}
