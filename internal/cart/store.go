package cart

import (
	"github.com/google/uuid"

	"github.com/foliobooks/bookstore-backend/internal/pricing"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	"github.com/foliobooks/bookstore-backend/pkg/types"
)

// Line is one book entry in a cart. StockSnapshot is the stock level seen
// when the line was last touched; the checkout gate revalidates against the
// authoritative catalog before any order is committed.
type Line struct {
	ISBN           string  `json:"isbn"`
	Title          string  `json:"title"`
	Author         string  `json:"author"`
	ImageURL       *string `json:"image_url,omitempty"`
	UnitPriceCents int     `json:"unit_price_cents"`
	Qty            int     `json:"qty"`
	StockSnapshot  int     `json:"stock_snapshot"`
}

// BookSnapshot captures the catalog fields a cart mutation needs. ImageURL
// is display-only and never participates in pricing or stock checks.
type BookSnapshot struct {
	ISBN           string
	Title          string
	Author         string
	ImageURL       *string
	UnitPriceCents int
	Stock          int
}

// Snapshot is the serializable projection of a cart, persisted to Redis and
// returned to the storefront. Revision increments on every applied mutation
// so clients can detect staleness without diffing lines.
type Snapshot struct {
	CartID         uuid.UUID            `json:"cart_id"`
	Lines          []Line               `json:"lines"`
	ShippingMethod enums.ShippingMethod `json:"shipping_method"`
	Revision       int64                `json:"revision"`
}

// Store owns the ordered line collection for a single customer's cart.
// Mutations are synchronous with a single logical writer; persistence is an
// explicit effect invoked by the service after a mutation applies, never an
// implicit reaction inside the store.
type Store struct {
	id       uuid.UUID
	lines    []Line
	index    map[string]int
	shipping enums.ShippingMethod
	revision int64
}

// NewStore builds an empty cart with the standard shipping method.
func NewStore() *Store {
	return &Store{
		id:       uuid.New(),
		index:    map[string]int{},
		shipping: enums.ShippingMethodStandard,
	}
}

// Restore rebuilds a store from a persisted snapshot.
func Restore(snap Snapshot) *Store {
	s := &Store{
		id:       snap.CartID,
		lines:    append([]Line(nil), snap.Lines...),
		index:    make(map[string]int, len(snap.Lines)),
		shipping: snap.ShippingMethod,
		revision: snap.Revision,
	}
	if s.id == uuid.Nil {
		s.id = uuid.New()
	}
	if !s.shipping.IsValid() {
		s.shipping = enums.ShippingMethodStandard
	}
	for i, line := range s.lines {
		s.index[line.ISBN] = i
	}
	return s
}

// ID returns the cart identifier.
func (s *Store) ID() uuid.UUID { return s.id }

// Revision returns the mutation counter.
func (s *Store) Revision() int64 { return s.revision }

// Len returns the number of lines in the cart.
func (s *Store) Len() int { return len(s.lines) }

// ShippingMethod returns the selected shipping method.
func (s *Store) ShippingMethod() enums.ShippingMethod { return s.shipping }

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []Line {
	return append([]Line(nil), s.lines...)
}

// Snapshot projects the cart into its persistable form.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		CartID:         s.id,
		Lines:          s.Lines(),
		ShippingMethod: s.shipping,
		Revision:       s.revision,
	}
}

// PricingLines projects the cart into calculator input.
func (s *Store) PricingLines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(s.lines))
	for _, line := range s.lines {
		lines = append(lines, pricing.Line{UnitPriceCents: line.UnitPriceCents, Qty: line.Qty})
	}
	return lines
}

// AddItem merges the requested quantity into the cart. A brand-new line is
// clamped to the available stock; incrementing an existing line past the
// snapshot is rejected outright so the previous quantity stands. Adding a
// book whose snapshot is zero has no effect and reports out-of-stock.
func (s *Store) AddItem(book BookSnapshot, requestedQty int) *types.StockConflict {
	if requestedQty < 1 {
		requestedQty = 1
	}
	if idx, ok := s.index[book.ISBN]; ok {
		line := s.lines[idx]
		line.StockSnapshot = book.Stock
		line.UnitPriceCents = book.UnitPriceCents
		line.ImageURL = book.ImageURL
		combined := line.Qty + requestedQty
		if conflict := (Guard{}).Validate(line, combined); conflict != nil {
			return conflict
		}
		line.Qty = combined
		s.lines[idx] = line
		s.bump()
		return nil
	}

	if book.Stock <= 0 {
		return &types.StockConflict{
			ISBN:         book.ISBN,
			Reason:       enums.StockConflictOutOfStock,
			RequestedQty: requestedQty,
			AvailableQty: 0,
		}
	}
	qty := requestedQty
	if qty > book.Stock {
		qty = book.Stock
	}
	s.lines = append(s.lines, Line{
		ISBN:           book.ISBN,
		Title:          book.Title,
		Author:         book.Author,
		ImageURL:       book.ImageURL,
		UnitPriceCents: book.UnitPriceCents,
		Qty:            qty,
		StockSnapshot:  book.Stock,
	})
	s.index[book.ISBN] = len(s.lines) - 1
	s.bump()
	return nil
}

// SetQuantity replaces the quantity of an existing line. A quantity below 1
// removes the line. Requests above the stock snapshot are rejected and the
// line keeps its previous quantity. The second return reports whether the
// line existed.
func (s *Store) SetQuantity(isbn string, qty int) (*types.StockConflict, bool) {
	idx, ok := s.index[isbn]
	if !ok {
		return nil, false
	}
	if qty < 1 {
		s.remove(idx)
		s.bump()
		return nil, true
	}
	line := s.lines[idx]
	if conflict := (Guard{}).Validate(line, qty); conflict != nil {
		return conflict, true
	}
	line.Qty = qty
	s.lines[idx] = line
	s.bump()
	return nil, true
}

// RemoveItem drops the line if present. Removing an absent line is a no-op.
func (s *Store) RemoveItem(isbn string) bool {
	idx, ok := s.index[isbn]
	if !ok {
		return false
	}
	s.remove(idx)
	s.bump()
	return true
}

// RefreshStock updates a line's stock snapshot from the catalog.
func (s *Store) RefreshStock(isbn string, stock int) bool {
	idx, ok := s.index[isbn]
	if !ok {
		return false
	}
	s.lines[idx].StockSnapshot = stock
	return true
}

// Clear empties the cart, keeping the cart ID and shipping method.
func (s *Store) Clear() {
	if len(s.lines) == 0 {
		return
	}
	s.lines = nil
	s.index = map[string]int{}
	s.bump()
}

// SetShippingMethod switches the shipping selection.
func (s *Store) SetShippingMethod(method enums.ShippingMethod) bool {
	if !method.IsValid() {
		return false
	}
	if s.shipping == method {
		return true
	}
	s.shipping = method
	s.bump()
	return true
}

func (s *Store) remove(idx int) {
	removed := s.lines[idx]
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	delete(s.index, removed.ISBN)
	for i := idx; i < len(s.lines); i++ {
		s.index[s.lines[i].ISBN] = i
	}
}

func (s *Store) bump() {
	s.revision++
}
