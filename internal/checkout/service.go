package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foliobooks/bookstore-backend/internal/cart"
	"github.com/foliobooks/bookstore-backend/internal/orders"
	"github.com/foliobooks/bookstore-backend/internal/pricing"
	dbpkg "github.com/foliobooks/bookstore-backend/pkg/db"
	"github.com/foliobooks/bookstore-backend/pkg/db/models"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/metrics"
	"github.com/foliobooks/bookstore-backend/pkg/outbox"
	"github.com/foliobooks/bookstore-backend/pkg/outbox/payloads"
	"github.com/foliobooks/bookstore-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type snapshotSource interface {
	Find(ctx context.Context, customerID uuid.UUID) (*cart.Snapshot, error)
	Delete(ctx context.Context, customerID uuid.UUID) error
}

type bookLoader interface {
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
}

type cartLocker interface {
	AcquireCartLock(ctx context.Context, customerID, token string, ttl time.Duration) (bool, error)
	ReleaseCartLock(ctx context.Context, customerID string) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Input carries the request data for a checkout attempt.
type Input struct {
	IdempotencyKey string
	CustomerEmail  string
}

// Result is the structured outcome of a checkout attempt. Blocked attempts
// carry per-line conflicts instead of an error; only infrastructure trouble
// surfaces as an error.
type Result struct {
	State     enums.CheckoutState   `json:"state"`
	Conflicts []types.StockConflict `json:"conflicts,omitempty"`
	OrderID   *uuid.UUID            `json:"order_id,omitempty"`
	Pricing   *pricing.Quote        `json:"pricing,omitempty"`
}

// Service executes checkout orchestration: lock, revalidate, price, commit.
type Service interface {
	Execute(ctx context.Context, customerID uuid.UUID, input Input) (*Result, error)
}

// Params groups the checkout service dependencies.
type Params struct {
	Tx        txRunner
	Snapshots snapshotSource
	Books     bookLoader
	Orders    orders.Repository
	Locks     cartLocker
	Outbox    outboxPublisher
	Reserver  stockReserver
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
	LockTTL   time.Duration
}

type service struct {
	tx        txRunner
	snapshots snapshotSource
	books     bookLoader
	orders    orders.Repository
	locks     cartLocker
	outbox    outboxPublisher
	reserver  stockReserver
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	lockTTL   time.Duration
}

// NewService builds the checkout service.
func NewService(params Params) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Snapshots == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart snapshot source is required")
	}
	if params.Books == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book loader is required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repository is required")
	}
	if params.Locks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart locker is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox publisher is required")
	}
	if params.Reserver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock reserver is required")
	}
	if params.LockTTL <= 0 {
		params.LockTTL = 30 * time.Second
	}
	return &service{
		tx:        params.Tx,
		snapshots: params.Snapshots,
		books:     params.Books,
		orders:    params.Orders,
		locks:     params.Locks,
		outbox:    params.Outbox,
		reserver:  params.Reserver,
		metrics:   params.Metrics,
		logg:      params.Logger,
		lockTTL:   params.LockTTL,
	}, nil
}

type errStockRace struct {
	conflicts []types.StockConflict
}

func (e *errStockRace) Error() string { return "stock changed during submission" }

// Execute runs a full checkout attempt for the customer. The cart is locked
// against mutation for the duration; an abandoned attempt expires with the
// lock TTL and leaves the cart untouched.
func (s *service) Execute(ctx context.Context, customerID uuid.UUID, input Input) (*Result, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required for checkout")
	}

	input.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	if input.IdempotencyKey != "" {
		if existing, err := s.orders.FindByIdempotencyKey(ctx, customerID, input.IdempotencyKey); err == nil {
			return s.replayResult(existing), nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency key")
		}
	}

	acquired, err := s.locks.AcquireCartLock(ctx, customerID.String(), uuid.NewString(), s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire cart lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "a checkout is already in progress for this cart")
	}
	defer func() {
		if err := s.locks.ReleaseCartLock(context.WithoutCancel(ctx), customerID.String()); err != nil && s.logg != nil {
			s.logg.Error(ctx, "release cart lock", err)
		}
	}()

	snap, err := s.snapshots.Find(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if snap == nil || len(snap.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	gate := NewGate()
	if err := gate.BeginValidation(); err != nil {
		return nil, err
	}

	conflicts, err := s.validateLines(ctx, snap.Lines)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return s.blocked(gate, conflicts)
	}

	quote, err := pricing.Compute(pricingLines(snap.Lines), snap.ShippingMethod)
	if err != nil {
		return nil, err
	}
	if err := gate.MarkReady(); err != nil {
		return nil, err
	}

	order := s.buildOrder(customerID, snap, quote, input.IdempotencyKey)

	if err := gate.BeginSubmission(); err != nil {
		return nil, err
	}

	started := time.Now()
	submitErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		reservations, err := s.reserver.Reserve(ctx, tx, snap.Lines)
		if err != nil {
			return err
		}
		var raced []types.StockConflict
		for _, res := range reservations {
			if !res.Reserved {
				raced = append(raced, types.StockConflict{
					ISBN:         res.ISBN,
					Reason:       enums.StockConflictOutOfStock,
					RequestedQty: res.Qty,
				})
			}
		}
		if len(raced) > 0 {
			return &errStockRace{conflicts: raced}
		}

		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.emitEvents(ctx, tx, customerID, snap, order, input.CustomerEmail)
	})

	if submitErr != nil {
		var race *errStockRace
		if errors.As(submitErr, &race) {
			return s.blocked(gate, race.conflicts)
		}
		if dbpkg.IsUniqueViolation(submitErr, "orders_idempotency_key_key") {
			if existing, err := s.orders.FindByIdempotencyKey(ctx, customerID, input.IdempotencyKey); err == nil {
				return s.replayResult(existing), nil
			}
		}
		if err := gate.Fail(); err != nil {
			return nil, err
		}
		s.metrics.IncAttempt("failed")
		s.metrics.ObserveDuration("failed", time.Since(started))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, submitErr, "order submission failed")
	}

	if err := gate.Commit(); err != nil {
		return nil, err
	}
	// The snapshot delete is best-effort: the order is committed either way
	// and the stale cart expires with its TTL.
	if err := s.snapshots.Delete(ctx, customerID); err != nil && s.logg != nil {
		s.logg.Error(ctx, "clear cart snapshot after checkout", err)
	}
	s.metrics.IncAttempt("committed")
	s.metrics.ObserveDuration("committed", time.Since(started))

	orderID := order.ID
	return &Result{
		State:   gate.State(),
		OrderID: &orderID,
		Pricing: &quote,
	}, nil
}

func (s *service) validateLines(ctx context.Context, lines []cart.Line) ([]types.StockConflict, error) {
	var conflicts []types.StockConflict
	for _, line := range lines {
		book, err := s.books.FindByISBN(ctx, line.ISBN)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				conflicts = append(conflicts, types.StockConflict{
					ISBN:         line.ISBN,
					Reason:       enums.StockConflictOutOfStock,
					RequestedQty: line.Qty,
				})
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book for validation")
		}
		if !book.IsActive || book.Stock <= 0 {
			conflicts = append(conflicts, types.StockConflict{
				ISBN:         line.ISBN,
				Reason:       enums.StockConflictOutOfStock,
				RequestedQty: line.Qty,
			})
			continue
		}
		if line.Qty > book.Stock {
			conflicts = append(conflicts, types.StockConflict{
				ISBN:         line.ISBN,
				Reason:       enums.StockConflictExceedsAvailable,
				RequestedQty: line.Qty,
				AvailableQty: book.Stock,
			})
		}
	}
	return conflicts, nil
}

func (s *service) blocked(gate *Gate, conflicts []types.StockConflict) (*Result, error) {
	if err := gate.Block(conflicts); err != nil {
		return nil, err
	}
	s.metrics.IncAttempt("blocked")
	for _, conflict := range conflicts {
		s.metrics.IncBlocked(conflict.Reason.String())
	}
	return &Result{
		State:     gate.State(),
		Conflicts: gate.Conflicts(),
	}, nil
}

func (s *service) buildOrder(customerID uuid.UUID, snap *cart.Snapshot, quote pricing.Quote, idempotencyKey string) *models.Order {
	items := make([]models.OrderLineItem, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, models.OrderLineItem{
			ID:             uuid.New(),
			ISBN:           line.ISBN,
			Title:          line.Title,
			Author:         line.Author,
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
			TotalCents:     line.UnitPriceCents * line.Qty,
		})
	}
	order := &models.Order{
		ID:                 uuid.New(),
		CustomerID:         customerID,
		Status:             enums.OrderStatusPlaced,
		ShippingMethod:     snap.ShippingMethod,
		SubtotalCents:      quote.SubtotalCents,
		ShippingCostCents:  quote.ShippingCostCents,
		TotalCents:         quote.TotalCents,
		FreeShippingEarned: quote.FreeShippingEarned,
		Items:              items,
		PlacedAt:           time.Now().UTC(),
	}
	if idempotencyKey != "" {
		order.IdempotencyKey = &idempotencyKey
	}
	return order
}

func (s *service) emitEvents(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, snap *cart.Snapshot, order *models.Order, email string) error {
	actor := &outbox.ActorRef{CustomerID: customerID, Email: email}

	lines := make([]payloads.OrderLineSnapshot, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, payloads.OrderLineSnapshot{
			ISBN:           item.ISBN,
			Title:          item.Title,
			UnitPriceCents: item.UnitPriceCents,
			Qty:            item.Qty,
			TotalCents:     item.TotalCents,
		})
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         actor,
		Version:       1,
		Data: payloads.OrderCreatedEvent{
			OrderID:           order.ID,
			CustomerID:        customerID,
			ShippingMethod:    order.ShippingMethod,
			SubtotalCents:     order.SubtotalCents,
			ShippingCostCents: order.ShippingCostCents,
			TotalCents:        order.TotalCents,
			Lines:             lines,
			PlacedAt:          order.PlacedAt,
		},
	}); err != nil {
		return err
	}

	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCartConverted,
		AggregateType: enums.AggregateCart,
		AggregateID:   snap.CartID,
		Actor:         actor,
		Version:       1,
		Data: payloads.CartConvertedEvent{
			CartID:      snap.CartID,
			CustomerID:  customerID,
			OrderID:     order.ID,
			LineCount:   len(snap.Lines),
			ConvertedAt: time.Now().UTC(),
		},
	})
}

func (s *service) replayResult(order *models.Order) *Result {
	orderID := order.ID
	quote := pricing.Quote{
		SubtotalCents:      order.SubtotalCents,
		ShippingCostCents:  order.ShippingCostCents,
		TotalCents:         order.TotalCents,
		FreeShippingEarned: order.FreeShippingEarned,
	}
	return &Result{
		State:   enums.CheckoutStateCommitted,
		OrderID: &orderID,
		Pricing: &quote,
	}
}

func pricingLines(lines []cart.Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, pricing.Line{UnitPriceCents: line.UnitPriceCents, Qty: line.Qty})
	}
	return out
}
