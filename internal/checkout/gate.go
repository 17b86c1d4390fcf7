package checkout

import (
	"fmt"

	"github.com/foliobooks/bookstore-backend/pkg/enums"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/types"
)

// Gate tracks a single checkout attempt through its lifecycle:
//
//	idle -> validating -> {blocked, ready} -> submitting -> {committed, failed, blocked}
//
// Blocked and failed attempts may re-enter validation; committed is final.
// The gate only sequences states; the service owns the side effects.
type Gate struct {
	state     enums.CheckoutState
	conflicts []types.StockConflict
}

// NewGate returns a gate at rest.
func NewGate() *Gate {
	return &Gate{state: enums.CheckoutStateIdle}
}

// State returns the current lifecycle state.
func (g *Gate) State() enums.CheckoutState {
	return g.state
}

// Conflicts returns the per-line conflicts recorded when the gate blocked.
func (g *Gate) Conflicts() []types.StockConflict {
	return append([]types.StockConflict(nil), g.conflicts...)
}

// BeginValidation starts (or restarts) stock validation.
func (g *Gate) BeginValidation() error {
	if err := g.require(enums.CheckoutStateIdle, enums.CheckoutStateBlocked, enums.CheckoutStateFailed); err != nil {
		return err
	}
	g.conflicts = nil
	g.state = enums.CheckoutStateValidating
	return nil
}

// Block records the conflicts that stopped the attempt. A submitting
// attempt may also block: the conditional stock decrement can lose a race
// that validation did not see.
func (g *Gate) Block(conflicts []types.StockConflict) error {
	if err := g.require(enums.CheckoutStateValidating, enums.CheckoutStateSubmitting); err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "blocked checkout requires at least one conflict")
	}
	g.conflicts = append([]types.StockConflict(nil), conflicts...)
	g.state = enums.CheckoutStateBlocked
	return nil
}

// MarkReady records that every line passed validation.
func (g *Gate) MarkReady() error {
	if err := g.require(enums.CheckoutStateValidating); err != nil {
		return err
	}
	g.state = enums.CheckoutStateReady
	return nil
}

// BeginSubmission starts the order commit.
func (g *Gate) BeginSubmission() error {
	if err := g.require(enums.CheckoutStateReady); err != nil {
		return err
	}
	g.state = enums.CheckoutStateSubmitting
	return nil
}

// Commit finalizes a successful submission.
func (g *Gate) Commit() error {
	if err := g.require(enums.CheckoutStateSubmitting); err != nil {
		return err
	}
	g.state = enums.CheckoutStateCommitted
	return nil
}

// Fail records a submission that did not commit. The cart is untouched and
// the customer may retry explicitly.
func (g *Gate) Fail() error {
	if err := g.require(enums.CheckoutStateSubmitting); err != nil {
		return err
	}
	g.state = enums.CheckoutStateFailed
	return nil
}

func (g *Gate) require(allowed ...enums.CheckoutState) error {
	for _, state := range allowed {
		if g.state == state {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("checkout cannot proceed from state %q", g.state))
}
