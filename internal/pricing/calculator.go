package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/foliobooks/bookstore-backend/pkg/enums"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
)

// Line is the priced portion of a cart line. Quantities are validated
// upstream by the cart; the calculator still refuses impossible inputs.
type Line struct {
	UnitPriceCents int
	Qty            int
}

var (
	// FreeShippingThreshold is the subtotal at which shipping is waived. The
	// quote endpoint and the checkout gate share this single constant.
	FreeShippingThreshold = decimal.NewFromInt(100)

	centsPerUnit = decimal.NewFromInt(100)

	flatRateCents = map[enums.ShippingMethod]int64{
		enums.ShippingMethodStandard: 500,
		enums.ShippingMethodExpress:  1500,
	}
)

// Quote is the priced summary of a cart, with cents at the boundary.
// Rounding happens only here, when decimals collapse back to cents.
type Quote struct {
	SubtotalCents      int  `json:"subtotal_cents"`
	ShippingCostCents  int  `json:"shipping_cost_cents"`
	TotalCents         int  `json:"total_cents"`
	FreeShippingEarned bool `json:"free_shipping_earned"`
}

// Subtotal sums unit price times quantity across the lines as an exact
// decimal amount in whole currency units.
func Subtotal(lines []Line) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		if line.UnitPriceCents < 0 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
		}
		if line.Qty < 1 {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be at least 1")
		}
		unit := decimal.NewFromInt(int64(line.UnitPriceCents)).Div(centsPerUnit)
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Qty))))
	}
	return total, nil
}

// ShippingCost applies the flat-rate table for the method, waived at or
// above the free-shipping threshold. An empty cart ships for nothing.
func ShippingCost(subtotal decimal.Decimal, method enums.ShippingMethod) (decimal.Decimal, error) {
	rateCents, ok := flatRateCents[method]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipping method: "+method.String())
	}
	if subtotal.IsZero() {
		return decimal.Zero, nil
	}
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero, nil
	}
	return decimal.NewFromInt(rateCents).Div(centsPerUnit), nil
}

// Compute prices the lines under the chosen shipping method. Total is
// exactly Subtotal plus ShippingCost.
func Compute(lines []Line, method enums.ShippingMethod) (Quote, error) {
	subtotal, err := Subtotal(lines)
	if err != nil {
		return Quote{}, err
	}
	shipping, err := ShippingCost(subtotal, method)
	if err != nil {
		return Quote{}, err
	}
	total := subtotal.Add(shipping)
	return Quote{
		SubtotalCents:      toCents(subtotal),
		ShippingCostCents:  toCents(shipping),
		TotalCents:         toCents(total),
		FreeShippingEarned: len(lines) > 0 && subtotal.GreaterThanOrEqual(FreeShippingThreshold),
	}, nil
}

func toCents(amount decimal.Decimal) int {
	return int(amount.Mul(centsPerUnit).Round(0).IntPart())
}
