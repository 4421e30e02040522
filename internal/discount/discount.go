package discount

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/money"
)

// Bounds on line inputs. Within them unitPrice*quantity, its VAT and a
// sale of many such lines all stay far from int64 overflow.
const (
	MaxAmountCents money.Cents = 1_000_000_000_000
	MaxQuantity                = 1_000_000
)

// Line is the discount view of a sale line.
type Line struct {
	UnitPriceCents        money.Cents
	Quantity              int
	PercentageDiscount    *decimal.Decimal
	AbsoluteDiscountCents *money.Cents
}

// Total returns the line total after its own discounts.
func (l Line) Total() money.Cents {
	return LineTotal(l.UnitPriceCents, l.Quantity, l.PercentageDiscount, l.AbsoluteDiscountCents)
}

// Validate checks the discount fields and quantity are within range.
func (l Line) Validate() error {
	if l.Quantity < 1 || l.Quantity > MaxQuantity {
		return common.InvalidArgument("quantity must be between 1 and %d, got %d", MaxQuantity, l.Quantity)
	}
	if l.UnitPriceCents < 0 {
		return common.InvalidArgument("unit price must not be negative")
	}
	if l.UnitPriceCents > MaxAmountCents/money.Cents(l.Quantity) {
		return common.InvalidArgument("line amount %d x %d exceeds %d cents", l.UnitPriceCents, l.Quantity, MaxAmountCents)
	}
	if err := ValidatePercentage(l.PercentageDiscount); err != nil {
		return err
	}
	return ValidateAbsolute(l.AbsoluteDiscountCents)
}

// ValidateAbsolute accepts nil or an amount between 0 and MaxAmountCents.
func ValidateAbsolute(c *money.Cents) error {
	if c != nil && (*c < 0 || *c > MaxAmountCents) {
		return common.InvalidArgument("absolute discount must be between 0 and %d cents, got %d", MaxAmountCents, *c)
	}
	return nil
}

// ValidatePercentage accepts nil or a value between 0 and 100.
func ValidatePercentage(pct *decimal.Decimal) error {
	if pct == nil {
		return nil
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
		return common.InvalidArgument("percentage discount must be between 0 and 100, got %s", pct.String())
	}
	return nil
}

// LineTotal computes unitPrice*quantity, takes the percentage discount off
// first and the absolute discount second. Over-discounted lines are floored
// at zero.
func LineTotal(unitPrice money.Cents, quantity int, pct *decimal.Decimal, absolute *money.Cents) money.Cents {
	gross := unitPrice * int64(quantity)
	return Apply(gross, pct, absolute)
}

// Apply takes a percentage and then an absolute discount off amount, clamped at zero.
func Apply(amount money.Cents, pct *decimal.Decimal, absolute *money.Cents) money.Cents {
	if pct != nil && !pct.IsZero() {
		amount -= money.RoundToCents(money.ApplyPercentage(amount, *pct))
	}
	if absolute != nil {
		amount -= *absolute
	}
	return money.Clamp(amount)
}

// ApplySaleDiscount applies the sale-level discount to an already line-discounted subtotal.
func ApplySaleDiscount(subtotal money.Cents, pct *decimal.Decimal, absolute *money.Cents) money.Cents {
	return Apply(subtotal, pct, absolute)
}

// SaleTotal sums LineTotal over lines and applies the sale-level discount.
func SaleTotal(lines []Line, pct *decimal.Decimal, absolute *money.Cents) money.Cents {
	var subtotal money.Cents
	for _, l := range lines {
		subtotal += l.Total()
	}
	return ApplySaleDiscount(subtotal, pct, absolute)
}

// ProportionalDiscount returns the part of saleDiscount owed by a component
// worth componentGross out of totalGross, rounded to cents. Shares are always
// weighted by gross values because discounts are negotiated on displayed prices.
func ProportionalDiscount(componentGross, totalGross, saleDiscount money.Cents) money.Cents {
	share := money.ProportionalShare(
		decimal.NewFromInt(componentGross),
		decimal.NewFromInt(totalGross),
		decimal.NewFromInt(saleDiscount),
	)
	return money.RoundToCents(share)
}

// Spread distributes amount across components weighted by their gross
// values. Unlike summing ProportionalDiscount per component, the shares are
// guaranteed to add up to amount.
func Spread(amount money.Cents, grossWeights []money.Cents) []money.Cents {
	return money.Allocate(amount, grossWeights)
}
