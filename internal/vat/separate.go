package vat

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/discount"
	"github.com/noah-isme/gym-billing/internal/money"
)

// Separation is the result of splitting an amount into net and tax.
// TotalNet + VAT == TotalGross always holds.
type Separation struct {
	UnitNet    money.Cents
	UnitGross  money.Cents
	TotalNet   money.Cents
	TotalGross money.Cents
	VAT        money.Cents
}

// ExcludeVAT treats gross as a tax-inclusive unit price. The unit net is
// rounded once and becomes the anchor: quantity and discount are applied to
// it and the total gross is rebuilt from the discounted net. The VAT is the
// residual gross - net.
//
// A single undiscounted unit keeps the caller's gross untouched so that no
// rounding drift from the net round trip reaches already invoiced totals.
func ExcludeVAT(gross money.Cents, pct decimal.Decimal, quantity int, discountPct *decimal.Decimal) (Separation, error) {
	if err := checkInputs(pct, quantity, discountPct); err != nil {
		return Separation{}, err
	}
	m := multiplier(pct)
	unitNet := money.RoundToCents(decimal.NewFromInt(gross).Div(m))
	totalNet := discount.LineTotal(unitNet, quantity, discountPct, nil)

	var totalGross money.Cents
	if quantity == 1 && !hasDiscount(discountPct) {
		totalGross = gross
	} else {
		totalGross = money.RoundToCents(decimal.NewFromInt(totalNet).Mul(m))
	}
	return Separation{
		UnitNet:    unitNet,
		UnitGross:  gross,
		TotalNet:   totalNet,
		TotalGross: totalGross,
		VAT:        totalGross - totalNet,
	}, nil
}

// IncludeVAT treats net as a tax-exclusive unit price and computes the
// gross forward.
func IncludeVAT(net money.Cents, pct decimal.Decimal, quantity int, discountPct *decimal.Decimal) (Separation, error) {
	if err := checkInputs(pct, quantity, discountPct); err != nil {
		return Separation{}, err
	}
	m := multiplier(pct)
	totalNet := discount.LineTotal(net, quantity, discountPct, nil)
	totalGross := money.RoundToCents(decimal.NewFromInt(totalNet).Mul(m))
	return Separation{
		UnitNet:    net,
		UnitGross:  money.RoundToCents(decimal.NewFromInt(net).Mul(m)),
		TotalNet:   totalNet,
		TotalGross: totalGross,
		VAT:        totalGross - totalNet,
	}, nil
}

// NetFromGross splits an already final gross amount at pct.
func NetFromGross(gross money.Cents, pct decimal.Decimal) (net, tax money.Cents) {
	net = money.RoundToCents(decimal.NewFromInt(gross).Div(multiplier(pct)))
	return net, gross - net
}

// GrossFromNet adds tax at pct to an already final net amount.
func GrossFromNet(net money.Cents, pct decimal.Decimal) (gross, tax money.Cents) {
	gross = money.RoundToCents(decimal.NewFromInt(net).Mul(multiplier(pct)))
	return gross, gross - net
}

func checkInputs(pct decimal.Decimal, quantity int, discountPct *decimal.Decimal) error {
	if pct.IsNegative() {
		return common.InvalidArgument("vat percentage must not be negative, got %s", pct.String())
	}
	if quantity < 1 {
		return common.InvalidArgument("quantity must be at least 1, got %d", quantity)
	}
	return discount.ValidatePercentage(discountPct)
}

func hasDiscount(pct *decimal.Decimal) bool {
	return pct != nil && !pct.IsZero()
}
