// Package vat separates gross and net amounts for a single VAT rate and
// aggregates taxable and tax amounts per rate code.
package vat

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/money"
)

// Rate is a VAT rate as supplied by the catalog. The engine reads it and never mutates it.
type Rate struct {
	Code        string
	Description string
	Percentage  decimal.Decimal
	// Nature is the exemption nature code (N1..N7) for zero-rate entries.
	Nature string
}

// IsZero reports whether the rate carries no tax (exempt, excluded, not subject).
func (r Rate) IsZero() bool {
	return r.Percentage.IsZero()
}

// Validate rejects empty codes and percentages outside 0..100.
func (r Rate) Validate() error {
	if r.Code == "" {
		return common.InvalidArgument("vat rate code is required")
	}
	if r.Percentage.IsNegative() || r.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return common.InvalidArgument("vat rate %s must be between 0 and 100, got %s", r.Code, r.Percentage.String())
	}
	return nil
}

// SameAs reports whether two rates may share one aggregate: equal code,
// percentage and nature.
func (r Rate) SameAs(o Rate) bool {
	return r.Code == o.Code && r.Percentage.Equal(o.Percentage) && r.Nature == o.Nature
}

// Component is one entry of a bundle's VAT breakdown.
type Component struct {
	SubtotalCents money.Cents
	Rate          Rate
}

func multiplier(pct decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(pct.Div(decimal.NewFromInt(100)))
}
