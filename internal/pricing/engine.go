// Package pricing computes sale totals: VAT separation per line, line and
// sale discounts, per-rate VAT summary and stamp duty.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/discount"
	"github.com/noah-isme/gym-billing/internal/money"
	"github.com/noah-isme/gym-billing/internal/stampduty"
	"github.com/noah-isme/gym-billing/internal/vat"
)

// LineKind discriminates simple lines from bundles.
type LineKind string

const (
	// LineSimple is a priced item taxed at a single rate.
	LineSimple LineKind = "simple"
	// LineBundle is an item, typically a subscription, whose value splits across several rates.
	LineBundle LineKind = "bundle"
)

// Line describes a sale line. UnitPriceCents is gross when the request
// includes taxes and net otherwise. Simple lines read VAT; bundle lines read
// Breakdown, whose per-unit subtotals must add up to UnitPriceCents.
type Line struct {
	Kind                  LineKind
	UnitPriceCents        money.Cents
	Quantity              int
	PercentageDiscount    *decimal.Decimal
	AbsoluteDiscountCents *money.Cents
	VAT                   vat.Rate
	Breakdown             []vat.Component
}

// Request is the input of both computations.
type Request struct {
	Lines                     []Line
	IncludeTaxes              bool
	SalePercentageDiscount    *decimal.Decimal
	SaleAbsoluteDiscountCents *money.Cents
}

// Result aggregates the computed sale totals.
type Result struct {
	SubtotalCents        money.Cents
	TaxTotalCents        money.Cents
	StampDutyApplied     bool
	StampDutyAmountCents money.Cents
	TotalCents           money.Cents
	VATBreakdown         []vat.Aggregate
}

// GrossCents is the sale total before stamp duty.
func (r Result) GrossCents() money.Cents {
	return r.SubtotalCents + r.TaxTotalCents
}

// ComponentResult is the final split of one VAT-rated part of a line.
type ComponentResult struct {
	Rate              vat.Rate
	NetCents          money.Cents
	GrossCents        money.Cents
	VATCents          money.Cents
	LineDiscountCents money.Cents
	SaleDiscountCents money.Cents
}

// LineResult carries the per-line fields persisted with a sale row.
type LineResult struct {
	Index             int
	UnitNetCents      money.Cents
	UnitGrossCents    money.Cents
	TotalNetCents     money.Cents
	TotalGrossCents   money.Cents
	VATCents          money.Cents
	LineDiscountCents money.Cents
	SaleDiscountCents money.Cents
	Components        []ComponentResult
}

// RowsResult pairs the per-line results with the sale totals they add up to.
type RowsResult struct {
	Lines  []LineResult
	Result Result
}

// Engine runs sale computations. It holds configuration only and is safe for concurrent use.
type Engine struct {
	StampDuty stampduty.Rule
}

// NewEngine returns an engine using the given stamp duty rule.
func NewEngine(rule stampduty.Rule) Engine {
	return Engine{StampDuty: rule}
}

// QuickCalculate returns the sale totals for a prospective sale.
func (e Engine) QuickCalculate(req Request) (Result, error) {
	c, err := e.compute(req)
	if err != nil {
		return Result{}, err
	}
	return c.result, nil
}

// ComputeRows returns the per-line net, gross and tax values together with the sale totals.
func (e Engine) ComputeRows(req Request) (RowsResult, error) {
	c, err := e.compute(req)
	if err != nil {
		return RowsResult{}, err
	}
	return RowsResult{Lines: c.lines, Result: c.result}, nil
}

// Validate checks the request without computing it. A VAT code must mean
// the same percentage and nature everywhere in the sale, since the summary
// groups by code.
func (req Request) Validate() error {
	seen := map[string]vat.Rate{}
	var total money.Cents
	for i, l := range req.Lines {
		if err := l.Validate(); err != nil {
			return common.InvalidArgument("line %d: %v", i, err)
		}
		for _, c := range l.components() {
			prev, ok := seen[c.Rate.Code]
			if !ok {
				seen[c.Rate.Code] = c.Rate
				continue
			}
			if !prev.SameAs(c.Rate) {
				return common.InvalidArgument("line %d: vat code %s used with %s%% %s and %s%% %s",
					i, c.Rate.Code, prev.Percentage, prev.Nature, c.Rate.Percentage, c.Rate.Nature)
			}
		}
		total += l.UnitPriceCents * money.Cents(l.Quantity)
		if total > discount.MaxAmountCents {
			return common.InvalidArgument("sale amount exceeds %d cents", discount.MaxAmountCents)
		}
	}
	if err := discount.ValidatePercentage(req.SalePercentageDiscount); err != nil {
		return err
	}
	return discount.ValidateAbsolute(req.SaleAbsoluteDiscountCents)
}

// Validate checks a single line for consistency with its kind.
func (l Line) Validate() error {
	if err := l.discountLine().Validate(); err != nil {
		return err
	}
	switch l.Kind {
	case LineSimple:
		return l.VAT.Validate()
	case LineBundle:
		if len(l.Breakdown) == 0 {
			return common.InvalidArgument("bundle line requires a vat breakdown")
		}
		var sum money.Cents
		for _, c := range l.Breakdown {
			if err := c.Rate.Validate(); err != nil {
				return err
			}
			if c.SubtotalCents < 0 || c.SubtotalCents > discount.MaxAmountCents {
				return common.InvalidArgument("breakdown subtotal must be between 0 and %d cents", discount.MaxAmountCents)
			}
			sum += c.SubtotalCents
		}
		if sum != l.UnitPriceCents {
			return common.InvalidArgument("breakdown subtotals sum to %d, unit price is %d", sum, l.UnitPriceCents)
		}
		return nil
	default:
		return common.InvalidArgument("unknown line kind %q", l.Kind)
	}
}

func (l Line) discountLine() discount.Line {
	return discount.Line{
		UnitPriceCents:        l.UnitPriceCents,
		Quantity:              l.Quantity,
		PercentageDiscount:    l.PercentageDiscount,
		AbsoluteDiscountCents: l.AbsoluteDiscountCents,
	}
}

func (l Line) components() []vat.Component {
	if l.Kind == LineBundle {
		return l.Breakdown
	}
	return []vat.Component{{SubtotalCents: l.UnitPriceCents, Rate: l.VAT}}
}
