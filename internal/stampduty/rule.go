// Package stampduty decides whether a sale document owes the flat stamp duty
// charged on VAT-exempt amounts above a threshold.
package stampduty

import (
	"github.com/noah-isme/gym-billing/internal/money"
	"github.com/noah-isme/gym-billing/internal/vat"
)

// Rule holds the configured threshold and the flat amount charged when it is exceeded.
type Rule struct {
	ThresholdCents money.Cents
	AmountCents    money.Cents
}

// Result reports whether the duty applies and how much it adds to the total.
type Result struct {
	Applied     bool
	AmountCents money.Cents
}

// Evaluate applies the rule to a sale's VAT summary. Only zero-rate
// aggregates count towards the threshold; a sale without any zero-rate code
// never owes the duty. The duty is added on top of the total and is not part
// of any VAT base.
func (r Rule) Evaluate(aggregates []vat.Aggregate) Result {
	var exempt money.Cents
	found := false
	for _, agg := range aggregates {
		if !agg.Percentage.IsZero() {
			continue
		}
		found = true
		exempt += agg.TaxableCents
	}
	if !found || exempt <= r.ThresholdCents {
		return Result{}
	}
	return Result{Applied: true, AmountCents: r.AmountCents}
}
