package vat

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/money"
)

// Aggregate is the taxable and tax total of one VAT code across a sale.
type Aggregate struct {
	Code         string
	Description  string
	Percentage   decimal.Decimal
	Nature       string
	TaxableCents money.Cents
	TaxCents     money.Cents
}

// GrossCents is the code's contribution to the sale's gross total.
func (a Aggregate) GrossCents() money.Cents {
	return a.TaxableCents + a.TaxCents
}

// Summary accumulates per-code amounts, remembering the order in which codes first appear.
type Summary struct {
	order  []string
	byCode map[string]*Aggregate
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{byCode: make(map[string]*Aggregate)}
}

// Add accumulates taxable and tax under the rate's code.
func (s *Summary) Add(rate Rate, taxable, tax money.Cents) {
	agg, ok := s.byCode[rate.Code]
	if !ok {
		agg = &Aggregate{
			Code:        rate.Code,
			Description: rate.Description,
			Percentage:  rate.Percentage,
			Nature:      rate.Nature,
		}
		s.byCode[rate.Code] = agg
		s.order = append(s.order, rate.Code)
	}
	agg.TaxableCents += taxable
	agg.TaxCents += tax
}

// Aggregates returns one entry per code in first-seen order.
func (s *Summary) Aggregates() []Aggregate {
	out := make([]Aggregate, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, *s.byCode[code])
	}
	return out
}

// Totals returns the taxable and tax sums over every code.
func (s *Summary) Totals() (taxable, tax money.Cents) {
	for _, agg := range s.byCode {
		taxable += agg.TaxableCents
		tax += agg.TaxCents
	}
	return taxable, tax
}
