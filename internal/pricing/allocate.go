package pricing

import (
	"github.com/noah-isme/gym-billing/internal/discount"
	"github.com/noah-isme/gym-billing/internal/money"
	"github.com/noah-isme/gym-billing/internal/vat"
)

// part is one VAT-rated piece of a line while the computation runs.
type part struct {
	line int
	rate vat.Rate
	sep  vat.Separation
	// anchor is the amount discounts are taken from: gross when the
	// request includes taxes, net otherwise.
	anchor    money.Cents
	lineShare money.Cents
	saleShare money.Cents
}

func (p part) remaining() money.Cents {
	return p.anchor - p.lineShare - p.saleShare
}

// grossAfterLine is the part's gross value once its line discounts are taken.
func (p part) grossAfterLine(includeTaxes bool) money.Cents {
	if p.lineShare == 0 {
		return p.sep.TotalGross
	}
	left := p.anchor - p.lineShare
	if includeTaxes {
		return left
	}
	gross, _ := vat.GrossFromNet(left, p.rate.Percentage)
	return gross
}

// final splits what is left of the part into net, gross and tax.
func (p part) final(includeTaxes bool) (net, gross, tax money.Cents) {
	if p.lineShare == 0 && p.saleShare == 0 {
		return p.sep.TotalNet, p.sep.TotalGross, p.sep.VAT
	}
	left := p.remaining()
	if includeTaxes {
		net, tax = vat.NetFromGross(left, p.rate.Percentage)
		return net, left, tax
	}
	gross, tax = vat.GrossFromNet(left, p.rate.Percentage)
	return left, gross, tax
}

type computation struct {
	lines  []LineResult
	result Result
}

// compute runs the fixed pipeline: VAT separation with quantity and
// percentage discount per part, the line's absolute discount, the sale
// discount, VAT aggregation and finally stamp duty. Each step reads the
// rounded output of the previous one.
func (e Engine) compute(req Request) (*computation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	separate := vat.ExcludeVAT
	if !req.IncludeTaxes {
		separate = vat.IncludeVAT
	}

	parts := make([]part, 0, len(req.Lines))
	lineParts := make([][]int, len(req.Lines))
	for i, l := range req.Lines {
		for _, c := range l.components() {
			sep, err := separate(c.SubtotalCents, c.Rate.Percentage, l.Quantity, l.PercentageDiscount)
			if err != nil {
				return nil, err
			}
			anchor := sep.TotalNet
			if req.IncludeTaxes {
				anchor = sep.TotalGross
			}
			lineParts[i] = append(lineParts[i], len(parts))
			parts = append(parts, part{line: i, rate: c.Rate, sep: sep, anchor: anchor})
		}
	}

	var subtotal money.Cents
	for i, l := range req.Lines {
		idx := lineParts[i]
		weights := make([]money.Cents, len(idx))
		caps := make([]money.Cents, len(idx))
		var lineAnchor money.Cents
		for k, j := range idx {
			weights[k] = parts[j].sep.TotalGross
			caps[k] = parts[j].anchor
			lineAnchor += parts[j].anchor
		}
		if l.AbsoluteDiscountCents != nil && *l.AbsoluteDiscountCents > 0 {
			amount := min(*l.AbsoluteDiscountCents, lineAnchor)
			for k, share := range spreadCapped(amount, weights, caps) {
				parts[idx[k]].lineShare = share
			}
		}
		for _, j := range idx {
			subtotal += parts[j].anchor - parts[j].lineShare
		}
	}

	saleDiscount := subtotal - discount.ApplySaleDiscount(subtotal, req.SalePercentageDiscount, req.SaleAbsoluteDiscountCents)
	if saleDiscount > 0 {
		weights := make([]money.Cents, len(parts))
		caps := make([]money.Cents, len(parts))
		for j, p := range parts {
			weights[j] = p.grossAfterLine(req.IncludeTaxes)
			caps[j] = p.anchor - p.lineShare
		}
		for j, share := range spreadCapped(saleDiscount, weights, caps) {
			parts[j].saleShare = share
		}
	}

	summary := vat.NewSummary()
	lines := make([]LineResult, len(req.Lines))
	for i := range lines {
		lines[i].Index = i
	}
	for _, p := range parts {
		net, gross, tax := p.final(req.IncludeTaxes)
		summary.Add(p.rate, net, tax)

		lr := &lines[p.line]
		lr.UnitNetCents += p.sep.UnitNet
		lr.UnitGrossCents += p.sep.UnitGross
		lr.TotalNetCents += net
		lr.TotalGrossCents += gross
		lr.VATCents += tax
		lr.LineDiscountCents += p.lineShare
		lr.SaleDiscountCents += p.saleShare
		lr.Components = append(lr.Components, ComponentResult{
			Rate:              p.rate,
			NetCents:          net,
			GrossCents:        gross,
			VATCents:          tax,
			LineDiscountCents: p.lineShare,
			SaleDiscountCents: p.saleShare,
		})
	}

	taxable, tax := summary.Totals()
	aggregates := summary.Aggregates()
	duty := e.StampDuty.Evaluate(aggregates)
	return &computation{
		lines: lines,
		result: Result{
			SubtotalCents:        taxable,
			TaxTotalCents:        tax,
			StampDutyApplied:     duty.Applied,
			StampDutyAmountCents: duty.AmountCents,
			TotalCents:           taxable + tax + duty.AmountCents,
			VATBreakdown:         aggregates,
		},
	}, nil
}

// spreadCapped distributes amount by weight without giving any slot more
// than its cap. Whatever a capped slot cannot take is spread again over the
// slots that still have room. amount must not exceed the sum of caps.
func spreadCapped(amount money.Cents, weights, caps []money.Cents) []money.Cents {
	shares := make([]money.Cents, len(weights))
	for left := amount; left > 0; {
		w := make([]money.Cents, len(weights))
		open := false
		for i := range weights {
			if caps[i]-shares[i] > 0 && weights[i] > 0 {
				w[i] = weights[i]
				open = true
			}
		}
		if !open {
			for i := range weights {
				if room := caps[i] - shares[i]; room > 0 {
					w[i] = room
					open = true
				}
			}
		}
		if !open {
			break
		}
		progressed := false
		for i, s := range discount.Spread(left, w) {
			s = min(s, caps[i]-shares[i])
			if s > 0 {
				shares[i] += s
				left -= s
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return shares
}
