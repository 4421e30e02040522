package stampduty

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-billing/internal/vat"
)

var rule = Rule{ThresholdCents: 7747, AmountCents: 200}

func TestStampDutyAppliesAboveThreshold(t *testing.T) {
	res := rule.Evaluate([]vat.Aggregate{{Code: "N4", Percentage: decimal.Zero, TaxableCents: 10000}})
	require.True(t, res.Applied)
	require.EqualValues(t, 200, res.AmountCents)
}

func TestStampDutyBelowThreshold(t *testing.T) {
	res := rule.Evaluate([]vat.Aggregate{{Code: "N4", Percentage: decimal.Zero, TaxableCents: 5000}})
	require.False(t, res.Applied)
	require.Zero(t, res.AmountCents)

	// exactly at the threshold does not exceed it
	res = rule.Evaluate([]vat.Aggregate{{Code: "N4", Percentage: decimal.Zero, TaxableCents: 7747}})
	require.False(t, res.Applied)
}

func TestStampDutyNeedsZeroRate(t *testing.T) {
	res := rule.Evaluate([]vat.Aggregate{{Code: "22", Percentage: decimal.NewFromInt(22), TaxableCents: 1_000_000, TaxCents: 220_000}})
	require.False(t, res.Applied)
}

func TestStampDutyCountsOnlyExemptAmounts(t *testing.T) {
	aggs := []vat.Aggregate{
		{Code: "22", Percentage: decimal.NewFromInt(22), TaxableCents: 50_000, TaxCents: 11_000},
		{Code: "N2", Percentage: decimal.Zero, TaxableCents: 4000},
		{Code: "N4", Percentage: decimal.Zero, TaxableCents: 4000},
	}
	require.True(t, rule.Evaluate(aggs).Applied)
	require.False(t, rule.Evaluate(aggs[:2]).Applied)
}
