package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/discount"
	"github.com/noah-isme/gym-billing/internal/money"
	"github.com/noah-isme/gym-billing/internal/stampduty"
	"github.com/noah-isme/gym-billing/internal/vat"
)

var (
	rate22 = vat.Rate{Code: "22", Description: "Aliquota ordinaria", Percentage: decimal.NewFromInt(22)}
	rate10 = vat.Rate{Code: "10", Description: "Aliquota ridotta", Percentage: decimal.NewFromInt(10)}
	exempt = vat.Rate{Code: "N4", Description: "Esente art. 10", Percentage: decimal.Zero, Nature: "N4"}

	engine = NewEngine(stampduty.Rule{ThresholdCents: 7747, AmountCents: 200})
)

func pct(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func cents(v money.Cents) *money.Cents {
	return &v
}

func simple(price money.Cents, rate vat.Rate) Line {
	return Line{Kind: LineSimple, UnitPriceCents: price, Quantity: 1, VAT: rate}
}

func requireBalanced(t *testing.T, res Result) {
	t.Helper()
	var gross money.Cents
	for _, agg := range res.VATBreakdown {
		gross += agg.GrossCents()
	}
	require.Equal(t, res.SubtotalCents+res.TaxTotalCents, gross)
	require.Equal(t, gross+res.StampDutyAmountCents, res.TotalCents)
}

func TestQuickCalculateGrossMode(t *testing.T) {
	res, err := engine.QuickCalculate(Request{Lines: []Line{simple(12200, rate22)}, IncludeTaxes: true})
	require.NoError(t, err)
	require.EqualValues(t, 10000, res.SubtotalCents)
	require.EqualValues(t, 2200, res.TaxTotalCents)
	require.EqualValues(t, 12200, res.TotalCents)
	require.False(t, res.StampDutyApplied)
	require.Len(t, res.VATBreakdown, 1)
	requireBalanced(t, res)
}

func TestQuickCalculateNetMode(t *testing.T) {
	line := simple(10000, rate22)
	line.Quantity = 2
	line.PercentageDiscount = pct(10)
	res, err := engine.QuickCalculate(Request{Lines: []Line{line}})
	require.NoError(t, err)
	require.EqualValues(t, 18000, res.SubtotalCents)
	require.EqualValues(t, 3960, res.TaxTotalCents)
	require.EqualValues(t, 21960, res.TotalCents)
	requireBalanced(t, res)
}

func TestQuickCalculateStampDuty(t *testing.T) {
	res, err := engine.QuickCalculate(Request{Lines: []Line{simple(10000, exempt)}, IncludeTaxes: true})
	require.NoError(t, err)
	require.True(t, res.StampDutyApplied)
	require.EqualValues(t, 200, res.StampDutyAmountCents)
	require.Equal(t, "2.00", money.ToMajor(res.StampDutyAmountCents).StringFixed(2))
	require.EqualValues(t, 10200, res.TotalCents)
	requireBalanced(t, res)

	res, err = engine.QuickCalculate(Request{Lines: []Line{simple(5000, exempt)}, IncludeTaxes: true})
	require.NoError(t, err)
	require.False(t, res.StampDutyApplied)
	require.EqualValues(t, 5000, res.TotalCents)
}

func TestBundleWithSaleDiscount(t *testing.T) {
	bundle := Line{
		Kind:           LineBundle,
		UnitPriceCents: 10000,
		Quantity:       1,
		Breakdown: []vat.Component{
			{SubtotalCents: 6000, Rate: rate22},
			{SubtotalCents: 4000, Rate: exempt},
		},
	}
	rows, err := engine.ComputeRows(Request{
		Lines:                     []Line{bundle},
		IncludeTaxes:              true,
		SaleAbsoluteDiscountCents: cents(1000),
	})
	require.NoError(t, err)

	res := rows.Result
	require.Len(t, res.VATBreakdown, 2)
	require.Equal(t, "22", res.VATBreakdown[0].Code)
	require.EqualValues(t, 4426, res.VATBreakdown[0].TaxableCents)
	require.EqualValues(t, 974, res.VATBreakdown[0].TaxCents)
	require.Equal(t, "N4", res.VATBreakdown[1].Code)
	require.EqualValues(t, 3600, res.VATBreakdown[1].TaxableCents)
	require.EqualValues(t, 0, res.VATBreakdown[1].TaxCents)
	require.EqualValues(t, 9000, res.TotalCents)
	require.False(t, res.StampDutyApplied)
	requireBalanced(t, res)

	require.Len(t, rows.Lines, 1)
	line := rows.Lines[0]
	require.EqualValues(t, 9000, line.TotalGrossCents)
	require.EqualValues(t, 8026, line.TotalNetCents)
	require.EqualValues(t, 974, line.VATCents)
	require.EqualValues(t, 1000, line.SaleDiscountCents)
	require.Len(t, line.Components, 2)
	require.EqualValues(t, 600, line.Components[0].SaleDiscountCents)
	require.EqualValues(t, 400, line.Components[1].SaleDiscountCents)
}

func TestSaleDiscountRoundingIsDistributed(t *testing.T) {
	lines := []Line{simple(1000, rate22), simple(1000, rate22), simple(1000, rate22)}
	rows, err := engine.ComputeRows(Request{Lines: lines, IncludeTaxes: true, SaleAbsoluteDiscountCents: cents(100)})
	require.NoError(t, err)
	require.EqualValues(t, 34, rows.Lines[0].SaleDiscountCents)
	require.EqualValues(t, 33, rows.Lines[1].SaleDiscountCents)
	require.EqualValues(t, 33, rows.Lines[2].SaleDiscountCents)
	require.EqualValues(t, 2900, rows.Result.TotalCents)
	requireBalanced(t, rows.Result)
}

func TestSalePercentageThenAbsolute(t *testing.T) {
	lines := []Line{simple(6100, rate22), simple(5500, rate10)}
	res, err := engine.QuickCalculate(Request{
		Lines:                     lines,
		IncludeTaxes:              true,
		SalePercentageDiscount:    pct(10),
		SaleAbsoluteDiscountCents: cents(440),
	})
	require.NoError(t, err)
	// 11600 - 1160 - 440
	require.EqualValues(t, 10000, res.TotalCents)
	requireBalanced(t, res)
}

func TestOverDiscountClampsToZero(t *testing.T) {
	line := simple(1000, rate22)
	line.AbsoluteDiscountCents = cents(5000)
	res, err := engine.QuickCalculate(Request{Lines: []Line{line}, IncludeTaxes: true})
	require.NoError(t, err)
	require.Zero(t, res.TotalCents)
	require.Zero(t, res.SubtotalCents)
	require.Zero(t, res.TaxTotalCents)

	res, err = engine.QuickCalculate(Request{Lines: []Line{simple(1000, rate22)}, IncludeTaxes: true, SaleAbsoluteDiscountCents: cents(99999)})
	require.NoError(t, err)
	require.Zero(t, res.TotalCents)
}

func TestNetModeLineDiscountRespectsComponentCaps(t *testing.T) {
	bundle := Line{
		Kind:                  LineBundle,
		UnitPriceCents:        1000,
		Quantity:              1,
		AbsoluteDiscountCents: cents(1000),
		Breakdown: []vat.Component{
			{SubtotalCents: 500, Rate: rate22},
			{SubtotalCents: 500, Rate: exempt},
		},
	}
	rows, err := engine.ComputeRows(Request{Lines: []Line{bundle}})
	require.NoError(t, err)
	require.Zero(t, rows.Result.TotalCents)
	for _, c := range rows.Lines[0].Components {
		require.Zero(t, c.NetCents)
		require.Zero(t, c.GrossCents)
		require.EqualValues(t, 500, c.LineDiscountCents)
	}
}

func TestComputeRowsKeepsLineSeparation(t *testing.T) {
	line := simple(35000, rate22)
	line.PercentageDiscount = pct(10)
	rows, err := engine.ComputeRows(Request{Lines: []Line{line}, IncludeTaxes: true})
	require.NoError(t, err)
	lr := rows.Lines[0]
	require.EqualValues(t, 28689, lr.UnitNetCents)
	require.EqualValues(t, 35000, lr.UnitGrossCents)
	require.EqualValues(t, 25820, lr.TotalNetCents)
	require.EqualValues(t, 31500, lr.TotalGrossCents)
	require.EqualValues(t, 5680, lr.VATCents)
}

func TestRowsAddUpToResult(t *testing.T) {
	req := Request{
		IncludeTaxes:              true,
		SalePercentageDiscount:    pct(5),
		SaleAbsoluteDiscountCents: cents(777),
		Lines: []Line{
			{Kind: LineSimple, UnitPriceCents: 4590, Quantity: 3, PercentageDiscount: pct(15), VAT: rate22},
			{Kind: LineSimple, UnitPriceCents: 1299, Quantity: 2, AbsoluteDiscountCents: cents(150), VAT: rate10},
			{Kind: LineBundle, UnitPriceCents: 39900, Quantity: 1, Breakdown: []vat.Component{
				{SubtotalCents: 29900, Rate: rate22},
				{SubtotalCents: 10000, Rate: exempt},
			}},
		},
	}
	rows, err := engine.ComputeRows(req)
	require.NoError(t, err)
	requireBalanced(t, rows.Result)

	var net, gross, tax money.Cents
	for _, lr := range rows.Lines {
		require.Equal(t, lr.TotalGrossCents, lr.TotalNetCents+lr.VATCents)
		net += lr.TotalNetCents
		gross += lr.TotalGrossCents
		tax += lr.VATCents
	}
	require.Equal(t, rows.Result.SubtotalCents, net)
	require.Equal(t, rows.Result.TaxTotalCents, tax)
	require.Equal(t, rows.Result.GrossCents(), gross)
	require.True(t, rows.Result.StampDutyApplied)

	again, err := engine.ComputeRows(req)
	require.NoError(t, err)
	require.Equal(t, rows, again)
}

func TestRequestValidation(t *testing.T) {
	cases := map[string]Request{
		"zero quantity":     {Lines: []Line{{Kind: LineSimple, UnitPriceCents: 100, VAT: rate22}}},
		"unknown kind":      {Lines: []Line{{Kind: "gift", UnitPriceCents: 100, Quantity: 1, VAT: rate22}}},
		"empty bundle":      {Lines: []Line{{Kind: LineBundle, UnitPriceCents: 100, Quantity: 1}}},
		"bundle mismatch":   {Lines: []Line{{Kind: LineBundle, UnitPriceCents: 100, Quantity: 1, Breakdown: []vat.Component{{SubtotalCents: 90, Rate: rate22}}}}},
		"negative price":    {Lines: []Line{{Kind: LineSimple, UnitPriceCents: -1, Quantity: 1, VAT: rate22}}},
		"negative discount": {Lines: []Line{simple(100, rate22)}, SaleAbsoluteDiscountCents: cents(-5)},
		"sale percentage":   {Lines: []Line{simple(100, rate22)}, SalePercentageDiscount: pct(150)},
		"line overflow":     {Lines: []Line{{Kind: LineSimple, UnitPriceCents: 5_000_000_000_000_000_000, Quantity: 2, VAT: rate22}}},
		"quantity too big":  {Lines: []Line{{Kind: LineSimple, UnitPriceCents: 1, Quantity: discount.MaxQuantity + 1, VAT: rate22}}},
		"sale too big":      {Lines: []Line{simple(discount.MaxAmountCents, rate22), simple(1, rate22)}},
		"huge discount":     {Lines: []Line{simple(100, rate22)}, SaleAbsoluteDiscountCents: cents(discount.MaxAmountCents + 1)},
		"rate above 100":    {Lines: []Line{simple(100, vat.Rate{Code: "X", Percentage: decimal.NewFromInt(101)})}},
		"huge subtotal": {Lines: []Line{{Kind: LineBundle, UnitPriceCents: 100, Quantity: 1, Breakdown: []vat.Component{
			{SubtotalCents: discount.MaxAmountCents + 100, Rate: rate22},
			{SubtotalCents: -discount.MaxAmountCents, Rate: exempt},
		}}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := engine.QuickCalculate(req)
			require.Error(t, err)
			require.True(t, errors.Is(err, common.ErrInvalidArgument), err.Error())
		})
	}
}

func TestEmptySale(t *testing.T) {
	res, err := engine.QuickCalculate(Request{IncludeTaxes: true})
	require.NoError(t, err)
	require.Zero(t, res.TotalCents)
	require.Empty(t, res.VATBreakdown)
}

func TestVATCodeMustKeepOneMeaning(t *testing.T) {
	iva22 := vat.Rate{Code: "IVA", Percentage: decimal.NewFromInt(22)}
	iva0 := vat.Rate{Code: "IVA", Percentage: decimal.Zero}
	_, err := engine.QuickCalculate(Request{Lines: []Line{simple(12200, iva22), simple(10000, iva0)}, IncludeTaxes: true})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	n2 := vat.Rate{Code: "N4", Percentage: decimal.Zero, Nature: "N2"}
	_, err = engine.QuickCalculate(Request{Lines: []Line{simple(100, exempt), simple(100, n2)}})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	bundle := Line{Kind: LineBundle, UnitPriceCents: 200, Quantity: 1, Breakdown: []vat.Component{
		{SubtotalCents: 100, Rate: rate22},
		{SubtotalCents: 100, Rate: vat.Rate{Code: "22", Percentage: decimal.NewFromInt(10)}},
	}}
	_, err = engine.QuickCalculate(Request{Lines: []Line{bundle}})
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	// Repeating a code with the same meaning is fine.
	res, err := engine.QuickCalculate(Request{Lines: []Line{simple(12200, rate22), simple(6100, rate22)}, IncludeTaxes: true})
	require.NoError(t, err)
	require.Len(t, res.VATBreakdown, 1)
	require.EqualValues(t, 18300, res.TotalCents)
}

func TestZeroRateLineKeepsStampDutyNextToTaxedLine(t *testing.T) {
	zero := vat.Rate{Code: "IVA0", Percentage: decimal.Zero, Nature: "N2"}
	res, err := engine.QuickCalculate(Request{Lines: []Line{simple(12200, rate22), simple(10000, zero)}, IncludeTaxes: true})
	require.NoError(t, err)
	require.Len(t, res.VATBreakdown, 2)
	require.EqualValues(t, 10000, res.VATBreakdown[1].TaxableCents)
	require.True(t, res.StampDutyApplied)
	require.EqualValues(t, 22400, res.TotalCents)
	requireBalanced(t, res)
}

func TestGrossModeTotalMatchesDisplayedPrices(t *testing.T) {
	lines := []Line{
		// Prices whose net parts are whole cents, so the gross side is never re-rounded.
		{Kind: LineSimple, UnitPriceCents: 12200, Quantity: 3, PercentageDiscount: pct(10), VAT: rate22},
		{Kind: LineSimple, UnitPriceCents: 11000, Quantity: 2, AbsoluteDiscountCents: cents(150), VAT: rate10},
		simple(10000, exempt),
	}
	req := Request{Lines: lines, IncludeTaxes: true, SalePercentageDiscount: pct(5), SaleAbsoluteDiscountCents: cents(500)}
	rows, err := engine.ComputeRows(req)
	require.NoError(t, err)

	dl := make([]discount.Line, len(lines))
	var subtotal money.Cents
	for i, l := range lines {
		dl[i] = l.discountLine()
		subtotal += dl[i].Total()
	}
	expected := discount.SaleTotal(dl, req.SalePercentageDiscount, req.SaleAbsoluteDiscountCents)
	require.EqualValues(t, 61050, expected)
	require.Equal(t, expected, rows.Result.GrossCents())

	saleDiscount := subtotal - expected
	for i, lr := range rows.Lines {
		share := discount.ProportionalDiscount(dl[i].Total(), subtotal, saleDiscount)
		require.InDelta(t, int64(share), int64(lr.SaleDiscountCents), 1, "line %d", i)
		require.Equal(t, dl[i].Total()-lr.SaleDiscountCents, lr.TotalGrossCents)
	}
}

func TestGrossAfterLine(t *testing.T) {
	sep := vat.Separation{TotalNet: 10000, TotalGross: 12200, VAT: 2200}

	untouched := part{rate: rate22, sep: sep, anchor: sep.TotalNet}
	require.EqualValues(t, 12200, untouched.grossAfterLine(false))

	net := part{rate: rate22, sep: sep, anchor: sep.TotalNet, lineShare: 5000}
	require.EqualValues(t, 6100, net.grossAfterLine(false))

	gross := part{rate: rate22, sep: sep, anchor: sep.TotalGross, lineShare: 2200}
	require.EqualValues(t, 10000, gross.grossAfterLine(true))
}
