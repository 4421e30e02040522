// Package money holds the minor-unit arithmetic shared by the sale engine.
// Amounts are int64 cents; percentages are decimals so that rates such as
// 22 or 10.5 stay exact until a value is rounded back to cents.
package money

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Cents is a monetary value stored in minor units.
type Cents = int64

var hundred = decimal.NewFromInt(100)

// RoundToCents rounds x half away from zero to the nearest whole cent.
func RoundToCents(x decimal.Decimal) Cents {
	return x.Round(0).IntPart()
}

// ApplyPercentage returns amount*pct/100 without rounding.
func ApplyPercentage(amount Cents, pct decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(amount).Mul(pct).Div(hundred)
}

// ProportionalShare returns (part/whole)*total, or zero when whole is zero.
func ProportionalShare(part, whole, total decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(total).Div(whole)
}

// Allocate splits total across weights in proportion to each weight.
// Every share is the floor of its ProportionalShare; the cents left over go
// to the largest fractional remainders, earliest index first on ties, so the
// result always sums to total. Non-positive weights receive nothing, and an
// all-zero weight set yields all-zero shares.
func Allocate(total Cents, weights []Cents) []Cents {
	shares := make([]Cents, len(weights))
	if total == 0 || len(weights) == 0 {
		return shares
	}
	var whole Cents
	for _, w := range weights {
		if w > 0 {
			whole += w
		}
	}
	if whole == 0 {
		return shares
	}

	sign := int64(1)
	if total < 0 {
		sign = -1
		total = -total
	}

	type remainder struct {
		index int
		frac  decimal.Decimal
	}
	rems := make([]remainder, 0, len(weights))
	var assigned Cents
	wholeDec := decimal.NewFromInt(whole)
	totalDec := decimal.NewFromInt(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		exact := ProportionalShare(decimal.NewFromInt(w), wholeDec, totalDec)
		floor := exact.Floor()
		shares[i] = floor.IntPart()
		assigned += shares[i]
		rems = append(rems, remainder{index: i, frac: exact.Sub(floor)})
	}
	sort.SliceStable(rems, func(a, b int) bool {
		return rems[a].frac.GreaterThan(rems[b].frac)
	})
	for left, k := total-assigned, 0; left > 0 && len(rems) > 0; left, k = left-1, k+1 {
		shares[rems[k%len(rems)].index]++
	}
	if sign < 0 {
		for i := range shares {
			shares[i] = -shares[i]
		}
	}
	return shares
}

// ToMajor converts cents into major currency units with two decimal places.
// It is meant for presentation at the edge; computations stay in cents.
func ToMajor(c Cents) decimal.Decimal {
	return decimal.New(c, -2)
}

// Clamp floors negative amounts at zero.
func Clamp(c Cents) Cents {
	if c < 0 {
		return 0
	}
	return c
}
