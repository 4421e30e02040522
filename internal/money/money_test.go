package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRoundToCentsHalfAwayFromZero(t *testing.T) {
	cases := map[string]Cents{
		"2868.9": 2869,
		"2.5":    3,
		"2.4":    2,
		"-2.5":   -3,
		"-2.4":   -2,
		"0":      0,
	}
	for in, want := range cases {
		require.Equal(t, want, RoundToCents(decimal.RequireFromString(in)), in)
	}
}

func TestApplyPercentageIsUnrounded(t *testing.T) {
	got := ApplyPercentage(28689, decimal.NewFromInt(10))
	require.True(t, got.Equal(decimal.RequireFromString("2868.9")), got.String())
}

func TestProportionalShareZeroWhole(t *testing.T) {
	got := ProportionalShare(decimal.NewFromInt(5), decimal.Zero, decimal.NewFromInt(100))
	require.True(t, got.IsZero())

	got = ProportionalShare(decimal.NewFromInt(600), decimal.NewFromInt(1000), decimal.NewFromInt(1000))
	require.True(t, got.Equal(decimal.NewFromInt(600)))
}

func TestAllocateKeepsTotal(t *testing.T) {
	require.Equal(t, []Cents{34, 33, 33}, Allocate(100, []Cents{1000, 1000, 1000}))
	require.Equal(t, []Cents{-34, -33, -33}, Allocate(-100, []Cents{1, 1, 1}))
	require.Equal(t, []Cents{0, 0}, Allocate(10, []Cents{0, 0}))
	require.Equal(t, []Cents{0, 10}, Allocate(10, []Cents{-5, 3}))
	require.Empty(t, Allocate(10, nil))

	weights := []Cents{12199, 1, 733, 4000, 61}
	for _, total := range []Cents{1, 7, 999, 1000, 16994, 123457} {
		shares := Allocate(total, weights)
		var sum Cents
		for _, s := range shares {
			require.GreaterOrEqual(t, s, Cents(0))
			sum += s
		}
		require.Equal(t, total, sum, "total %d", total)
	}
}

func TestAllocateLargestRemainderWins(t *testing.T) {
	// exact shares 2.5, 4.5 and 3 -> floors 2, 4, 3 with one cent left; ties go to the first
	require.Equal(t, []Cents{3, 4, 3}, Allocate(10, []Cents{25, 45, 30}))
	// exact shares 1.2 and 8.8 -> the larger remainder takes the cent
	require.Equal(t, []Cents{1, 9}, Allocate(10, []Cents{12, 88}))
}

func TestMajorUnits(t *testing.T) {
	require.True(t, ToMajor(28689).Equal(decimal.RequireFromString("286.89")))
	require.Equal(t, "350.00", ToMajor(35000).StringFixed(2))
	require.Equal(t, Cents(0), Clamp(-1))
	require.Equal(t, Cents(5), Clamp(5))
}
