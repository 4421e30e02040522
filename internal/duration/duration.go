// Package duration computes subscription expiration dates.
package duration

import "time"

// ExpirationDate adds months first and then days to start. Month addition
// follows time.AddDate, so an overflowing day of month rolls into the next
// month (Jan 31 + 1 month = Mar 3 in a non-leap year). With neither offset
// start is returned unchanged.
func ExpirationDate(start time.Time, months, days *int) time.Time {
	out := start
	if months != nil {
		out = out.AddDate(0, *months, 0)
	}
	if days != nil {
		out = out.AddDate(0, 0, *days)
	}
	return out
}
