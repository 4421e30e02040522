// Package installment splits a total into dated payment installments.
package installment

import (
	"time"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/money"
)

// Installment is one scheduled partial payment.
type Installment struct {
	AmountCents money.Cents
	DueDate     time.Time
}

// Schedule splits total into count installments. Each gets
// floor(total/count); the whole remainder goes to the first one so the
// amounts always add up to total. The first installment is due on firstDue
// and each following one daysBetween days after the previous. daysBetween
// is only read, and then required to be positive, when count > 1.
func Schedule(total money.Cents, count int, firstDue time.Time, daysBetween int) ([]Installment, error) {
	if count < 1 {
		return nil, common.InvalidArgument("installment count must be at least 1, got %d", count)
	}
	if count > 1 && daysBetween < 1 {
		return nil, common.InvalidArgument("days between installments must be at least 1, got %d", daysBetween)
	}

	n := int64(count)
	base := total / n
	if total%n != 0 && total < 0 {
		base--
	}
	remainder := total - base*n

	out := make([]Installment, count)
	due := firstDue
	for i := range out {
		amount := base
		if i == 0 {
			amount += remainder
		}
		out[i] = Installment{AmountCents: amount, DueDate: due}
		due = due.AddDate(0, 0, daysBetween)
	}
	return out, nil
}

// Sum returns the total of the installment amounts.
func Sum(items []Installment) money.Cents {
	var total money.Cents
	for _, it := range items {
		total += it.AmountCents
	}
	return total
}
