package vatrate

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItalianDefaults returns the standard Italian VAT table: the four rates in
// force and the zero-rate natures used for gym services.
func ItalianDefaults(tenantID uuid.UUID) []Rate {
	rate := func(code, desc string, pct int64, nature string) Rate {
		return Rate{TenantID: tenantID, Code: code, Description: desc, Percentage: decimal.NewFromInt(pct), Nature: nature}
	}
	return []Rate{
		rate("22", "Aliquota ordinaria", 22, ""),
		rate("10", "Aliquota ridotta", 10, ""),
		rate("5", "Aliquota super ridotta", 5, ""),
		rate("4", "Aliquota minima", 4, ""),
		rate("N1", "Escluse ex art. 15", 0, "N1"),
		rate("N2", "Non soggette", 0, "N2"),
		rate("N3", "Non imponibili", 0, "N3"),
		rate("N4", "Esenti art. 10", 0, "N4"),
	}
}

// Seed stores ItalianDefaults for tenantID, skipping codes that already exist.
// It returns how many rates were created.
func Seed(ctx context.Context, store Store, tenantID uuid.UUID) (int, error) {
	created := 0
	for _, r := range ItalianDefaults(tenantID) {
		if err := r.Validate(); err != nil {
			return created, err
		}
		if _, err := store.Create(ctx, r); err != nil {
			if errors.Is(err, ErrDuplicateCode) {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}
