package cache

import (
	"context"

	"github.com/noah-isme/gym-billing/internal/tenant"
)

// KeyVATRates returns the per-tenant cache key holding the VAT-rate catalog.
func KeyVATRates(ctx context.Context) string {
	id, _ := tenant.From(ctx)
	return tenant.PrefixKey(id, "vat_rates")
}
