// Package vatrate manages the per-tenant VAT rate catalog that sale lines
// reference by identifier.
package vatrate

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/vat"
)

var (
	// ErrRateNotFound is returned when a referenced rate does not exist for the tenant.
	ErrRateNotFound = errors.New("vat rate not found")
	// ErrDuplicateCode is returned when a tenant already has a rate with the same code.
	ErrDuplicateCode = errors.New("vat rate code already exists")
)

// Rate is a stored VAT rate.
type Rate struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenantId"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Percentage  decimal.Decimal `json:"percentage"`
	Nature      string          `json:"nature,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// VAT converts the stored rate into the value the pricing engine consumes.
func (r Rate) VAT() vat.Rate {
	return vat.Rate{
		Code:        r.Code,
		Description: r.Description,
		Percentage:  r.Percentage,
		Nature:      r.Nature,
	}
}

// Validate normalises and checks a rate before it is persisted.
func (r *Rate) Validate() error {
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Description = strings.TrimSpace(r.Description)
	r.Nature = strings.ToUpper(strings.TrimSpace(r.Nature))
	if err := r.VAT().Validate(); err != nil {
		return err
	}
	if r.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return common.InvalidArgument("vat rate %s exceeds 100%%", r.Code)
	}
	if !r.Percentage.Equal(r.Percentage.Round(2)) {
		return common.InvalidArgument("vat rate %s supports at most two decimals", r.Code)
	}
	if r.Percentage.IsPositive() && r.Nature != "" {
		return common.InvalidArgument("nature code is only allowed on zero rates")
	}
	return nil
}
