package pricing

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/money"
	"github.com/noah-isme/gym-billing/internal/obs"
	"github.com/noah-isme/gym-billing/internal/tenant"
	"github.com/noah-isme/gym-billing/internal/vat"
)

// RateResolver maps catalog rate identifiers to engine rates for the tenant on ctx.
type RateResolver interface {
	Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]vat.Rate, error)
}

// RateRef points at a catalog rate or carries one inline. Exactly one must be set.
type RateRef struct {
	ID     *uuid.UUID
	Inline *vat.Rate
}

// ComponentInput is one bundle breakdown entry as received from callers.
type ComponentInput struct {
	SubtotalCents money.Cents
	Rate          RateRef
}

// LineInput is a sale line whose VAT rates may still need resolving.
type LineInput struct {
	Kind                  LineKind
	UnitPriceCents        money.Cents
	Quantity              int
	PercentageDiscount    *decimal.Decimal
	AbsoluteDiscountCents *money.Cents
	Rate                  RateRef
	Breakdown             []ComponentInput
}

// SaleInput is the service-level counterpart of Request.
type SaleInput struct {
	Lines                     []LineInput
	IncludeTaxes              bool
	SalePercentageDiscount    *decimal.Decimal
	SaleAbsoluteDiscountCents *money.Cents
}

// Service resolves catalog references and runs the engine.
type Service struct {
	engine Engine
	rates  RateResolver
	logger zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Engine Engine
	Rates  RateResolver
	Logger *zerolog.Logger
}

// NewService constructs a Service. Rates may be nil when every line carries its rate inline.
func NewService(cfg ServiceConfig) *Service {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "pricing").Logger()
	}
	return &Service{engine: cfg.Engine, rates: cfg.Rates, logger: logger}
}

// QuickCalculate computes the totals of a prospective sale.
func (s *Service) QuickCalculate(ctx context.Context, in SaleInput) (Result, error) {
	req, err := s.request(ctx, in)
	if err != nil {
		s.observe(ctx, "quick_calculate", in, err, false)
		return Result{}, err
	}
	res, err := s.engine.QuickCalculate(req)
	s.observe(ctx, "quick_calculate", in, err, res.StampDutyApplied)
	return res, err
}

// ComputeRows computes per-line values and totals for a sale about to be persisted.
func (s *Service) ComputeRows(ctx context.Context, in SaleInput) (RowsResult, error) {
	req, err := s.request(ctx, in)
	if err != nil {
		s.observe(ctx, "rows", in, err, false)
		return RowsResult{}, err
	}
	res, err := s.engine.ComputeRows(req)
	s.observe(ctx, "rows", in, err, res.Result.StampDutyApplied)
	return res, err
}

func (s *Service) request(ctx context.Context, in SaleInput) (Request, error) {
	ids, err := collectRateIDs(in.Lines)
	if err != nil {
		return Request{}, err
	}
	resolved := map[uuid.UUID]vat.Rate{}
	if len(ids) > 0 {
		if s.rates == nil {
			return Request{}, common.InvalidArgument("vat rate references are not supported without a catalog")
		}
		resolved, err = s.rates.Resolve(ctx, ids)
		if err != nil {
			return Request{}, err
		}
	}

	req := Request{
		Lines:                     make([]Line, len(in.Lines)),
		IncludeTaxes:              in.IncludeTaxes,
		SalePercentageDiscount:    in.SalePercentageDiscount,
		SaleAbsoluteDiscountCents: in.SaleAbsoluteDiscountCents,
	}
	for i, li := range in.Lines {
		line := Line{
			Kind:                  li.Kind,
			UnitPriceCents:        li.UnitPriceCents,
			Quantity:              li.Quantity,
			PercentageDiscount:    li.PercentageDiscount,
			AbsoluteDiscountCents: li.AbsoluteDiscountCents,
		}
		if line.Kind == "" {
			line.Kind = LineSimple
		}
		if line.Kind == LineBundle {
			line.Breakdown = make([]vat.Component, len(li.Breakdown))
			for j, c := range li.Breakdown {
				line.Breakdown[j] = vat.Component{SubtotalCents: c.SubtotalCents, Rate: c.Rate.rate(resolved)}
			}
		} else {
			line.VAT = li.Rate.rate(resolved)
		}
		req.Lines[i] = line
	}
	return req, nil
}

func collectRateIDs(lines []LineInput) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	add := func(line int, ref RateRef) error {
		if (ref.ID == nil) == (ref.Inline == nil) {
			return common.InvalidArgument("line %d: exactly one of vat rate id or inline vat rate is required", line)
		}
		if ref.ID != nil {
			if _, ok := seen[*ref.ID]; !ok {
				seen[*ref.ID] = struct{}{}
				ids = append(ids, *ref.ID)
			}
		}
		return nil
	}
	for i, l := range lines {
		if l.Kind == LineBundle {
			for _, c := range l.Breakdown {
				if err := add(i, c.Rate); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := add(i, l.Rate); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (r RateRef) rate(resolved map[uuid.UUID]vat.Rate) vat.Rate {
	if r.Inline != nil {
		rate := *r.Inline
		if rate.Code == "" {
			rate.Code = inlineCode(rate)
		}
		return rate
	}
	return resolved[*r.ID]
}

// inlineCode keys a codeless inline rate by percentage and nature, so two
// exempt rates with different natures stay separate aggregates.
func inlineCode(r vat.Rate) string {
	code := r.Percentage.String()
	if r.Nature != "" {
		code += "-" + r.Nature
	}
	return code
}

func (s *Service) observe(ctx context.Context, op string, in SaleInput, err error, stampDuty bool) {
	mode := "net"
	if in.IncludeTaxes {
		mode = "gross"
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, common.ErrInvalidArgument) || isClientError(err):
		result = "invalid"
	default:
		result = "error"
	}
	obs.ObserveSaleComputation(op, mode, result, len(in.Lines), stampDuty)
	if err != nil {
		tenantID, _ := tenant.From(ctx)
		s.logger.Warn().
			Err(err).
			Str("operation", op).
			Str("mode", mode).
			Str("tenant_id", tenantID).
			Int("lines", len(in.Lines)).
			Msg("sale computation failed")
	}
}

func isClientError(err error) bool {
	var appErr *common.AppError
	return errors.As(err, &appErr) && appErr.HTTPStatus >= http.StatusBadRequest && appErr.HTTPStatus < http.StatusInternalServerError
}
