package vatrate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gym-billing/internal/cache"
	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/obs"
	"github.com/noah-isme/gym-billing/internal/tenant"
	"github.com/noah-isme/gym-billing/internal/vat"
)

// Service exposes the tenant's VAT rate catalog with a read-through cache.
type Service struct {
	store  Store
	cache  *Cache
	logger zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store  Store
	Cache  *Cache
	Logger *zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("vatrate: store is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "vatrate").Logger()
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, logger: logger}, nil
}

// List returns every rate of the tenant on ctx.
func (s *Service) List(ctx context.Context) ([]Rate, error) {
	tenantID, err := tenant.UUIDFrom(ctx)
	if err != nil {
		return nil, tenantError(err)
	}
	key := cache.KeyVATRates(ctx)
	var cached []Rate
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	switch {
	case err != nil:
		obs.ObserveVATRateCache("error")
		s.logger.Warn().Err(err).Str("key", key).Msg("vat rate cache read failed")
	case hit:
		obs.ObserveVATRateCache("hit")
		return cached, nil
	default:
		obs.ObserveVATRateCache("miss")
	}

	rates, err := s.store.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		rates = []Rate{}
	}
	if err := s.cache.SetJSON(ctx, key, rates); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("vat rate cache write failed")
	}
	return rates, nil
}

// Resolve maps rate identifiers to engine rates. Every id must belong to the tenant.
func (s *Service) Resolve(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]vat.Rate, error) {
	out := make(map[uuid.UUID]vat.Rate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]Rate, len(all))
	for _, r := range all {
		byID[r.ID] = r
	}

	var missing []uuid.UUID
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out[id] = r.VAT()
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	// The cached list may predate a rate created on another instance.
	tenantID, _ := tenant.UUIDFrom(ctx)
	fresh, err := s.store.ListByIDs(ctx, tenantID, missing)
	if err != nil {
		return nil, err
	}
	for _, r := range fresh {
		out[r.ID] = r.VAT()
	}
	for _, id := range missing {
		if _, ok := out[id]; !ok {
			return nil, common.NewAppError("VAT_RATE_NOT_FOUND", fmt.Sprintf("vat rate %s not found", id),
				http.StatusUnprocessableEntity, ErrRateNotFound)
		}
	}
	if len(fresh) > 0 {
		if err := s.cache.Invalidate(ctx, cache.KeyVATRates(ctx)); err != nil {
			s.logger.Warn().Err(err).Msg("vat rate cache invalidation failed")
		}
	}
	return out, nil
}

// Create validates and stores a new rate for the tenant on ctx.
func (s *Service) Create(ctx context.Context, rate Rate) (Rate, error) {
	tenantID, err := tenant.UUIDFrom(ctx)
	if err != nil {
		return Rate{}, tenantError(err)
	}
	rate.ID = uuid.Nil
	rate.TenantID = tenantID
	if err := rate.Validate(); err != nil {
		return Rate{}, err
	}
	stored, err := s.store.Create(ctx, rate)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return Rate{}, common.NewAppError("VAT_RATE_EXISTS", fmt.Sprintf("vat rate %s already exists", rate.Code),
				http.StatusConflict, err)
		}
		return Rate{}, err
	}
	if err := s.cache.Invalidate(ctx, cache.KeyVATRates(ctx)); err != nil {
		s.logger.Warn().Err(err).Msg("vat rate cache invalidation failed")
	}
	s.logger.Info().
		Str("tenant_id", tenantID.String()).
		Str("code", stored.Code).
		Str("percentage", stored.Percentage.String()).
		Msg("vat rate created")
	return stored, nil
}

func tenantError(err error) error {
	return common.NewAppError("TENANT_REQUIRED", err.Error(), http.StatusBadRequest, err)
}
