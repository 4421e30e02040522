package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gym-billing/internal/config"
	"github.com/noah-isme/gym-billing/internal/health"
	"github.com/noah-isme/gym-billing/internal/obs"
	"github.com/noah-isme/gym-billing/internal/pricing"
	"github.com/noah-isme/gym-billing/internal/ratelimit"
	"github.com/noah-isme/gym-billing/internal/schedule"
	"github.com/noah-isme/gym-billing/internal/security"
	"github.com/noah-isme/gym-billing/internal/stampduty"
	"github.com/noah-isme/gym-billing/internal/tenant"
	"github.com/noah-isme/gym-billing/internal/vatrate"
)

// routerDeps collects everything the HTTP surface needs. Optional pieces
// (metrics, tracing, limiter, pprof) are skipped when nil or disabled.
type routerDeps struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Rates       *vatrate.Service
	Limiter     ratelimit.Allower
	HTTPMetrics *obs.HTTPMetrics
	Tracing     bool
	Metrics     bool
	Pprof       http.Handler
	Health      health.Handler
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.Config

	engine := pricing.NewEngine(stampduty.Rule{
		ThresholdCents: cfg.StampDutyThresholdCents,
		AmountCents:    cfg.StampDutyAmountCents,
	})
	var resolver pricing.RateResolver
	if d.Rates != nil {
		resolver = d.Rates
	}
	pricingHandler := pricing.NewHandler(pricing.HandlerConfig{
		Service:  pricing.NewService(pricing.ServiceConfig{Engine: engine, Rates: resolver, Logger: &d.Logger}),
		Currency: cfg.CurrencyCode,
	})
	scheduleHandler := schedule.NewHandler(cfg.CurrencyCode, &d.Logger)
	rateHandler := vatrate.NewHandler(d.Rates)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(tenant.NewResolver(cfg.TenantHeader, cfg.TenantRootDomain, cfg.TenantDefault).Middleware)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.Metrics && d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: cfg.EnableHSTS}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins, cfg.TenantHeader))

	if d.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if d.Pprof != nil {
		r.Mount("/debug/pprof", d.Pprof)
	}
	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
		if d.Limiter != nil {
			v.Use(ratelimit.Handler{
				Limiter: d.Limiter,
				Config:  ratelimit.Config{Key: ratelimit.TenantClientKey, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
				OnError: func(err error) { d.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
			}.Middleware)
		}

		// Pure computations. Inline VAT rates work without a tenant.
		v.Post("/sales/quick-calculate", pricingHandler.QuickCalculate)
		v.Post("/sales/rows", pricingHandler.Rows)
		v.Post("/installments", scheduleHandler.Installments)
		v.Post("/subscriptions/expiration", scheduleHandler.Expiration)

		v.Route("/vat-rates", func(vr chi.Router) {
			vr.Use(tenant.RequireTenant)
			vr.Get("/", rateHandler.List)
			vr.Post("/", rateHandler.Create)
		})
	})
	return r
}
