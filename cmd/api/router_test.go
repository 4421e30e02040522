package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-billing/internal/config"
	"github.com/noah-isme/gym-billing/internal/health"
	"github.com/noah-isme/gym-billing/internal/ratelimit"
	"github.com/noah-isme/gym-billing/internal/vatrate"
)

func testRouter(t *testing.T, limiter ratelimit.Allower) (http.Handler, uuid.UUID, vatrate.Rate) {
	t.Helper()
	cfg, err := config.LoadForTests(map[string]string{"TENANT_DEFAULT": "", "CORS_ALLOWED_ORIGINS": ""})
	require.NoError(t, err)
	cfg.RateLimitMax = 2
	cfg.RateLimitWindow = time.Minute

	store := vatrate.NewMemoryStore()
	tenantID := uuid.New()
	_, err = vatrate.Seed(context.Background(), store, tenantID)
	require.NoError(t, err)
	all, err := store.List(context.Background(), tenantID)
	require.NoError(t, err)
	var exempt vatrate.Rate
	for _, r := range all {
		if r.Code == "N4" {
			exempt = r
		}
	}

	rates, err := vatrate.NewService(vatrate.ServiceConfig{Store: store})
	require.NoError(t, err)

	return newRouter(routerDeps{
		Config:  cfg,
		Logger:  zerolog.Nop(),
		Rates:   rates,
		Limiter: limiter,
		Health:  health.Handler{},
	}), tenantID, exempt
}

func TestRouterQuickCalculateWithCatalogRate(t *testing.T) {
	router, tenantID, exempt := testRouter(t, nil)

	body := `{"lines":[{"unitPriceCents":10000,"quantity":1,"vatRateId":"` + exempt.ID.String() + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/quick-calculate", strings.NewReader(body))
	req.Header.Set("X-Tenant-ID", tenantID.String())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var payload struct {
		Data struct {
			StampDutyApplied bool `json:"stampDutyApplied"`
			Total            struct {
				Cents int64 `json:"cents"`
			} `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.True(t, payload.Data.StampDutyApplied)
	require.EqualValues(t, 10200, payload.Data.Total.Cents)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRouterCatalogRateFromOtherTenantIsRejected(t *testing.T) {
	router, _, exempt := testRouter(t, nil)

	body := `{"lines":[{"unitPriceCents":10000,"quantity":1,"vatRateId":"` + exempt.ID.String() + `"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/quick-calculate", strings.NewReader(body))
	req.Header.Set("X-Tenant-ID", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), "VAT_RATE_NOT_FOUND")
}

func TestRouterVATRatesRequireTenant(t *testing.T) {
	router, tenantID, _ := testRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/vat-rates", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vat-rates", nil)
	req.Header.Set("X-Tenant-ID", tenantID.String())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_items":8`)
}

func TestRouterRateLimit(t *testing.T) {
	limiter, err := ratelimit.NewFixedWindow(nil, "test")
	require.NoError(t, err)
	router, _, _ := testRouter(t, limiter)

	body := `{"startDate":"2025-01-01","months":3}`
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/expiration", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRouterHealth(t *testing.T) {
	router, _, _ := testRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
