package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/gym-billing/internal/common"
	"github.com/noah-isme/gym-billing/internal/tenant"
)

// Allower decides whether one more event for key fits in the window.
// Implementations: SlidingLimiter (Redis) and FixedWindow (ulule stores).
type Allower interface {
	Allow(ctx context.Context, key string, window time.Duration, limit int) (allowed bool, remaining int, reset time.Time, err error)
}

// Config describes how requests are bucketed and how many fit a window.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces Config with Limiter. Limiter errors fail open and are
// reported to OnError.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
}

// TenantClientKey buckets requests per gym and client address, so one busy
// front desk cannot exhaust another gym's quota.
func TenantClientKey(r *http.Request) string {
	id, ok := tenant.From(r.Context())
	if !ok {
		id = "-"
	}
	return id + ":" + common.ClientIP(r)
}

// Middleware implements the http.Handler middleware interface.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Limiter == nil || h.Config.Key == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, remaining, reset, err := h.Limiter.Allow(r.Context(), h.Config.Key(r), h.Config.Window, h.Config.Max)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		hdr := w.Header()
		hdr.Set("X-RateLimit-Limit", strconv.Itoa(max(h.Config.Max, 0)))
		hdr.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		hdr.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := time.Until(reset).Round(time.Second)
		hdr.Set("Retry-After", strconv.Itoa(int(max(wait, 0)/time.Second)))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, retry later", nil)
	})
}
