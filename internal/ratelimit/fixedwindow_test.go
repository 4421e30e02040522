package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/gym-billing/internal/tenant"
)

func TestFixedWindowMemory(t *testing.T) {
	fw, err := NewFixedWindow(nil, "test")
	if err != nil {
		t.Fatalf("new fixed window: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		allowed, remaining, _, err := fw.Allow(ctx, "k", time.Minute, 3)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if remaining != 3-(i+1) {
			t.Fatalf("unexpected remaining: %d", remaining)
		}
	}
	allowed, _, reset, err := fw.Allow(ctx, "k", time.Minute, 3)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if allowed {
		t.Fatal("expected fourth request to be rejected")
	}
	if !reset.After(time.Now()) {
		t.Fatalf("expected reset in the future, got %v", reset)
	}
}

func TestFixedWindowRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	fw, err := NewFixedWindow(client, "test")
	if err != nil {
		t.Fatalf("new fixed window: %v", err)
	}
	ctx := context.Background()
	if allowed, _, _, err := fw.Allow(ctx, "k", time.Minute, 1); err != nil || !allowed {
		t.Fatalf("expected first request allowed, got allowed=%v err=%v", allowed, err)
	}
	if allowed, _, _, err := fw.Allow(ctx, "k", time.Minute, 1); err != nil || allowed {
		t.Fatalf("expected second request rejected, got allowed=%v err=%v", allowed, err)
	}
	if allowed, _, _, err := fw.Allow(ctx, "other", time.Minute, 1); err != nil || !allowed {
		t.Fatalf("expected separate key allowed, got allowed=%v err=%v", allowed, err)
	}
}

func TestTenantClientKeySeparatesTenants(t *testing.T) {
	fw, err := NewFixedWindow(nil, "test")
	if err != nil {
		t.Fatalf("new fixed window: %v", err)
	}
	handler := Handler{
		Limiter: fw,
		Config:  Config{Key: TenantClientKey, Window: time.Minute, Max: 1},
	}
	next := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(tenantID string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		req = req.WithContext(tenant.WithTenant(req.Context(), tenantID))
		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("gym-a"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := send("gym-a"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := send("gym-b"); code != http.StatusOK {
		t.Fatalf("expected other tenant allowed, got %d", code)
	}
}
