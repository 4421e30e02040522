package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	MigrationsPath     string
	DBAutoMigrate      bool
	CORSAllowedOrigins []string

	HealthReadyTimeout time.Duration
	ShutdownTimeout    time.Duration

	CurrencyCode string

	// Italian bollo: owed when VAT-exempt amounts exceed the threshold.
	StampDutyThresholdCents int64
	StampDutyAmountCents    int64

	VATCacheTTL time.Duration

	TenantHeader     string
	TenantRootDomain string
	TenantDefault    string

	RateLimitStrategy string // sliding, fixed or off
	RateLimitWindow   time.Duration
	RateLimitMax      int
	BodyLimitBytes    int64

	SecurityHeaders bool
	EnableHSTS      bool
}

// Load reads configuration from the process environment, after merging an
// optional .env file. Malformed values are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()
	k, err := envKoanf()
	if err != nil {
		return nil, err
	}
	return fromKoanf(k)
}

// LoadForTests layers overrides on top of the environment without mutating
// it. An empty override value unsets the key.
func LoadForTests(overrides map[string]string) (*Config, error) {
	k, err := envKoanf()
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		if value == "" {
			k.Delete(key)
			continue
		}
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
	}
	return fromKoanf(k)
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	switch {
	case port == "":
		return ":8080"
	case strings.HasPrefix(port, ":"):
		return port
	default:
		return ":" + port
	}
}

func envKoanf() (*koanf.Koanf, error) {
	// "." never appears in our variable names, so keys stay flat.
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return k, nil
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	r := reader{k: k}
	cfg := &Config{
		AppEnv:                  r.str("APP_ENV", "development"),
		Port:                    r.str("PORT", "8080"),
		DatabaseURL:             r.str("DATABASE_URL", ""),
		RedisURL:                r.str("REDIS_URL", ""),
		MigrationsPath:          r.str("MIGRATIONS_PATH", "file://migrations"),
		DBAutoMigrate:           r.bool("DB_AUTO_MIGRATE", false),
		HealthReadyTimeout:      r.millis("HEALTH_READY_TIMEOUT_MS", 500*time.Millisecond),
		ShutdownTimeout:         r.millis("SHUTDOWN_TIMEOUT_MS", 10*time.Second),
		CORSAllowedOrigins:      r.list("CORS_ALLOWED_ORIGINS"),
		CurrencyCode:            strings.ToUpper(r.str("CURRENCY_CODE", "EUR")),
		StampDutyThresholdCents: r.int64("STAMP_DUTY_THRESHOLD_CENTS", 7747),
		StampDutyAmountCents:    r.int64("STAMP_DUTY_AMOUNT_CENTS", 200),
		VATCacheTTL:             r.duration("VAT_CACHE_TTL", 10*time.Minute),
		TenantHeader:            r.str("TENANT_HEADER", "X-Tenant-ID"),
		TenantRootDomain:        r.str("TENANT_ROOT_DOMAIN", ""),
		TenantDefault:           r.str("TENANT_DEFAULT", ""),
		RateLimitStrategy:       strings.ToLower(r.str("RATE_LIMIT_STRATEGY", "sliding")),
		RateLimitWindow:         r.duration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:            int(r.int64("RATE_LIMIT_MAX", 120)),
		BodyLimitBytes:          r.int64("BODY_LIMIT_BYTES", 1<<20),
		SecurityHeaders:         r.bool("SECURITY_HEADERS", true),
		EnableHSTS:              r.bool("SECURITY_HSTS", false),
	}

	if cfg.StampDutyThresholdCents < 0 || cfg.StampDutyAmountCents < 0 {
		r.errs = append(r.errs, errors.New("stamp duty threshold and amount must not be negative"))
	}
	switch cfg.RateLimitStrategy {
	case "sliding", "fixed", "off":
	default:
		r.errs = append(r.errs, fmt.Errorf("RATE_LIMIT_STRATEGY: unsupported value %q", cfg.RateLimitStrategy))
	}
	if err := errors.Join(r.errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// reader pulls typed values out of a flat koanf tree and remembers every
// value it failed to parse.
type reader struct {
	k    *koanf.Koanf
	errs []error
}

func (r *reader) raw(key string) string {
	return strings.TrimSpace(r.k.String(key))
}

func (r *reader) str(key, fallback string) string {
	if v := r.raw(key); v != "" {
		return v
	}
	return fallback
}

func (r *reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.raw(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (r *reader) int64(key string, fallback int64) int64 {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (r *reader) duration(key string, fallback time.Duration) time.Duration {
	v := r.raw(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

// millis reads a whole, non-negative number of milliseconds.
func (r *reader) millis(key string, fallback time.Duration) time.Duration {
	n := r.int64(key, fallback.Milliseconds())
	if n < 0 {
		r.errs = append(r.errs, fmt.Errorf("%s: must not be negative", key))
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}

func (r *reader) bool(key string, fallback bool) bool {
	switch strings.ToLower(r.raw(key)) {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		r.errs = append(r.errs, fmt.Errorf("%s: not a boolean: %q", key, r.raw(key)))
		return fallback
	}
}
