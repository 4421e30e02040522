package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gym-billing/internal/config"
	"github.com/noah-isme/gym-billing/internal/db"
	"github.com/noah-isme/gym-billing/internal/health"
	"github.com/noah-isme/gym-billing/internal/obs"
	"github.com/noah-isme/gym-billing/internal/ratelimit"
	"github.com/noah-isme/gym-billing/internal/vatrate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "gym")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "gym-billing",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	probes := map[string]health.Probe{}

	var store vatrate.Store
	if cfg.DatabaseURL != "" {
		if cfg.DBAutoMigrate {
			if err := db.Migrate(cfg.MigrationsPath, cfg.DatabaseURL, db.Up, 0); err != nil {
				logger.Fatal().Err(err).Msg("apply migrations")
			}
		}
		pool, err := openPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect database")
		}
		defer pool.Close()
		store = vatrate.NewPGStore(pool)
		probes["db"] = func(ctx context.Context) error { return pool.Ping(ctx) }
	} else {
		mem := vatrate.NewMemoryStore()
		if id, err := uuid.Parse(cfg.TenantDefault); err == nil {
			n, err := vatrate.Seed(ctx, mem, id)
			if err != nil {
				logger.Fatal().Err(err).Msg("seed in-memory vat rates")
			}
			logger.Info().Int("rates", n).Str("tenant_id", id.String()).Msg("seeded in-memory vat rates")
		}
		store = mem
		logger.Warn().Msg("DATABASE_URL not set, vat rate catalog is in-memory")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = openRedis(ctx, cfg.RedisURL, metricsEnabled, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	rates, err := vatrate.NewService(vatrate.ServiceConfig{
		Store:  store,
		Cache:  vatrate.NewCache(redisClient, cfg.VATCacheTTL),
		Logger: &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise vat rate service")
	}

	limiter, err := newLimiter(cfg, redisClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	var pprofHandler http.Handler
	if envBool("OBS_ENABLE_PPROF", false) {
		pprofHandler = protectPprof(newPprofMux(), envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", ""), envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", ""))
	}

	handler := newRouter(routerDeps{
		Config:      cfg,
		Logger:      logger,
		Rates:       rates,
		Limiter:     limiter,
		HTTPMetrics: httpMetrics,
		Tracing:     tracingEnabled,
		Metrics:     metricsEnabled,
		Pprof:       pprofHandler,
		Health:      health.Handler{Probes: probes, Timeout: cfg.HealthReadyTimeout},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-sigCtx.Done()
	health.SetReady(false)
	logger.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func openPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "gym-billing"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func openRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func newLimiter(cfg *config.Config, client *redis.Client) (ratelimit.Allower, error) {
	switch cfg.RateLimitStrategy {
	case "off":
		return nil, nil
	case "fixed":
		return ratelimit.NewFixedWindow(client, "gym:ratelimit")
	default:
		if client == nil {
			return ratelimit.NewFixedWindow(nil, "gym:ratelimit")
		}
		return ratelimit.SlidingLimiter{Client: client, Prefix: "gym:ratelimit:"}, nil
	}
}
