package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gym-billing/internal/config"
	"github.com/noah-isme/gym-billing/internal/db"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("tool", "migrate").Logger()

	direction := flag.String("direction", "up", "up or down")
	steps := flag.Int("steps", 0, "number of migrations to apply (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	if err := db.Migrate(cfg.MigrationsPath, cfg.DatabaseURL, db.Direction(*direction), *steps); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	version, dirty, err := db.Version(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations applied")
}
