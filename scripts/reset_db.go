package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/vaultengine/internal/config"
	"github.com/elys-network/vaultengine/internal/logger"
	"github.com/elys-network/vaultengine/internal/state"
)

// Drops the ledger tables, recreates them and bootstraps the default vault catalog.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found or error loading .env file. Relying on OS environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Initialize(cfg.LogLevel, cfg.LogFormat)
	log.Info().Msg("Starting database reset script...")

	if cfg.Endpoints.DBUser == "" || cfg.Endpoints.DBName == "" {
		log.Fatal().Msg("DB_USER and DB_NAME environment variables must be set.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbCfg := state.DBConfig{
		Host:     cfg.Endpoints.DBHost,
		Port:     cfg.Endpoints.DBPort,
		User:     cfg.Endpoints.DBUser,
		Password: cfg.Endpoints.DBPassword,
		DBName:   cfg.Endpoints.DBName,
		SSLMode:  cfg.Endpoints.DBSSLMode,
	}

	log.Info().
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("user", dbCfg.User).
		Str("dbname", dbCfg.DBName).
		Msg("Connecting to database")

	db, err := state.OpenDB(ctx, dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database connection")
	}
	defer state.CloseDB(db)

	log.Info().Msg("Connected to database. Attempting to drop all tables...")
	if err := state.DropSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop tables")
	}
	log.Info().Msg("Successfully dropped all tables")

	log.Info().Msg("Recreating database schema...")
	if err := state.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate database schema")
	}
	if err := state.NewPostgresLedger(db).Bootstrap(ctx, config.DefaultVaults()); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap vault catalog")
	}
	log.Info().Int("vaults", len(config.DefaultVaults())).Msg("Database schema recreated and catalog bootstrapped")

	log.Info().Msg("Database reset complete!")
}
