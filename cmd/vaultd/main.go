package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/vaultengine/internal/cache"
	"github.com/elys-network/vaultengine/internal/config"
	"github.com/elys-network/vaultengine/internal/logger"
	"github.com/elys-network/vaultengine/internal/metrics"
	"github.com/elys-network/vaultengine/internal/state"
	"github.com/elys-network/vaultengine/internal/vault"
	"github.com/elys-network/vaultengine/internal/web"
)

// main is the entry point of the vault engine daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogFile != "" {
		fileWriter, err := logger.FileWriter(cfg.LogFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.LogFile).Msg("Failed to open log file")
		}
		logger.InitializeWithWriter(cfg.LogLevel, cfg.LogFormat, zerolog.MultiLevelWriter(os.Stdout, fileWriter))
	}
	log.Info().Str("storage", cfg.StorageMode).Str("owner", cfg.OwnerAddress).Msg("Vault engine starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. Ledger Store ---
	store, db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger store")
	}
	defer state.CloseDB(db)
	defer store.Dispose()

	// --- 3. Cache, metrics and the Transaction Service ---
	recorder := metrics.NewRecorder()

	viewCache, err := cache.New(cache.DefaultConfig(), cache.WithObserver(recorder.ObserveCache))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create view cache")
	}
	defer viewCache.Close()

	service, err := vault.NewService(cfg.OwnerAddress, cfg.Engine, vault.Deps{
		Store:   store,
		Cache:   viewCache,
		Metrics: recorder,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create vault service")
	}
	log.Info().Msg("Vault service created successfully")

	// --- 4. Serve until signalled ---
	webServer := web.NewWebServer(cfg.Endpoints.WebPort, service, recorder.Handler())
	log.Info().Str("url", "http://localhost:"+cfg.Endpoints.WebPort).Msg("Starting vault engine API")
	if err := webServer.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Web server stopped with error")
		return
	}
	log.Info().Msg("Vault engine stopped")
}

// openStore builds the ledger store for the configured storage mode. In postgres mode the catalog
// is bootstrapped on first run and the ledger is rebuilt from the tables; db is nil otherwise.
func openStore(ctx context.Context, cfg config.Config) (*state.Store, *sql.DB, error) {
	if cfg.StorageMode != config.StoragePostgres {
		store, err := state.NewStore(state.Seed{Vaults: config.DefaultVaults()})
		return store, nil, err
	}

	db, err := state.OpenDB(ctx, state.DBConfig{
		Host:     cfg.Endpoints.DBHost,
		Port:     cfg.Endpoints.DBPort,
		User:     cfg.Endpoints.DBUser,
		Password: cfg.Endpoints.DBPassword,
		DBName:   cfg.Endpoints.DBName,
		SSLMode:  cfg.Endpoints.DBSSLMode,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := state.EnsureSchema(ctx, db); err != nil {
		state.CloseDB(db)
		return nil, nil, err
	}

	repo := state.NewPostgresLedger(db)
	if err := repo.Bootstrap(ctx, config.DefaultVaults()); err != nil {
		state.CloseDB(db)
		return nil, nil, err
	}
	seed, err := repo.LoadSeed(ctx)
	if err != nil {
		state.CloseDB(db)
		return nil, nil, err
	}

	store, err := state.NewStore(seed, state.WithPersister(repo))
	if err != nil {
		state.CloseDB(db)
		return nil, nil, err
	}
	log.Info().Str("db", cfg.Endpoints.DBAddress()).Msg("Ledger loaded from PostgreSQL")
	return store, db, nil
}
