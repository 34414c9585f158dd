package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/vaultengine/internal/types"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	DefaultOwnerAddress = "0x0000000000000000000000000000000000demo"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	LogLevel  string
	LogFormat string
	LogFile   string

	// OwnerAddress is the wallet address of the session the engine serves.
	OwnerAddress string

	Engine types.EngineParameters

	// StorageMode is "memory" (default) or "postgres".
	StorageMode string

	Endpoints Endpoints
}

// Load reads configuration from environment variables. Unset variables fall back to defaults,
// malformed ones are errors.
func Load() (Config, error) {
	log.Info().Msg("Loading application configuration from environment variables...")

	cfg := Config{
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "console"),
		LogFile:      getEnvOrDefault("LOG_FILE", ""),
		OwnerAddress: getEnvOrDefault("VAULT_OWNER_ADDRESS", DefaultOwnerAddress),
		StorageMode:  strings.ToLower(getEnvOrDefault("STORAGE_MODE", StorageMemory)),
		Engine:       DefaultEngineParameters(),
	}

	var err error

	if cfg.Engine.MintRate, err = getEnvAsDec("VAULT_MINT_RATE", cfg.Engine.MintRate); err != nil {
		return Config{}, err
	}
	if cfg.Engine.CooldownDuration, err = getEnvAsDuration("VAULT_COOLDOWN", cfg.Engine.CooldownDuration); err != nil {
		return Config{}, err
	}
	if cfg.Engine.SimulatedLatency, err = getEnvAsDuration("VAULT_SIMULATED_LATENCY", cfg.Engine.SimulatedLatency); err != nil {
		return Config{}, err
	}
	if cfg.Engine.InitialSettlementBalance, err = getEnvAsDec("VAULT_INITIAL_BALANCE", cfg.Engine.InitialSettlementBalance); err != nil {
		return Config{}, err
	}

	shareFee, err := getEnvAsDec("VAULT_FEE_VAULT_SHARE", cfg.Engine.WithdrawalFees.Rate(types.AssetVaultShare))
	if err != nil {
		return Config{}, err
	}
	receiptFee, err := getEnvAsDec("VAULT_FEE_RECEIPT_TOKEN", cfg.Engine.WithdrawalFees.Rate(types.AssetReceiptToken))
	if err != nil {
		return Config{}, err
	}
	cfg.Engine.WithdrawalFees = types.FeeSchedule{
		types.AssetVaultShare:   shareFee,
		types.AssetReceiptToken: receiptFee,
	}

	cfg.Engine.SettlementSymbol = getEnvOrDefault("VAULT_SETTLEMENT_SYMBOL", cfg.Engine.SettlementSymbol)
	cfg.Engine.ReceiptSymbol = getEnvOrDefault("VAULT_RECEIPT_SYMBOL", cfg.Engine.ReceiptSymbol)

	if err := ValidateEngineParameters(cfg.Engine); err != nil {
		return Config{}, err
	}

	if cfg.StorageMode != StorageMemory && cfg.StorageMode != StoragePostgres {
		return Config{}, errors.New("STORAGE_MODE must be 'memory' or 'postgres', got: " + cfg.StorageMode)
	}

	if cfg.Endpoints, err = loadEndpointConfig(cfg.StorageMode == StoragePostgres); err != nil {
		return Config{}, err
	}

	log.Debug().
		Str("owner", cfg.OwnerAddress).
		Str("storage", cfg.StorageMode).
		Dur("cooldown", cfg.Engine.CooldownDuration).
		Str("mintRate", cfg.Engine.MintRate.String()).
		Msg("Configuration loaded successfully.")

	return cfg, nil
}

// ValidateEngineParameters rejects parameter sets the engine cannot run with.
func ValidateEngineParameters(p types.EngineParameters) error {
	if p.MintRate.IsNil() || !p.MintRate.IsPositive() || p.MintRate.GT(sdkmath.LegacyOneDec()) {
		return errors.New("mint rate must be in (0, 1]")
	}
	if p.CooldownDuration < 0 {
		return errors.New("cooldown duration cannot be negative")
	}
	if p.SimulatedLatency < 0 {
		return errors.New("simulated latency cannot be negative")
	}
	if p.InitialSettlementBalance.IsNil() || p.InitialSettlementBalance.IsNegative() {
		return errors.New("initial settlement balance cannot be negative")
	}
	for class, rate := range p.WithdrawalFees {
		if rate.IsNil() || rate.IsNegative() || rate.GTE(sdkmath.LegacyOneDec()) {
			return errors.New("withdrawal fee for " + string(class) + " must be in [0, 1)")
		}
	}
	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set or empty.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, falling back to def when unset or empty.
func getEnvOrDefault(key, def string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return def
}

// getEnvAsInt retrieves an environment variable as an int, falling back to def when unset.
func getEnvAsInt(key string, def int) (int, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return def, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid integer, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsDuration retrieves an environment variable as a time.Duration ("72h", "90s").
func getEnvAsDuration(key string, def time.Duration) (time.Duration, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return def, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid duration, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsDec retrieves an environment variable as a decimal.
func getEnvAsDec(key string, def sdkmath.LegacyDec) (sdkmath.LegacyDec, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return def, nil
	}
	value, err := sdkmath.LegacyNewDecFromStr(valueStr)
	if err != nil {
		return sdkmath.LegacyDec{}, errors.New("environment variable " + key + " must be a valid decimal, got: " + valueStr)
	}
	return value, nil
}
