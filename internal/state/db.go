// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN renders the lib/pq connection string.
func (cfg DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// OpenDB opens and pings a connection pool.
func OpenDB(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("Successfully connected to the PostgreSQL database!")
	return db, nil
}

// CloseDB closes the database connection pool.
func CloseDB(db *sql.DB) {
	if db == nil {
		return
	}
	log.Info().Msg("Closing database connection...")
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database connection")
	}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS vaults (
		vault_id VARCHAR(64) PRIMARY KEY,
		catalog_order INTEGER NOT NULL,
		name VARCHAR(255) NOT NULL,
		total_value_locked NUMERIC(48, 18) NOT NULL CHECK (total_value_locked >= 0),
		annual_percentage_rate DOUBLE PRECISION NOT NULL,
		risk_level VARCHAR(16) NOT NULL,
		lockup_days BIGINT[] NOT NULL,
		lockup_boosts DOUBLE PRECISION[] NOT NULL
	);

	CREATE TABLE IF NOT EXISTS wallets (
		address VARCHAR(128) PRIMARY KEY,
		settlement_balance NUMERIC(48, 18) NOT NULL CHECK (settlement_balance >= 0)
	);

	CREATE TABLE IF NOT EXISTS positions (
		owner VARCHAR(128) NOT NULL,
		vault_id VARCHAR(64) NOT NULL REFERENCES vaults(vault_id),
		principal NUMERIC(48, 18) NOT NULL,
		shares NUMERIC(48, 18) NOT NULL,
		carried_yield NUMERIC(48, 18) NOT NULL DEFAULT 0,
		current_apr DOUBLE PRECISION NOT NULL,
		deposit_timestamp TIMESTAMPTZ NOT NULL,
		lockup_period_days INTEGER NOT NULL,
		unlock_timestamp TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (owner, vault_id)
	);

	CREATE TABLE IF NOT EXISTS pending_withdrawals (
		withdrawal_id VARCHAR(64) PRIMARY KEY,
		owner VARCHAR(128) NOT NULL,
		vault_id VARCHAR(64) NOT NULL REFERENCES vaults(vault_id),
		amount NUMERIC(48, 18) NOT NULL,
		requested_at TIMESTAMPTZ NOT NULL,
		unlock_time TIMESTAMPTZ NOT NULL,
		status VARCHAR(16) NOT NULL
	);
	-- At most one unclaimed request per (vault, user) pair.
	CREATE UNIQUE INDEX IF NOT EXISTS uq_pending_withdrawals_active
		ON pending_withdrawals(owner, vault_id) WHERE status <> 'claimed';

	CREATE TABLE IF NOT EXISTS transactions (
		seq BIGSERIAL PRIMARY KEY,
		transaction_id VARCHAR(64) NOT NULL UNIQUE,
		tx_type VARCHAR(16) NOT NULL,
		amount NUMERIC(48, 18) NOT NULL,
		fee NUMERIC(48, 18) NOT NULL DEFAULT 0,
		vault_id VARCHAR(64) NOT NULL,
		vault_name VARCHAR(255) NOT NULL,
		owner VARCHAR(128) NOT NULL,
		tx_hash VARCHAR(128) NOT NULL DEFAULT '',
		tx_timestamp TIMESTAMPTZ NOT NULL,
		status VARCHAR(16) NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_owner_seq ON transactions(owner, seq DESC);
`

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// DropSchema removes every ledger table.
func DropSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	const dropSQL = `
		DROP TABLE IF EXISTS transactions CASCADE;
		DROP TABLE IF EXISTS pending_withdrawals CASCADE;
		DROP TABLE IF EXISTS positions CASCADE;
		DROP TABLE IF EXISTS wallets CASCADE;
		DROP TABLE IF EXISTS vaults CASCADE;
	`
	if _, err := db.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("failed to drop ledger tables: %w", err)
	}
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
