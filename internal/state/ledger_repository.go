package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog"

	"github.com/elys-network/vaultengine/internal/logger"
	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/utils"
)

// PostgresLedger persists ledger change sets to PostgreSQL.
type PostgresLedger struct {
	db  *sql.DB
	log zerolog.Logger
}

var (
	_ Persister = (*PostgresLedger)(nil)
	_ Resetter  = (*PostgresLedger)(nil)
)

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db, log: logger.GetForComponent("postgres_ledger")}
}

// Bootstrap inserts the vault catalog if it is not there yet. Existing rows keep their TVL.
func (p *PostgresLedger) Bootstrap(ctx context.Context, vaults []types.Vault) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bootstrap: %w", err)
	}
	defer tx.Rollback()

	if err := insertVaults(ctx, tx, vaults); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bootstrap: %w", err)
	}
	p.log.Info().Int("vaults", len(vaults)).Msg("Vault catalog bootstrapped")
	return nil
}

// Commit writes cs in a single SQL transaction.
func (p *PostgresLedger) Commit(ctx context.Context, cs ChangeSet) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger commit: %w", err)
	}
	defer tx.Rollback()

	if err := writeChangeSet(ctx, tx, cs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger changes: %w", err)
	}
	return nil
}

// Replace discards every persisted row and writes seed in its place, in one SQL transaction.
func (p *PostgresLedger) Replace(ctx context.Context, seed Seed) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`TRUNCATE transactions, pending_withdrawals, positions, wallets, vaults RESTART IDENTITY;`); err != nil {
		return fmt.Errorf("failed to clear ledger tables: %w", err)
	}
	if err := insertVaults(ctx, tx, seed.Vaults); err != nil {
		return err
	}
	if err := writeChangeSet(ctx, tx, ChangeSet{
		Wallets:      seed.Wallets,
		Positions:    seed.Positions,
		Withdrawals:  seed.Withdrawals,
		Transactions: seed.Transactions,
	}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger replace: %w", err)
	}
	p.log.Info().
		Int("vaults", len(seed.Vaults)).
		Int("positions", len(seed.Positions)).
		Msg("Persisted ledger replaced")
	return nil
}

func insertVaults(ctx context.Context, tx *sql.Tx, vaults []types.Vault) error {
	for i, v := range vaults {
		days, boosts := lockupArrays(v.LockupPeriods)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vaults (vault_id, catalog_order, name, total_value_locked, annual_percentage_rate,
				risk_level, lockup_days, lockup_boosts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (vault_id) DO NOTHING;`,
			v.ID, i, v.Name, v.TotalValueLocked.String(), v.AnnualPercentageRate,
			string(v.RiskLevel), pq.Array(days), pq.Array(boosts))
		if err != nil {
			return fmt.Errorf("failed to insert vault %s: %w", v.ID, err)
		}
	}
	return nil
}

func writeChangeSet(ctx context.Context, tx *sql.Tx, cs ChangeSet) error {
	for _, v := range cs.Vaults {
		if _, err := tx.ExecContext(ctx,
			`UPDATE vaults SET total_value_locked = $2 WHERE vault_id = $1;`,
			v.ID, v.TotalValueLocked.String()); err != nil {
			return fmt.Errorf("failed to update vault %s: %w", v.ID, err)
		}
	}

	for _, w := range cs.Wallets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO wallets (address, settlement_balance) VALUES ($1, $2)
			ON CONFLICT (address) DO UPDATE SET settlement_balance = EXCLUDED.settlement_balance;`,
			w.Address, w.SettlementBalance.String()); err != nil {
			return fmt.Errorf("failed to upsert wallet %s: %w", w.Address, err)
		}
	}

	for _, pos := range cs.Positions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions (owner, vault_id, principal, shares, carried_yield, current_apr,
				deposit_timestamp, lockup_period_days, unlock_timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (owner, vault_id) DO UPDATE SET
				principal = EXCLUDED.principal,
				shares = EXCLUDED.shares,
				carried_yield = EXCLUDED.carried_yield,
				current_apr = EXCLUDED.current_apr,
				deposit_timestamp = EXCLUDED.deposit_timestamp,
				lockup_period_days = EXCLUDED.lockup_period_days,
				unlock_timestamp = EXCLUDED.unlock_timestamp;`,
			pos.Owner, pos.VaultID, pos.Principal.String(), pos.Shares.String(),
			utils.OrZero(pos.CarriedYield).String(), pos.CurrentAPR,
			pos.DepositTimestamp, pos.LockupPeriodDays, pos.UnlockTimestamp); err != nil {
			return fmt.Errorf("failed to upsert position %s: %w", pos.Key(), err)
		}
	}

	for _, key := range cs.DeletedPositions {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM positions WHERE owner = $1 AND vault_id = $2;`,
			key.Owner, key.VaultID); err != nil {
			return fmt.Errorf("failed to delete position %s: %w", key, err)
		}
	}

	for _, w := range cs.Withdrawals {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO pending_withdrawals (withdrawal_id, owner, vault_id, amount, requested_at, unlock_time, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (withdrawal_id) DO UPDATE SET status = EXCLUDED.status;`,
			w.ID, w.Owner, w.VaultID, w.Amount.String(), w.RequestedAt, w.UnlockTime, string(w.Status)); err != nil {
			return fmt.Errorf("failed to upsert withdrawal %s: %w", w.ID, err)
		}
	}

	for _, rec := range cs.Transactions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (transaction_id, tx_type, amount, fee, vault_id, vault_name, owner,
				tx_hash, tx_timestamp, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
			rec.ID, string(rec.Type), rec.Amount.String(), utils.OrZero(rec.Fee).String(), rec.VaultID,
			rec.VaultName, rec.Owner, rec.TxHash, rec.Timestamp, string(rec.Status)); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", rec.ID, err)
		}
	}
	return nil
}

// LoadSeed reads the whole ledger back into a store seed.
func (p *PostgresLedger) LoadSeed(ctx context.Context) (Seed, error) {
	var seed Seed
	var err error

	if seed.Vaults, err = p.loadVaults(ctx); err != nil {
		return Seed{}, err
	}
	if seed.Wallets, err = p.loadWallets(ctx); err != nil {
		return Seed{}, err
	}
	if seed.Positions, err = p.loadPositions(ctx); err != nil {
		return Seed{}, err
	}
	if seed.Withdrawals, err = p.loadWithdrawals(ctx); err != nil {
		return Seed{}, err
	}
	if seed.Transactions, err = p.loadTransactions(ctx); err != nil {
		return Seed{}, err
	}

	p.log.Info().
		Int("vaults", len(seed.Vaults)).
		Int("positions", len(seed.Positions)).
		Int("transactions", len(seed.Transactions)).
		Msg("Ledger loaded from database")
	return seed, nil
}

func (p *PostgresLedger) loadVaults(ctx context.Context) ([]types.Vault, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT vault_id, name, total_value_locked, annual_percentage_rate, risk_level, lockup_days, lockup_boosts
		FROM vaults ORDER BY catalog_order ASC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query vaults: %w", err)
	}
	defer rows.Close()

	var out []types.Vault
	for rows.Next() {
		var v types.Vault
		var tvl, risk string
		var days pq.Int64Array
		var boosts pq.Float64Array
		if err := rows.Scan(&v.ID, &v.Name, &tvl, &v.AnnualPercentageRate, &risk, &days, &boosts); err != nil {
			return nil, fmt.Errorf("failed to scan vault: %w", err)
		}
		if v.TotalValueLocked, err = parseDec("total_value_locked", tvl); err != nil {
			return nil, err
		}
		if len(days) != len(boosts) {
			return nil, fmt.Errorf("vault %s has %d lockup days but %d boosts", v.ID, len(days), len(boosts))
		}
		v.RiskLevel = types.RiskLevel(risk)
		for i := range days {
			v.LockupPeriods = append(v.LockupPeriods, types.LockupPeriod{Days: int(days[i]), APRBoost: boosts[i]})
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (p *PostgresLedger) loadWallets(ctx context.Context) ([]types.Wallet, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT address, settlement_balance FROM wallets ORDER BY address;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query wallets: %w", err)
	}
	defer rows.Close()

	var out []types.Wallet
	for rows.Next() {
		var w types.Wallet
		var balance string
		if err := rows.Scan(&w.Address, &balance); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		if w.SettlementBalance, err = parseDec("settlement_balance", balance); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (p *PostgresLedger) loadPositions(ctx context.Context) ([]types.Position, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT owner, vault_id, principal, shares, carried_yield, current_apr,
			deposit_timestamp, lockup_period_days, unlock_timestamp
		FROM positions ORDER BY owner, vault_id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var out []types.Position
	for rows.Next() {
		var pos types.Position
		var principal, shares, carried string
		if err := rows.Scan(&pos.Owner, &pos.VaultID, &principal, &shares, &carried, &pos.CurrentAPR,
			&pos.DepositTimestamp, &pos.LockupPeriodDays, &pos.UnlockTimestamp); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		if pos.Principal, err = parseDec("principal", principal); err != nil {
			return nil, err
		}
		if pos.Shares, err = parseDec("shares", shares); err != nil {
			return nil, err
		}
		if pos.CarriedYield, err = parseDec("carried_yield", carried); err != nil {
			return nil, err
		}
		pos.DepositTimestamp = pos.DepositTimestamp.UTC()
		pos.UnlockTimestamp = pos.UnlockTimestamp.UTC()
		out = append(out, pos)
	}
	return out, rows.Err()
}

func (p *PostgresLedger) loadWithdrawals(ctx context.Context) ([]types.PendingWithdrawal, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT withdrawal_id, owner, vault_id, amount, requested_at, unlock_time, status
		FROM pending_withdrawals ORDER BY requested_at ASC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	var out []types.PendingWithdrawal
	for rows.Next() {
		var w types.PendingWithdrawal
		var amount, status string
		if err := rows.Scan(&w.ID, &w.Owner, &w.VaultID, &amount, &w.RequestedAt, &w.UnlockTime, &status); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		if w.Amount, err = parseDec("amount", amount); err != nil {
			return nil, err
		}
		w.RequestedAt = w.RequestedAt.UTC()
		w.UnlockTime = w.UnlockTime.UTC()
		w.Status = types.WithdrawalStatus(status)
		out = append(out, w)
	}
	return out, rows.Err()
}

func (p *PostgresLedger) loadTransactions(ctx context.Context) ([]types.TransactionRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT transaction_id, tx_type, amount, fee, vault_id, vault_name, owner, tx_hash, tx_timestamp, status
		FROM transactions ORDER BY seq ASC;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []types.TransactionRecord
	for rows.Next() {
		var rec types.TransactionRecord
		var txType, amount, fee, status string
		var ts time.Time
		if err := rows.Scan(&rec.ID, &txType, &amount, &fee, &rec.VaultID, &rec.VaultName, &rec.Owner,
			&rec.TxHash, &ts, &status); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if rec.Amount, err = parseDec("amount", amount); err != nil {
			return nil, err
		}
		if rec.Fee, err = parseDec("fee", fee); err != nil {
			return nil, err
		}
		rec.Type = types.TransactionType(txType)
		rec.Status = types.TransactionStatus(status)
		rec.Timestamp = ts.UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func lockupArrays(periods []types.LockupPeriod) ([]int64, []float64) {
	days := make([]int64, len(periods))
	boosts := make([]float64, len(periods))
	for i, lp := range periods {
		days[i] = int64(lp.Days)
		boosts[i] = lp.APRBoost
	}
	return days, boosts
}

func parseDec(column, value string) (sdkmath.LegacyDec, error) {
	dec, err := sdkmath.LegacyNewDecFromStr(value)
	if err != nil {
		return sdkmath.LegacyZeroDec(), fmt.Errorf("failed to parse %s %q: %w", column, value, err)
	}
	return dec, nil
}
