package vault

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/accounting"
	"github.com/elys-network/vaultengine/internal/state"
	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/wallet"
)

// Deposit moves amount of the settlement asset into vaultID, minting amount × mintRate receipt
// tokens. A second deposit into the same vault tops up the existing position.
func (s *Service) Deposit(ctx context.Context, vaultID string, amount sdkmath.LegacyDec, lockupDays int) (rec types.TransactionRecord, err error) {
	started := time.Now()
	defer func() { s.finish("deposit", started, err) }()

	unlock := s.locks.lock(lockKey(s.owner, vaultID))
	defer unlock()

	if err := s.preflight(ctx, func(tx *state.Tx, now time.Time) error {
		_, err := s.applyDeposit(tx, now, "", wallet.Receipt{}, vaultID, amount, lockupDays)
		return err
	}); err != nil {
		return types.TransactionRecord{}, err
	}

	receipt, err := s.submit(ctx, wallet.Intent{Kind: wallet.IntentDeposit, VaultID: vaultID, Amount: amount})
	if err != nil {
		return types.TransactionRecord{}, err
	}

	err = s.store.Update(ctx, func(tx *state.Tx) error {
		var err error
		rec, err = s.applyDeposit(tx, s.clock.Now(), s.ids.NewID(), receipt, vaultID, amount, lockupDays)
		return err
	})
	if err != nil {
		return types.TransactionRecord{}, err
	}

	s.cache.Invalidate(keyVaults, vaultKey(vaultID), positionsKey(s.owner), walletKey(s.owner))
	s.cache.InvalidatePrefix(transactionsOwnerPrefix(s.owner))

	s.log.Info().
		Str("operation", "deposit").
		Str("vault", vaultID).
		Str("amount", amount.String()).
		Int("lockupDays", lockupDays).
		Str("record", rec.ID).
		Msg("Deposit completed")
	return rec, nil
}

func (s *Service) applyDeposit(tx *state.Tx, now time.Time, id string, receipt wallet.Receipt, vaultID string, amount sdkmath.LegacyDec, lockupDays int) (types.TransactionRecord, error) {
	vault, err := tx.GetVault(vaultID)
	if err != nil {
		return types.TransactionRecord{}, err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.TransactionRecord{}, fmt.Errorf("%w: deposit of %s", types.ErrInvalidAmount, decString(amount))
	}
	apr, err := accounting.EffectiveAPR(vault, lockupDays)
	if err != nil {
		return types.TransactionRecord{}, err
	}

	tx.EnsureWallet(s.owner, s.params.InitialSettlementBalance)
	if err := tx.AdjustWalletBalance(s.owner, amount.Neg()); err != nil {
		return types.TransactionRecord{}, err
	}

	shares := accounting.MintShares(amount, s.params.MintRate)
	position, exists := tx.Position(types.PositionKey{Owner: s.owner, VaultID: vaultID})
	if exists {
		position = accounting.TopUp(position, amount, shares, apr, lockupDays, now)
	} else {
		position = types.Position{
			Owner:            s.owner,
			VaultID:          vaultID,
			Principal:        amount,
			Shares:           shares,
			CarriedYield:     sdkmath.LegacyZeroDec(),
			CurrentAPR:       apr,
			DepositTimestamp: now,
			LockupPeriodDays: lockupDays,
			UnlockTimestamp:  accounting.UnlockTimestamp(now, lockupDays),
		}
	}
	if err := tx.PutPosition(position); err != nil {
		return types.TransactionRecord{}, err
	}
	if err := tx.AdjustVaultTVL(vaultID, amount); err != nil {
		return types.TransactionRecord{}, err
	}

	rec := types.TransactionRecord{
		ID:        id,
		Type:      types.TxDeposit,
		Amount:    amount,
		Fee:       sdkmath.LegacyZeroDec(),
		VaultID:   vaultID,
		VaultName: vault.Name,
		Owner:     s.owner,
		TxHash:    receipt.TxHash,
		Timestamp: now,
		Status:    types.TxCompleted,
	}
	tx.AppendTransaction(rec)
	return rec, nil
}

func decString(d sdkmath.LegacyDec) string {
	if d.IsNil() {
		return "<nil>"
	}
	return d.String()
}
