package vault

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/accounting"
	"github.com/elys-network/vaultengine/internal/cooldown"
	"github.com/elys-network/vaultengine/internal/state"
	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/wallet"
)

// RequestWithdrawal commits amount receipt tokens of vaultID to a withdrawal and starts its cooldown.
// The tokens stay on the position until the request is claimed. The position's lockup does not gate
// the request: IsWithdrawable is informational and the cooldown is the only wait.
func (s *Service) RequestWithdrawal(ctx context.Context, vaultID string, amount sdkmath.LegacyDec) (w types.PendingWithdrawal, err error) {
	started := time.Now()
	defer func() { s.finish("request_withdrawal", started, err) }()

	unlock := s.locks.lock(lockKey(s.owner, vaultID))
	defer unlock()

	if err := s.preflight(ctx, func(tx *state.Tx, now time.Time) error {
		_, err := s.applyRequest(tx, now, "", vaultID, amount)
		return err
	}); err != nil {
		return types.PendingWithdrawal{}, err
	}

	if _, err := s.submit(ctx, wallet.Intent{Kind: wallet.IntentWithdraw, VaultID: vaultID, Amount: amount}); err != nil {
		return types.PendingWithdrawal{}, err
	}

	err = s.store.Update(ctx, func(tx *state.Tx) error {
		var err error
		w, err = s.applyRequest(tx, s.clock.Now(), s.ids.NewID(), vaultID, amount)
		return err
	})
	if err != nil {
		return types.PendingWithdrawal{}, err
	}

	s.cache.Invalidate(positionsKey(s.owner), pendingKey(s.owner, vaultID), walletKey(s.owner))

	s.log.Info().
		Str("operation", "request_withdrawal").
		Str("vault", vaultID).
		Str("amount", amount.String()).
		Str("withdrawal", w.ID).
		Time("unlockTime", w.UnlockTime).
		Msg("Withdrawal requested")
	return w, nil
}

func (s *Service) applyRequest(tx *state.Tx, now time.Time, id, vaultID string, amount sdkmath.LegacyDec) (types.PendingWithdrawal, error) {
	if _, err := tx.GetVault(vaultID); err != nil {
		return types.PendingWithdrawal{}, err
	}

	key := types.PositionKey{Owner: s.owner, VaultID: vaultID}
	var active *types.PendingWithdrawal
	if existing, ok := tx.ActiveWithdrawal(key); ok {
		active = &existing
	}
	redeemable := sdkmath.LegacyZeroDec()
	if position, ok := tx.Position(key); ok {
		redeemable = accounting.RedeemableShares(position, sdkmath.LegacyZeroDec())
	}

	w, err := cooldown.Begin(active, cooldown.Request{
		ID:         id,
		Owner:      s.owner,
		VaultID:    vaultID,
		Amount:     amount,
		Redeemable: redeemable,
		Now:        now,
		Cooldown:   s.params.CooldownDuration,
	})
	if err != nil {
		return types.PendingWithdrawal{}, err
	}
	if err := tx.OpenWithdrawal(w); err != nil {
		return types.PendingWithdrawal{}, err
	}
	return w, nil
}

// Claim settles a READY request: the committed receipt tokens are burned with their share of
// principal, the vault releases that principal and the wallet is credited amount minus the
// vault-share fee. The (vault, user) pair returns to NONE.
func (s *Service) Claim(ctx context.Context, withdrawalID string) (rec types.TransactionRecord, err error) {
	started := time.Now()
	defer func() { s.finish("claim", started, err) }()

	var vaultID string
	err = s.store.View(func(v state.View) error {
		w, ok := v.Withdrawal(withdrawalID)
		if !ok || w.Owner != s.owner {
			return fmt.Errorf("%w: %s", types.ErrWithdrawalNotFound, withdrawalID)
		}
		vaultID = w.VaultID
		return nil
	})
	if err != nil {
		return types.TransactionRecord{}, err
	}

	unlock := s.locks.lock(lockKey(s.owner, vaultID))
	defer unlock()

	var amount sdkmath.LegacyDec
	if err := s.preflight(ctx, func(tx *state.Tx, now time.Time) error {
		claimed, err := s.applyClaim(tx, now, "", wallet.Receipt{}, withdrawalID)
		amount = claimed.Amount
		return err
	}); err != nil {
		return types.TransactionRecord{}, err
	}

	receipt, err := s.submit(ctx, wallet.Intent{Kind: wallet.IntentClaim, VaultID: vaultID, Amount: amount})
	if err != nil {
		return types.TransactionRecord{}, err
	}

	err = s.store.Update(ctx, func(tx *state.Tx) error {
		var err error
		rec, err = s.applyClaim(tx, s.clock.Now(), s.ids.NewID(), receipt, withdrawalID)
		return err
	})
	if err != nil {
		return types.TransactionRecord{}, err
	}

	s.cache.Invalidate(keyVaults, vaultKey(vaultID), positionsKey(s.owner), walletKey(s.owner), pendingKey(s.owner, vaultID))
	s.cache.InvalidatePrefix(transactionsOwnerPrefix(s.owner))

	s.log.Info().
		Str("operation", "claim").
		Str("vault", vaultID).
		Str("withdrawal", withdrawalID).
		Str("amount", rec.Amount.String()).
		Str("fee", rec.Fee.String()).
		Str("record", rec.ID).
		Msg("Withdrawal claimed")
	return rec, nil
}

func (s *Service) applyClaim(tx *state.Tx, now time.Time, id string, receipt wallet.Receipt, withdrawalID string) (types.TransactionRecord, error) {
	w, ok := tx.Withdrawal(withdrawalID)
	if !ok || w.Owner != s.owner {
		return types.TransactionRecord{}, fmt.Errorf("%w: %s", types.ErrWithdrawalNotFound, withdrawalID)
	}
	claimed, err := cooldown.Claim(w, now)
	if err != nil {
		return types.TransactionRecord{}, err
	}

	vault, err := tx.GetVault(w.VaultID)
	if err != nil {
		return types.TransactionRecord{}, err
	}
	position, ok := tx.Position(w.Key())
	if !ok || position.Shares.LT(w.Amount) {
		return types.TransactionRecord{}, fmt.Errorf("%w: position %s cannot cover %s", types.ErrInsufficientBalance, w.Key(), w.Amount)
	}

	slice := accounting.SliceForShares(position, w.Amount)
	if err := s.burn(tx, position, slice); err != nil {
		return types.TransactionRecord{}, err
	}

	payout := accounting.ApplyFee(w.Amount, s.params.WithdrawalFees, types.AssetVaultShare)
	tx.EnsureWallet(s.owner, s.params.InitialSettlementBalance)
	if err := tx.AdjustWalletBalance(s.owner, payout.Net); err != nil {
		return types.TransactionRecord{}, err
	}
	if err := tx.CloseWithdrawal(claimed); err != nil {
		return types.TransactionRecord{}, err
	}

	rec := types.TransactionRecord{
		ID:        id,
		Type:      types.TxWithdraw,
		Amount:    payout.Gross,
		Fee:       payout.Fee,
		VaultID:   vault.ID,
		VaultName: vault.Name,
		Owner:     s.owner,
		TxHash:    receipt.TxHash,
		Timestamp: now,
		Status:    types.TxCompleted,
	}
	tx.AppendTransaction(rec)
	return rec, nil
}

// burn removes slice from position and releases its principal from the vault.
// A position left without shares is removed.
func (s *Service) burn(tx *state.Tx, position types.Position, slice accounting.BurnSlice) error {
	if err := tx.AdjustVaultTVL(position.VaultID, slice.Principal.Neg()); err != nil {
		return err
	}
	rest := accounting.Burn(position, slice)
	if !rest.Shares.IsPositive() {
		tx.DeletePosition(position.Key())
		return nil
	}
	return tx.PutPosition(rest)
}
