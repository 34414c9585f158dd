package vault

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/accounting"
	"github.com/elys-network/vaultengine/internal/state"
	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/wallet"
)

// RedeemReceiptTokens burns amount receipt tokens without a cooldown and credits amount minus the
// receipt-token fee. Tokens committed to a pending withdrawal cannot be redeemed. Positions are
// drawn down oldest deposit first.
func (s *Service) RedeemReceiptTokens(ctx context.Context, amount sdkmath.LegacyDec) (rec types.TransactionRecord, err error) {
	started := time.Now()
	defer func() { s.finish("redeem", started, err) }()

	var keys []string
	if err := s.store.View(func(v state.View) error {
		for _, vault := range v.Vaults() {
			keys = append(keys, lockKey(s.owner, vault.ID))
		}
		return nil
	}); err != nil {
		return types.TransactionRecord{}, err
	}
	unlock := s.locks.lock(keys...)
	defer unlock()

	if err := s.preflight(ctx, func(tx *state.Tx, now time.Time) error {
		_, err := s.applyRedeem(tx, now, "", wallet.Receipt{}, amount)
		return err
	}); err != nil {
		return types.TransactionRecord{}, err
	}

	receipt, err := s.submit(ctx, wallet.Intent{Kind: wallet.IntentRedeem, Amount: amount})
	if err != nil {
		return types.TransactionRecord{}, err
	}

	err = s.store.Update(ctx, func(tx *state.Tx) error {
		var err error
		rec, err = s.applyRedeem(tx, s.clock.Now(), s.ids.NewID(), receipt, amount)
		return err
	})
	if err != nil {
		return types.TransactionRecord{}, err
	}

	s.cache.Invalidate(keyVaults, positionsKey(s.owner), walletKey(s.owner))
	s.cache.InvalidatePrefix(keyVaultPrefix)
	s.cache.InvalidatePrefix(transactionsOwnerPrefix(s.owner))

	s.log.Info().
		Str("operation", "redeem").
		Str("amount", amount.String()).
		Str("fee", rec.Fee.String()).
		Str("record", rec.ID).
		Msg("Receipt tokens redeemed")
	return rec, nil
}

func (s *Service) applyRedeem(tx *state.Tx, now time.Time, id string, receipt wallet.Receipt, amount sdkmath.LegacyDec) (types.TransactionRecord, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return types.TransactionRecord{}, fmt.Errorf("%w: redemption of %s", types.ErrInvalidAmount, decString(amount))
	}

	positions := tx.Positions(s.owner)
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].DepositTimestamp.Before(positions[j].DepositTimestamp)
	})

	redeemable := make([]sdkmath.LegacyDec, len(positions))
	total := sdkmath.LegacyZeroDec()
	for i, p := range positions {
		locked := sdkmath.LegacyZeroDec()
		if w, ok := tx.ActiveWithdrawal(p.Key()); ok {
			locked = w.Amount
		}
		redeemable[i] = accounting.RedeemableShares(p, locked)
		total = total.Add(redeemable[i])
	}
	if amount.GT(total) {
		return types.TransactionRecord{}, fmt.Errorf("%w: redeeming %s, redeemable %s", types.ErrInsufficientBalance, amount, total)
	}

	remaining := amount
	for i, p := range positions {
		if !remaining.IsPositive() {
			break
		}
		take := sdkmath.LegacyMinDec(remaining, redeemable[i])
		if !take.IsPositive() {
			continue
		}
		if err := s.burn(tx, p, accounting.SliceForShares(p, take)); err != nil {
			return types.TransactionRecord{}, err
		}
		remaining = remaining.Sub(take)
	}

	payout := accounting.ApplyFee(amount, s.params.WithdrawalFees, types.AssetReceiptToken)
	tx.EnsureWallet(s.owner, s.params.InitialSettlementBalance)
	if err := tx.AdjustWalletBalance(s.owner, payout.Net); err != nil {
		return types.TransactionRecord{}, err
	}

	rec := types.TransactionRecord{
		ID:        id,
		Type:      types.TxWithdraw,
		Amount:    payout.Gross,
		Fee:       payout.Fee,
		VaultName: s.params.ReceiptSymbol,
		Owner:     s.owner,
		TxHash:    receipt.TxHash,
		Timestamp: now,
		Status:    types.TxCompleted,
	}
	tx.AppendTransaction(rec)
	return rec, nil
}
