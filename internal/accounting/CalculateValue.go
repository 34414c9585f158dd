/*

This file contains the pure valuation functions for a single position.

Nothing here reads the wall clock: every function that depends on time takes `now` explicitly.

*/

package accounting

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/utils"
)

// secondsPerYear is the accrual basis (365 days).
const secondsPerYear = 365 * 24 * 60 * 60

// EffectiveAPR is the vault's base APR plus the boost of the selected lockup period, in percent.
func EffectiveAPR(vault types.Vault, lockupDays int) (float64, error) {
	lockup, ok := vault.Lockup(lockupDays)
	if !ok {
		return 0, fmt.Errorf("%w: %d days on vault %s", types.ErrInvalidLockupPeriod, lockupDays, vault.ID)
	}
	return vault.AnnualPercentageRate + lockup.APRBoost, nil
}

// UnlockTimestamp is depositTimestamp plus the lockup period.
func UnlockTimestamp(depositTimestamp time.Time, lockupDays int) time.Time {
	return depositTimestamp.Add(time.Duration(lockupDays) * 24 * time.Hour)
}

// AccruedYield is the simple-interest return on principal since the deposit timestamp.
// A timestamp in the future accrues nothing.
func AccruedYield(position types.Position, now time.Time) sdkmath.LegacyDec {
	principal := utils.OrZero(position.Principal)
	elapsed := now.Sub(position.DepositTimestamp)
	if elapsed <= 0 || !principal.IsPositive() || position.CurrentAPR <= 0 {
		return sdkmath.LegacyZeroDec()
	}

	apr := utils.MustFloat64ToDec(position.CurrentAPR)
	return principal.
		Mul(apr).
		MulInt64(int64(elapsed / time.Second)).
		QuoInt64(100 * secondsPerYear)
}

// CurrentValue is principal plus carried and freshly accrued yield.
func CurrentValue(position types.Position, now time.Time) sdkmath.LegacyDec {
	return utils.OrZero(position.Principal).
		Add(utils.OrZero(position.CarriedYield)).
		Add(AccruedYield(position, now))
}

// Profit is CurrentValue minus principal.
func Profit(position types.Position, now time.Time) sdkmath.LegacyDec {
	return CurrentValue(position, now).Sub(utils.OrZero(position.Principal))
}

// IsWithdrawable reports whether the lockup has elapsed at now.
func IsWithdrawable(position types.Position, now time.Time) bool {
	return !now.Before(position.UnlockTimestamp)
}

// Evaluate returns position with its derived fields populated for now. locked is the share amount
// committed to an active withdrawal request on the same vault.
func Evaluate(position types.Position, now time.Time, locked sdkmath.LegacyDec) types.Position {
	out := position
	out.CurrentValue = CurrentValue(position, now)
	out.Profit = out.CurrentValue.Sub(utils.OrZero(position.Principal))
	out.IsWithdrawable = IsWithdrawable(position, now)
	out.RedeemableShares = RedeemableShares(position, locked)
	return out
}

// RedeemableShares is the share balance not committed to a pending withdrawal.
func RedeemableShares(position types.Position, locked sdkmath.LegacyDec) sdkmath.LegacyDec {
	free := utils.OrZero(position.Shares).Sub(utils.OrZero(locked))
	if free.IsNegative() {
		return sdkmath.LegacyZeroDec()
	}
	return free
}

// MintShares converts a deposit amount into receipt-token units.
func MintShares(amount, mintRate sdkmath.LegacyDec) sdkmath.LegacyDec {
	return amount.Mul(mintRate)
}

// BurnSlice is the part of a position removed when shares are burned.
type BurnSlice struct {
	Shares       sdkmath.LegacyDec
	Principal    sdkmath.LegacyDec
	CarriedYield sdkmath.LegacyDec
}

// SliceForShares returns the principal and carried yield backing the given shares, pro rata.
// Burning the whole share balance returns the whole principal so no dust is left behind.
func SliceForShares(position types.Position, shares sdkmath.LegacyDec) BurnSlice {
	total := utils.OrZero(position.Shares)
	if !total.IsPositive() || shares.GTE(total) {
		return BurnSlice{
			Shares:       total,
			Principal:    utils.OrZero(position.Principal),
			CarriedYield: utils.OrZero(position.CarriedYield),
		}
	}

	ratio := shares.Quo(total)
	return BurnSlice{
		Shares:       shares,
		Principal:    utils.OrZero(position.Principal).Mul(ratio),
		CarriedYield: utils.OrZero(position.CarriedYield).Mul(ratio),
	}
}

// Burn returns position with slice removed.
func Burn(position types.Position, slice BurnSlice) types.Position {
	out := position
	out.Shares = utils.OrZero(position.Shares).Sub(slice.Shares)
	out.Principal = utils.OrZero(position.Principal).Sub(slice.Principal)
	out.CarriedYield = utils.OrZero(position.CarriedYield).Sub(slice.CarriedYield)
	return out
}

// TopUp folds a new deposit into an existing position: yield accrued so far is carried,
// accrual restarts at now with the new APR, and the later unlock wins.
func TopUp(position types.Position, amount, shares sdkmath.LegacyDec, apr float64, lockupDays int, now time.Time) types.Position {
	out := position
	out.CarriedYield = utils.OrZero(position.CarriedYield).Add(AccruedYield(position, now))
	out.Principal = utils.OrZero(position.Principal).Add(amount)
	out.Shares = utils.OrZero(position.Shares).Add(shares)
	out.CurrentAPR = apr
	out.DepositTimestamp = now

	unlock := UnlockTimestamp(now, lockupDays)
	if unlock.After(position.UnlockTimestamp) {
		out.UnlockTimestamp = unlock
		out.LockupPeriodDays = lockupDays
	}
	return out
}
