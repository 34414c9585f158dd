package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type WithdrawalStatus string

const (
	WithdrawalCoolingDown WithdrawalStatus = "cooling_down"
	WithdrawalReady       WithdrawalStatus = "ready"
	WithdrawalClaimed     WithdrawalStatus = "claimed"
)

// PendingWithdrawal is a withdrawal request waiting out its cooldown.
// Status is recomputed from the clock on every read; only Claimed is stored.
type PendingWithdrawal struct {
	ID          string            `json:"id"`
	Owner       string            `json:"owner"`
	VaultID     string            `json:"vaultId"`
	Amount      sdkmath.LegacyDec `json:"amount"` // Receipt-token units
	RequestedAt time.Time         `json:"requestedAt"`
	UnlockTime  time.Time         `json:"unlockTime"`
	Status      WithdrawalStatus  `json:"status"`
}

func (w PendingWithdrawal) Key() PositionKey {
	return PositionKey{Owner: w.Owner, VaultID: w.VaultID}
}

// Remaining is the cooldown left at now, never negative.
func (w PendingWithdrawal) Remaining(now time.Time) time.Duration {
	if d := w.UnlockTime.Sub(now); d > 0 {
		return d
	}
	return 0
}
