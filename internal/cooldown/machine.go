// Package cooldown implements the lifecycle of a withdrawal request:
//
//	NONE --request--> COOLING_DOWN --(now >= unlockTime)--> READY --claim--> CLAIMED (then NONE)
//
// Time-based transitions are never stored. They are recomputed from the clock whenever a request
// is observed, so there is no timer whose firing could race with a read.
package cooldown

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
)

// State is the position of a (vault, user) pair in the withdrawal lifecycle.
type State string

const (
	StateNone        State = "NONE"
	StateCoolingDown State = "COOLING_DOWN"
	StateReady       State = "READY"
	StateClaimed     State = "CLAIMED"
)

// StatusAt derives the status of w at now.
func StatusAt(w types.PendingWithdrawal, now time.Time) types.WithdrawalStatus {
	if w.Status == types.WithdrawalClaimed {
		return types.WithdrawalClaimed
	}
	if now.Before(w.UnlockTime) {
		return types.WithdrawalCoolingDown
	}
	return types.WithdrawalReady
}

// Observe returns w with its status recomputed for now.
func Observe(w types.PendingWithdrawal, now time.Time) types.PendingWithdrawal {
	w.Status = StatusAt(w, now)
	return w
}

// StateOf maps the active request of a (vault, user) pair to a State. A nil request is NONE.
func StateOf(w *types.PendingWithdrawal, now time.Time) State {
	if w == nil {
		return StateNone
	}
	switch StatusAt(*w, now) {
	case types.WithdrawalCoolingDown:
		return StateCoolingDown
	case types.WithdrawalReady:
		return StateReady
	default:
		return StateClaimed
	}
}

// Request describes a NONE -> COOLING_DOWN transition.
type Request struct {
	ID         string
	Owner      string
	VaultID    string
	Amount     sdkmath.LegacyDec
	Redeemable sdkmath.LegacyDec // Shares the caller may still commit
	Now        time.Time
	Cooldown   time.Duration
}

// Begin validates req against the pair's active request and returns the new request in COOLING_DOWN.
func Begin(active *types.PendingWithdrawal, req Request) (types.PendingWithdrawal, error) {
	if req.Amount.IsNil() || !req.Amount.IsPositive() {
		return types.PendingWithdrawal{}, fmt.Errorf("%w: %s", types.ErrInvalidAmount, decString(req.Amount))
	}

	if state := StateOf(active, req.Now); state != StateNone && state != StateClaimed {
		return types.PendingWithdrawal{}, fmt.Errorf("%w: request %s is %s", types.ErrAlreadyPending, active.ID, state)
	}

	if req.Redeemable.IsNil() || req.Amount.GT(req.Redeemable) {
		return types.PendingWithdrawal{}, fmt.Errorf("%w: requested %s, redeemable %s",
			types.ErrInsufficientBalance, req.Amount, decString(req.Redeemable))
	}

	return types.PendingWithdrawal{
		ID:          req.ID,
		Owner:       req.Owner,
		VaultID:     req.VaultID,
		Amount:      req.Amount,
		RequestedAt: req.Now,
		UnlockTime:  req.Now.Add(req.Cooldown),
		Status:      types.WithdrawalCoolingDown,
	}, nil
}

// Claim performs READY -> CLAIMED. It fails with ErrNotReady while the request is cooling down.
func Claim(w types.PendingWithdrawal, now time.Time) (types.PendingWithdrawal, error) {
	switch StatusAt(w, now) {
	case types.WithdrawalClaimed:
		return types.PendingWithdrawal{}, fmt.Errorf("%w: %s was already claimed", types.ErrWithdrawalNotFound, w.ID)
	case types.WithdrawalCoolingDown:
		return types.PendingWithdrawal{}, fmt.Errorf("%w: %s unlocks in %s", types.ErrNotReady, w.ID, w.Remaining(now).Round(time.Second))
	}

	w.Status = types.WithdrawalClaimed
	return w, nil
}

func decString(d sdkmath.LegacyDec) string {
	if d.IsNil() {
		return "<nil>"
	}
	return d.String()
}
