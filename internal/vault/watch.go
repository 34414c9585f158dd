package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/elys-network/vaultengine/internal/cooldown"
	"github.com/elys-network/vaultengine/internal/state"
	"github.com/elys-network/vaultengine/internal/types"
)

// WatchWithdrawal counts down an active request in the background. When it unlocks the cached
// pending view is dropped and onReady receives the request as READY, unless it was claimed or
// reset away in the meantime. Reads never depend on the watcher: status is derived from the clock
// whenever it is read.
func (s *Service) WatchWithdrawal(ctx context.Context, withdrawalID string, onReady func(types.PendingWithdrawal)) error {
	var w types.PendingWithdrawal
	err := s.store.View(func(v state.View) error {
		found, ok := v.Withdrawal(withdrawalID)
		if !ok || found.Owner != s.owner || found.Status == types.WithdrawalClaimed {
			return fmt.Errorf("%w: %s", types.ErrWithdrawalNotFound, withdrawalID)
		}
		w = found
		return nil
	})
	if err != nil {
		return err
	}

	go func() {
		err := cooldown.Countdown(ctx, s.clock, w, func(ready types.PendingWithdrawal) {
			s.cache.Invalidate(pendingKey(s.owner, ready.VaultID))
			if !s.stillActive(ready.ID) {
				s.log.Debug().Str("withdrawal", ready.ID).Msg("Watched withdrawal is no longer active")
				return
			}
			s.log.Info().
				Str("withdrawal", ready.ID).
				Str("vault", ready.VaultID).
				Msg("Withdrawal is ready to claim")
			if onReady != nil {
				onReady(ready)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Debug().Err(err).Str("withdrawal", w.ID).Msg("Countdown stopped")
		}
	}()
	return nil
}

// stillActive reports whether id is an unclaimed request in the current ledger. A request can be
// claimed, or wiped by a reset, between the countdown firing and the callback running.
func (s *Service) stillActive(id string) bool {
	active := false
	_ = s.store.View(func(v state.View) error {
		w, ok := v.Withdrawal(id)
		active = ok && w.Status != types.WithdrawalClaimed
		return nil
	})
	return active
}
