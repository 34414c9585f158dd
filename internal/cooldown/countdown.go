package cooldown

import (
	"context"

	"github.com/elys-network/vaultengine/internal/clock"
	"github.com/elys-network/vaultengine/internal/types"
)

// Countdown blocks until w unlocks on clk and then calls onReady with w observed as READY.
// It returns ctx.Err() if ctx ends first. A request that is already unlocked fires immediately.
func Countdown(ctx context.Context, clk clock.Clock, w types.PendingWithdrawal, onReady func(types.PendingWithdrawal)) error {
	remaining := w.Remaining(clk.Now())

	select {
	case <-ctx.Done():
		return ctx.Err()
	case now := <-clk.After(remaining):
		if onReady != nil {
			onReady(Observe(w, now))
		}
		return nil
	}
}
