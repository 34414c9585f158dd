package wallet

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/vaultengine/internal/clock"
	"github.com/elys-network/vaultengine/internal/logger"
)

// Receipt is the wallet's acknowledgement of a broadcast transaction.
type Receipt struct {
	TxHash      string
	SubmittedAt time.Time
}

// Submitter signs and broadcasts an intent. It is the point where an operation waits on the outside
// world; an error means nothing was applied.
type Submitter interface {
	Submit(ctx context.Context, intent Intent) (Receipt, error)
}

// Simulated stands in for a connected wallet. It waits Latency on its clock and returns a random hash.
type Simulated struct {
	latency time.Duration
	clock   clock.Clock
	log     zerolog.Logger
}

func NewSimulated(clk clock.Clock, latency time.Duration) *Simulated {
	return &Simulated{
		latency: latency,
		clock:   clk,
		log:     logger.GetForComponent("wallet_simulator"),
	}
}

func (s *Simulated) Submit(ctx context.Context, intent Intent) (Receipt, error) {
	if err := validateIntent(intent); err != nil {
		return Receipt{}, errors.Join(ErrInvalidIntent, err)
	}

	s.log.Debug().
		Str("kind", string(intent.Kind)).
		Str("vault", intent.VaultID).
		Str("amount", intent.Amount.String()).
		Dur("latency", s.latency).
		Msg("Submitting simulated transaction")

	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return Receipt{}, errors.Join(ErrSubmitFailed, ctx.Err())
		case <-s.clock.After(s.latency):
		}
	}

	receipt := Receipt{
		TxHash:      "0x" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		SubmittedAt: s.clock.Now(),
	}
	s.log.Debug().Str("txHash", receipt.TxHash).Msg("Simulated transaction confirmed")
	return receipt, nil
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, intent Intent) (Receipt, error)

func (f SubmitterFunc) Submit(ctx context.Context, intent Intent) (Receipt, error) {
	return f(ctx, intent)
}
