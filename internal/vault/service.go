package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/elys-network/vaultengine/internal/cache"
	"github.com/elys-network/vaultengine/internal/clock"
	"github.com/elys-network/vaultengine/internal/config"
	"github.com/elys-network/vaultengine/internal/logger"
	"github.com/elys-network/vaultengine/internal/metrics"
	"github.com/elys-network/vaultengine/internal/state"
	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/utils"
	"github.com/elys-network/vaultengine/internal/wallet"
)

var (
	ErrInvalidDependencies = errors.New("service dependencies are invalid")

	errDryRun = errors.New("dry run")
)

// Deps are the collaborators of a Service. Store and Cache are required; the rest have defaults.
type Deps struct {
	Store   *state.Store
	Cache   *cache.Cache
	Clock   clock.Clock       // Defaults to clock.System
	Wallet  wallet.Submitter  // Defaults to wallet.Simulated with the configured latency
	IDs     IDGenerator       // Defaults to UUIDGenerator
	Metrics *metrics.Recorder // Optional
}

// Service is the Transaction Service of one wallet. It is the only writer of the ledger.
//
// A write takes the per (owner, vault) lock, validates against a throwaway copy of the ledger,
// waits on the wallet, then re-validates and commits in one store update and invalidates the
// affected cache keys before returning.
type Service struct {
	owner   string
	params  types.EngineParameters
	store   *state.Store
	cache   *cache.Cache
	clock   clock.Clock
	wallet  wallet.Submitter
	ids     IDGenerator
	metrics *metrics.Recorder
	locks   *keyLock
	log     zerolog.Logger
}

func NewService(owner string, params types.EngineParameters, deps Deps) (*Service, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: owner address cannot be empty", ErrInvalidDependencies)
	}
	if deps.Store == nil || deps.Cache == nil {
		return nil, fmt.Errorf("%w: store and cache are required", ErrInvalidDependencies)
	}
	if err := config.ValidateEngineParameters(params); err != nil {
		return nil, errors.Join(ErrInvalidDependencies, err)
	}

	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Wallet == nil {
		deps.Wallet = wallet.NewSimulated(deps.Clock, params.SimulatedLatency)
	}
	if deps.IDs == nil {
		deps.IDs = UUIDGenerator{}
	}

	s := &Service{
		owner:   owner,
		params:  params,
		store:   deps.Store,
		cache:   deps.Cache,
		clock:   deps.Clock,
		wallet:  deps.Wallet,
		ids:     deps.IDs,
		metrics: deps.Metrics,
		locks:   newKeyLock(),
		log:     logger.GetForComponent("vault_service"),
	}
	s.log = s.log.With().Str("owner", owner).Logger()
	s.refreshGauges()
	return s, nil
}

// ForOwner returns a Service for another wallet sharing this one's store, cache and locks.
func (s *Service) ForOwner(owner string) *Service {
	out := *s
	out.owner = owner
	out.log = logger.GetForComponent("vault_service").With().Str("owner", owner).Logger()
	return &out
}

func (s *Service) Owner() string {
	return s.owner
}

// ClearCache drops every cached view.
func (s *Service) ClearCache() {
	s.cache.InvalidateAll()
	s.log.Debug().Msg("Cache cleared on request")
}

// Reset restores the seeded ledger, durable copy included, and drops every cached view so no read
// can observe the state from before the reset.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Ledger reset rejected")
		return err
	}
	s.cache.InvalidateAll()
	s.refreshGauges()
	s.log.Info().Msg("Ledger reset to seed")
	return nil
}

// preflight runs apply against a copy of the ledger that is always discarded.
func (s *Service) preflight(ctx context.Context, apply func(tx *state.Tx, now time.Time) error) error {
	err := s.store.Update(ctx, func(tx *state.Tx) error {
		if err := apply(tx, s.clock.Now()); err != nil {
			return err
		}
		return errDryRun
	})
	if errors.Is(err, errDryRun) {
		return nil
	}
	return err
}

func (s *Service) submit(ctx context.Context, intent wallet.Intent) (wallet.Receipt, error) {
	intent.Owner = s.owner
	receipt, err := s.wallet.Submit(ctx, intent)
	if err != nil {
		return wallet.Receipt{}, fmt.Errorf("failed to submit %s: %w", intent.Kind, err)
	}
	return receipt, nil
}

// finish records the outcome of an operation.
func (s *Service) finish(operation string, started time.Time, err error) {
	s.metrics.ObserveOperation(operation, types.ErrorCode(err), time.Since(started))
	if err != nil {
		s.log.Warn().
			Err(err).
			Str("operation", operation).
			Str("code", types.ErrorCode(err)).
			Msg("Operation rejected")
		return
	}
	s.refreshGauges()
}

// refreshGauges publishes TVL and pending withdrawal counts.
func (s *Service) refreshGauges() {
	if s.metrics == nil {
		return
	}
	err := s.store.View(func(v state.View) error {
		for _, vault := range v.Vaults() {
			tvl, err := utils.DecToFloat64(vault.TotalValueLocked)
			if err != nil {
				return err
			}
			s.metrics.SetVaultTVL(vault.ID, tvl)
		}
		s.metrics.SetPendingWithdrawals(v.ActiveWithdrawalCount())
		return nil
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("Could not refresh gauges")
	}
}
