package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/elys-network/vaultengine/internal/logger"
	"github.com/elys-network/vaultengine/internal/types"
)

// Persister writes a committed change set to durable storage. If Commit fails the in-memory
// ledger is left untouched.
type Persister interface {
	Commit(ctx context.Context, cs ChangeSet) error
}

// Resetter is implemented by persisters that can replace their whole durable ledger.
type Resetter interface {
	Replace(ctx context.Context, seed Seed) error
}

// ErrResetUnsupported is returned by Reset when the attached persister cannot be reset.
var ErrResetUnsupported = errors.New("persister does not support reset")

type Option func(*Store)

// WithPersister makes every successful Update durable before it becomes visible.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// Store is the single source of truth for vaults, wallets, positions, withdrawals and the
// transaction log. Readers see either the state before or after an Update, never a mix.
type Store struct {
	mu        sync.RWMutex
	seed      Seed
	current   *ledger
	closed    bool
	persister Persister
	log       zerolog.Logger
}

// NewStore creates a store holding seed.
func NewStore(seed Seed, opts ...Option) (*Store, error) {
	l, err := newLedger(seed)
	if err != nil {
		return nil, err
	}

	s := &Store{
		seed:    seed.clone(),
		current: l,
		log:     logger.GetForComponent("ledger_store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.log.Info().
		Int("vaults", len(seed.Vaults)).
		Int("positions", len(seed.Positions)).
		Int("transactions", len(seed.Transactions)).
		Msg("Ledger store initialized")
	return s, nil
}

// View runs fn against a consistent snapshot.
func (s *Store) View(fn func(View) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	return fn(View{l: s.current})
}

// Update runs fn on a private copy of the ledger. The copy replaces the current state only if fn
// returns nil and the change set is persisted; otherwise every change fn made is discarded.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tx := newTx(s.current.clone())
	if err := fn(tx); err != nil {
		return err
	}

	cs := tx.changeSet()
	if s.persister != nil && !cs.Empty() {
		if err := s.persister.Commit(ctx, cs); err != nil {
			s.log.Error().Err(err).Msg("Failed to persist ledger changes, discarding")
			return fmt.Errorf("failed to persist ledger changes: %w", err)
		}
	}

	s.current = tx.l
	s.log.Debug().
		Int("positions_changed", len(cs.Positions)+len(cs.DeletedPositions)).
		Int("transactions_appended", len(cs.Transactions)).
		Msg("Ledger update committed")
	return nil
}

// Reset restores the seed the store was created with and reopens a disposed store. With a
// persister attached the durable ledger is replaced first, and the persister must implement
// Resetter or the reset is refused.
func (s *Store) Reset(ctx context.Context) error {
	l, err := newLedger(s.seed)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister != nil {
		resetter, ok := s.persister.(Resetter)
		if !ok {
			return ErrResetUnsupported
		}
		if err := resetter.Replace(ctx, s.seed.clone()); err != nil {
			s.log.Error().Err(err).Msg("Failed to reset persisted ledger, keeping current state")
			return fmt.Errorf("failed to reset persisted ledger: %w", err)
		}
	}

	s.current = l
	s.closed = false
	s.log.Info().Msg("Ledger store reset to seed")
	return nil
}

// Dispose releases the ledger. Every later call fails with ErrStoreClosed until Reset.
func (s *Store) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.closed = true
	s.log.Info().Msg("Ledger store disposed")
}

func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
