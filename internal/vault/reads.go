package vault

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/accounting"
	"github.com/elys-network/vaultengine/internal/cache"
	"github.com/elys-network/vaultengine/internal/cooldown"
	"github.com/elys-network/vaultengine/internal/state"
	"github.com/elys-network/vaultengine/internal/types"
)

// positionSnapshot is what the positions key caches: stored positions plus the shares each has
// committed to a pending withdrawal.
type positionSnapshot struct {
	positions []types.Position
	locked    map[string]sdkmath.LegacyDec
}

func (s *Service) ListVaults(ctx context.Context) ([]types.Vault, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vaults, err := cache.Read(s.cache, keyVaults, func() ([]types.Vault, error) {
		var out []types.Vault
		err := s.store.View(func(v state.View) error {
			out = v.Vaults()
			return nil
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.Vault, len(vaults))
	for i, v := range vaults {
		out[i] = v.Clone()
	}
	return out, nil
}

func (s *Service) GetVault(ctx context.Context, id string) (types.Vault, error) {
	if err := ctx.Err(); err != nil {
		return types.Vault{}, err
	}
	vault, err := cache.Read(s.cache, vaultKey(id), func() (types.Vault, error) {
		var out types.Vault
		err := s.store.View(func(v state.View) error {
			var err error
			out, err = v.Vault(id)
			return err
		})
		return out, err
	})
	if err != nil {
		return types.Vault{}, err
	}
	return vault.Clone(), nil
}

func (s *Service) positionSnapshot() (positionSnapshot, error) {
	return cache.Read(s.cache, positionsKey(s.owner), func() (positionSnapshot, error) {
		snap := positionSnapshot{locked: make(map[string]sdkmath.LegacyDec)}
		err := s.store.View(func(v state.View) error {
			snap.positions = v.Positions(s.owner)
			for _, w := range v.ActiveWithdrawals(s.owner) {
				snap.locked[w.VaultID] = w.Amount
			}
			return nil
		})
		return snap, err
	})
}

// ListPositions returns positions in catalog order, valued at the current time.
func (s *Service) ListPositions(ctx context.Context) ([]types.Position, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := s.positionSnapshot()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	out := make([]types.Position, 0, len(snap.positions))
	for _, p := range snap.positions {
		locked, ok := snap.locked[p.VaultID]
		if !ok {
			locked = sdkmath.LegacyZeroDec()
		}
		out = append(out, accounting.Evaluate(p, now, locked))
	}
	return out, nil
}

// ListTransactions returns the wallet's records newest-first. An empty vaultID lists every vault.
func (s *Service) ListTransactions(ctx context.Context, vaultID string) ([]types.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := cache.Read(s.cache, transactionsKey(s.owner, vaultID), func() ([]types.TransactionRecord, error) {
		var out []types.TransactionRecord
		err := s.store.View(func(v state.View) error {
			out = v.Transactions(s.owner, vaultID)
			return nil
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return append([]types.TransactionRecord{}, records...), nil
}

// GetPendingWithdrawal returns the unclaimed request on vaultID with its status at the current time,
// or nil when the pair is in NONE.
func (s *Service) GetPendingWithdrawal(ctx context.Context, vaultID string) (*types.PendingWithdrawal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	active, err := cache.Read(s.cache, pendingKey(s.owner, vaultID), func() (*types.PendingWithdrawal, error) {
		var out *types.PendingWithdrawal
		err := s.store.View(func(v state.View) error {
			if _, err := v.Vault(vaultID); err != nil {
				return err
			}
			if w, ok := v.ActiveWithdrawal(types.PositionKey{Owner: s.owner, VaultID: vaultID}); ok {
				out = &w
			}
			return nil
		})
		return out, err
	})
	if err != nil || active == nil {
		return nil, err
	}

	observed := cooldown.Observe(*active, s.clock.Now())
	return &observed, nil
}

// GetBalances reports the settlement balance and receipt tokens held across positions.
// A wallet that has never transacted reports the initial settlement balance.
func (s *Service) GetBalances(ctx context.Context) (types.Balances, error) {
	if err := ctx.Err(); err != nil {
		return types.Balances{}, err
	}
	settlement, err := cache.Read(s.cache, walletKey(s.owner), func() (sdkmath.LegacyDec, error) {
		balance := s.params.InitialSettlementBalance
		err := s.store.View(func(v state.View) error {
			if w, ok := v.Wallet(s.owner); ok {
				balance = w.SettlementBalance
			}
			return nil
		})
		return balance, err
	})
	if err != nil {
		return types.Balances{}, err
	}

	positions, err := s.ListPositions(ctx)
	if err != nil {
		return types.Balances{}, err
	}

	balances := types.Balances{
		Address:            s.owner,
		SettlementSymbol:   s.params.SettlementSymbol,
		SettlementBalance:  settlement,
		ReceiptSymbol:      s.params.ReceiptSymbol,
		ReceiptBalance:     sdkmath.LegacyZeroDec(),
		RedeemableReceipts: sdkmath.LegacyZeroDec(),
	}
	for _, p := range positions {
		balances.ReceiptBalance = balances.ReceiptBalance.Add(p.Shares)
		balances.RedeemableReceipts = balances.RedeemableReceipts.Add(p.RedeemableShares)
	}
	return balances, nil
}

// Portfolio aggregates the wallet's positions at the current time.
func (s *Service) Portfolio(ctx context.Context) (types.PortfolioSummary, error) {
	positions, err := s.ListPositions(ctx)
	if err != nil {
		return types.PortfolioSummary{}, err
	}
	return accounting.Summarize(positions, s.clock.Now()), nil
}
