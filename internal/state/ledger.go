package state

import (
	"fmt"
	"math"
	"sort"

	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/utils"
)

// Seed is the initial content of a Store. Transactions are given oldest-first.
type Seed struct {
	Vaults       []types.Vault
	Wallets      []types.Wallet
	Positions    []types.Position
	Withdrawals  []types.PendingWithdrawal // Active and claimed requests
	Transactions []types.TransactionRecord
}

func (s Seed) clone() Seed {
	out := Seed{
		Vaults:       make([]types.Vault, len(s.Vaults)),
		Wallets:      append([]types.Wallet(nil), s.Wallets...),
		Positions:    append([]types.Position(nil), s.Positions...),
		Withdrawals:  append([]types.PendingWithdrawal(nil), s.Withdrawals...),
		Transactions: append([]types.TransactionRecord(nil), s.Transactions...),
	}
	for i, v := range s.Vaults {
		out.Vaults[i] = v.Clone()
	}
	return out
}

// ledger is the authoritative state. It is only mutated through a Tx on a private clone.
type ledger struct {
	vaultOrder []string
	vaults     map[string]types.Vault
	wallets    map[string]types.Wallet
	positions  map[types.PositionKey]types.Position

	active   map[types.PositionKey]types.PendingWithdrawal
	activeID map[string]types.PositionKey
	claimed  history[types.PendingWithdrawal]

	transactions history[types.TransactionRecord]
}

func newLedger(seed Seed) (*ledger, error) {
	l := &ledger{
		vaults:    make(map[string]types.Vault, len(seed.Vaults)),
		wallets:   make(map[string]types.Wallet, len(seed.Wallets)),
		positions: make(map[types.PositionKey]types.Position, len(seed.Positions)),
		active:    make(map[types.PositionKey]types.PendingWithdrawal),
		activeID:  make(map[string]types.PositionKey),
	}

	for _, v := range seed.Vaults {
		if v.ID == "" {
			return nil, fmt.Errorf("seed vault without id")
		}
		if _, dup := l.vaults[v.ID]; dup {
			return nil, fmt.Errorf("seed vault %s is duplicated", v.ID)
		}
		if v.TotalValueLocked.IsNil() || v.TotalValueLocked.IsNegative() {
			return nil, fmt.Errorf("seed vault %s: %w", v.ID, types.ErrInsufficientLiquidity)
		}
		if math.IsNaN(v.AnnualPercentageRate) || math.IsInf(v.AnnualPercentageRate, 0) {
			return nil, fmt.Errorf("seed vault %s: %w", v.ID, utils.ErrNotFinite)
		}
		l.vaultOrder = append(l.vaultOrder, v.ID)
		l.vaults[v.ID] = v.Clone()
	}

	for _, w := range seed.Wallets {
		l.wallets[w.Address] = w
	}

	for _, p := range seed.Positions {
		if _, ok := l.vaults[p.VaultID]; !ok {
			return nil, fmt.Errorf("seed position %s: %w", p.Key(), types.ErrVaultNotFound)
		}
		l.positions[p.Key()] = p
	}

	var claimed []types.PendingWithdrawal
	for _, w := range seed.Withdrawals {
		if w.Status == types.WithdrawalClaimed {
			claimed = append(claimed, w)
			continue
		}
		if _, taken := l.active[w.Key()]; taken {
			return nil, fmt.Errorf("seed withdrawal %s: %w", w.ID, types.ErrAlreadyPending)
		}
		l.active[w.Key()] = w
		l.activeID[w.ID] = w.Key()
	}
	sort.SliceStable(claimed, func(i, j int) bool { return claimed[i].RequestedAt.Before(claimed[j].RequestedAt) })
	l.claimed = historyOf(claimed)
	l.transactions = historyOf(seed.Transactions)

	return l, nil
}

// clone copies every map. Histories are shared because they are immutable.
func (l *ledger) clone() *ledger {
	out := &ledger{
		vaultOrder:   append([]string(nil), l.vaultOrder...),
		vaults:       make(map[string]types.Vault, len(l.vaults)),
		wallets:      make(map[string]types.Wallet, len(l.wallets)),
		positions:    make(map[types.PositionKey]types.Position, len(l.positions)),
		active:       make(map[types.PositionKey]types.PendingWithdrawal, len(l.active)),
		activeID:     make(map[string]types.PositionKey, len(l.activeID)),
		claimed:      l.claimed,
		transactions: l.transactions,
	}
	for id, v := range l.vaults {
		out.vaults[id] = v.Clone()
	}
	for addr, w := range l.wallets {
		out.wallets[addr] = w
	}
	for k, p := range l.positions {
		out.positions[k] = p
	}
	for k, w := range l.active {
		out.active[k] = w
	}
	for id, k := range l.activeID {
		out.activeID[id] = k
	}
	return out
}
