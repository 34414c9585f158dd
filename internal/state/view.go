package state

import (
	"fmt"

	"github.com/elys-network/vaultengine/internal/types"
)

// View is read access to one consistent ledger state. Everything it returns is a copy.
type View struct {
	l *ledger
}

// Vault returns the vault with id or ErrVaultNotFound.
func (v View) Vault(id string) (types.Vault, error) {
	vault, ok := v.l.vaults[id]
	if !ok {
		return types.Vault{}, fmt.Errorf("%w: %s", types.ErrVaultNotFound, id)
	}
	return vault.Clone(), nil
}

// Vaults returns every vault in catalog order.
func (v View) Vaults() []types.Vault {
	out := make([]types.Vault, 0, len(v.l.vaultOrder))
	for _, id := range v.l.vaultOrder {
		out = append(out, v.l.vaults[id].Clone())
	}
	return out
}

func (v View) Wallet(address string) (types.Wallet, bool) {
	w, ok := v.l.wallets[address]
	return w, ok
}

func (v View) Position(key types.PositionKey) (types.Position, bool) {
	p, ok := v.l.positions[key]
	return p, ok
}

// Positions returns the owner's positions in catalog order.
func (v View) Positions(owner string) []types.Position {
	var out []types.Position
	for _, id := range v.l.vaultOrder {
		if p, ok := v.l.positions[types.PositionKey{Owner: owner, VaultID: id}]; ok {
			out = append(out, p)
		}
	}
	return out
}

// AllPositions returns every position of every owner, grouped by vault in catalog order.
func (v View) AllPositions() []types.Position {
	byVault := make(map[string][]types.Position, len(v.l.vaultOrder))
	for _, p := range v.l.positions {
		byVault[p.VaultID] = append(byVault[p.VaultID], p)
	}
	var out []types.Position
	for _, id := range v.l.vaultOrder {
		out = append(out, byVault[id]...)
	}
	return out
}

// ActiveWithdrawal returns the unclaimed request of a (vault, user) pair.
func (v View) ActiveWithdrawal(key types.PositionKey) (types.PendingWithdrawal, bool) {
	w, ok := v.l.active[key]
	return w, ok
}

// ActiveWithdrawals returns the owner's unclaimed requests in catalog order.
func (v View) ActiveWithdrawals(owner string) []types.PendingWithdrawal {
	var out []types.PendingWithdrawal
	for _, id := range v.l.vaultOrder {
		if w, ok := v.l.active[types.PositionKey{Owner: owner, VaultID: id}]; ok {
			out = append(out, w)
		}
	}
	return out
}

// Withdrawal finds a request by id, active or claimed.
func (v View) Withdrawal(id string) (types.PendingWithdrawal, bool) {
	if key, ok := v.l.activeID[id]; ok {
		return v.l.active[key], true
	}
	var found types.PendingWithdrawal
	var ok bool
	v.l.claimed.each(func(w types.PendingWithdrawal) bool {
		if w.ID == id {
			found, ok = w, true
			return false
		}
		return true
	})
	return found, ok
}

// ClaimedWithdrawals returns the owner's claimed requests, most recently claimed first.
func (v View) ClaimedWithdrawals(owner string) []types.PendingWithdrawal {
	var out []types.PendingWithdrawal
	v.l.claimed.each(func(w types.PendingWithdrawal) bool {
		if owner == "" || w.Owner == owner {
			out = append(out, w)
		}
		return true
	})
	return out
}

// Transactions returns records newest-first. Empty owner or vaultID means no filter on that field.
func (v View) Transactions(owner, vaultID string) []types.TransactionRecord {
	out := make([]types.TransactionRecord, 0)
	v.l.transactions.each(func(rec types.TransactionRecord) bool {
		if (owner == "" || rec.Owner == owner) && (vaultID == "" || rec.VaultID == vaultID) {
			out = append(out, rec)
		}
		return true
	})
	return out
}

// TransactionCount is the length of the audit trail.
func (v View) TransactionCount() int {
	return v.l.transactions.len()
}

// ActiveWithdrawalCount counts unclaimed requests across all owners.
func (v View) ActiveWithdrawalCount() int {
	return len(v.l.active)
}
