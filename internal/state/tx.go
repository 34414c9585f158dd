package state

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
)

// Tx is a ledger mutation in progress. It works on a private copy of the ledger: nothing it does
// is visible to other readers unless the update function returns nil and persistence succeeds.
type Tx struct {
	View

	vaults      map[string]struct{}
	wallets     map[string]struct{}
	positions   map[types.PositionKey]struct{}
	withdrawals map[string]types.PendingWithdrawal
	appended    []types.TransactionRecord
}

func newTx(l *ledger) *Tx {
	return &Tx{
		View:        View{l: l},
		vaults:      make(map[string]struct{}),
		wallets:     make(map[string]struct{}),
		positions:   make(map[types.PositionKey]struct{}),
		withdrawals: make(map[string]types.PendingWithdrawal),
	}
}

// GetVault returns the vault with id or ErrVaultNotFound.
func (tx *Tx) GetVault(id string) (types.Vault, error) {
	return tx.Vault(id)
}

// AdjustVaultTVL adds delta to the vault's TVL. A result below zero is rejected with
// ErrInsufficientLiquidity.
func (tx *Tx) AdjustVaultTVL(id string, delta sdkmath.LegacyDec) error {
	vault, ok := tx.l.vaults[id]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrVaultNotFound, id)
	}

	next := vault.TotalValueLocked.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: vault %s holds %s, cannot release %s",
			types.ErrInsufficientLiquidity, id, vault.TotalValueLocked, delta.Neg())
	}

	vault.TotalValueLocked = next
	tx.l.vaults[id] = vault
	tx.vaults[id] = struct{}{}
	return nil
}

// EnsureWallet returns the wallet at address, creating it with balance if it does not exist.
func (tx *Tx) EnsureWallet(address string, balance sdkmath.LegacyDec) types.Wallet {
	if w, ok := tx.l.wallets[address]; ok {
		return w
	}
	w := types.Wallet{Address: address, SettlementBalance: balance}
	tx.l.wallets[address] = w
	tx.wallets[address] = struct{}{}
	return w
}

// AdjustWalletBalance adds delta to the wallet's settlement balance. A result below zero is
// rejected with ErrInsufficientBalance.
func (tx *Tx) AdjustWalletBalance(address string, delta sdkmath.LegacyDec) error {
	w, ok := tx.l.wallets[address]
	if !ok {
		return fmt.Errorf("%w: no wallet %s", types.ErrInsufficientBalance, address)
	}

	next := w.SettlementBalance.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: wallet holds %s, needs %s", types.ErrInsufficientBalance, w.SettlementBalance, delta.Neg())
	}

	w.SettlementBalance = next
	tx.l.wallets[address] = w
	tx.wallets[address] = struct{}{}
	return nil
}

// PutPosition creates or replaces a position. The vault must exist.
func (tx *Tx) PutPosition(p types.Position) error {
	if _, ok := tx.l.vaults[p.VaultID]; !ok {
		return fmt.Errorf("%w: %s", types.ErrVaultNotFound, p.VaultID)
	}
	tx.l.positions[p.Key()] = p
	tx.positions[p.Key()] = struct{}{}
	return nil
}

// DeletePosition removes a fully withdrawn position.
func (tx *Tx) DeletePosition(key types.PositionKey) {
	delete(tx.l.positions, key)
	tx.positions[key] = struct{}{}
}

// OpenWithdrawal stores a new active request. A (vault, user) pair holds at most one.
func (tx *Tx) OpenWithdrawal(w types.PendingWithdrawal) error {
	if existing, taken := tx.l.active[w.Key()]; taken {
		return fmt.Errorf("%w: request %s is still open", types.ErrAlreadyPending, existing.ID)
	}
	tx.l.active[w.Key()] = w
	tx.l.activeID[w.ID] = w.Key()
	tx.withdrawals[w.ID] = w
	return nil
}

// CloseWithdrawal moves a claimed request out of its pair's slot and into the claimed history.
func (tx *Tx) CloseWithdrawal(claimed types.PendingWithdrawal) error {
	key, ok := tx.l.activeID[claimed.ID]
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrWithdrawalNotFound, claimed.ID)
	}
	delete(tx.l.active, key)
	delete(tx.l.activeID, claimed.ID)
	tx.l.claimed = tx.l.claimed.prepend(claimed)
	tx.withdrawals[claimed.ID] = claimed
	return nil
}

// AppendTransaction prepends rec to the audit trail. Records are never modified afterwards.
func (tx *Tx) AppendTransaction(rec types.TransactionRecord) {
	tx.l.transactions = tx.l.transactions.prepend(rec)
	tx.appended = append(tx.appended, rec)
}

// changeSet captures the final value of everything the transaction touched.
func (tx *Tx) changeSet() ChangeSet {
	var cs ChangeSet
	for _, id := range tx.l.vaultOrder {
		if _, ok := tx.vaults[id]; ok {
			cs.Vaults = append(cs.Vaults, tx.l.vaults[id].Clone())
		}
	}
	for addr := range tx.wallets {
		cs.Wallets = append(cs.Wallets, tx.l.wallets[addr])
	}
	for key := range tx.positions {
		if p, ok := tx.l.positions[key]; ok {
			cs.Positions = append(cs.Positions, p)
		} else {
			cs.DeletedPositions = append(cs.DeletedPositions, key)
		}
	}
	for _, w := range tx.withdrawals {
		cs.Withdrawals = append(cs.Withdrawals, w)
	}
	cs.Transactions = append(cs.Transactions, tx.appended...)
	return cs
}

// ChangeSet is what a committed Tx changed, in final form.
type ChangeSet struct {
	Vaults           []types.Vault
	Wallets          []types.Wallet
	Positions        []types.Position
	DeletedPositions []types.PositionKey
	Withdrawals      []types.PendingWithdrawal
	Transactions     []types.TransactionRecord // In append order
}

// Empty reports whether nothing was changed.
func (cs ChangeSet) Empty() bool {
	return len(cs.Vaults) == 0 && len(cs.Wallets) == 0 && len(cs.Positions) == 0 &&
		len(cs.DeletedPositions) == 0 && len(cs.Withdrawals) == 0 && len(cs.Transactions) == 0
}
