package state

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/vaultengine/internal/types"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) sdkmath.LegacyDec {
	return sdkmath.LegacyMustNewDecFromStr(s)
}

func testSeed() Seed {
	return Seed{
		Vaults: []types.Vault{
			{ID: "deep-sui", Name: "Deep SUI Vault", TotalValueLocked: dec("1000"), AnnualPercentageRate: 12.4,
				RiskLevel: types.RiskMedium, LockupPeriods: []types.LockupPeriod{{Days: 0}, {Days: 60, APRBoost: 3}}},
			{ID: "stable-usdc", Name: "Stable USDC Vault", TotalValueLocked: dec("5000"), AnnualPercentageRate: 6.2,
				RiskLevel: types.RiskLow, LockupPeriods: []types.LockupPeriod{{Days: 0}}},
		},
		Wallets: []types.Wallet{{Address: "alice", SettlementBalance: dec("100")}},
	}
}

type recordingPersister struct {
	commits []ChangeSet
	err     error
}

func (p *recordingPersister) Commit(_ context.Context, cs ChangeSet) error {
	if p.err != nil {
		return p.err
	}
	p.commits = append(p.commits, cs)
	return nil
}

func tvl(t *testing.T, s *Store, id string) string {
	t.Helper()
	var out string
	require.NoError(t, s.View(func(v View) error {
		vault, err := v.Vault(id)
		out = vault.TotalValueLocked.String()
		return err
	}))
	return out
}

func TestNewStoreRejectsBadSeed(t *testing.T) {
	seed := testSeed()
	seed.Vaults = append(seed.Vaults, seed.Vaults[0])
	_, err := NewStore(seed)
	assert.Error(t, err)

	seed = testSeed()
	seed.Positions = []types.Position{{Owner: "alice", VaultID: "missing"}}
	_, err = NewStore(seed)
	assert.ErrorIs(t, err, types.ErrVaultNotFound)
}

func TestVaultsKeepCatalogOrder(t *testing.T) {
	s, err := NewStore(testSeed())
	require.NoError(t, err)

	require.NoError(t, s.View(func(v View) error {
		vaults := v.Vaults()
		require.Len(t, vaults, 2)
		assert.Equal(t, "deep-sui", vaults[0].ID)
		assert.Equal(t, "stable-usdc", vaults[1].ID)

		_, err := v.Vault("nope")
		assert.ErrorIs(t, err, types.ErrVaultNotFound)
		return nil
	}))
}

func TestAdjustVaultTVL(t *testing.T) {
	s, err := NewStore(testSeed())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		return tx.AdjustVaultTVL("deep-sui", dec("250"))
	}))
	assert.Equal(t, "1250.000000000000000000", tvl(t, s, "deep-sui"))

	err = s.Update(ctx, func(tx *Tx) error {
		return tx.AdjustVaultTVL("deep-sui", dec("-1250.000000000000000001"))
	})
	assert.ErrorIs(t, err, types.ErrInsufficientLiquidity)
	assert.Equal(t, "1250.000000000000000000", tvl(t, s, "deep-sui"))

	err = s.Update(ctx, func(tx *Tx) error {
		return tx.AdjustVaultTVL("unknown", dec("1"))
	})
	assert.ErrorIs(t, err, types.ErrVaultNotFound)

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		return tx.AdjustVaultTVL("deep-sui", dec("-1250"))
	}))
	assert.Equal(t, "0.000000000000000000", tvl(t, s, "deep-sui"))
}

func TestFailedUpdateLeavesLedgerUnchanged(t *testing.T) {
	s, err := NewStore(testSeed())
	require.NoError(t, err)
	boom := errors.New("boom")

	err = s.Update(context.Background(), func(tx *Tx) error {
		require.NoError(t, tx.AdjustVaultTVL("deep-sui", dec("10")))
		require.NoError(t, tx.AdjustWalletBalance("alice", dec("-10")))
		require.NoError(t, tx.PutPosition(types.Position{Owner: "alice", VaultID: "deep-sui", Principal: dec("10"), Shares: dec("9.8")}))
		tx.AppendTransaction(types.TransactionRecord{ID: "tx-1", Type: types.TxDeposit, Owner: "alice"})
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.View(func(v View) error {
		vault, _ := v.Vault("deep-sui")
		assert.Equal(t, "1000.000000000000000000", vault.TotalValueLocked.String())
		wallet, ok := v.Wallet("alice")
		require.True(t, ok)
		assert.Equal(t, "100.000000000000000000", wallet.SettlementBalance.String())
		assert.Empty(t, v.Positions("alice"))
		assert.Equal(t, 0, v.TransactionCount())
		return nil
	}))
}

func TestPersisterFailureDiscardsUpdate(t *testing.T) {
	persister := &recordingPersister{err: errors.New("connection reset")}
	s, err := NewStore(testSeed(), WithPersister(persister))
	require.NoError(t, err)

	err = s.Update(context.Background(), func(tx *Tx) error {
		return tx.AdjustVaultTVL("deep-sui", dec("1"))
	})
	assert.Error(t, err)
	assert.Equal(t, "1000.000000000000000000", tvl(t, s, "deep-sui"))

	persister.err = nil
	require.NoError(t, s.Update(context.Background(), func(tx *Tx) error {
		tx.EnsureWallet("bob", dec("50"))
		if err := tx.AdjustVaultTVL("stable-usdc", dec("5")); err != nil {
			return err
		}
		tx.AppendTransaction(types.TransactionRecord{ID: "tx-1", Owner: "bob"})
		return nil
	}))
	require.Len(t, persister.commits, 1)
	cs := persister.commits[0]
	require.Len(t, cs.Vaults, 1)
	assert.Equal(t, "stable-usdc", cs.Vaults[0].ID)
	require.Len(t, cs.Wallets, 1)
	assert.Equal(t, "bob", cs.Wallets[0].Address)
	require.Len(t, cs.Transactions, 1)

	// Read-only updates are not persisted.
	require.NoError(t, s.Update(context.Background(), func(tx *Tx) error { return nil }))
	assert.Len(t, persister.commits, 1)
}

func TestTransactionsAreNewestFirst(t *testing.T) {
	seed := testSeed()
	seed.Transactions = []types.TransactionRecord{
		{ID: "seed-1", Owner: "alice", VaultID: "deep-sui"},
		{ID: "seed-2", Owner: "alice", VaultID: "stable-usdc"},
	}
	s, err := NewStore(seed)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("tx-%d", i)
		require.NoError(t, s.Update(context.Background(), func(tx *Tx) error {
			tx.AppendTransaction(types.TransactionRecord{ID: id, Owner: "alice", VaultID: "deep-sui"})
			return nil
		}))
	}

	require.NoError(t, s.View(func(v View) error {
		var ids []string
		for _, rec := range v.Transactions("", "") {
			ids = append(ids, rec.ID)
		}
		assert.Equal(t, []string{"tx-3", "tx-2", "tx-1", "seed-2", "seed-1"}, ids)

		ids = nil
		for _, rec := range v.Transactions("alice", "deep-sui") {
			ids = append(ids, rec.ID)
		}
		assert.Equal(t, []string{"tx-3", "tx-2", "tx-1", "seed-1"}, ids)
		assert.Empty(t, v.Transactions("bob", ""))
		assert.Equal(t, 5, v.TransactionCount())
		return nil
	}))
}

func TestWithdrawalSlot(t *testing.T) {
	s, err := NewStore(testSeed())
	require.NoError(t, err)
	ctx := context.Background()

	w := types.PendingWithdrawal{
		ID: "w-1", Owner: "alice", VaultID: "deep-sui", Amount: dec("10"),
		RequestedAt: epoch, UnlockTime: epoch.Add(time.Hour), Status: types.WithdrawalCoolingDown,
	}
	require.NoError(t, s.Update(ctx, func(tx *Tx) error { return tx.OpenWithdrawal(w) }))

	second := w
	second.ID = "w-2"
	err = s.Update(ctx, func(tx *Tx) error { return tx.OpenWithdrawal(second) })
	assert.ErrorIs(t, err, types.ErrAlreadyPending)

	claimed := w
	claimed.Status = types.WithdrawalClaimed
	require.NoError(t, s.Update(ctx, func(tx *Tx) error { return tx.CloseWithdrawal(claimed) }))

	err = s.Update(ctx, func(tx *Tx) error { return tx.CloseWithdrawal(claimed) })
	assert.ErrorIs(t, err, types.ErrWithdrawalNotFound)

	require.NoError(t, s.View(func(v View) error {
		_, active := v.ActiveWithdrawal(w.Key())
		assert.False(t, active)
		found, ok := v.Withdrawal("w-1")
		require.True(t, ok)
		assert.Equal(t, types.WithdrawalClaimed, found.Status)
		assert.Len(t, v.ClaimedWithdrawals("alice"), 1)
		return nil
	}))

	// The slot is free again.
	require.NoError(t, s.Update(ctx, func(tx *Tx) error { return tx.OpenWithdrawal(second) }))
}

func TestLifecycle(t *testing.T) {
	s, err := NewStore(testSeed())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		return tx.AdjustVaultTVL("deep-sui", dec("500"))
	}))

	s.Dispose()
	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.View(func(View) error { return nil }), types.ErrStoreClosed)
	assert.ErrorIs(t, s.Update(ctx, func(*Tx) error { return nil }), types.ErrStoreClosed)

	require.NoError(t, s.Reset(ctx))
	assert.False(t, s.Closed())
	assert.Equal(t, "1000.000000000000000000", tvl(t, s, "deep-sui"))
}

type resettablePersister struct {
	recordingPersister
	replaced []Seed
}

func (p *resettablePersister) Replace(_ context.Context, seed Seed) error {
	if p.err != nil {
		return p.err
	}
	p.replaced = append(p.replaced, seed)
	return nil
}

func TestResetWithPersister(t *testing.T) {
	ctx := context.Background()
	grow := func(tx *Tx) error { return tx.AdjustVaultTVL("deep-sui", dec("500")) }

	t.Run("persister without reset support", func(t *testing.T) {
		s, err := NewStore(testSeed(), WithPersister(&recordingPersister{}))
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, grow))

		assert.ErrorIs(t, s.Reset(ctx), ErrResetUnsupported)
		assert.Equal(t, "1500.000000000000000000", tvl(t, s, "deep-sui"))
	})

	t.Run("durable ledger replaced with the seed", func(t *testing.T) {
		persister := &resettablePersister{}
		s, err := NewStore(testSeed(), WithPersister(persister))
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, grow))

		require.NoError(t, s.Reset(ctx))
		require.Len(t, persister.replaced, 1)
		assert.Equal(t, "1000.000000000000000000", persister.replaced[0].Vaults[0].TotalValueLocked.String())
		assert.Equal(t, "1000.000000000000000000", tvl(t, s, "deep-sui"))
	})

	t.Run("failed replace keeps current state", func(t *testing.T) {
		persister := &resettablePersister{}
		s, err := NewStore(testSeed(), WithPersister(persister))
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, grow))

		persister.err = errors.New("connection reset")
		assert.Error(t, s.Reset(ctx))
		assert.Equal(t, "1500.000000000000000000", tvl(t, s, "deep-sui"))
	})
}

func TestUpdateHonoursCancelledContext(t *testing.T) {
	s, err := NewStore(testSeed())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = s.Update(ctx, func(*Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestViewReturnsCopies(t *testing.T) {
	s, err := NewStore(testSeed())
	require.NoError(t, err)

	require.NoError(t, s.View(func(v View) error {
		vault, _ := v.Vault("deep-sui")
		vault.LockupPeriods[0].APRBoost = 99
		return nil
	}))
	require.NoError(t, s.View(func(v View) error {
		vault, _ := v.Vault("deep-sui")
		assert.Equal(t, 0.0, vault.LockupPeriods[0].APRBoost)
		return nil
	}))
}
