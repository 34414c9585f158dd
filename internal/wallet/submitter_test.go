package wallet

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/vaultengine/internal/clock"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func depositIntent() Intent {
	return Intent{Kind: IntentDeposit, Owner: "alice", VaultID: "deep-sui", Amount: sdkmath.LegacyNewDec(500)}
}

func TestSimulatedWaitsForLatency(t *testing.T) {
	clk := clock.NewManual(epoch)
	sim := NewSimulated(clk, 1500*time.Millisecond)

	done := make(chan Receipt, 1)
	go func() {
		receipt, err := sim.Submit(context.Background(), depositIntent())
		assert.NoError(t, err)
		done <- receipt
	}()

	require.Eventually(t, func() bool { return clk.Waiters() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("submit returned before latency elapsed")
	default:
	}

	clk.Advance(1500 * time.Millisecond)
	select {
	case receipt := <-done:
		assert.Len(t, receipt.TxHash, 34)
		assert.Equal(t, "0x", receipt.TxHash[:2])
		assert.Equal(t, epoch.Add(1500*time.Millisecond), receipt.SubmittedAt)
	case <-time.After(time.Second):
		t.Fatal("submit did not return after latency elapsed")
	}
}

func TestSimulatedHonoursCancellation(t *testing.T) {
	clk := clock.NewManual(epoch)
	sim := NewSimulated(clk, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sim.Submit(ctx, depositIntent())
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedZeroLatencyReturnsImmediately(t *testing.T) {
	sim := NewSimulated(clock.NewManual(epoch), 0)
	a, err := sim.Submit(context.Background(), depositIntent())
	require.NoError(t, err)
	b, err := sim.Submit(context.Background(), depositIntent())
	require.NoError(t, err)
	assert.NotEqual(t, a.TxHash, b.TxHash)
}

func TestValidateIntent(t *testing.T) {
	testCases := []struct {
		name   string
		intent Intent
		valid  bool
	}{
		{name: "deposit", intent: depositIntent(), valid: true},
		{name: "redeem without vault", intent: Intent{Kind: IntentRedeem, Owner: "alice", Amount: sdkmath.LegacyNewDec(1)}, valid: true},
		{name: "claim without vault", intent: Intent{Kind: IntentClaim, Owner: "alice", Amount: sdkmath.LegacyNewDec(1)}},
		{name: "empty kind", intent: Intent{Owner: "alice", VaultID: "v", Amount: sdkmath.LegacyNewDec(1)}},
		{name: "unknown kind", intent: Intent{Kind: "swap", Owner: "alice", VaultID: "v", Amount: sdkmath.LegacyNewDec(1)}},
		{name: "no owner", intent: Intent{Kind: IntentDeposit, VaultID: "v", Amount: sdkmath.LegacyNewDec(1)}},
		{name: "nil amount", intent: Intent{Kind: IntentDeposit, Owner: "alice", VaultID: "v"}},
		{name: "zero amount", intent: Intent{Kind: IntentDeposit, Owner: "alice", VaultID: "v", Amount: sdkmath.LegacyZeroDec()}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateIntent(tc.intent)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	_, err := NewSimulated(clock.NewManual(epoch), 0).Submit(context.Background(), Intent{})
	assert.ErrorIs(t, err, ErrInvalidIntent)
}
