package accounting

import (
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

func testVault() types.Vault {
	return types.Vault{
		ID:                   "deep-sui",
		Name:                 "Deep SUI Vault",
		TotalValueLocked:     dec("1000000"),
		AnnualPercentageRate: 10,
		RiskLevel:            types.RiskMedium,
		LockupPeriods: []types.LockupPeriod{
			{Days: 0, APRBoost: 0},
			{Days: 60, APRBoost: 2.5},
		},
	}
}

func TestEffectiveAPR(t *testing.T) {
	apr, err := EffectiveAPR(testVault(), 60)
	require.NoError(t, err)
	assert.Equal(t, 12.5, apr)

	apr, err = EffectiveAPR(testVault(), 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, apr)

	_, err = EffectiveAPR(testVault(), 45)
	assert.ErrorIs(t, err, types.ErrInvalidLockupPeriod)
}

func TestCurrentValueAccruesLinearly(t *testing.T) {
	position := types.Position{
		Principal:        dec("1000"),
		CurrentAPR:       10,
		DepositTimestamp: epoch,
	}

	testCases := []struct {
		name     string
		now      time.Time
		expected string
	}{
		{name: "at deposit", now: epoch, expected: "1000.000000000000000000"},
		{name: "before deposit", now: epoch.Add(-time.Hour), expected: "1000.000000000000000000"},
		{name: "one year", now: epoch.Add(365 * 24 * time.Hour), expected: "1100.000000000000000000"},
		{name: "half year", now: epoch.Add(365 * 12 * time.Hour), expected: "1050.000000000000000000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CurrentValue(position, tc.now).String())
		})
	}

	profit := Profit(position, epoch.Add(365*24*time.Hour))
	assert.Equal(t, "100.000000000000000000", profit.String())
}

func TestCurrentValueIsDeterministic(t *testing.T) {
	position := types.Position{
		Principal:        dec("1234.56"),
		CarriedYield:     dec("7.1"),
		CurrentAPR:       13.37,
		DepositTimestamp: epoch,
	}
	now := epoch.Add(17*24*time.Hour + 3*time.Minute)

	first := CurrentValue(position, now)
	for i := 0; i < 10; i++ {
		assert.True(t, first.Equal(CurrentValue(position, now)))
	}
}

func TestIsWithdrawable(t *testing.T) {
	position := types.Position{
		DepositTimestamp: epoch,
		LockupPeriodDays: 60,
		UnlockTimestamp:  UnlockTimestamp(epoch, 60),
	}

	assert.Equal(t, epoch.Add(60*24*time.Hour), position.UnlockTimestamp)
	assert.False(t, IsWithdrawable(position, epoch))
	assert.False(t, IsWithdrawable(position, position.UnlockTimestamp.Add(-time.Nanosecond)))
	assert.True(t, IsWithdrawable(position, position.UnlockTimestamp))
	assert.True(t, IsWithdrawable(position, position.UnlockTimestamp.Add(time.Hour)))
}

func TestWeightedAPR(t *testing.T) {
	t.Run("zero total principal", func(t *testing.T) {
		assert.Equal(t, 0.0, WeightedAPR(nil))
		assert.Equal(t, 0.0, WeightedAPR([]types.Position{{Principal: sdkmath.LegacyZeroDec(), CurrentAPR: 50}}))
	})

	t.Run("principal weighted", func(t *testing.T) {
		positions := []types.Position{
			{Principal: dec("300"), CurrentAPR: 10},
			{Principal: dec("100"), CurrentAPR: 30},
		}
		assert.InDelta(t, 15.0, WeightedAPR(positions), 1e-12)
	})

	t.Run("single position", func(t *testing.T) {
		positions := []types.Position{{Principal: dec("500"), CurrentAPR: 15.4}}
		assert.InDelta(t, 15.4, WeightedAPR(positions), 1e-12)
	})
}

func TestSliceForShares(t *testing.T) {
	position := types.Position{
		Principal:    dec("500"),
		Shares:       dec("490"),
		CarriedYield: dec("10"),
	}

	half := SliceForShares(position, dec("245"))
	assert.Equal(t, "250.000000000000000000", half.Principal.String())
	assert.Equal(t, "5.000000000000000000", half.CarriedYield.String())

	rest := Burn(position, half)
	assert.Equal(t, "245.000000000000000000", rest.Shares.String())
	assert.Equal(t, "250.000000000000000000", rest.Principal.String())

	all := SliceForShares(position, dec("490"))
	empty := Burn(position, all)
	assert.True(t, empty.Shares.IsZero())
	assert.True(t, empty.Principal.IsZero())
	assert.True(t, empty.CarriedYield.IsZero())
}

func TestTopUpCarriesYieldAndKeepsLaterUnlock(t *testing.T) {
	position := types.Position{
		Principal:        dec("1000"),
		Shares:           dec("980"),
		CarriedYield:     sdkmath.LegacyZeroDec(),
		CurrentAPR:       10,
		DepositTimestamp: epoch,
		LockupPeriodDays: 60,
		UnlockTimestamp:  UnlockTimestamp(epoch, 60),
	}
	now := epoch.Add(365 * 12 * time.Hour)

	topped := TopUp(position, dec("500"), dec("490"), 12, 0, now)
	assert.Equal(t, "1500.000000000000000000", topped.Principal.String())
	assert.Equal(t, "1470.000000000000000000", topped.Shares.String())
	assert.Equal(t, "50.000000000000000000", topped.CarriedYield.String())
	assert.Equal(t, now, topped.DepositTimestamp)
	assert.Equal(t, position.UnlockTimestamp, topped.UnlockTimestamp)
	assert.Equal(t, 60, topped.LockupPeriodDays)

	// Value is continuous across the top-up.
	assert.Equal(t, CurrentValue(position, now).Add(dec("500")).String(), CurrentValue(topped, now).String())

	extended := TopUp(position, dec("1"), dec("0.98"), 15, 90, now)
	assert.Equal(t, UnlockTimestamp(now, 90), extended.UnlockTimestamp)
	assert.Equal(t, 90, extended.LockupPeriodDays)
}

func TestApplyFee(t *testing.T) {
	fees := types.FeeSchedule{
		types.AssetVaultShare:   dec("0.005"),
		types.AssetReceiptToken: dec("0.02"),
	}

	claim := ApplyFee(dec("200"), fees, types.AssetVaultShare)
	assert.Equal(t, "1.000000000000000000", claim.Fee.String())
	assert.Equal(t, "199.000000000000000000", claim.Net.String())

	redeem := ApplyFee(dec("100"), fees, types.AssetReceiptToken)
	assert.Equal(t, "2.000000000000000000", redeem.Fee.String())
	assert.Equal(t, "98.000000000000000000", redeem.Net.String())

	unknown := ApplyFee(dec("100"), fees, types.AssetClass("other"))
	assert.True(t, unknown.Fee.IsZero())
}

func TestEvaluateAndSummarize(t *testing.T) {
	now := epoch.Add(365 * 24 * time.Hour)
	positions := []types.Position{
		{Principal: dec("1000"), Shares: dec("980"), CurrentAPR: 10, DepositTimestamp: epoch, UnlockTimestamp: epoch},
		{Principal: dec("1000"), Shares: dec("980"), CurrentAPR: 20, DepositTimestamp: epoch, UnlockTimestamp: now.Add(time.Hour)},
	}

	evaluated := Evaluate(positions[1], now, dec("100"))
	assert.Equal(t, "1200.000000000000000000", evaluated.CurrentValue.String())
	assert.Equal(t, "200.000000000000000000", evaluated.Profit.String())
	assert.False(t, evaluated.IsWithdrawable)
	assert.Equal(t, "880.000000000000000000", evaluated.RedeemableShares.String())

	summary := Summarize(positions, now)
	assert.Equal(t, 2, summary.PositionCount)
	assert.Equal(t, "2000.000000000000000000", summary.TotalPrincipal.String())
	assert.Equal(t, "2300.000000000000000000", summary.TotalValue.String())
	assert.Equal(t, "300.000000000000000000", summary.TotalProfit.String())
	assert.Equal(t, "1960.000000000000000000", summary.ReceiptBalance.String())
	assert.InDelta(t, 15.0, summary.WeightedAPR, 1e-12)
}
