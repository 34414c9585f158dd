/*

This file contains the vault catalog seeded into the ledger at start-up.

Vaults are never deleted during a session; only their TVL moves. Lockup periods must stay ordered by days.

*/

package config

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
)

// DefaultVaults returns a fresh copy of the vault catalog.
func DefaultVaults() []types.Vault {
	return []types.Vault{
		{
			ID:                   "deep-sui",
			Name:                 "Deep SUI Vault",
			TotalValueLocked:     sdkmath.LegacyNewDec(2_450_000),
			AnnualPercentageRate: 12.4,
			RiskLevel:            types.RiskMedium,
			LockupPeriods:        standardLockups(1.5, 3.0, 5.0),
		},
		{
			ID:                   "stable-usdc",
			Name:                 "Stable USDC Vault",
			TotalValueLocked:     sdkmath.LegacyNewDec(8_120_000),
			AnnualPercentageRate: 6.2,
			RiskLevel:            types.RiskLow,
			LockupPeriods:        standardLockups(0.5, 1.0, 2.0),
		},
		{
			ID:                   "turbo-eth",
			Name:                 "Turbo ETH Vault",
			TotalValueLocked:     sdkmath.LegacyNewDec(960_000),
			AnnualPercentageRate: 24.8,
			RiskLevel:            types.RiskHigh,
			LockupPeriods:        standardLockups(2.5, 5.0, 8.0),
		},
	}
}

func standardLockups(boost30, boost60, boost90 float64) []types.LockupPeriod {
	return []types.LockupPeriod{
		{Days: 0, APRBoost: 0},
		{Days: 30, APRBoost: boost30},
		{Days: 60, APRBoost: boost60},
		{Days: 90, APRBoost: boost90},
	}
}
