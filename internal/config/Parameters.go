/*

This file contains the default parameters for the vault engine.

*/

package config

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
)

// DefaultEngineParameters returns the baseline parameters used when no environment override is set.
// A fresh value is returned on every call because FeeSchedule is a map.
func DefaultEngineParameters() types.EngineParameters {
	return types.EngineParameters{
		MintRate: sdkmath.LegacyNewDecWithPrec(98, 2), // 0.98 receipt tokens per unit deposited.

		CooldownDuration: 7 * 24 * time.Hour, // Seven days between request and claim.

		WithdrawalFees: types.FeeSchedule{
			types.AssetVaultShare:   sdkmath.LegacyNewDecWithPrec(5, 3), // 0.5% network fee on claims.
			types.AssetReceiptToken: sdkmath.LegacyNewDecWithPrec(2, 2), // 2% conversion fee on direct redemption.
		},

		InitialSettlementBalance: sdkmath.LegacyNewDec(10_000), // Demo wallet funding.

		SimulatedLatency: 1500 * time.Millisecond, // Roughly one block confirmation.

		SettlementSymbol: "USDC",
		ReceiptSymbol:    "yvUSDC",
	}
}
