/*

This file contains the tunable parameters of the vault engine.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// AssetClass selects the fee charged when an asset is turned back into the settlement asset.
type AssetClass string

const (
	// AssetVaultShare is a vault position leaving through the cooldown/claim flow.
	AssetVaultShare AssetClass = "vault_share"
	// AssetReceiptToken is the receipt token burned directly through redemption.
	AssetReceiptToken AssetClass = "receipt_token"
)

// FeeSchedule holds the withdrawal fee rate per asset class, as a fraction (0.005 = 0.5%).
type FeeSchedule map[AssetClass]sdkmath.LegacyDec

// Rate returns the fee rate for class, zero if the class has no entry.
func (f FeeSchedule) Rate(class AssetClass) sdkmath.LegacyDec {
	if rate, ok := f[class]; ok && !rate.IsNil() {
		return rate
	}
	return sdkmath.LegacyZeroDec()
}

// EngineParameters holds everything the Transaction Service needs besides its collaborators.
type EngineParameters struct {
	MintRate                 sdkmath.LegacyDec `json:"mintRate"`         // Receipt tokens minted per unit deposited
	CooldownDuration         time.Duration     `json:"cooldownDuration"` // Wait between request and claim
	WithdrawalFees           FeeSchedule       `json:"withdrawalFees"`
	InitialSettlementBalance sdkmath.LegacyDec `json:"initialSettlementBalance"` // Seeded into new wallets
	SimulatedLatency         time.Duration     `json:"simulatedLatency"`         // Delay of the simulated wallet
	SettlementSymbol         string            `json:"settlementSymbol"`
	ReceiptSymbol            string            `json:"receiptSymbol"`
}
