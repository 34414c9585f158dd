package accounting

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
)

// Payout is the settlement side of a burn.
type Payout struct {
	Gross sdkmath.LegacyDec
	Fee   sdkmath.LegacyDec
	Net   sdkmath.LegacyDec
}

// ApplyFee charges the fee of class on amount.
func ApplyFee(amount sdkmath.LegacyDec, fees types.FeeSchedule, class types.AssetClass) Payout {
	fee := amount.Mul(fees.Rate(class))
	return Payout{
		Gross: amount,
		Fee:   fee,
		Net:   amount.Sub(fee),
	}
}
