package accounting

import (
	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/utils"
)

// WeightedAPR is Σ(principal / totalPrincipal) × currentApr. It returns 0 when the total
// principal is zero.
func WeightedAPR(positions []types.Position) float64 {
	total := sdkmath.LegacyZeroDec()
	for _, p := range positions {
		total = total.Add(utils.OrZero(p.Principal))
	}
	if !total.IsPositive() {
		return 0
	}

	weighted := sdkmath.LegacyZeroDec()
	for _, p := range positions {
		principal := utils.OrZero(p.Principal)
		if !principal.IsPositive() {
			continue
		}
		weighted = weighted.Add(principal.Mul(utils.MustFloat64ToDec(p.CurrentAPR)))
	}

	result, err := utils.DecToFloat64(weighted.Quo(total))
	if err != nil {
		return 0
	}
	return result
}
