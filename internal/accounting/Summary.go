package accounting

import (
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
	"github.com/elys-network/vaultengine/internal/utils"
)

// Summarize aggregates a wallet's positions at now.
func Summarize(positions []types.Position, now time.Time) types.PortfolioSummary {
	summary := types.PortfolioSummary{
		TotalPrincipal: sdkmath.LegacyZeroDec(),
		TotalValue:     sdkmath.LegacyZeroDec(),
		TotalProfit:    sdkmath.LegacyZeroDec(),
		ReceiptBalance: sdkmath.LegacyZeroDec(),
		PositionCount:  len(positions),
	}

	for _, p := range positions {
		value := CurrentValue(p, now)
		summary.TotalPrincipal = summary.TotalPrincipal.Add(utils.OrZero(p.Principal))
		summary.TotalValue = summary.TotalValue.Add(value)
		summary.ReceiptBalance = summary.ReceiptBalance.Add(utils.OrZero(p.Shares))
	}
	summary.TotalProfit = summary.TotalValue.Sub(summary.TotalPrincipal)
	summary.WeightedAPR = WeightedAPR(positions)

	return summary
}
