/*

This file contains the vault catalog types: the yield-bearing pools a wallet can deposit into.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// RiskLevel is the advertised risk tier of a vault.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// LockupPeriod is a selectable lockup and the APR boost (percentage points) it grants.
type LockupPeriod struct {
	Days     int     `json:"days"`
	APRBoost float64 `json:"aprBoost"`
}

type Vault struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	TotalValueLocked     sdkmath.LegacyDec `json:"totalValueLocked"`
	AnnualPercentageRate float64           `json:"annualPercentageRate"` // Base APR in percent, e.g. 12.4
	RiskLevel            RiskLevel         `json:"riskLevel"`
	LockupPeriods        []LockupPeriod    `json:"lockupPeriods"` // Ordered by Days ascending
}

// Lockup returns the lockup period with the given number of days.
func (v Vault) Lockup(days int) (LockupPeriod, bool) {
	for _, lp := range v.LockupPeriods {
		if lp.Days == days {
			return lp, true
		}
	}
	return LockupPeriod{}, false
}

// Clone returns a copy that shares no mutable memory with v.
func (v Vault) Clone() Vault {
	out := v
	out.LockupPeriods = append([]LockupPeriod(nil), v.LockupPeriods...)
	return out
}
