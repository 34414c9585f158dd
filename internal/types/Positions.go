/*

This file contains the types for a wallet's stake in a vault and for the wallet itself.

Stored fields are owned by the ledger. CurrentValue, Profit, IsWithdrawable and RedeemableShares are derived
on every read from the clock and are never persisted.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type Position struct {
	Owner            string            `json:"owner"`
	VaultID          string            `json:"vaultId"`
	Principal        sdkmath.LegacyDec `json:"principal"`
	Shares           sdkmath.LegacyDec `json:"shares"`       // Receipt-token units
	CarriedYield     sdkmath.LegacyDec `json:"carriedYield"` // Yield crystallised by earlier top-ups
	CurrentAPR       float64           `json:"currentApr"`   // Base APR plus lockup boost, in percent
	DepositTimestamp time.Time         `json:"depositTimestamp"`
	LockupPeriodDays int               `json:"lockupPeriodDays"`
	UnlockTimestamp  time.Time         `json:"unlockTimestamp"`

	// Derived on read
	CurrentValue     sdkmath.LegacyDec `json:"currentValue"`
	Profit           sdkmath.LegacyDec `json:"profit"`
	IsWithdrawable   bool              `json:"isWithdrawable"`
	RedeemableShares sdkmath.LegacyDec `json:"redeemableShares"`
}

// PositionKey identifies the (vault, user) pair a position and its withdrawal slot belong to.
type PositionKey struct {
	Owner   string
	VaultID string
}

func (p Position) Key() PositionKey {
	return PositionKey{Owner: p.Owner, VaultID: p.VaultID}
}

func (k PositionKey) String() string {
	return k.Owner + "/" + k.VaultID
}

// Wallet is the simulated wallet of a connected user. Receipt-token holdings live on positions.
type Wallet struct {
	Address           string            `json:"address"`
	SettlementBalance sdkmath.LegacyDec `json:"settlementBalance"`
}

// Balances is the read model of a wallet's holdings.
type Balances struct {
	Address            string            `json:"address"`
	SettlementSymbol   string            `json:"settlementSymbol"`
	SettlementBalance  sdkmath.LegacyDec `json:"settlementBalance"`
	ReceiptSymbol      string            `json:"receiptSymbol"`
	ReceiptBalance     sdkmath.LegacyDec `json:"receiptBalance"`
	RedeemableReceipts sdkmath.LegacyDec `json:"redeemableReceipts"`
}

// PortfolioSummary aggregates a wallet's positions.
type PortfolioSummary struct {
	TotalPrincipal sdkmath.LegacyDec `json:"totalPrincipal"`
	TotalValue     sdkmath.LegacyDec `json:"totalValue"`
	TotalProfit    sdkmath.LegacyDec `json:"totalProfit"`
	WeightedAPR    float64           `json:"weightedApr"`
	ReceiptBalance sdkmath.LegacyDec `json:"receiptBalance"`
	PositionCount  int               `json:"positionCount"`
}
