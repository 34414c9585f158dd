package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type TransactionType string

const (
	TxDeposit  TransactionType = "deposit"
	TxWithdraw TransactionType = "withdraw"
)

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
)

// TransactionRecord is an immutable entry of the ledger's audit trail.
type TransactionRecord struct {
	ID        string            `json:"id"`
	Type      TransactionType   `json:"type"`
	Amount    sdkmath.LegacyDec `json:"amount"`
	Fee       sdkmath.LegacyDec `json:"fee"`
	VaultID   string            `json:"vaultId"`
	VaultName string            `json:"vaultName"`
	Owner     string            `json:"owner"`
	TxHash    string            `json:"txHash,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Status    TransactionStatus `json:"status"`
}
