package vault

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/vaultengine/internal/types"
)

// Manager is the call surface presentation layers use to drive a wallet's vault positions.
// Every operation may suspend on the wallet collaborator, so all of them take a context.
// Reads are served through the cache and return snapshots the caller may keep.
type Manager interface {
	// ListVaults returns the vault catalog in its configured order.
	ListVaults(ctx context.Context) ([]types.Vault, error)

	// GetVault returns one vault or ErrVaultNotFound.
	GetVault(ctx context.Context, id string) (types.Vault, error)

	// ListPositions returns the wallet's positions with value, profit and withdrawability at now.
	ListPositions(ctx context.Context) ([]types.Position, error)

	// ListTransactions returns the wallet's records newest-first, optionally for one vault.
	ListTransactions(ctx context.Context, vaultID string) ([]types.TransactionRecord, error)

	// GetPendingWithdrawal returns the unclaimed request on a vault, or nil when there is none.
	GetPendingWithdrawal(ctx context.Context, vaultID string) (*types.PendingWithdrawal, error)

	// GetBalances returns settlement and receipt-token balances.
	GetBalances(ctx context.Context) (types.Balances, error)

	// Portfolio aggregates the wallet's positions.
	Portfolio(ctx context.Context) (types.PortfolioSummary, error)

	// Deposit moves amount from the wallet into vaultID with the given lockup.
	Deposit(ctx context.Context, vaultID string, amount sdkmath.LegacyDec, lockupDays int) (types.TransactionRecord, error)

	// RequestWithdrawal starts the cooldown for amount receipt tokens of vaultID.
	RequestWithdrawal(ctx context.Context, vaultID string, amount sdkmath.LegacyDec) (types.PendingWithdrawal, error)

	// Claim settles a request whose cooldown has elapsed.
	Claim(ctx context.Context, withdrawalID string) (types.TransactionRecord, error)

	// RedeemReceiptTokens burns receipt tokens directly, without a cooldown.
	RedeemReceiptTokens(ctx context.Context, amount sdkmath.LegacyDec) (types.TransactionRecord, error)

	// WatchWithdrawal calls onReady once the request's cooldown ends.
	WatchWithdrawal(ctx context.Context, withdrawalID string, onReady func(types.PendingWithdrawal)) error

	// Reset restores the seeded ledger and clears the cache.
	Reset(ctx context.Context) error

	// ClearCache forces the next read of every view to go to the ledger.
	ClearCache()
}

var _ Manager = (*Service)(nil)
