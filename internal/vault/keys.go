package vault

import "github.com/elys-network/vaultengine/internal/types"

// Cache keys. Values under them are raw ledger data; anything derived from the clock is computed
// after the read.
const (
	keyVaults             = "vaults"
	keyVaultPrefix        = "vault:"
	keyPositionsPrefix    = "positions:"
	keyTransactionsPrefix = "transactions:"
	keyPendingPrefix      = "pending:"
	keyWalletPrefix       = "wallet:"
)

func vaultKey(id string) string {
	return keyVaultPrefix + id
}

func positionsKey(owner string) string {
	return keyPositionsPrefix + owner
}

// transactionsKey covers one owner's history, optionally filtered to a vault.
func transactionsKey(owner, vaultID string) string {
	return transactionsOwnerPrefix(owner) + vaultID
}

func transactionsOwnerPrefix(owner string) string {
	return keyTransactionsPrefix + owner + ":"
}

func pendingKey(owner, vaultID string) string {
	return keyPendingPrefix + owner + ":" + vaultID
}

func walletKey(owner string) string {
	return keyWalletPrefix + owner
}

func lockKey(owner, vaultID string) string {
	return types.PositionKey{Owner: owner, VaultID: vaultID}.String()
}
