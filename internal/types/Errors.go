package types

import "errors"

// Error taxonomy of the vault engine. Every error is recoverable: the failing operation leaves the
// ledger unchanged and the caller may retry.
var (
	ErrVaultNotFound         = errors.New("vault not found")
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientLiquidity = errors.New("insufficient vault liquidity")
	ErrAlreadyPending        = errors.New("a withdrawal is already pending for this vault")
	ErrNotReady              = errors.New("withdrawal is still cooling down")
	ErrInvalidLockupPeriod   = errors.New("lockup period not offered by vault")
	ErrWithdrawalNotFound    = errors.New("withdrawal not found")
	ErrStoreClosed           = errors.New("ledger store is closed")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrVaultNotFound, "VAULT_NOT_FOUND"},
	{ErrInvalidAmount, "INVALID_AMOUNT"},
	{ErrInsufficientBalance, "INSUFFICIENT_BALANCE"},
	{ErrInsufficientLiquidity, "INSUFFICIENT_LIQUIDITY"},
	{ErrAlreadyPending, "ALREADY_PENDING"},
	{ErrNotReady, "NOT_READY"},
	{ErrInvalidLockupPeriod, "INVALID_LOCKUP_PERIOD"},
	{ErrWithdrawalNotFound, "WITHDRAWAL_NOT_FOUND"},
	{ErrStoreClosed, "STORE_CLOSED"},
}

// ErrorCode maps err to a stable code. nil maps to "OK", anything outside the taxonomy to "INTERNAL".
func ErrorCode(err error) string {
	if err == nil {
		return "OK"
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "INTERNAL"
}
