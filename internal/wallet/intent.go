package wallet

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for wallet submission
var (
	ErrInvalidIntent = errors.New("intent contains invalid data")
	ErrRejected      = errors.New("wallet rejected the transaction")
	ErrSubmitFailed  = errors.New("transaction submission failed")
)

// IntentKind is the user action a transaction carries.
type IntentKind string

const (
	IntentDeposit  IntentKind = "deposit"
	IntentWithdraw IntentKind = "request_withdrawal"
	IntentClaim    IntentKind = "claim"
	IntentRedeem   IntentKind = "redeem"
)

// Intent is what the engine asks the wallet to sign and broadcast. VaultID is empty for redemptions.
type Intent struct {
	Kind    IntentKind
	Owner   string
	VaultID string
	Amount  sdkmath.LegacyDec
}

func validateIntent(intent Intent) error {
	switch intent.Kind {
	case IntentDeposit, IntentWithdraw, IntentClaim:
		if intent.VaultID == "" {
			return fmt.Errorf("%s intent: vault ID cannot be empty", intent.Kind)
		}
	case IntentRedeem:
		// Redemptions span every vault
	case "":
		return errors.New("intent kind cannot be empty")
	default:
		return fmt.Errorf("unknown intent kind: %s", intent.Kind)
	}

	if intent.Owner == "" {
		return fmt.Errorf("%s intent: owner cannot be empty", intent.Kind)
	}
	if intent.Amount.IsNil() {
		return fmt.Errorf("%s intent: amount is nil", intent.Kind)
	}
	if !intent.Amount.IsPositive() {
		return fmt.Errorf("%s intent: amount must be positive", intent.Kind)
	}
	return nil
}
