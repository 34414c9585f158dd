/*
This file contains common utility functions for converting between float64 rates and the
fixed-point decimals used for every ledger amount.
*/

package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// decimalPlaces is the precision of sdkmath.LegacyDec.
const decimalPlaces = 18

var (
	ErrAmountNil        = errors.New("amount is nil")
	ErrNotFinite        = errors.New("value is not finite")
	ErrConversionFailed = errors.New("conversion failed")
)

// Float64ToDec converts a float64 to a LegacyDec through its shortest decimal form, so 8.2 becomes
// exactly 8.2 rather than the nearest binary fraction. Digits beyond 18 decimals are truncated.
func Float64ToDec(value float64) (sdkmath.LegacyDec, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return sdkmath.LegacyZeroDec(), fmt.Errorf("%w: value is %f", ErrNotFinite, value)
	}
	if value == 0 {
		return sdkmath.LegacyZeroDec(), nil
	}

	s := strconv.FormatFloat(value, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > decimalPlaces {
		s = s[:dot+1+decimalPlaces]
	}

	dec, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return sdkmath.LegacyZeroDec(), fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	return dec, nil
}

// MustFloat64ToDec is Float64ToDec for values known to be finite, such as compiled-in defaults.
func MustFloat64ToDec(value float64) sdkmath.LegacyDec {
	dec, err := Float64ToDec(value)
	if err != nil {
		panic(err)
	}
	return dec
}

// DecToFloat64 converts a LegacyDec to float64 for rate arithmetic and display.
func DecToFloat64(amount sdkmath.LegacyDec) (float64, error) {
	if amount.IsNil() {
		return 0, ErrAmountNil
	}

	result, err := amount.Float64()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: result is %f", ErrNotFinite, result)
	}
	return result, nil
}

// ParseAmount parses a user-supplied decimal amount such as "500" or "12.75".
func ParseAmount(s string) (sdkmath.LegacyDec, error) {
	if s == "" {
		return sdkmath.LegacyZeroDec(), ErrAmountNil
	}
	dec, err := sdkmath.LegacyNewDecFromStr(s)
	if err != nil {
		return sdkmath.LegacyZeroDec(), fmt.Errorf("%w: %q: %w", ErrConversionFailed, s, err)
	}
	return dec, nil
}

// OrZero replaces a nil decimal with zero.
func OrZero(d sdkmath.LegacyDec) sdkmath.LegacyDec {
	if d.IsNil() {
		return sdkmath.LegacyZeroDec()
	}
	return d
}
