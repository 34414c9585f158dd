package utils

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloat64ToDec(t *testing.T) {
	testCases := []struct {
		name     string
		value    float64
		expected string
	}{
		{name: "zero", value: 0, expected: "0.000000000000000000"},
		{name: "integer", value: 12, expected: "12.000000000000000000"},
		{name: "no binary noise", value: 8.2, expected: "8.200000000000000000"},
		{name: "negative", value: -0.5, expected: "-0.500000000000000000"},
		{name: "truncated below precision", value: 1e-20, expected: "0.000000000000000000"},
		{name: "smallest unit", value: 1e-18, expected: "0.000000000000000001"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dec, err := Float64ToDec(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, dec.String())
		})
	}

	_, err := Float64ToDec(math.NaN())
	assert.ErrorIs(t, err, ErrNotFinite)
	_, err = Float64ToDec(math.Inf(1))
	assert.ErrorIs(t, err, ErrNotFinite)
	assert.Panics(t, func() { MustFloat64ToDec(math.Inf(-1)) })
}

func TestDecToFloat64(t *testing.T) {
	f, err := DecToFloat64(sdkmath.LegacyMustNewDecFromStr("2450500.25"))
	require.NoError(t, err)
	assert.Equal(t, 2450500.25, f)

	_, err = DecToFloat64(sdkmath.LegacyDec{})
	assert.ErrorIs(t, err, ErrAmountNil)
}

func TestParseAmount(t *testing.T) {
	dec, err := ParseAmount("12.75")
	require.NoError(t, err)
	assert.Equal(t, "12.750000000000000000", dec.String())

	_, err = ParseAmount("")
	assert.ErrorIs(t, err, ErrAmountNil)
	_, err = ParseAmount("twelve")
	assert.ErrorIs(t, err, ErrConversionFailed)

	assert.True(t, OrZero(sdkmath.LegacyDec{}).IsZero())
}
