package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFraction(t *testing.T) {
	assert.Equal(t, int32(2), Fraction(KZT))
	assert.Equal(t, int32(0), Fraction("JPY"))
	assert.Equal(t, int32(2), Fraction("XXXX"), "unknown code falls back to 2")
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		code string
		want bool
	}{
		{"exact", "1234.56", "1234.56", KZT, true},
		{"one minor unit off", "1234.56", "1234.57", KZT, true},
		{"two minor units off", "1234.56", "1234.58", KZT, false},
		{"zero decimal currency", "1000", "1001", "JPY", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decimal.RequireFromString(tt.a)
			b := decimal.RequireFromString(tt.b)
			assert.Equal(t, tt.want, WithinTolerance(a, b, tt.code))
		})
	}
}

func TestRound(t *testing.T) {
	got := Round(decimal.RequireFromString("10.005"), KZT)
	assert.Equal(t, "10.01", got.StringFixed(2))
}
