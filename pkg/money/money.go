// Package money provides currency-aware helpers for fixed-point amounts.
// All pipeline amounts are shopspring decimals; this package supplies the
// ISO-4217 fraction metadata (via go-money) used for rounding and for the
// balance-check tolerance of each currency.
package money

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes seen on supported statements.
const (
	KZT = "KZT" // Kazakhstani Tenge
	USD = "USD"
	EUR = "EUR"
	RUB = "RUB"
)

// Fraction returns the number of decimal places for a currency code.
// Unknown codes fall back to two places.
func Fraction(code string) int32 {
	if c := money.GetCurrency(code); c != nil {
		return int32(c.Fraction)
	}
	return 2
}

// Round rounds an amount to the currency's minor unit.
func Round(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(Fraction(code))
}

// Tolerance returns the balance-check tolerance for a currency: one minor
// unit (0.01 for KZT/USD, 1 for zero-decimal currencies).
func Tolerance(code string) decimal.Decimal {
	return decimal.New(1, -Fraction(code))
}

// WithinTolerance reports whether two amounts agree within the currency's
// minor unit.
func WithinTolerance(a, b decimal.Decimal, code string) bool {
	return a.Sub(b).Abs().Cmp(Tolerance(code)) <= 0
}

// IsKnownCurrency reports whether go-money knows the ISO code.
func IsKnownCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}
