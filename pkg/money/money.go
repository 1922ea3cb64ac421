// Package money converts between customer-facing peso amounts and int64 centavos.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var (
	ErrEmptyAmount    = errors.New("amount is empty")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrTooPrecise     = errors.New("amount has more than two decimal places")
)

// FromDecimal converts a peso amount to centavos, rounding half away from zero.
func FromDecimal(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// ToDecimal converts centavos to a peso amount.
func ToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Format renders centavos as a fixed two-decimal string ("1500.00").
func Format(cents int64) string {
	return ToDecimal(cents).StringFixed(2)
}

// ParseAmount parses a customer-entered amount into centavos. Thousands
// separators and a leading peso sign are tolerated; fractions finer than a
// centavo are rejected rather than rounded.
func ParseAmount(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "₱")
	cleaned = strings.TrimPrefix(strings.TrimPrefix(cleaned, "PHP"), "php")
	cleaned = strings.ReplaceAll(strings.TrimSpace(cleaned), ",", "")
	if cleaned == "" {
		return 0, ErrEmptyAmount
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if amount.IsNegative() {
		return 0, ErrNegativeAmount
	}
	shifted := amount.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, ErrTooPrecise
	}
	return shifted.IntPart(), nil
}

// Percent returns pct percent of cents, rounded half away from zero.
func Percent(cents int64, pct decimal.Decimal) int64 {
	return decimal.NewFromInt(cents).Mul(pct).Div(hundred).Round(0).IntPart()
}

// ClampNonNegative returns max(0, cents).
func ClampNonNegative(cents int64) int64 {
	if cents < 0 {
		return 0
	}
	return cents
}
