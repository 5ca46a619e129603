// Package core provides the ledger's domain types and pure conversions.
//
// This file contains the money codec: amounts are decimals at the edges and
// integer cents in storage, so no binary floating point ever touches a sum.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(1<<63 - 1)
	minCents = decimal.NewFromInt(-1 << 63)
)

// Money is an exact amount in minor units (cents).
type Money struct {
	Cents int64
}

// EncodeCents converts a decimal amount to cents.
//
// The amount is multiplied by 100 and rounded half away from zero, so
// 12.345 becomes 1235 and -12.345 becomes -1235. Amounts that do not fit in
// an int64 are rejected with ErrAmountOutOfRange.
func EncodeCents(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(hundred).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, ErrAmountOutOfRange
	}
	return cents.IntPart(), nil
}

// DecodeCents converts cents back to a decimal amount. It is exact.
func DecodeCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// MoneyFromDecimal encodes amount as Money.
func MoneyFromDecimal(amount decimal.Decimal) (Money, error) {
	cents, err := EncodeCents(amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// Decimal returns the amount as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return DecodeCents(m.Cents)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount parses a user supplied amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents, empty input and zero are rejected. Extra fractional digits are
// kept; rounding happens once, in EncodeCents.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") || (hasDot && intPart == "" && fracPart == "") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, part := range []string{intPart, fracPart} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
