// Package core provides money parsing and handling utilities.
//
// Amounts live as integer centavos everywhere behind the API boundary. The
// only conversion from reais text happens in NormalizeAmount, and the only
// conversion back happens in FormatAmount and FormatCurrency.
package core

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxAmountCents caps a single amount at R$ 100.000.000,00 so that sums over
// any realistic number of records stay far inside int64.
const MaxAmountCents int64 = 100_000_000_00

// Money is an amount in centavos.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidAmount)
	}
	if m.Cents > MaxAmountCents {
		return fmt.Errorf("%w: amount exceeds %s", ErrInvalidAmount, FormatAmount(MaxAmountCents))
	}
	return nil
}

// Reais returns the canonical decimal text, e.g. "150.00".
func (m Money) Reais() string { return FormatAmount(m.Cents) }

// Display returns the pt-BR currency text, e.g. "R$ 1.500,00".
func (m Money) Display() string { return FormatCurrency(m.Cents) }

// NormalizeAmount converts a reais amount to centavos.
//
// It accepts a dot (150.50) or comma (150,50) separator with at most two
// fractional digits, up to MaxAmountCents. Signs, exponents, grouping
// separators and anything other than digits are rejected. Every input goes
// through the same steps regardless of its size.
//
// Examples:
//
//	NormalizeAmount("150")    -> 15000, nil
//	NormalizeAmount("150,5")  -> 15050, nil
//	NormalizeAmount("5.123")  -> 0, ErrInvalidAmount
//	NormalizeAmount("-5.00")  -> 0, ErrInvalidAmount
func NormalizeAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	intPart, fracPart, hasSep := s, "", false
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		intPart, fracPart, hasSep = s[:i], s[i+1:], true
	}
	if intPart == "" || (hasSep && fracPart == "") {
		return 0, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return 0, fmt.Errorf("%w: %q is not a non-negative decimal number", ErrInvalidAmount, s)
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("%w: %q has more than 2 decimal places", ErrInvalidAmount, s)
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv > MaxAmountCents/100 {
		return 0, fmt.Errorf("%w: %q exceeds %s", ErrInvalidAmount, s, FormatAmount(MaxAmountCents))
	}
	// Pad to two digits so "150.5" means 50 centavos.
	fracCents := int64(0)
	if fracPart != "" {
		fv, _ := strconv.ParseInt((fracPart + "0")[:2], 10, 64)
		fracCents = fv
	}
	cents := iv*100 + fracCents
	if cents > MaxAmountCents {
		return 0, fmt.Errorf("%w: %q exceeds %s", ErrInvalidAmount, s, FormatAmount(MaxAmountCents))
	}
	return cents, nil
}

// ParseMoney is NormalizeAmount returning a Money.
func ParseMoney(s string) (Money, error) {
	cents, err := NormalizeAmount(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// FormatAmount renders centavos as reais with exactly two decimals and a
// dot separator. NormalizeAmount(FormatAmount(c)) == c for every c in
// [0, MaxAmountCents].
func FormatAmount(cents int64) string {
	sign, whole, frac := splitCents(cents)
	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}

// FormatCurrency renders centavos the way the provider reads them:
// "R$ 1.500,00".
func FormatCurrency(cents int64) string {
	sign, whole, frac := splitCents(cents)
	p := message.NewPrinter(language.BrazilianPortuguese)
	return fmt.Sprintf("%sR$ %s,%02d", sign, p.Sprintf("%d", whole), frac)
}

func splitCents(cents int64) (sign string, whole uint64, frac uint64) {
	u := uint64(cents)
	if cents < 0 {
		sign = "-"
		u = uint64(-(cents + 1)) + 1
	}
	return sign, u / 100, u % 100
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
