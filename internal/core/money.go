package core

import (
	"fmt"
	"strconv"
	"strings"
)

// maxUnits keeps units*100 inside int64.
const maxUnits = (1<<63 - 1) / 100

// ParseMoney reads a positive decimal amount typed by a user. Either "." or
// "," separates the fraction; a third fractional digit rounds half up and
// further digits are ignored.
//
//	"12.34" -> 1234
//	"12,3"  -> 1230
//	"0.005" -> 1
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	whole, frac, _ := strings.Cut(s, ".")
	if s == "" || strings.Contains(frac, ".") || !digits(whole) || !digits(frac) {
		return Money{}, ErrInvalidAmount
	}
	if whole == "" {
		whole = "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > maxUnits {
		return Money{}, ErrInvalidAmount
	}

	frac += "000"
	cents := units*100 + int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if frac[2] >= '5' {
		cents++
	}
	if cents <= 0 {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents}, nil
}

// ParseDecimalToCents is ParseMoney returning bare cents.
func ParseDecimalToCents(s string) (int64, error) {
	m, err := ParseMoney(s)
	return m.Cents, err
}

// digits reports whether s holds only ASCII digits. Signs are rejected here.
func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String formats the amount as "12.34", with a leading minus when negative.
func (m Money) String() string {
	sign, cents := "", m.Cents
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Format prefixes the amount with a currency code, e.g. "EUR 12.34".
func (m Money) Format(currency string) string {
	if currency == "" {
		return m.String()
	}
	return currency + " " + m.String()
}

// Add returns the sum of m and o.
func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }

// Neg returns -m.
func (m Money) Neg() Money { return Money{Cents: -m.Cents} }
