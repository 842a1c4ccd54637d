package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a monetary value in cents. EDI amounts are decimal strings with
// at most two fractional digits, so integer cents hold them exactly.
type Amount int64

// ParseAmount converts an EDI decimal string to cents. The second return is
// false for empty or malformed input.
func ParseAmount(s string) (Amount, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, false
	}
	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return Amount(cents), true
}

// String renders the amount as a plain decimal, e.g. "-123.45".
func (a Amount) String() string {
	neg := a < 0
	v := int64(a)
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%d.%02d", v/100, v%100)
	if neg {
		return "-" + s
	}
	return s
}

// Float returns the amount as dollars.
func (a Amount) Float() float64 {
	return float64(a) / 100
}

// Abs returns the magnitude of the amount.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// DivideHalfUp divides cents by a divisor, rounding half away from zero to
// the nearest cent. Used for per-unit price derivation.
func (a Amount) DivideHalfUp(divisor int64) Amount {
	if divisor == 0 {
		return 0
	}
	v := int64(a)
	neg := (v < 0) != (divisor < 0)
	if v < 0 {
		v = -v
	}
	if divisor < 0 {
		divisor = -divisor
	}
	q := (v*2 + divisor) / (divisor * 2)
	if neg {
		q = -q
	}
	return Amount(q)
}
