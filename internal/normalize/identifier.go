package normalize

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ust-lookup/internal/table"
)

// NormalizedString trims the raw text and strips a trailing ".0" left behind
// when an integer column was read as floating point
func NormalizedString(v table.Value) string {
	s := strings.TrimSpace(v.String())
	if strings.HasSuffix(s, ".0") {
		s = s[:len(s)-2]
	}
	return s
}

// DigitsOnly keeps the digits of the normalized string with leading zeros
// removed, so "045", 45 and "45.0" all reduce to "45". Values without digits
// reduce to "".
func DigitsOnly(v table.Value) string {
	return digits(NormalizedString(v))
}

func digits(s string) string {
	b := strings.Builder{}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := strings.TrimLeft(b.String(), "0")
	if d == "" && b.Len() > 0 {
		return "0"
	}
	return d
}

// Numeric parses the value as a decimal number. The boolean is false when the
// value is not comparable numerically.
func Numeric(v table.Value) (decimal.Decimal, bool) {
	s := strings.TrimSpace(v.String())
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// IsInteger reports whether a query string parses as an integer
func IsInteger(s string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return strings.IndexAny(strings.TrimSpace(s), ".eE") < 0 && d.IsInteger()
}

// TankDigits is the digits-only form used to line up tank numbers such as
// "R1", "1M" and "1" across tables
func TankDigits(v table.Value) string {
	return DigitsOnly(v)
}

// SameTank reports whether two tank numbers refer to the same tank. Distinct
// tanks that share a digit run are conflated.
func SameTank(a, b table.Value) bool {
	da, db := TankDigits(a), TankDigits(b)
	if da == "" && db == "" {
		return a.String() != "" && strings.EqualFold(NormalizedString(a), NormalizedString(b))
	}
	return da == db
}
