package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/ust-lookup/internal/table"
)

// ZIP normalizes a ZIP-like value: the ".0" artifact goes and short digit
// strings are left-padded to five characters so leading zeros survive
func ZIP(v table.Value) string {
	s := NormalizedString(v)
	if s != "" && len(s) <= 5 && isDigits(s) {
		s = strings.Repeat("0", 5-len(s)) + s
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// AddressParts holds the four pieces of a postal address
type AddressParts struct {
	Street string
	City   string
	State  string
	Zip    table.Value
}

// FullAddress joins parts as "street, city, state zip". The zip is rendered
// as-is so the search field mirrors the stored text.
func FullAddress(p AddressParts) string {
	return strings.TrimSpace(p.Street) + ", " +
		strings.TrimSpace(p.City) + ", " +
		strings.TrimSpace(p.State) + " " +
		strings.TrimSpace(p.Zip.String())
}

// DisplayAddress joins parts like FullAddress with the zip normalized
func DisplayAddress(p AddressParts) string {
	return strings.TrimSpace(p.Street) + ", " +
		strings.TrimSpace(p.City) + ", " +
		strings.TrimSpace(p.State) + " " +
		ZIP(p.Zip)
}

// ContainsFold reports a substring match under Unicode case folding. An
// empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	// Casers keep state, so each call gets its own.
	fold := cases.Fold()
	return strings.Contains(fold.String(haystack), fold.String(needle))
}

// IsActiveStatus reports the "CURR IN USE" tank status, case-insensitively
func IsActiveStatus(v table.Value) bool {
	return strings.EqualFold(strings.TrimSpace(v.String()), ActiveStatus)
}

// ActiveStatus is the status recorded for tanks currently in use
const ActiveStatus = "CURR IN USE"
