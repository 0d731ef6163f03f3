package normalize

import (
	"strings"

	"github.com/ust-lookup/internal/table"
)

// Strategy is one way of deciding that two identifier values are equal
type Strategy struct {
	Name  string
	Equal func(a, b table.Value) bool
}

// Strategy names, in the order they are tried
const (
	StrategyDigits     = "digits-only"
	StrategyNumeric    = "numeric"
	StrategyNormalized = "normalized-string"
	StrategyRaw        = "raw-string"
)

// DigitsEqual compares digits-only forms. Values without digits never match.
func DigitsEqual(a, b table.Value) bool {
	da := DigitsOnly(a)
	return da != "" && da == DigitsOnly(b)
}

// NumericEqual compares values that both parse as numbers
func NumericEqual(a, b table.Value) bool {
	na, ok := Numeric(a)
	if !ok {
		return false
	}
	nb, ok := Numeric(b)
	return ok && na.Equal(nb)
}

// NormalizedEqual compares trimmed, ".0"-stripped text case-insensitively
func NormalizedEqual(a, b table.Value) bool {
	na := NormalizedString(a)
	return na != "" && strings.EqualFold(na, NormalizedString(b))
}

// RawEqual compares the trimmed raw text
func RawEqual(a, b table.Value) bool {
	ra := strings.TrimSpace(a.String())
	return ra != "" && ra == strings.TrimSpace(b.String())
}

// IdentifierStrategies is the fixed priority order for facility and owner
// identifiers: most permissive first, progressively stricter after.
var IdentifierStrategies = []Strategy{
	{Name: StrategyDigits, Equal: DigitsEqual},
	{Name: StrategyNumeric, Equal: NumericEqual},
	{Name: StrategyNormalized, Equal: NormalizedEqual},
	{Name: StrategyRaw, Equal: RawEqual},
}

// MatchChain returns the indices of values equal to target under the first
// strategy that matches anything, along with that strategy's name. Counts
// holds the hit count of every strategy that was consulted.
func MatchChain(values []table.Value, target table.Value, strategies []Strategy) (indices []int, strategy string, counts map[string]int) {
	counts = make(map[string]int, len(strategies))
	for _, s := range strategies {
		var hits []int
		for i, v := range values {
			if s.Equal(v, target) {
				hits = append(hits, i)
			}
		}
		counts[s.Name] = len(hits)
		if len(hits) > 0 {
			return hits, s.Name, counts
		}
	}
	return nil, "", counts
}

// Group collapses values that the named strategy considers equal, keeping
// the first value of each group. An unknown strategy leaves every distinct
// raw value in its own group.
func Group(values []table.Value, strategy string) []table.Value {
	equal := RawEqual
	for _, s := range IdentifierStrategies {
		if s.Name == strategy {
			equal = s.Equal
		}
	}
	var groups []table.Value
next:
	for _, v := range values {
		for _, g := range groups {
			if equal(g, v) {
				continue next
			}
		}
		groups = append(groups, v)
	}
	return groups
}
