package assemble

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ust-lookup/internal/normalize"
	"github.com/ust-lookup/internal/table"
)

// FormatCapacity renders a capacity in whole gallons grouped by thousands.
// Missing values render as "N/A" and non-numeric ones pass through as-is.
// The value itself is never changed.
func FormatCapacity(v table.Value) string {
	if v.IsMissing() {
		return "N/A"
	}
	d, ok := normalize.Numeric(v)
	if !ok {
		return strings.TrimSpace(v.String())
	}
	whole := d.Truncate(0)
	if !whole.BigInt().IsInt64() {
		return groupThousands(whole.String())
	}
	// Printers are not safe for concurrent use.
	p := message.NewPrinter(language.English)
	return p.Sprintf("%d", whole.IntPart())
}

// groupThousands inserts commas into an integer string too large for int64
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
