package flags

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ust-lookup/internal/table"
)

// Column prefixes of the wide flag tables
const (
	PipeMaterialPrefix = "pipe material"
	TankMaterialPrefix = "tank material "
	TankRDPrefix       = "tank rd "
	PipeRDPrefix       = "pipe rd "
)

var truthy = map[string]bool{"y": true, "yes": true, "true": true, "t": true, "1": true, "x": true}

// IsTruthy interprets a cell as a boolean flag
func IsTruthy(v table.Value) bool {
	return truthy[strings.ToLower(strings.TrimSpace(v.String()))]
}

var leadingPunct = regexp.MustCompile(`^[\s:,\-]+`)

// otherTextColumns hold the free-text description of a "pipe material other" flag
var otherTextColumns = []string{
	"pipe material other description",
	"pipe material other specify",
	"pipe material other text",
	"other pipe material",
}

// Extract scans the row's columns for those starting with prefix and returns
// a label for every truthy one, in column order. Duplicates are kept. The
// result is never nil.
func Extract(row table.Row, prefix string, labels map[string]string) []string {
	out := []string{}
	lp := strings.ToLower(prefix)
	for i, col := range row.Columns() {
		if !strings.HasPrefix(strings.ToLower(col), lp) {
			continue
		}
		v, _ := row.At(i)
		if !IsTruthy(v) {
			continue
		}
		suffix := Suffix(col, prefix)
		out = append(out, Label(suffix, labels))

		if lp == PipeMaterialPrefix && suffix == "other" {
			if text := otherText(row); text != "" {
				out[len(out)-1] += " (" + text + ")"
			}
		}
	}
	return out
}

// ExtractExcept is Extract skipping the named columns
func ExtractExcept(row table.Row, prefix string, labels map[string]string, skip ...string) []string {
	if len(skip) == 0 {
		return Extract(row, prefix, labels)
	}
	drop := make(map[string]bool, len(skip))
	for _, s := range skip {
		drop[table.NormalizeColumn(s)] = true
	}
	var keep []string
	var cells [][]table.Value
	cell := make([]table.Value, 0, row.Len())
	for i, col := range row.Columns() {
		if drop[col] {
			continue
		}
		v, _ := row.At(i)
		keep = append(keep, col)
		cell = append(cell, v)
	}
	cells = append(cells, cell)
	return Extract(table.New("", keep, cells).Row(0), prefix, labels)
}

// Suffix strips the prefix and any leading punctuation from a column name
func Suffix(column, prefix string) string {
	s := column
	if len(s) >= len(prefix) {
		s = s[len(prefix):]
	}
	s = leadingPunct.ReplaceAllString(s, "")
	return strings.ToLower(strings.TrimSpace(s))
}

// Label maps a flag suffix through the dictionary, title-casing unknown ones
func Label(suffix string, labels map[string]string) string {
	if l, ok := labels[suffix]; ok {
		return l
	}
	if suffix == "" {
		return "Unknown"
	}
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(suffix)
}

func otherText(row table.Row) string {
	for _, c := range otherTextColumns {
		if v, ok := row.Get(c); ok && !v.IsMissing() && !IsTruthy(v) {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

// Join renders labels for display, "Not Listed" when there are none
func Join(labels []string) string {
	if len(labels) == 0 {
		return NotListed
	}
	return strings.Join(labels, ", ")
}

// NotListed is shown for an empty flag list
const NotListed = "Not Listed"
