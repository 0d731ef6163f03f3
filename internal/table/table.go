package table

import (
	"strconv"
	"strings"
)

// Kind identifies how a cell value was represented by its source
type Kind int

const (
	Missing Kind = iota
	String
	Int
	Float
)

// Value is a single raw cell. Sources disagree on representation (a facility
// id may arrive as 1001, "1001", "01001" or 1001.0), so the original form is
// kept and comparisons go through the normalize package.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// Str wraps a string cell. Whitespace-only strings are still strings.
func Str(s string) Value { return Value{kind: String, s: s} }

// IntValue wraps an integer cell
func IntValue(i int64) Value { return Value{kind: Int, i: i} }

// FloatValue wraps a floating point cell
func FloatValue(f float64) Value { return Value{kind: Float, f: f} }

// Null is the missing cell
func Null() Value { return Value{} }

// Kind reports the representation of the value
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell is absent or empty
func (v Value) IsMissing() bool {
	return v.kind == Missing || (v.kind == String && strings.TrimSpace(v.s) == "")
}

// String renders the raw text of the cell. Whole floats keep a trailing ".0",
// which is how spreadsheet exports and REAL columns present integers.
func (v Value) String() string {
	switch v.kind {
	case String:
		return v.s
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		s := strconv.FormatFloat(v.f, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	}
	return ""
}

// Row is a positional view of one record aligned with its table's columns
type Row struct {
	t     *Table
	cells []Value
}

// Get returns the cell for a normalized column name
func (r Row) Get(column string) (Value, bool) {
	if r.t == nil {
		return Value{}, false
	}
	idx, ok := r.t.index[NormalizeColumn(column)]
	if !ok || idx >= len(r.cells) {
		return Value{}, false
	}
	return r.cells[idx], true
}

// Text returns the raw text of a column, or "" when the column is absent
func (r Row) Text(column string) string {
	v, _ := r.Get(column)
	return v.String()
}

// At returns the cell at a column position
func (r Row) At(i int) (Value, bool) {
	if i < 0 || i >= len(r.cells) {
		return Value{}, false
	}
	return r.cells[i], true
}

// Columns returns the column names of the row's table
func (r Row) Columns() []string {
	if r.t == nil {
		return nil
	}
	return r.t.Columns()
}

// Len is the number of cells in the row
func (r Row) Len() int { return len(r.cells) }

// Table is an immutable, ordered set of rows with normalized column names.
// Filtering produces new tables that share the underlying row storage.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New builds a table. Column names are normalized; when two headers collapse
// to the same name the first one wins lookups by name.
func New(name string, columns []string, rows [][]Value) *Table {
	t := &Table{
		name:    name,
		columns: make([]string, len(columns)),
		index:   make(map[string]int, len(columns)),
		rows:    rows,
	}
	for i, c := range columns {
		n := NormalizeColumn(c)
		t.columns[i] = n
		if _, exists := t.index[n]; !exists {
			t.index[n] = i
		}
	}
	return t
}

// Empty returns a named table with no columns and no rows
func Empty(name string) *Table {
	return New(name, nil, nil)
}

// NormalizeColumn lowercases, trims and collapses internal whitespace
func NormalizeColumn(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Name returns the table's name
func (t *Table) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// WithName returns the same table under another name
func (t *Table) WithName(name string) *Table {
	if t == nil {
		return Empty(name)
	}
	return &Table{name: name, columns: t.columns, index: t.index, rows: t.rows}
}

// Columns returns a copy of the normalized column names in source order
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether a column exists
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[NormalizeColumn(name)]
	return ok
}

// ColumnIndex returns the position of a column
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[NormalizeColumn(name)]
	return i, ok
}

// Len is the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// IsEmpty reports a table with no rows or no columns
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.rows) == 0 || len(t.columns) == 0
}

// Row returns the i-th row
func (t *Table) Row(i int) Row {
	return Row{t: t, cells: t.rows[i]}
}

// Rows returns all rows in order
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}
	out := make([]Row, len(t.rows))
	for i, cells := range t.rows {
		out[i] = Row{t: t, cells: cells}
	}
	return out
}

// Values returns the cells of one column in row order. A missing column
// yields nil.
func (t *Table) Values(column string) []Value {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, cells := range t.rows {
		if idx < len(cells) {
			out[i] = cells[idx]
		}
	}
	return out
}

// Subset returns a new table holding the rows at the given indices
func (t *Table) Subset(indices []int) *Table {
	if t == nil {
		return nil
	}
	rows := make([][]Value, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(t.rows) {
			rows = append(rows, t.rows[i])
		}
	}
	return &Table{name: t.name, columns: t.columns, index: t.index, rows: rows}
}

// Filter returns a new table with the rows satisfying pred
func (t *Table) Filter(pred func(Row) bool) *Table {
	if t == nil {
		return nil
	}
	var keep []int
	for i, cells := range t.rows {
		if pred(Row{t: t, cells: cells}) {
			keep = append(keep, i)
		}
	}
	return t.Subset(keep)
}

// Last returns the value of a column in the final row, the way the summary
// picks "the latest" owner record.
func (t *Table) Last(column string) (Value, bool) {
	if t.Len() == 0 {
		return Value{}, false
	}
	return t.Row(t.Len() - 1).Get(column)
}
