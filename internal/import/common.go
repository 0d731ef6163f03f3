package import_pkg

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"

	"github.com/ust-lookup/internal/table"
)

// ErrEmpty is returned for a source with no header row
var ErrEmpty = eris.New("import: source has no header row")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a delimited export into a table. Exports arrive from
// several systems, so the reader is lenient:
//   - a UTF-8 byte order mark is dropped and non-UTF-8 input is decoded as Latin-1
//   - leading blank lines are skipped; the header is the first row with a value
//   - the delimiter is a comma unless only a tab splits the header into columns
//   - ragged rows are padded with missing cells or truncated to the header width
//
// Cells are kept as raw text; empty cells become missing values.
func ReadCSV(name string, r io.Reader, preferTab bool) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrapf(err, "import: read %s", name)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, eris.Wrapf(err, "import: decode %s as latin-1", name)
		}
		data = decoded
	}

	delimiters := []rune{',', '\t'}
	if preferTab {
		delimiters = []rune{'\t', ','}
	}

	var records [][]string
	var lastErr error
	for _, delim := range delimiters {
		parsed, err := parseDelimited(data, delim)
		if err != nil {
			lastErr = err
			continue
		}
		if records == nil {
			records = parsed
		}
		if h := headerIndex(parsed); h >= 0 && namedColumns(parsed[h]) > 1 {
			records = parsed
			break
		}
	}
	if records == nil && lastErr != nil {
		return nil, eris.Wrapf(lastErr, "import: parse %s", name)
	}

	header := headerIndex(records)
	if header < 0 {
		return nil, ErrEmpty
	}
	columns := headerNames(records[header])

	rows := make([][]table.Value, 0, len(records)-header-1)
	for _, rec := range records[header+1:] {
		if blank(rec) {
			continue
		}
		rows = append(rows, toCells(rec, len(columns)))
	}
	return table.New(name, columns, rows), nil
}

func parseDelimited(data []byte, delim rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}

func headerIndex(records [][]string) int {
	for i, rec := range records {
		if !blank(rec) {
			return i
		}
	}
	return -1
}

func namedColumns(header []string) int {
	n := 0
	for _, h := range header {
		if strings.TrimSpace(h) != "" {
			n++
		}
	}
	return n
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// headerNames trims header cells and names blank ones by position
func headerNames(rec []string) []string {
	out := make([]string, len(rec))
	for i, h := range rec {
		h = strings.TrimSpace(h)
		if h == "" {
			h = "unnamed: " + strconv.Itoa(i)
		}
		out[i] = h
	}
	return out
}

func toCells(rec []string, width int) []table.Value {
	cells := make([]table.Value, width)
	for i := 0; i < width && i < len(rec); i++ {
		if strings.TrimSpace(rec[i]) == "" {
			continue
		}
		cells[i] = table.Str(rec[i])
	}
	return cells
}
