package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ust-lookup/internal/table"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ReadTable reads every row of a database table. name may be schema
// qualified. Column values keep their database representation: integers
// stay integers and REAL columns stay floats.
func (c *Connection) ReadTable(ctx context.Context, name string) (*table.Table, error) {
	if !identifier.MatchString(name) {
		return nil, eris.Errorf("db: invalid table name %q", name)
	}

	query := "SELECT * FROM " + c.quote(name)
	rows, err := c.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "db: query %s", name)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(err, "db: columns of %s", name)
	}

	var data [][]table.Value
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "db: scan %s", name)
		}
		cells := make([]table.Value, len(cols))
		for i, v := range raw {
			cells[i] = toValue(v)
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "db: read %s", name)
	}
	return table.New(name, cols, data), nil
}

func (c *Connection) quote(name string) string {
	q := `"`
	if c.Driver == MySQL {
		q = "`"
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = q + p + q
	}
	return strings.Join(parts, ".")
}

func toValue(v any) table.Value {
	switch x := v.(type) {
	case nil:
		return table.Null()
	case int64:
		return table.IntValue(x)
	case int32:
		return table.IntValue(int64(x))
	case int:
		return table.IntValue(int64(x))
	case float64:
		return table.FloatValue(x)
	case float32:
		return table.FloatValue(float64(x))
	case []byte:
		return table.Str(string(x))
	case string:
		return table.Str(x)
	case bool:
		if x {
			return table.Str("Y")
		}
		return table.Str("N")
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return table.Str(x.Format("2006-01-02"))
		}
		return table.Str(x.Format(time.RFC3339))
	}
	return table.Str(fmt.Sprint(v))
}

// CountRows returns the number of rows in a table
func (c *Connection) CountRows(ctx context.Context, name string) (int, error) {
	if !identifier.MatchString(name) {
		return 0, eris.Errorf("db: invalid table name %q", name)
	}
	var n int
	if err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.quote(name)).Scan(&n); err != nil {
		return 0, eris.Wrapf(err, "db: count %s", name)
	}
	return n, nil
}
