package db

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ust-lookup/internal/table"
)

// WriteTable stores t as a database table of TEXT columns, one per source
// column, replacing any existing table of the same name. Cells are stored
// as their raw text; missing cells become NULL. It returns the number of
// rows written.
func (c *Connection) WriteTable(ctx context.Context, name string, t *table.Table) (int, error) {
	if !identifier.MatchString(name) {
		return 0, eris.Errorf("db: invalid table name %q", name)
	}
	cols := t.Columns()
	if len(cols) == 0 {
		return 0, eris.Errorf("db: %s has no columns", t.Name())
	}

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "db: begin")
	}
	defer tx.Rollback()

	quoted := make([]string, len(cols))
	defs := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = c.quoteColumn(col)
		defs[i] = quoted[i] + " TEXT"
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+c.quote(name)); err != nil {
		return 0, eris.Wrapf(err, "db: drop %s", name)
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+c.quote(name)+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return 0, eris.Wrapf(err, "db: create %s", name)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+c.quote(name)+" ("+strings.Join(quoted, ", ")+") VALUES ("+c.placeholders(len(cols))+")")
	if err != nil {
		return 0, eris.Wrap(err, "db: prepare insert")
	}
	defer stmt.Close()

	written := 0
	args := make([]any, len(cols))
	for _, row := range t.Rows() {
		for i := range cols {
			args[i] = nil
			if v, ok := row.At(i); ok && !v.IsMissing() {
				args[i] = v.String()
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return written, eris.Wrapf(err, "db: insert row %d into %s", written+1, name)
		}
		written++
		if written%1000 == 0 {
			zap.L().Info("db: rows written", zap.String("table", name), zap.Int("rows", written))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "db: commit")
	}
	zap.L().Info("db: table written", zap.String("table", name), zap.Int("rows", written))
	return written, nil
}

func (c *Connection) quoteColumn(col string) string {
	if c.Driver == MySQL {
		return "`" + strings.ReplaceAll(col, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(col, `"`, `""`) + `"`
}

func (c *Connection) placeholders(n int) string {
	ph := make([]string, n)
	for i := range ph {
		if c.Driver == Postgres {
			ph[i] = "$" + strconv.Itoa(i+1)
		} else {
			ph[i] = "?"
		}
	}
	return strings.Join(ph, ", ")
}
