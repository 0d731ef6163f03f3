package import_pkg

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ust-lookup/internal/table"
)

// Location prefixes understood by the loader
const (
	S3Scheme = "s3://"
	DBScheme = "db:"
)

// ObjectGetter is the subset of the S3 client the loader needs
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// TableReader reads a whole database table
type TableReader interface {
	ReadTable(ctx context.Context, name string) (*table.Table, error)
}

// Loader reads tables from local files, S3 objects or database tables
type Loader struct {
	s3 ObjectGetter
	db TableReader
}

// LoaderOption configures a Loader
type LoaderOption func(*Loader)

// WithS3 enables s3://bucket/key locations
func WithS3(client ObjectGetter) LoaderOption {
	return func(l *Loader) { l.s3 = client }
}

// WithDB enables db:<table> locations
func WithDB(reader TableReader) LoaderOption {
	return func(l *Loader) { l.db = reader }
}

// NewLoader creates a loader. Without options only local files are readable.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the table at location and names it name. The format follows
// the file extension: .xlsx is read as a workbook, anything else as
// delimited text.
func (l *Loader) Load(ctx context.Context, name, location string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(location, DBScheme):
		if l.db == nil {
			return nil, eris.Errorf("import: %s needs a database connection", location)
		}
		t, err := l.db.ReadTable(ctx, strings.TrimPrefix(location, DBScheme))
		if err != nil {
			return nil, eris.Wrapf(err, "import: load %s", name)
		}
		zap.L().Debug("import: loaded db table", zap.String("table", name), zap.Int("rows", t.Len()))
		return t.WithName(name), nil

	case strings.HasPrefix(location, S3Scheme):
		data, err := l.fetchS3(ctx, location)
		if err != nil {
			return nil, err
		}
		t, err := Parse(name, path.Ext(location), bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		zap.L().Debug("import: loaded s3 object", zap.String("table", name), zap.String("location", location), zap.Int("rows", t.Len()))
		return t, nil
	}

	f, err := os.Open(location)
	if err != nil {
		return nil, eris.Wrapf(err, "import: open %s", location)
	}
	defer f.Close()

	t, err := Parse(name, filepath.Ext(location), f)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("import: loaded file", zap.String("table", name), zap.String("path", location), zap.Int("rows", t.Len()))
	return t, nil
}

// Parse reads a table in the format implied by ext
func Parse(name, ext string, r io.Reader) (*table.Table, error) {
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(name, r)
	case ".tsv", ".tab":
		return ReadCSV(name, r, true)
	}
	return ReadCSV(name, r, false)
}

// ReadXLSX reads the first sheet of a workbook. The header is the first
// row holding a value, as with delimited files.
func ReadXLSX(name string, r io.Reader) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, eris.Wrapf(err, "import: open workbook %s", name)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, eris.Wrapf(err, "import: read sheet %s of %s", sheets[0], name)
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

// ParseS3URL splits s3://bucket/key
func ParseS3URL(location string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(location, S3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", eris.Errorf("import: malformed s3 location %q", location)
	}
	return bucket, key, nil
}

func (l *Loader) fetchS3(ctx context.Context, location string) ([]byte, error) {
	if l.s3 == nil {
		return nil, eris.Errorf("import: %s needs an s3 client", location)
	}
	bucket, key, err := ParseS3URL(location)
	if err != nil {
		return nil, err
	}
	out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, eris.Wrapf(err, "import: get %s", location)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "import: read %s", location)
	}
	return data, nil
}
