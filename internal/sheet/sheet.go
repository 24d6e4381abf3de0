package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// OutputPrefix is prepended to the input file name to form the output path.
const OutputPrefix = "updated_"

var (
	// ErrUnsupportedFormat is returned for files whose extension has no Format.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrColumnNotFound is returned when a required column is absent from the header.
	ErrColumnNotFound = errors.New("column not found")
)

// ColumnError names the column that could not be bound.
type ColumnError struct {
	Field  string // logical field, e.g. "keyword"
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s column %q: %v", e.Field, e.Column, ErrColumnNotFound)
}

func (e *ColumnError) Unwrap() error { return ErrColumnNotFound }

// Table is an in-memory sheet: a header row followed by data rows.
// Rows may be shorter than the header; missing trailing cells read as "".
type Table struct {
	// Name is the worksheet name for workbook formats. Empty for CSV.
	Name   string
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Columns returns a copy of the header.
func (t *Table) Columns() []string {
	cols := make([]string, len(t.Header))
	copy(cols, t.Header)
	return cols
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, col), or "" when the row is short.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return ""
	}
	r := t.Rows[row]
	if col >= len(r) {
		return ""
	}
	return r[col]
}

// Set stores value at (row, col), padding the row if needed.
func (t *Table) Set(row, col int, value string) {
	if row < 0 || row >= len(t.Rows) || col < 0 {
		return
	}
	r := t.Rows[row]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = value
	t.Rows[row] = r
}

// EnsureColumn returns the index of the named column, appending an empty
// column to the header when it does not exist yet.
func (t *Table) EnsureColumn(name string) int {
	if i := t.Index(name); i >= 0 {
		return i
	}
	t.Header = append(t.Header, name)
	return len(t.Header) - 1
}

// Schema maps the logical fields of a rank check onto column indexes.
type Schema struct {
	Keyword int
	URL     int
	Rank    int
}

// Bind validates the column names against the table header. The keyword and
// URL columns must exist; the rank column is created when missing.
func Bind(t *Table, keywordCol, urlCol, rankCol string) (Schema, error) {
	kw := t.Index(keywordCol)
	if kw < 0 {
		return Schema{}, &ColumnError{Field: "keyword", Column: keywordCol}
	}
	u := t.Index(urlCol)
	if u < 0 {
		return Schema{}, &ColumnError{Field: "url", Column: urlCol}
	}
	if strings.TrimSpace(rankCol) == "" {
		return Schema{}, &ColumnError{Field: "rank", Column: rankCol}
	}
	return Schema{
		Keyword: kw,
		URL:     u,
		Rank:    t.EnsureColumn(rankCol),
	}, nil
}

// missingMarkers are the cell texts pandas reads as NA by default. Matching
// is exact and case-sensitive, so a keyword like "none" is still searched.
var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a cell should be treated as absent: empty,
// whitespace only, or exactly one of the NA markers.
func IsMissing(value string) bool {
	if strings.TrimSpace(value) == "" {
		return true
	}
	_, ok := missingMarkers[value]
	return ok
}

// Format reads and writes a Table in one file format.
type Format interface {
	Name() string
	Read(path string) (*Table, error)
	Write(path string, t *Table) error
}

// FormatFor selects a Format by the file extension of path.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return CSV{}, nil
	case ".xlsx":
		return XLSX{}, nil
	default:
		return nil, fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// OutputPath returns the sibling path the updated table is written to.
func OutputPath(path string) string {
	dir, base := filepath.Split(path)
	return filepath.Join(dir, OutputPrefix+base)
}

// Load reads the table at path using the format chosen by its extension.
func Load(path string) (*Table, Format, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, nil, err
	}
	t, err := f.Read(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", f.Name(), err)
	}
	return t, f, nil
}
