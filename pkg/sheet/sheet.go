// Package sheet reads uploaded spreadsheets into a typed header/row table and
// enforces the required-column contract of each upload kind before anything
// is persisted.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// AllowedExtension is the only spreadsheet format accepted for uploads.
const AllowedExtension = ".xlsx"

var (
	// ErrUnsupportedFileType is returned for files that are not .xlsx workbooks.
	ErrUnsupportedFileType = errors.New("invalid file type: only .xlsx allowed")

	// ErrEmptyWorkbook is returned when the workbook has no sheet or no header row.
	ErrEmptyWorkbook = errors.New("workbook has no header row")
)

// MissingColumnsError reports the required columns absent from an upload.
type MissingColumnsError struct {
	Expected []string
	Missing  []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns, expected: [%s]", strings.Join(e.Expected, ", "))
}

// IsValidationError reports whether err rejects the upload itself rather than
// signalling an infrastructure failure.
func IsValidationError(err error) bool {
	var missing *MissingColumnsError
	return errors.Is(err, ErrUnsupportedFileType) ||
		errors.Is(err, ErrEmptyWorkbook) ||
		errors.As(err, &missing)
}

// Table is the first worksheet of a workbook: a header row and the data rows
// beneath it. Cells are kept as raw strings; typed access goes through the
// accessor methods.
type Table struct {
	Columns []string
	Rows    [][]string
	index   map[string]int
}

// NewTable builds a table from a header row and data rows. Header names are
// trimmed; the first occurrence of a duplicated header wins.
func NewTable(columns []string, rows [][]string) *Table {
	t := &Table{
		Columns: make([]string, len(columns)),
		Rows:    rows,
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		name := strings.TrimSpace(c)
		t.Columns[i] = name
		if _, dup := t.index[name]; !dup && name != "" {
			t.index[name] = i
		}
	}
	return t
}

// CheckExtension rejects any filename that is not an .xlsx workbook.
func CheckExtension(filename string) error {
	if !strings.EqualFold(filepath.Ext(filename), AllowedExtension) {
		return ErrUnsupportedFileType
	}
	return nil
}

// Read parses the first worksheet of an .xlsx workbook.
func Read(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		data = append(data, row)
	}
	return NewTable(rows[0], data), nil
}

// ReadFile parses a workbook stored on disk.
func ReadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the upload store
	if err != nil {
		return nil, err
	}
	return Read(bytes.NewReader(data))
}

// Parse is the ingestion gate: it checks the extension, parses the workbook
// and verifies the required columns.
func Parse(filename string, data []byte, required []string) (*Table, error) {
	if err := CheckExtension(filename); err != nil {
		return nil, err
	}
	t, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := t.Require(required); err != nil {
		return nil, err
	}
	return t, nil
}

// Has reports whether the header row contains column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Require returns a *MissingColumnsError when any of columns is absent.
func (t *Table) Require(columns []string) error {
	var missing []string
	for _, c := range columns {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Expected: columns, Missing: missing}
	}
	return nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// String returns the trimmed cell at row i for column, or "" when the column
// or the cell is absent.
func (t *Table) String(i int, column string) string {
	idx, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.Rows) {
		return ""
	}
	row := t.Rows[i]
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Decimal returns the numeric cell at row i for column. Blank cells are zero.
func (t *Table) Decimal(i int, column string) (decimal.Decimal, error) {
	return ParseNumber(t.String(i, column))
}

// ParseNumber parses a spreadsheet number, tolerating thousands separators,
// currency symbols and surrounding whitespace. Blank input is zero.
func ParseNumber(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "$", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", s)
	}
	return d, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
