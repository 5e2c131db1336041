package sheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipcass/sipcass/internal/testutil"
)

func TestCheckExtension(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"xlsx", "payouts.xlsx", false},
		{"upper case", "PAYOUTS.XLSX", false},
		{"csv", "payouts.csv", true},
		{"legacy xls", "payouts.xls", true},
		{"no extension", "payouts", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExtension(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFileType)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReadWorkbook(t *testing.T) {
	data := testutil.Workbook(t,
		[]any{" Emp ID ", "Emp Name", "Revenue"},
		[]any{1, "Asha", 1200.5},
		[]any{"", "", ""},
		[]any{"E2", "Ravi", "1,000"},
	)

	table, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, []string{"Emp ID", "Emp Name", "Revenue"}, table.Columns)
	require.Equal(t, 2, table.Len(), "blank rows are dropped")
	assert.Equal(t, "1", table.String(0, "Emp ID"))
	assert.Equal(t, "Ravi", table.String(1, "Emp Name"))
	assert.Equal(t, "", table.String(0, "Missing"))

	rev, err := table.Decimal(0, "Revenue")
	require.NoError(t, err)
	assert.Equal(t, "1200.5", rev.String())

	rev, err = table.Decimal(1, "Revenue")
	require.NoError(t, err)
	assert.Equal(t, "1000", rev.String())
}

func TestParseRejectsMissingColumns(t *testing.T) {
	data := testutil.Workbook(t, []any{"Emp ID", "Emp Name"}, []any{1, "Asha"})

	_, err := Parse("payouts.xlsx", data, []string{"Emp ID", "Emp Name", "Region"})
	require.Error(t, err)

	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"Region"}, missing.Missing)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "Emp ID, Emp Name, Region")
}

func TestParseRejectsExtensionBeforeReading(t *testing.T) {
	_, err := Parse("payouts.csv", []byte("not a workbook"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
	assert.True(t, IsValidationError(err))
}

func TestReadGarbage(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("definitely not a zip archive")))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"  42 ", "42", false},
		{"$1,250.75", "1250.75", false},
		{"1e3", "1000", false},
		{"NaN", "0", true},
		{"abc", "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNumber(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got.String())
		})
	}
}
