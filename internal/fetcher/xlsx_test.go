package fetcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func TestStreamXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"number", "name", "dob"},
			{" 1234 ", "Asha Rao", "01/02/1990"},
			{"", "", ""},
			{"5678", "Ravi Kumar", "15/08/1985"},
		},
	})

	rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"number", "name", "dob"}, rows[0].Cells)
	assert.Equal(t, []string{"1234", "Asha Rao", "01/02/1990"}, rows[1].Cells)
	assert.Equal(t, 4, rows[2].Line)
}

func TestStreamXLSX_SheetByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Land": {{"village"}, {"Kothur"}},
	})

	rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{SheetName: "Land"})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"village"}, {"Kothur"}}, cellsOf(rows))
}

func TestStreamXLSX_SheetNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{SheetName: "Missing"})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestStreamXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}}})

	for _, idx := range []int{1, -1} {
		rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{SheetIndex: idx})
		_, err := collectRows(t, rowCh, errCh)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	}
}

func TestStreamXLSX_FileNotFound(t *testing.T) {
	rowCh, errCh := StreamXLSX(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestStreamXLSX_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, writeTestFile(path, "not a workbook"))

	rowCh, errCh := StreamXLSX(context.Background(), path, XLSXOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
}

func TestStreamXLSX_Cancelled(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{"Sheet1": {{"a"}, {"b"}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamXLSX(ctx, path, XLSXOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}
