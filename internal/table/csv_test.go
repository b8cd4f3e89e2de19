package table

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "vanbiz/internal/errors"
)

func TestReadCSV_Semicolon(t *testing.T) {
	doc := "\ufeffID;Business name;Year recorded\n1;Acme;2023\n2;\"Bolt; Ltd\";2023\n\n"

	tbl, err := ReadCSV(strings.NewReader(doc), ReadOptions{Comma: ';'})
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "Business name", "Year recorded"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"Acme", "Bolt; Ltd"}, stringColumn(t, tbl, "Business name"))

	year, _ := tbl.Value(0, "Year recorded")
	assert.Equal(t, KindInt, year.Kind())
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), ReadOptions{})
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))

	_, err = ReadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), ReadOptions{})
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tbl := mustRecords(t, []string{"name", "fee"}, []string{"Acme", "10.5"}, []string{"Bolt, Inc", ""})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "name,fee\nAcme,10.5\n\"Bolt, Inc\",\n", buf.String())

	back, err := ReadCSV(&buf, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, tbl.Records(), back.Records())
}

func TestReadXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"ID", "Business name", "Year recorded"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{1, "Acme", 2023}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{2, "Bolt"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tbl, err := ReadFile(path, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"Acme", "Bolt"}, stringColumn(t, tbl, "Business name"))

	year, _ := tbl.Value(1, "Year recorded")
	assert.True(t, year.IsNull())

	_, err = ReadXLSXFile(path, "NoSuchSheet")
	assert.Error(t, err)
}
