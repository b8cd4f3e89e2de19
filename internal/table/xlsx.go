package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "vanbiz/internal/errors"
)

// ReadXLSXFile reads one worksheet of an Excel workbook. The first row is the
// header. An empty sheet name selects the first sheet.
func ReadXLSXFile(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError(fmt.Sprintf("%s has no worksheets", path), nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("read sheet %q", sheet), err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q has no header row", sheet), nil)
	}

	// GetRows omits trailing empty cells, so short rows are normal here.
	return FromRecords(rows[0], rows[1:])
}
