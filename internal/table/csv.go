package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "vanbiz/internal/errors"
)

const utf8BOM = "\ufeff"

// ReadOptions control CSV parsing.
type ReadOptions struct {
	// Comma is the field separator. Zero means ','.
	Comma rune
}

// ReadCSV parses a CSV document whose first record is the header.
func ReadCSV(r io.Reader, opts ReadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewParsingError("csv has no header row", nil)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("read csv header", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read csv record", err)
		}
		if len(rec) == 1 && rec[0] == "" && len(header) > 1 {
			continue
		}
		records = append(records, rec)
	}
	return FromRecords(header, records)
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	t, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

// ReadFile dispatches on the file extension: .xlsx goes through
// ReadXLSXFile (first sheet), anything else is parsed as CSV.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSXFile(path, "")
	}
	return ReadCSVFile(path, opts)
}

// WriteCSV writes the header and every row of t, comma separated.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return apperrors.NewStorageError("write csv header", err)
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return apperrors.NewStorageError("write csv records", err)
	}
	return nil
}
