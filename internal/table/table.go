// Package table is the in-memory tabular model the cleaning pipeline works on:
// named columns of tagged cells, readers and writers for CSV and XLSX, and the
// row filters. Filters never mutate their input; each returns a new Table.
package table

import (
	"fmt"

	apperrors "vanbiz/internal/errors"
)

// Row is a positional slice of cells. Positions are only meaningful relative
// to the Table that owns the row.
type Row []Value

func (r Row) clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Table is an ordered set of named columns and the rows holding them.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New builds a Table. Column names must be unique and every row must have
// one cell per column.
func New(columns []string, rows []Row) (*Table, error) {
	t := &Table{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := t.index[c]; dup {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("duplicate column %q", c))
		}
		t.index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, apperrors.NewAppValidationError(
				fmt.Sprintf("row %d has %d cells, want %d", i, len(r), len(columns)))
		}
	}
	t.rows = rows
	return t, nil
}

// FromRecords builds a Table from text cells, inferring one kind per column.
// Short records are padded with Null cells.
func FromRecords(header []string, records [][]string) (*Table, error) {
	width := len(header)
	columns := make([][]string, width)
	for c := range columns {
		columns[c] = make([]string, len(records))
	}
	for r, rec := range records {
		if len(rec) > width {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("record %d has %d fields, header has %d", r+1, len(rec), width), nil)
		}
		for c, s := range rec {
			columns[c][r] = s
		}
	}

	rows := make([]Row, len(records))
	for r := range rows {
		rows[r] = make(Row, width)
	}
	for c := range columns {
		for r, v := range InferColumn(columns[c]) {
			rows[r][c] = v
		}
	}
	return New(header, rows)
}

// derive returns an empty table with the same schema as t.
func (t *Table) derive(capacity int) *Table {
	return &Table{columns: t.columns, index: t.index, rows: make([]Row, 0, capacity)}
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of a column, or a SchemaError.
func (t *Table) ColumnIndex(name string) (int, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, apperrors.NewSchemaError(name)
	}
	return i, nil
}

func (t *Table) columnIndexes(names []string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		idx, err := t.ColumnIndex(n)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns row i. The returned slice must not be modified.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Value returns the cell of row i in the named column.
func (t *Table) Value(i int, column string) (Value, error) {
	c, err := t.ColumnIndex(column)
	if err != nil {
		return Value{}, err
	}
	return t.rows[i][c], nil
}

// Column returns a copy of every cell in the named column.
func (t *Table) Column(name string) ([]Value, error) {
	c, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[c]
	}
	return out, nil
}

// Records renders every row as text, the form written to CSV.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		rec := make([]string, len(r))
		for j, v := range r {
			rec[j] = v.String()
		}
		out[i] = rec
	}
	return out
}
