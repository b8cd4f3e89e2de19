package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vanbiz/internal/errors"
)

func mustRecords(t *testing.T, header []string, records ...[]string) *Table {
	t.Helper()
	tbl, err := FromRecords(header, records)
	require.NoError(t, err)
	return tbl
}

func stringColumn(t *testing.T, tbl *Table, name string) []string {
	t.Helper()
	values, err := tbl.Column(name)
	require.NoError(t, err)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestNew_RejectsBadShapes(t *testing.T) {
	_, err := New([]string{"a", "a"}, nil)
	assert.True(t, apperrors.IsValidationError(err))

	_, err = New([]string{"a", "b"}, []Row{{Int(1)}})
	assert.True(t, apperrors.IsValidationError(err))
}

func TestFromRecords(t *testing.T) {
	tbl := mustRecords(t, []string{"name", "employees"},
		[]string{"Acme", "5"},
		[]string{"Bolt"},
	)

	assert.Equal(t, 2, tbl.Len())
	v, err := tbl.Value(1, "employees")
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, err = tbl.Value(0, "employees")
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind())

	_, err = FromRecords([]string{"a"}, [][]string{{"1", "2"}})
	assert.Equal(t, apperrors.ErrTypeParsing, apperrors.TypeOf(err))
}

func TestTable_SchemaLookups(t *testing.T) {
	tbl := mustRecords(t, []string{"a"}, []string{"x"})

	_, err := tbl.ColumnIndex("missing")
	assert.True(t, apperrors.IsSchemaError(err))
	_, err = tbl.Column("missing")
	assert.True(t, apperrors.IsSchemaError(err))
	_, err = tbl.Value(0, "missing")
	assert.True(t, apperrors.IsSchemaError(err))
	assert.True(t, tbl.HasColumn("a"))
	assert.Equal(t, [][]string{{"x"}}, tbl.Records())
}
