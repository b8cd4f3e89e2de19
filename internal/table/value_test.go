package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferColumn(t *testing.T) {
	tests := []struct {
		name     string
		raw      []string
		wantKind Kind
	}{
		{"integers with blanks", []string{"1", "", " 42 "}, KindInt},
		{"mixed int and float", []string{"1", "2.5"}, KindFloat},
		{"text", []string{"12", "Main St"}, KindString},
		{"nan is text", []string{"1", "NaN"}, KindString},
		{"all blank", []string{"", ""}, KindNull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := InferColumn(tt.raw)
			assert.Len(t, values, len(tt.raw))
			for i, v := range values {
				if tt.raw[i] == "" {
					assert.True(t, v.IsNull())
					continue
				}
				assert.Equal(t, tt.wantKind, v.Kind())
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	n, ok := Int(7).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(7), n)

	n, ok = Float(8).Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(8), n)

	_, ok = Float(8.5).Int64()
	assert.False(t, ok)

	f, ok := Int(3).Float64()
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = String("3").Float64()
	assert.False(t, ok)

	assert.Equal(t, "", Null().String())
	assert.Equal(t, "10.5", Float(10.5).String())
	assert.False(t, Int(1).Equal(Float(1)))
	assert.True(t, Null().Equal(Value{}))
}
