package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the runtime type of a cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "unknown"
	}
}

// Value is a single tagged cell. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
}

// Null returns the missing-value cell.
func Null() Value { return Value{} }

// String returns a string cell.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point cell.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Kind reports the cell type.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is missing.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsNumeric reports whether the cell holds an Int or a Float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Str returns the string payload of a String cell.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Int64 returns the payload of an Int cell, or of a Float cell holding an
// integral value.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) && math.Abs(v.f) < 1<<63 {
			return int64(v.f), true
		}
	}
	return 0, false
}

// Float64 returns the numeric payload of an Int or Float cell.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// String renders the cell the way it is written to CSV. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	default:
		return ""
	}
}

// Equal compares kind and payload. Int and Float cells are never equal to
// each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	default:
		return true
	}
}

// key is a collision-free encoding used for row deduplication.
func (v Value) key() string {
	return v.kind.String() + ":" + v.String()
}

// InferColumn converts the raw text cells of one column into Values. Empty
// cells become Null. When every non-empty cell parses as an integer the column
// is Int, else when every non-empty cell parses as a finite float it is Float,
// otherwise String.
func InferColumn(raw []string) []Value {
	kind := KindInt
	nonEmpty := 0
	for _, s := range raw {
		t := strings.TrimSpace(s)
		if t == "" {
			continue
		}
		nonEmpty++
		if kind == KindInt {
			if _, err := strconv.ParseInt(t, 10, 64); err == nil {
				continue
			}
			kind = KindFloat
		}
		if kind == KindFloat {
			if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				continue
			}
			kind = KindString
			break
		}
	}
	if nonEmpty == 0 {
		kind = KindString
	}

	out := make([]Value, len(raw))
	for i, s := range raw {
		t := strings.TrimSpace(s)
		if t == "" {
			continue
		}
		switch kind {
		case KindInt:
			n, _ := strconv.ParseInt(t, 10, 64)
			out[i] = Int(n)
		case KindFloat:
			f, _ := strconv.ParseFloat(t, 64)
			out[i] = Float(f)
		default:
			out[i] = String(s)
		}
	}
	return out
}
