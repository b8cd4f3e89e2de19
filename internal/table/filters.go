package table

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	apperrors "vanbiz/internal/errors"
)

// ThresholdMode selects the comparison used by FilterByNumericThreshold.
type ThresholdMode string

const (
	ModeMin   ThresholdMode = "min"   // keep value >= threshold
	ModeMax   ThresholdMode = "max"   // keep value <= threshold
	ModeEqual ThresholdMode = "equal" // keep value == threshold
)

func (t *Table) filter(keep func(Row) bool) *Table {
	out := t.derive(len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// mapColumn returns a copy of t whose column c is replaced by fn applied to
// each cell. Other cells are shared with t.
func (t *Table) mapColumn(c int, fn func(Value) Value) *Table {
	out := t.derive(len(t.rows))
	for _, r := range t.rows {
		nr := r.clone()
		nr[c] = fn(r[c])
		out.rows = append(out.rows, nr)
	}
	return out
}

func requireStringColumn(t *Table, field string, c int) error {
	for _, r := range t.rows {
		if k := r[c].Kind(); k != KindNull && k != KindString {
			return apperrors.NewTypeError(fmt.Sprintf("column %q holds %s values, want string", field, k)).
				WithContext("field", field)
		}
	}
	return nil
}

// DropRowsMissing removes rows where any required field is Null or an empty
// string.
func DropRowsMissing(t *Table, required []string) (*Table, error) {
	idx, err := t.columnIndexes(required)
	if err != nil {
		return nil, err
	}
	return t.filter(func(r Row) bool {
		for _, c := range idx {
			if r[c].IsNull() {
				return false
			}
			if s, ok := r[c].Str(); ok && s == "" {
				return false
			}
		}
		return true
	}), nil
}

// FilterByExactMatch keeps rows whose field equals value when keep is true,
// and rows whose field differs (Null included) when keep is false.
func FilterByExactMatch(t *Table, field, value string, keep bool) (*Table, error) {
	c, err := t.ColumnIndex(field)
	if err != nil {
		return nil, err
	}
	if err := requireStringColumn(t, field, c); err != nil {
		return nil, err
	}
	return t.filter(func(r Row) bool {
		s, ok := r[c].Str()
		return (ok && s == value) == keep
	}), nil
}

// FilterByMembership keeps rows whose field is one of allowed.
func FilterByMembership(t *Table, field string, allowed []string) (*Table, error) {
	c, err := t.ColumnIndex(field)
	if err != nil {
		return nil, err
	}
	if err := requireStringColumn(t, field, c); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return t.filter(func(r Row) bool {
		s, ok := r[c].Str()
		if !ok {
			return false
		}
		_, in := set[s]
		return in
	}), nil
}

// FilterByNumericThreshold keeps rows whose numeric field compares to
// threshold according to mode. Null cells never match.
func FilterByNumericThreshold(t *Table, field string, threshold int64, mode ThresholdMode) (*Table, error) {
	c, err := t.ColumnIndex(field)
	if err != nil {
		return nil, err
	}
	var cmp func(float64) bool
	th := float64(threshold)
	switch mode {
	case ModeMin:
		cmp = func(v float64) bool { return v >= th }
	case ModeMax:
		cmp = func(v float64) bool { return v <= th }
	case ModeEqual:
		cmp = func(v float64) bool { return v == th }
	default:
		return nil, apperrors.NewTypeError(fmt.Sprintf("unknown threshold mode %q", mode))
	}
	for _, r := range t.rows {
		if !r[c].IsNull() && !r[c].IsNumeric() {
			return nil, apperrors.NewTypeError(fmt.Sprintf("column %q holds %s values, want numeric", field, r[c].Kind())).
				WithContext("field", field)
		}
	}
	return t.filter(func(r Row) bool {
		v, ok := r[c].Float64()
		return ok && cmp(v)
	}), nil
}

// StripSubstring removes every match of the regular expression pattern from
// the string cells of field. Non-string cells are left untouched.
func StripSubstring(t *Table, field, pattern string) (*Table, error) {
	c, err := t.ColumnIndex(field)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, apperrors.NewTypeError(fmt.Sprintf("invalid pattern %q: %v", pattern, err))
	}
	return t.mapColumn(c, func(v Value) Value {
		if s, ok := v.Str(); ok {
			return String(re.ReplaceAllString(s, ""))
		}
		return v
	}), nil
}

// CombineFields joins the text form of fields with single spaces, trims the
// result and stores it in newField, appended as the last column or replacing
// an existing column of that name. Null cells contribute "".
func CombineFields(t *Table, fields []string, newField string) (*Table, error) {
	idx, err := t.columnIndexes(fields)
	if err != nil {
		return nil, err
	}
	combine := func(r Row) Value {
		parts := make([]string, len(idx))
		for i, c := range idx {
			parts[i] = r[c].String()
		}
		return String(strings.TrimSpace(strings.Join(parts, " ")))
	}

	if c, ok := t.index[newField]; ok {
		out := t.derive(len(t.rows))
		for _, r := range t.rows {
			nr := r.clone()
			nr[c] = combine(r)
			out.rows = append(out.rows, nr)
		}
		return out, nil
	}

	columns := append(t.Columns(), newField)
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		nr := make(Row, len(r), len(r)+1)
		copy(nr, r)
		rows[i] = append(nr, combine(r))
	}
	return New(columns, rows)
}

// Percentile returns the p-th percentile (0-100) of values using linear
// interpolation between the closest ranks.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(sorted) {
		hi = len(sorted) - 1
	}
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// RemoveOutliersByPercentile keeps rows whose numeric field lies within the
// inclusive [lowerPct, upperPct] percentile bounds of that field. Null cells
// are left out of the sample and dropped.
func RemoveOutliersByPercentile(t *Table, field string, lowerPct, upperPct float64) (*Table, error) {
	c, err := t.ColumnIndex(field)
	if err != nil {
		return nil, err
	}
	if lowerPct < 0 || upperPct > 100 || lowerPct > upperPct {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("percentile bounds [%g, %g] must satisfy 0 <= lower <= upper <= 100", lowerPct, upperPct))
	}

	sample := make([]float64, 0, len(t.rows))
	for _, r := range t.rows {
		if r[c].IsNull() {
			continue
		}
		v, ok := r[c].Float64()
		if !ok {
			return nil, apperrors.NewTypeError(fmt.Sprintf("column %q holds %s values, want numeric", field, r[c].Kind())).
				WithContext("field", field)
		}
		sample = append(sample, v)
	}
	if len(sample) == 0 {
		return t.derive(0), nil
	}

	lower := Percentile(sample, lowerPct)
	upper := Percentile(sample, upperPct)
	return t.filter(func(r Row) bool {
		v, ok := r[c].Float64()
		return ok && v >= lower && v <= upper
	}), nil
}

// SelectColumns projects t onto fields, in the given order.
func SelectColumns(t *Table, fields []string) (*Table, error) {
	idx, err := t.columnIndexes(fields)
	if err != nil {
		return nil, err
	}
	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		nr := make(Row, len(idx))
		for j, c := range idx {
			nr[j] = r[c]
		}
		rows[i] = nr
	}
	return New(fields, rows)
}

// FillNull replaces every Null cell with the string s.
func FillNull(t *Table, s string) *Table {
	out := t.derive(len(t.rows))
	fill := String(s)
	for _, r := range t.rows {
		nr, copied := r, false
		for j, v := range r {
			if !v.IsNull() {
				continue
			}
			if !copied {
				nr, copied = r.clone(), true
			}
			nr[j] = fill
		}
		out.rows = append(out.rows, nr)
	}
	return out
}

// DropDuplicates keeps the first occurrence of every distinct row.
func DropDuplicates(t *Table) *Table {
	seen := make(map[string]struct{}, len(t.rows))
	var b strings.Builder
	return t.filter(func(r Row) bool {
		b.Reset()
		for _, v := range r {
			k := v.key()
			fmt.Fprintf(&b, "%d|%s", len(k), k)
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}
