package chart

import (
	"fmt"
	"math"
	"sort"

	"vanbiz/pkg/contracts/domain"
)

// CorrelationLabels are the short names of the correlated business columns,
// in matrix order.
var CorrelationLabels = []string{"Store", "Employees", "Inventory", "Register Fee"}

var correlationFields = map[string]string{
	"Store":        FieldStores,
	"Employees":    FieldEmployees,
	"Inventory":    FieldInventory,
	"Register Fee": FieldRegisterFee,
}

// correlationLabel accepts either the short label or the summary column name.
func correlationLabel(name string) (string, bool) {
	if _, ok := correlationFields[name]; ok {
		return name, true
	}
	for label, field := range correlationFields {
		if field == name {
			return label, true
		}
	}
	return "", false
}

// Heatmap is the absolute correlation matrix of the numeric business
// columns. Cells lie in [0, 1].
type Heatmap struct {
	Kind       Kind        `json:"kind"`
	Title      string      `json:"title"`
	Background string      `json:"background"`
	ColorMap   string      `json:"color_map"`
	Labels     []string    `json:"labels"`
	Matrix     [][]float64 `json:"matrix"`
}

// ColumnHeatmap is one column of the correlation matrix, strongest first.
type ColumnHeatmap struct {
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Column     string    `json:"column"`
	Background string    `json:"background"`
	ColorMap   string    `json:"color_map"`
	Labels     []string  `json:"labels"`
	Values     []float64 `json:"values"`
}

// NewHeatmap correlates stores, employees, inventory and register fee across
// the business summary.
func NewHeatmap(s domain.Summary, theme Theme) *Heatmap {
	palette := PaletteFor(theme)
	return &Heatmap{
		Kind:       KindHeatmap,
		Title:      "Correlation Heatmap",
		Background: palette.Background,
		ColorMap:   palette.ColorMap,
		Labels:     append([]string(nil), CorrelationLabels...),
		Matrix:     correlationMatrix(businessFrame(s.Businesses)),
	}
}

// NewSingleColumnHeatmap returns the correlations of column with every
// correlated column, sorted descending. column may be a short label such as
// "Employees" or the summary column name.
func NewSingleColumnHeatmap(s domain.Summary, column string, theme Theme) (*ColumnHeatmap, error) {
	p := PlotParams{Kind: KindColumnHeatmap, Dataset: DatasetBusiness, XField: column, TopN: DefaultTopN, Theme: theme}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	label, _ := correlationLabel(column)

	matrix := correlationMatrix(businessFrame(s.Businesses))
	col := 0
	for i, l := range CorrelationLabels {
		if l == label {
			col = i
		}
	}

	idx := make([]int, len(CorrelationLabels))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return matrix[idx[a]][col] > matrix[idx[b]][col] })

	out := &ColumnHeatmap{
		Kind:   KindColumnHeatmap,
		Title:  fmt.Sprintf("Correlation with %s", label),
		Column: label,
	}
	palette := PaletteFor(theme)
	out.Background, out.ColorMap = palette.Background, palette.ColorMap
	for _, i := range idx {
		out.Labels = append(out.Labels, CorrelationLabels[i])
		out.Values = append(out.Values, matrix[i][col])
	}
	return out, nil
}

// correlationMatrix is |pearson(a, b)| for every pair of correlated columns.
// The diagonal is 1 and a column with no variance correlates 0 with the
// others.
func correlationMatrix(f *frame) [][]float64 {
	n := len(CorrelationLabels)
	cols := make([][]float64, n)
	for i, l := range CorrelationLabels {
		cols[i] = f.values[correlationFields[l]]
	}

	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			if i == j {
				m[i][j] = 1
				continue
			}
			m[i][j] = math.Abs(Pearson(cols[i], cols[j]))
		}
	}
	return m
}

// Pearson returns the correlation coefficient of a and b, or 0 when either
// has no variance or they differ in length.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	ma, mb := mean(a), mean(b)
	var cov, va, vb float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return cov / math.Sqrt(va*vb)
}
