package chart

import (
	"fmt"

	apperrors "vanbiz/internal/errors"
	"vanbiz/pkg/contracts/domain"
)

// Point is one business on a scatter chart.
type Point struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Fit is a least-squares line y = Slope*x + Intercept.
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// At evaluates the line.
func (f Fit) At(x float64) float64 { return f.Slope*x + f.Intercept }

// ScatterChart relates two numeric business columns.
type ScatterChart struct {
	Kind       Kind    `json:"kind"`
	Title      string  `json:"title"`
	XField     string  `json:"x"`
	YField     string  `json:"y"`
	Background string  `json:"background"`
	PointColor string  `json:"point_color"`
	LineColor  string  `json:"line_color"`
	LineLabel  string  `json:"line_label"`
	Points     []Point `json:"points"`
	Fit        Fit     `json:"fit"`
}

// NewScatterChart plots x against y over the business summary and fits a
// regression line. x and y must be different numeric columns.
func NewScatterChart(s domain.Summary, x, y string, theme Theme) (*ScatterChart, error) {
	p := PlotParams{Kind: KindScatter, Dataset: DatasetBusiness, XField: x, YField: y, TopN: DefaultTopN, Theme: theme}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	f := businessFrame(s.Businesses)
	xs, ys := f.values[x], f.values[y]
	fit, err := LeastSquares(xs, ys)
	if err != nil {
		return nil, err
	}

	points := make([]Point, len(xs))
	for i := range xs {
		points[i] = Point{Label: f.labels[FieldBusinessName][i], X: xs[i], Y: ys[i]}
	}

	palette := PaletteFor(theme)
	return &ScatterChart{
		Kind:       KindScatter,
		Title:      fmt.Sprintf("Relationship between %s and %s", x, y),
		XField:     x,
		YField:     y,
		Background: palette.Background,
		PointColor: palette.Header,
		LineColor:  RegressionLineColor,
		LineLabel:  fmt.Sprintf("Regression line: %.2fx + %.2f", fit.Slope, fit.Intercept),
		Points:     points,
		Fit:        fit,
	}, nil
}

// LeastSquares fits a first-degree polynomial to the points. It needs at
// least two points and two distinct x values.
func LeastSquares(xs, ys []float64) (Fit, error) {
	if len(xs) != len(ys) {
		return Fit{}, apperrors.NewAppValidationError(
			fmt.Sprintf("x and y lengths differ: %d != %d", len(xs), len(ys)))
	}
	if len(xs) < 2 {
		return Fit{}, apperrors.NewAppValidationError(
			fmt.Sprintf("need at least 2 points to fit a line, have %d", len(xs)))
	}

	mx, my := mean(xs), mean(ys)
	var sxx, sxy float64
	for i := range xs {
		dx := xs[i] - mx
		sxx += dx * dx
		sxy += dx * (ys[i] - my)
	}
	if sxx == 0 {
		return Fit{}, apperrors.NewAppValidationError("x values are all equal, the fit is undefined")
	}
	slope := sxy / sxx
	return Fit{Slope: slope, Intercept: my - slope*mx}, nil
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
