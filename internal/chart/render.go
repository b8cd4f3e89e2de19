package chart

import (
	"fmt"

	apperrors "vanbiz/internal/errors"
	"vanbiz/pkg/contracts/domain"
)

// Render builds the chart p.Kind names. The result is a *BarChart,
// *ScatterChart, *Heatmap or *ColumnHeatmap.
func Render(s domain.Summary, p PlotParams) (interface{}, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch p.Kind {
	case KindBar:
		return NewBarChart(s, p)
	case KindScatter:
		return NewScatterChart(s, p.XField, p.YField, p.Theme)
	case KindHeatmap:
		return NewHeatmap(s, p.Theme), nil
	case KindColumnHeatmap:
		return NewSingleColumnHeatmap(s, p.XField, p.Theme)
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown chart kind %q", p.Kind))
	}
}
