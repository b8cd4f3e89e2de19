package chart

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "vanbiz/internal/errors"
	"vanbiz/pkg/contracts/domain"
)

// Kind selects the chart Render produces.
type Kind string

const (
	KindBar           Kind = "bar"
	KindScatter       Kind = "scatter"
	KindHeatmap       Kind = "heatmap"
	KindColumnHeatmap Kind = "column-heatmap"
)

// Top-N bounds of the bar chart selector.
const (
	MinTopN     = 5
	MaxTopN     = 15
	DefaultTopN = 10
)

// PlotParams are the user-chosen settings of one chart. Query parameters of
// the charts endpoint bind into it by their form names.
type PlotParams struct {
	Kind    Kind    `json:"kind" form:"kind" validate:"required,oneof=bar scatter heatmap column-heatmap"`
	Dataset Dataset `json:"dataset" form:"dataset" validate:"required,oneof=business inventory"`
	XField  string  `json:"x" form:"x" validate:"required_unless=Kind heatmap"`
	YField  string  `json:"y" form:"y" validate:"required_if=Kind bar,required_if=Kind scatter"`
	TopN    int     `json:"top_n" form:"top_n" validate:"min=5,max=15"`
	Theme   Theme   `json:"theme" form:"theme" validate:"required,oneof=Blue Green Orange Grey"`
}

// DefaultPlotParams returns the dashboard's initial business bar chart.
func DefaultPlotParams() PlotParams {
	return PlotParams{
		Kind:    KindBar,
		Dataset: DatasetBusiness,
		XField:  FieldBusinessName,
		YField:  FieldStores,
		TopN:    DefaultTopN,
		Theme:   ThemeBlue,
	}
}

// WithDefaults fills zero fields from DefaultPlotParams. Scatter and heatmap
// charts always read the business table; bar charts without axes plot the
// dataset's count column against the business name.
func (p PlotParams) WithDefaults() PlotParams {
	d := DefaultPlotParams()
	if p.Kind == "" {
		p.Kind = d.Kind
	}
	if p.Dataset == "" || p.Kind != KindBar {
		p.Dataset = DatasetBusiness
	}
	if p.TopN == 0 {
		p.TopN = d.TopN
	}
	if p.Theme == "" {
		p.Theme = d.Theme
	}
	if p.Kind == KindBar {
		if p.XField == "" {
			p.XField = d.XField
		}
		if p.YField == "" {
			p.YField = d.YField
			if p.Dataset == DatasetInventory {
				p.YField = FieldInventoryRecords
			}
		}
	}
	return p
}

var validate = validator.New()

// Validate checks the tags and that the fields exist in the chosen dataset
// with the right kind: X is a label column for bar charts, every other field
// is numeric.
func (p PlotParams) Validate() error {
	if err := validate.Struct(p); err != nil {
		return apperrors.NewAppValidationError(formatValidationErrors(err))
	}

	f := &frame{dataset: p.Dataset, order: columnsOf(p.Dataset)}
	switch p.Kind {
	case KindBar:
		if !f.hasLabel(p.XField) {
			return fieldError(p.Dataset, p.XField, "label")
		}
		if !f.hasValue(p.YField) {
			return fieldError(p.Dataset, p.YField, "numeric")
		}
	case KindScatter:
		for _, field := range []string{p.XField, p.YField} {
			if !f.hasValue(field) {
				return fieldError(p.Dataset, field, "numeric")
			}
		}
		if p.XField == p.YField {
			return apperrors.NewTypeError(fmt.Sprintf("scatter axes must differ, both are %q", p.XField))
		}
	case KindColumnHeatmap:
		if _, ok := correlationLabel(p.XField); !ok {
			return apperrors.NewSchemaError(p.XField).
				WithContext("allowed", CorrelationLabels)
		}
	}
	return nil
}

func columnsOf(d Dataset) []string {
	if d == DatasetInventory {
		return domain.InventoryHeaders
	}
	return domain.BusinessHeaders
}

func fieldError(d Dataset, field, want string) error {
	return apperrors.NewSchemaError(field).
		WithContext("dataset", string(d)).
		WithContext("want", want)
}

func formatValidationErrors(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_if", "required_unless":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
