package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vanbiz/internal/errors"
	"vanbiz/pkg/contracts/domain"
)

func sampleSummary() domain.Summary {
	return domain.Summary{
		Businesses: []domain.BusinessSummary{
			{Name: "Acme", Category: "Retail", StoreCount: 2, EmployeeTotal: 8, InventoryCount: 3, RegisterFeeTotal: 15, City: "Vancouver"},
			{Name: "Tim Hortons", Category: "Restaurant", StoreCount: 4, EmployeeTotal: 40, InventoryCount: 0, RegisterFeeTotal: 800, City: "Vancouver"},
			{Name: "Blenz", Category: "Restaurant", StoreCount: 3, EmployeeTotal: 20, InventoryCount: 5, RegisterFeeTotal: 450, City: "Vancouver"},
			{Name: "Bosley's", Category: "Retail", StoreCount: 1, EmployeeTotal: 6, InventoryCount: 1, RegisterFeeTotal: 120, City: "Vancouver"},
			{Name: "Vancity", Category: "Financial", StoreCount: 6, EmployeeTotal: 90, InventoryCount: 6, RegisterFeeTotal: 1500, City: "Vancouver"},
			{Name: "JJ Bean", Category: "Restaurant", StoreCount: 2, EmployeeTotal: 12, InventoryCount: 2, RegisterFeeTotal: 300, City: "Vancouver"},
		},
		Inventory: []domain.InventorySummary{
			{Name: "Vancity", Category: "Bank", InventoryCount: 6},
			{Name: "Blenz", Category: "Coffee", InventoryCount: 5},
			{Name: "Acme", Category: "Hardware", InventoryCount: 3},
		},
	}
}

func barParams() PlotParams {
	return PlotParams{
		Kind:    KindBar,
		Dataset: DatasetBusiness,
		XField:  FieldBusinessName,
		YField:  FieldEmployees,
		TopN:    5,
		Theme:   ThemeBlue,
	}
}

func TestPlotParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PlotParams)
		wantErr func(error) bool
	}{
		{"valid bar", func(*PlotParams) {}, nil},
		{"top n below range", func(p *PlotParams) { p.TopN = 4 }, apperrors.IsValidationError},
		{"top n above range", func(p *PlotParams) { p.TopN = 16 }, apperrors.IsValidationError},
		{"unknown theme", func(p *PlotParams) { p.Theme = "Purple" }, apperrors.IsValidationError},
		{"unknown dataset", func(p *PlotParams) { p.Dataset = "parcels" }, apperrors.IsValidationError},
		{"missing y for bar", func(p *PlotParams) { p.YField = "" }, apperrors.IsValidationError},
		{"numeric x for bar", func(p *PlotParams) { p.XField = FieldStores }, apperrors.IsSchemaError},
		{"unknown y column", func(p *PlotParams) { p.YField = "Revenue" }, apperrors.IsSchemaError},
		{"business column on inventory", func(p *PlotParams) {
			p.Dataset = DatasetInventory
		}, apperrors.IsSchemaError},
		{"inventory bar", func(p *PlotParams) {
			p.Dataset = DatasetInventory
			p.YField = FieldInventoryRecords
		}, nil},
		{"scatter with equal axes", func(p *PlotParams) {
			p.Kind = KindScatter
			p.XField, p.YField = FieldStores, FieldStores
		}, apperrors.IsTypeError},
		{"heatmap needs no fields", func(p *PlotParams) {
			p.Kind = KindHeatmap
			p.XField, p.YField = "", ""
		}, nil},
		{"column heatmap with unknown column", func(p *PlotParams) {
			p.Kind = KindColumnHeatmap
			p.XField = "City"
		}, apperrors.IsSchemaError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := barParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, tt.wantErr(err), "unexpected error type: %v", err)
		})
	}
}

func TestPlotParams_WithDefaults(t *testing.T) {
	p := PlotParams{Kind: KindScatter, Dataset: DatasetInventory}.WithDefaults()
	assert.Equal(t, DatasetBusiness, p.Dataset)
	assert.Equal(t, DefaultTopN, p.TopN)
	assert.Equal(t, ThemeBlue, p.Theme)

	empty := PlotParams{}.WithDefaults()
	assert.Equal(t, KindBar, empty.Kind)
	assert.Equal(t, FieldBusinessName, empty.XField)
	assert.Equal(t, FieldStores, empty.YField)
	assert.NoError(t, empty.Validate())

	inv := PlotParams{Dataset: DatasetInventory}.WithDefaults()
	assert.Equal(t, FieldInventoryRecords, inv.YField)
	assert.NoError(t, inv.Validate())
}

func TestNewBarChart(t *testing.T) {
	c, err := NewBarChart(sampleSummary(), barParams())
	require.NoError(t, err)

	assert.Equal(t, "Top 5 Business Name by Number of Employees", c.Title)
	require.Len(t, c.Bars, 5)

	var labels []string
	for _, b := range c.Bars {
		labels = append(labels, b.Label)
	}
	// ascending, largest last; Bosley's (6) falls outside the top 5
	assert.Equal(t, []string{"Acme", "JJ Bean", "Blenz", "Tim Hortons", "Vancity"}, labels)
	assert.Equal(t, 90.0, c.Bars[4].Value)
	assert.Equal(t, "90", c.Bars[4].Text)

	// colours darken towards the largest bar
	assert.Equal(t, "#F7FBFF", c.Bars[0].Color)
	assert.Equal(t, "black", c.Bars[0].LabelColor)
	assert.Equal(t, "#08306B", c.Bars[4].Color)
	assert.Equal(t, "white", c.Bars[4].LabelColor)
	assert.Equal(t, "#F4FAFD", c.Background)
}

func TestNewBarChart_GroupsByCategory(t *testing.T) {
	p := barParams()
	p.XField = FieldBusinessCategory
	p.YField = FieldRegisterFee
	p.TopN = 10

	c, err := NewBarChart(sampleSummary(), p)
	require.NoError(t, err)

	require.Len(t, c.Bars, 3)
	assert.Equal(t, Bar{Label: "Retail", Value: 135, Text: "135", Color: c.Bars[0].Color, LabelColor: "black"}, c.Bars[0])
	assert.Equal(t, "Financial", c.Bars[1].Label)
	assert.Equal(t, "Restaurant", c.Bars[2].Label)
	assert.Equal(t, 1550.0, c.Bars[2].Value)
	assert.Equal(t, "1,550", c.Bars[2].Text)
}

func TestNewBarChart_TiesRankByLabel(t *testing.T) {
	s := domain.Summary{Businesses: []domain.BusinessSummary{
		{Name: "Zed", StoreCount: 1}, {Name: "Alpha", StoreCount: 1}, {Name: "Mid", StoreCount: 1},
		{Name: "Big", StoreCount: 9}, {Name: "Beta", StoreCount: 1}, {Name: "Gamma", StoreCount: 1},
	}}
	p := barParams()
	p.YField = FieldStores

	c, err := NewBarChart(s, p)
	require.NoError(t, err)
	require.Len(t, c.Bars, 5)
	assert.Equal(t, "Big", c.Bars[4].Label)
	assert.Equal(t, "Alpha", c.Bars[3].Label)
	assert.Equal(t, "Mid", c.Bars[0].Label)
}

func TestNewScatterChart(t *testing.T) {
	s := domain.Summary{Businesses: []domain.BusinessSummary{
		{Name: "A", StoreCount: 1, EmployeeTotal: 3},
		{Name: "B", StoreCount: 2, EmployeeTotal: 5},
		{Name: "C", StoreCount: 3, EmployeeTotal: 7},
	}}

	c, err := NewScatterChart(s, FieldStores, FieldEmployees, ThemeGreen)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, c.Fit.Slope, 1e-9)
	assert.InDelta(t, 1.0, c.Fit.Intercept, 1e-9)
	assert.Equal(t, "Regression line: 2.00x + 1.00", c.LineLabel)
	assert.Equal(t, "#2F9F23", c.PointColor)
	assert.Equal(t, RegressionLineColor, c.LineColor)
	assert.Equal(t, Point{Label: "B", X: 2, Y: 5}, c.Points[1])
}

func TestNewScatterChart_SameAxis(t *testing.T) {
	_, err := NewScatterChart(sampleSummary(), FieldStores, FieldStores, ThemeBlue)
	require.Error(t, err)
	assert.True(t, apperrors.IsTypeError(err))
}

func TestLeastSquares(t *testing.T) {
	tests := []struct {
		name    string
		xs, ys  []float64
		want    Fit
		wantErr bool
	}{
		{"exact line", []float64{0, 1, 2}, []float64{1, 3, 5}, Fit{Slope: 2, Intercept: 1}, false},
		{"noisy", []float64{1, 2, 3, 4}, []float64{2, 4, 5, 8}, Fit{Slope: 1.9, Intercept: 0}, false},
		{"single point", []float64{1}, []float64{1}, Fit{}, true},
		{"constant x", []float64{2, 2, 2}, []float64{1, 2, 3}, Fit{}, true},
		{"length mismatch", []float64{1, 2}, []float64{1}, Fit{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LeastSquares(tt.xs, tt.ys)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want.Slope, got.Slope, 1e-9)
			assert.InDelta(t, tt.want.Intercept, got.Intercept, 1e-9)
		})
	}
}

func TestPearson(t *testing.T) {
	assert.InDelta(t, 1.0, Pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-9)
	assert.InDelta(t, -1.0, Pearson([]float64{1, 2, 3}, []float64{6, 4, 2}), 1e-9)
	assert.Equal(t, 0.0, Pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, Pearson([]float64{1}, []float64{1}))
}

func TestNewHeatmap(t *testing.T) {
	h := NewHeatmap(sampleSummary(), ThemeOrange)

	assert.Equal(t, CorrelationLabels, h.Labels)
	assert.Equal(t, "Oranges", h.ColorMap)
	require.Len(t, h.Matrix, 4)
	for i := range h.Matrix {
		assert.Equal(t, 1.0, h.Matrix[i][i])
		for j := range h.Matrix[i] {
			assert.GreaterOrEqual(t, h.Matrix[i][j], 0.0)
			assert.LessOrEqual(t, h.Matrix[i][j], 1.0+1e-9)
			assert.InDelta(t, h.Matrix[i][j], h.Matrix[j][i], 1e-12)
		}
	}
}

func TestNewSingleColumnHeatmap(t *testing.T) {
	tests := []struct {
		name   string
		column string
	}{
		{"short label", "Employees"},
		{"summary column", FieldEmployees},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewSingleColumnHeatmap(sampleSummary(), tt.column, ThemeGrey)
			require.NoError(t, err)

			assert.Equal(t, "Employees", h.Column)
			assert.Equal(t, "Correlation with Employees", h.Title)
			require.Len(t, h.Values, 4)
			assert.Equal(t, "Employees", h.Labels[0])
			assert.Equal(t, 1.0, h.Values[0])
			for i := 1; i < len(h.Values); i++ {
				assert.GreaterOrEqual(t, h.Values[i-1], h.Values[i])
			}
		})
	}
}

func TestNewOverview(t *testing.T) {
	o := NewOverview(sampleSummary())

	assert.Equal(t, 6, o.Businesses)
	assert.Equal(t, 3, o.InventoryRecords)
	assert.Equal(t, 5, o.BusinessesWithInventory)
	assert.Equal(t, &Leader{Name: "Vancity", Value: 90}, o.MostEmployees)
	assert.Equal(t, &Leader{Name: "Vancity", Value: 6}, o.MostInventory)
	assert.Equal(t, &Leader{Name: "Vancity", Value: 6}, o.MostStores)
	assert.Equal(t, &Leader{Name: "Vancity", Value: 1500}, o.HighestRegisterFee)

	empty := NewOverview(domain.Summary{})
	assert.Zero(t, empty.Businesses)
	assert.Nil(t, empty.MostEmployees)
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		params PlotParams
		want   interface{}
	}{
		{"bar", barParams(), &BarChart{}},
		{"scatter", PlotParams{Kind: KindScatter, XField: FieldInventory, YField: FieldRegisterFee}.WithDefaults(), &ScatterChart{}},
		{"heatmap", PlotParams{Kind: KindHeatmap}.WithDefaults(), &Heatmap{}},
		{"column heatmap", PlotParams{Kind: KindColumnHeatmap, XField: "Store"}.WithDefaults(), &ColumnHeatmap{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(sampleSummary(), tt.params)
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestRender_InvalidParams(t *testing.T) {
	_, err := Render(sampleSummary(), PlotParams{Kind: "pie"}.WithDefaults())
	require.Error(t, err)
	assert.True(t, apperrors.IsValidationError(err))
}

func TestRender_ThemesAreIndependent(t *testing.T) {
	s := sampleSummary()
	blue, err := NewBarChart(s, barParams())
	require.NoError(t, err)

	p := barParams()
	p.Theme = ThemeGreen
	green, err := NewBarChart(s, p)
	require.NoError(t, err)

	again, err := NewBarChart(s, barParams())
	require.NoError(t, err)

	assert.NotEqual(t, blue.Bars[4].Color, green.Bars[4].Color)
	assert.Equal(t, blue, again)
}

func TestPalette_Ramp(t *testing.T) {
	for _, theme := range Themes {
		ramp := PaletteFor(theme).Ramp(3)
		require.Len(t, ramp, 3)
		assert.Equal(t, PaletteFor(theme).RampLow, ramp[0])
		assert.Equal(t, PaletteFor(theme).RampHigh, ramp[2])
	}
	assert.Equal(t, []string{"#F7FBFF"}, PaletteFor(ThemeBlue).Ramp(1))
	assert.Equal(t, PaletteFor(ThemeBlue), PaletteFor("Purple"))
}

func TestFormatThousands(t *testing.T) {
	tests := map[float64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		1234567.6: "1,234,568",
		-4500:     "-4,500",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatThousands(in))
	}
}
