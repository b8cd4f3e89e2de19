package exporter

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vanbiz/internal/chart"
	"vanbiz/pkg/contracts/domain"
)

func workbookSummary() domain.Summary {
	return domain.Summary{
		Businesses: []domain.BusinessSummary{
			{Name: "Acme", Category: "Retail", StoreCount: 2, EmployeeTotal: 13, InventoryCount: 3, RegisterFeeTotal: 25, City: "Vancouver"},
			{Name: "Blenz", Category: "Restaurant", StoreCount: 3, EmployeeTotal: 20, InventoryCount: 5, RegisterFeeTotal: 450, City: "Vancouver"},
		},
		Inventory: []domain.InventorySummary{
			{Name: "Blenz", Category: "Coffee", InventoryCount: 5},
		},
	}
}

func workbookCharts(t *testing.T, s domain.Summary) []*chart.BarChart {
	t.Helper()
	business, err := chart.NewBarChart(s, chart.DefaultPlotParams())
	require.NoError(t, err)

	p := chart.DefaultPlotParams()
	p.Dataset = chart.DatasetInventory
	p.YField = chart.FieldInventoryRecords
	inventory, err := chart.NewBarChart(s, p)
	require.NoError(t, err)
	return []*chart.BarChart{business, inventory}
}

func TestWorkbookExporter_Export(t *testing.T) {
	s := workbookSummary()
	path := filepath.Join(t.TempDir(), "out", "vanbiz_summary.xlsx")

	require.NoError(t, NewWorkbookExporter(nil).Export(path, s, workbookCharts(t, s)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetBusinesses, SheetInventory, SheetCharts}, f.GetSheetList())

	rows, err := f.GetRows(SheetBusinesses)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.BusinessHeaders, rows[0])
	assert.Equal(t, []string{"Acme", "Retail", "2", "13", "3", "25", "Vancouver"}, rows[1])

	rows, err = f.GetRows(SheetInventory)
	require.NoError(t, err)
	assert.Equal(t, [][]string{domain.InventoryHeaders, {"Blenz", "Coffee", "5"}}, rows)

	title, err := f.GetCellValue(SheetCharts, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Top 10 Business Name by Number of Store", title)

	// bars are ascending, so the largest group is the last data row
	label, err := f.GetCellValue(SheetCharts, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Blenz", label)

	second, err := f.GetCellValue(SheetCharts, "A21")
	require.NoError(t, err)
	assert.Equal(t, "Top 10 Business Name by Number of inventory", second)
}

func TestWorkbookExporter_WriteWithoutCharts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWorkbookExporter(nil).Write(&buf, domain.Summary{}, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetBusinesses)
	require.NoError(t, err)
	assert.Equal(t, [][]string{domain.BusinessHeaders}, rows)
}

func TestWorkbookExporter_EmptyChartKeepsTitle(t *testing.T) {
	empty := &chart.BarChart{Title: "Top 10 Business Name by Number of Store"}

	f, err := NewWorkbookExporter(nil).Build(domain.Summary{}, []*chart.BarChart{empty})
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(SheetCharts, "A1")
	require.NoError(t, err)
	assert.Equal(t, empty.Title, title)
}
