package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"vanbiz/internal/chart"
	"vanbiz/internal/errors"
	"vanbiz/pkg/contracts/domain"
)

// Workbook sheet names.
const (
	SheetBusinesses = "Businesses"
	SheetInventory  = "Inventory"
	SheetCharts     = "Charts"
)

// chartBlockRows is the vertical space reserved for one chart and its data.
const chartBlockRows = 20

// WorkbookExporter writes both summary tables and their bar charts to one
// Excel workbook.
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter.
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger.With(slog.String("component", "workbook_exporter"))}
}

// Export builds the workbook and saves it to path.
func (e *WorkbookExporter) Export(path string, s domain.Summary, charts []*chart.BarChart) error {
	f, err := e.Build(s, charts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to save workbook %s", path), err)
	}

	e.logger.Info("workbook exported",
		slog.String("path", path),
		slog.Int("businesses", len(s.Businesses)),
		slog.Int("inventory", len(s.Inventory)),
		slog.Int("charts", len(charts)))
	return nil
}

// Write builds the workbook and streams it to w.
func (e *WorkbookExporter) Write(w io.Writer, s domain.Summary, charts []*chart.BarChart) error {
	f, err := e.Build(s, charts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.NewStorageError("failed to write workbook", err)
	}
	return nil
}

// Build assembles the workbook in memory. The caller closes it.
func (e *WorkbookExporter) Build(s domain.Summary, charts []*chart.BarChart) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := e.build(f, s, charts); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func (e *WorkbookExporter) build(f *excelize.File, s domain.Summary, charts []*chart.BarChart) error {
	if err := f.SetSheetName("Sheet1", SheetBusinesses); err != nil {
		return errors.NewStorageError("failed to rename sheet", err)
	}
	for _, name := range []string{SheetInventory, SheetCharts} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to create sheet %s", name), err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return errors.NewStorageError("failed to create header style", err)
	}

	businessRows := make([][]interface{}, len(s.Businesses))
	for i, b := range s.Businesses {
		businessRows[i] = []interface{}{
			b.Name, b.Category, b.StoreCount, b.EmployeeTotal, b.InventoryCount, b.RegisterFeeTotal, b.City,
		}
	}
	if err := writeSheet(f, SheetBusinesses, domain.BusinessHeaders, businessRows, headerStyle); err != nil {
		return err
	}

	inventoryRows := make([][]interface{}, len(s.Inventory))
	for i, r := range s.Inventory {
		inventoryRows[i] = []interface{}{r.Name, r.Category, r.InventoryCount}
	}
	if err := writeSheet(f, SheetInventory, domain.InventoryHeaders, inventoryRows, headerStyle); err != nil {
		return err
	}

	for i, c := range charts {
		if err := addBarChart(f, c, 1+i*chartBlockRows); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]interface{}, headerStyle int) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to write %s header", sheet), err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to style %s header", sheet), err)
	}

	for i := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write %s row %d", sheet, i+2), err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 30); err != nil {
		return errors.NewStorageError("failed to set column width", err)
	}
	return nil
}

// addBarChart writes the chart's bars as a data block starting at row and
// places a native horizontal bar chart beside it. Charts with no bars only
// get their title row.
func addBarChart(f *excelize.File, c *chart.BarChart, row int) error {
	title, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetCellValue(SheetCharts, title, c.Title); err != nil {
		return errors.NewStorageError("failed to write chart title", err)
	}
	if len(c.Bars) == 0 {
		return nil
	}

	first, last := row+1, row+len(c.Bars)
	for i, b := range c.Bars {
		cell, _ := excelize.CoordinatesToCellName(1, first+i)
		values := []interface{}{b.Label, b.Value}
		if err := f.SetSheetRow(SheetCharts, cell, &values); err != nil {
			return errors.NewStorageError("failed to write chart data", err)
		}
	}

	anchor, _ := excelize.CoordinatesToCellName(4, row)
	err := f.AddChart(SheetCharts, anchor, &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$A$%d", SheetCharts, row),
			Categories: fmt.Sprintf("%s!$A$%d:$A$%d", SheetCharts, first, last),
			Values:     fmt.Sprintf("%s!$B$%d:$B$%d", SheetCharts, first, last),
			Fill:       excelize.Fill{Type: "pattern", Color: []string{c.Bars[len(c.Bars)-1].Color}, Pattern: 1},
		}},
		Title:     []excelize.RichTextRun{{Text: c.Title}},
		Legend:    excelize.ChartLegend{Position: "none"},
		PlotArea:  excelize.ChartPlotArea{ShowVal: true},
		Dimension: excelize.ChartDimension{Width: 640, Height: 360},
	})
	if err != nil {
		return errors.NewStorageError(fmt.Sprintf("failed to add chart %q", c.Title), err)
	}
	return nil
}
