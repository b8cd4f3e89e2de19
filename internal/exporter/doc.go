// Package exporter writes pipeline summaries to files.
//
// CSVWriter writes the business and inventory summary tables as CSV, with an
// optional UTF-8 BOM so Excel opens accented names correctly. Relative paths
// resolve against the configured output directory.
//
// WorkbookExporter writes both tables to one Excel workbook and adds a
// Charts sheet holding native bar charts built from chart.BarChart values.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths, logger)
//	err := writer.WriteSummaryCSV(config.BusinessSummaryCSV, config.InventorySummaryCSV, summary)
//
//	bar, _ := chart.NewBarChart(summary, chart.DefaultPlotParams())
//	err = exporter.NewWorkbookExporter(logger).Export(paths.WorkbookXLSX, summary, []*chart.BarChart{bar})
package exporter
