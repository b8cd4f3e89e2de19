package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vanbiz/internal/config"
	"vanbiz/internal/errors"
	"vanbiz/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality. Relative paths resolve
// against the output directory.
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. paths may be nil, in which
// case relative paths resolve against the working directory.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.NewStorageError("failed to create directory", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return errors.NewStorageError("failed to open file", err)
	}
	defer file.Close()

	// A BOM only belongs at the start of a new file
	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(utf8BOM); err != nil {
			return errors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return errors.NewStorageError("failed to write headers", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewStorageError("failed to flush CSV", err)
	}
	return file.Close()
}

// WriteSimpleCSV writes a new CSV file with headers, records and a BOM
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// AppendToCSV appends records to an existing CSV file
func (w *CSVWriter) AppendToCSV(filePath string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Records: records,
		Append:  true,
	})
}

// WriteBusinessSummary writes the business summary table.
func (w *CSVWriter) WriteBusinessSummary(filePath string, rows []domain.BusinessSummary, bom bool) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   domain.BusinessHeaders,
		Records:   BusinessRecords(rows),
		BOMPrefix: bom,
	})
}

// WriteInventorySummary writes the inventory summary table.
func (w *CSVWriter) WriteInventorySummary(filePath string, rows []domain.InventorySummary, bom bool) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   domain.InventoryHeaders,
		Records:   InventoryRecords(rows),
		BOMPrefix: bom,
	})
}

// WriteSummaryCSV writes both summary tables of s with a BOM.
func (w *CSVWriter) WriteSummaryCSV(businessPath, inventoryPath string, s domain.Summary) error {
	if err := w.WriteBusinessSummary(businessPath, s.Businesses, true); err != nil {
		return err
	}
	return w.WriteInventorySummary(inventoryPath, s.Inventory, true)
}

// resolvePath resolves a path to the appropriate directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return filepath.Join(w.paths.OutputDir, filePath)
}
