package dataprocessing

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"vanbiz/internal/errors"
	"vanbiz/internal/exporter"
	"vanbiz/internal/table"
	"vanbiz/pkg/contracts/domain"
)

// Summarizer writes the summary tables of a run and, optionally, the cleaned
// datasets they were built from.
type Summarizer struct {
	logger     *slog.Logger
	csv        *exporter.CSVWriter
	bomPrefix  bool
	indentJSON bool
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	BOMPrefix  bool // Prefix summary CSV files with a UTF-8 BOM for Excel
	IndentJSON bool // Pretty-print JSON output
}

// DefaultSummarizerConfig returns the configuration used by the binaries.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{BOMPrefix: true, IndentJSON: true}
}

// NewSummarizer creates a summarizer with the given configuration.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Summarizer{
		logger:     logger.With(slog.String("component", "summarizer")),
		csv:        exporter.NewCSVWriter(nil, logger),
		bomPrefix:  config.BOMPrefix,
		indentJSON: config.IndentJSON,
	}
}

// WriteBusinessCSV writes the business summary table to path.
func (s *Summarizer) WriteBusinessCSV(ctx context.Context, path string, rows []domain.BusinessSummary) error {
	s.logger.InfoContext(ctx, "writing business summary to CSV",
		slog.String("path", path),
		slog.Int("count", len(rows)))
	return s.csv.WriteBusinessSummary(path, rows, s.bomPrefix)
}

// WriteInventoryCSV writes the inventory summary table to path.
func (s *Summarizer) WriteInventoryCSV(ctx context.Context, path string, rows []domain.InventorySummary) error {
	s.logger.InfoContext(ctx, "writing inventory summary to CSV",
		slog.String("path", path),
		slog.Int("count", len(rows)))
	return s.csv.WriteInventorySummary(path, rows, s.bomPrefix)
}

// WriteCleanedCSV writes a cleaned dataset, header first.
func (s *Summarizer) WriteCleanedCSV(ctx context.Context, path string, t *table.Table) error {
	s.logger.InfoContext(ctx, "writing cleaned dataset to CSV",
		slog.String("path", path),
		slog.Int("rows", t.Len()))

	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := table.WriteCSV(file, t); err != nil {
		return err
	}
	return closeFile(file)
}

// WriteJSON writes v (typically a summary slice or domain.Summary) to path.
func (s *Summarizer) WriteJSON(ctx context.Context, path string, v interface{}) error {
	s.logger.InfoContext(ctx, "writing summary to JSON", slog.String("path", path))

	file, err := createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	if s.indentJSON {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(v); err != nil {
		return errors.NewStorageError("failed to encode summary to JSON", err)
	}
	return closeFile(file)
}

// OutputPaths names the files WriteAll produces. Empty fields are skipped.
type OutputPaths struct {
	BusinessCSV         string
	BusinessJSON        string
	InventoryCSV        string
	InventoryJSON       string
	BusinessCleanedCSV  string
	InventoryCleanedCSV string
}

// WriteAll writes every configured output of a run.
func (s *Summarizer) WriteAll(ctx context.Context, res *Result, out OutputPaths) error {
	writes := []struct {
		path string
		fn   func(string) error
	}{
		{out.BusinessCSV, func(p string) error { return s.WriteBusinessCSV(ctx, p, res.Summary.Businesses) }},
		{out.BusinessJSON, func(p string) error { return s.WriteJSON(ctx, p, res.Summary.Businesses) }},
		{out.InventoryCSV, func(p string) error { return s.WriteInventoryCSV(ctx, p, res.Summary.Inventory) }},
		{out.InventoryJSON, func(p string) error { return s.WriteJSON(ctx, p, res.Summary.Inventory) }},
		{out.BusinessCleanedCSV, func(p string) error { return s.WriteCleanedCSV(ctx, p, res.CleanedBusinesses) }},
		{out.InventoryCleanedCSV, func(p string) error { return s.WriteCleanedCSV(ctx, p, res.CleanedInventory) }},
	}

	for _, w := range writes {
		if w.path == "" {
			continue
		}
		if err := w.fn(w.path); err != nil {
			return err
		}
	}
	return nil
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.NewStorageError("failed to create output directory", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to create output file", err)
	}
	return file, nil
}

// closeFile surfaces flush errors that a deferred Close would drop.
func closeFile(f *os.File) error {
	if err := f.Close(); err != nil {
		return errors.NewStorageError("failed to close output file", err)
	}
	return nil
}
