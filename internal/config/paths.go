package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every resolved file system location used by the binaries.
// This is the single source of truth for input and output paths.
type Paths struct {
	BaseDir   string
	DataDir   string
	OutputDir string
	LogsDir   string

	// Inputs
	BusinessFile  string
	InventoryFile string

	// Outputs
	BusinessSummaryCSV   string
	BusinessSummaryJSON  string
	InventorySummaryCSV  string
	InventorySummaryJSON string
	BusinessCleanedCSV   string
	InventoryCleanedCSV  string
	WorkbookXLSX         string
}

// ResolvePaths returns the configured paths made absolute.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}

	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(base, p)
	}

	outputDir := resolve(c.Paths.OutputDir)

	return &Paths{
		BaseDir:   base,
		DataDir:   resolve(c.Paths.DataDir),
		OutputDir: outputDir,
		LogsDir:   resolve(c.Paths.LogsDir),

		BusinessFile:  resolve(c.Paths.BusinessFile),
		InventoryFile: resolve(c.Paths.InventoryFile),

		BusinessSummaryCSV:   filepath.Join(outputDir, BusinessSummaryCSV),
		BusinessSummaryJSON:  filepath.Join(outputDir, BusinessSummaryJSON),
		InventorySummaryCSV:  filepath.Join(outputDir, InventorySummaryCSV),
		InventorySummaryJSON: filepath.Join(outputDir, InventorySummaryJSON),
		BusinessCleanedCSV:   filepath.Join(outputDir, BusinessCleanedCSV),
		InventoryCleanedCSV:  filepath.Join(outputDir, InventoryCleanedCSV),
		WorkbookXLSX:         filepath.Join(outputDir, WorkbookXLSX),
	}, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.OutputDir, p.LogsDir}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ValidateInputs checks that both raw datasets are present.
func (p *Paths) ValidateInputs() error {
	inputs := []struct{ name, path string }{
		{"business licences", p.BusinessFile},
		{"storefront inventory", p.InventoryFile},
	}
	for _, in := range inputs {
		if !FileExists(in.path) {
			return fmt.Errorf("%s file missing: %s", in.name, in.path)
		}
	}
	return nil
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("inputs",
			slog.String("business", p.BusinessFile),
			slog.String("inventory", p.InventoryFile),
		),
		slog.Group("outputs",
			slog.String("business_summary_csv", p.BusinessSummaryCSV),
			slog.String("inventory_summary_csv", p.InventorySummaryCSV),
			slog.String("workbook", p.WorkbookXLSX),
		))
}
