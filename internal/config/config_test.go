package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vanbiz/internal/errors"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vanbiz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(24), cfg.Pipeline.BusinessYear)
	assert.Equal(t, int64(2023), cfg.Pipeline.InventoryYear)
	assert.Equal(t, int64(1), cfg.Pipeline.MinEmployees)
	assert.Equal(t, 0.1, cfg.Pipeline.LowerPercentile)
	assert.Equal(t, 99.9, cfg.Pipeline.UpperPercentile)
	assert.Equal(t, 3, cfg.Pipeline.InventoryThreshold)
	assert.Equal(t, ";", cfg.Pipeline.Separator)
	assert.Equal(t, ';', cfg.Pipeline.SeparatorRune())
	assert.Equal(t, []string{"BC", "British Columbia"}, cfg.Pipeline.Provinces)
	assert.False(t, cfg.Pipeline.ApplyBusinessNameMappings)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
	assert.Equal(t, "prometheus", cfg.Telemetry.MetricExporter)

	require.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		wantErr  bool
		validate func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "file overlays defaults",
			file: `
server:
  port: 9090
  read_timeout: 5s
pipeline:
  business_year: 23
  inventory_threshold: 5
  provinces: [BC]
  apply_business_name_mappings: true
`,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, int64(23), cfg.Pipeline.BusinessYear)
				assert.Equal(t, 5, cfg.Pipeline.InventoryThreshold)
				assert.Equal(t, []string{"BC"}, cfg.Pipeline.Provinces)
				assert.Equal(t, int64(2023), cfg.Pipeline.InventoryYear)
				assert.True(t, cfg.Pipeline.ApplyBusinessNameMappings)
			},
		},
		{
			name: "env wins over file",
			file: "server:\n  port: 9090\n",
			env: map[string]string{
				"VANBIZ_SERVER_PORT":                  "7070",
				"VANBIZ_PIPELINE_INVENTORY_THRESHOLD": "4",
				"VANBIZ_PIPELINE_PROVINCES":           "BC,British Columbia,B.C.",
				"VANBIZ_LOGGING_LEVEL":                "debug",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 4, cfg.Pipeline.InventoryThreshold)
				assert.Equal(t, []string{"BC", "British Columbia", "B.C."}, cfg.Pipeline.Provinces)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"VANBIZ_SERVER_PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "inverted percentiles",
			file:    "pipeline:\n  lower_percentile: 99\n  upper_percentile: 1\n",
			wantErr: true,
		},
		{
			name:    "multi character separator",
			env:     map[string]string{"VANBIZ_PIPELINE_SEPARATOR": ";;"},
			wantErr: true,
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"VANBIZ_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [unterminated\n",
			wantErr: true,
		},
		{
			name:    "unparseable env value",
			env:     map[string]string{"VANBIZ_SERVER_PORT": "eighty"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFile(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrTypeConfig, apperrors.TypeOf(err))
				return
			}

			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeConfig, apperrors.TypeOf(err))
}

func TestLoad_ConfigFileFromEnv(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 9191\n")
	t.Setenv("VANBIZ_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base
	cfg.Paths.InventoryFile = filepath.Join(base, "elsewhere", "inv.xlsx")

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(base, "data", "output"), paths.OutputDir)
	assert.Equal(t, filepath.Join(base, "data", "business-licences.csv"), paths.BusinessFile)
	assert.Equal(t, filepath.Join(base, "elsewhere", "inv.xlsx"), paths.InventoryFile)
	assert.Equal(t, filepath.Join(base, "data", "output", BusinessSummaryCSV), paths.BusinessSummaryCSV)
	assert.Equal(t, filepath.Join(base, "data", "output", WorkbookXLSX), paths.WorkbookXLSX)

	require.NoError(t, paths.EnsureDirectories())
	assert.DirExists(t, paths.OutputDir)
	assert.DirExists(t, paths.LogsDir)
}

func TestValidateInputs(t *testing.T) {
	base := t.TempDir()
	cfg := Default()
	cfg.Paths.BaseDir = base

	paths, err := cfg.ResolvePaths()
	require.NoError(t, err)

	err = paths.ValidateInputs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "business licences")

	require.NoError(t, paths.EnsureDirectories())
	require.NoError(t, os.WriteFile(paths.BusinessFile, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(paths.InventoryFile, []byte("x"), 0644))
	assert.NoError(t, paths.ValidateInputs())
}
