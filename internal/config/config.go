package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "vanbiz/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" validate:"gt=0"`
}

// RateLimitConfig contains rate limiting configuration for the dashboard API
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"gt=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=1"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system locations. Relative paths resolve
// against BaseDir, or the working directory when BaseDir is empty.
type PathsConfig struct {
	BaseDir       string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir       string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir     string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir       string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
	BusinessFile  string `yaml:"business_file" envconfig:"BUSINESS_FILE" validate:"required"`
	InventoryFile string `yaml:"inventory_file" envconfig:"INVENTORY_FILE" validate:"required"`
}

// PipelineConfig holds the cleaning and aggregation parameters.
type PipelineConfig struct {
	BusinessYear       int64    `yaml:"business_year" envconfig:"BUSINESS_YEAR" validate:"min=0"`
	InventoryYear      int64    `yaml:"inventory_year" envconfig:"INVENTORY_YEAR" validate:"min=0"`
	MinEmployees       int64    `yaml:"min_employees" envconfig:"MIN_EMPLOYEES" validate:"min=0"`
	LowerPercentile    float64  `yaml:"lower_percentile" envconfig:"LOWER_PERCENTILE" validate:"min=0,max=100,ltefield=UpperPercentile"`
	UpperPercentile    float64  `yaml:"upper_percentile" envconfig:"UPPER_PERCENTILE" validate:"min=0,max=100"`
	InventoryThreshold int      `yaml:"inventory_threshold" envconfig:"INVENTORY_THRESHOLD" validate:"min=0"`
	Separator          string   `yaml:"separator" envconfig:"SEPARATOR" validate:"len=1"`
	Provinces          []string `yaml:"provinces" envconfig:"PROVINCES" validate:"min=1,dive,required"`
	HistoricPattern    string   `yaml:"historic_pattern" envconfig:"HISTORIC_PATTERN"`
	RulesFile          string   `yaml:"rules_file" envconfig:"RULES_FILE"`
	WriteCleaned       bool     `yaml:"write_cleaned" envconfig:"WRITE_CLEANED"`

	// ApplyBusinessNameMappings enables the legal-name rule list during
	// business reconciliation. Off by default: those patterns are broad
	// substrings that also rewrite unrelated legal names.
	ApplyBusinessNameMappings bool `yaml:"apply_business_name_mappings" envconfig:"APPLY_BUSINESS_NAME_MAPPINGS"`
}

// SeparatorRune returns the CSV field separator as a rune.
func (p PipelineConfig) SeparatorRune() rune {
	for _, r := range p.Separator {
		return r
	}
	return DefaultSeparator
}

// TelemetryConfig contains OpenTelemetry settings
type TelemetryConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	EnableTracing  bool    `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	EnableMetrics  bool    `yaml:"enable_metrics" envconfig:"ENABLE_METRICS"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER" validate:"oneof=prometheus none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"min=0,max=1"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" validate:"min=1"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" validate:"min=1"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" validate:"gt=0"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" validate:"gtfield=PingPeriod"`
}

// Load builds the configuration from defaults, the first config file found
// in the usual locations, and VANBIZ_* environment variables, in that order
// of increasing precedence.
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config file %s", path), err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays YAML values onto cfg; keys absent from the file
// keep their current value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks ranges and enumerations on every section.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"vanbiz.yaml",
		"configs/vanbiz.yaml",
		"../configs/vanbiz.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RunTimeout:      DefaultRunTimeout,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			RPS:     DefaultRateLimit,
			Burst:   DefaultBurstSize,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   "json",
			Output:   "console",
			FilePath: "logs/vanbiz.log",
		},
		Paths: PathsConfig{
			DataDir:       DefaultDataDir,
			OutputDir:     DefaultOutputDir,
			LogsDir:       DefaultLogsDir,
			BusinessFile:  DefaultBusinessFile,
			InventoryFile: DefaultInventoryFile,
		},
		Pipeline: PipelineConfig{
			BusinessYear:       DefaultBusinessYear,
			InventoryYear:      DefaultInventoryYear,
			MinEmployees:       DefaultMinEmployees,
			LowerPercentile:    DefaultLowerPercentile,
			UpperPercentile:    DefaultUpperPercentile,
			InventoryThreshold: DefaultInventoryThreshold,
			Separator:          string(DefaultSeparator),
			Provinces:          []string{"BC", "British Columbia"},
			HistoricPattern:    DefaultHistoricPattern,
			WriteCleaned:       true,
		},
		Telemetry: TelemetryConfig{
			Environment:    "development",
			EnableTracing:  false,
			EnableMetrics:  true,
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
	}
}
