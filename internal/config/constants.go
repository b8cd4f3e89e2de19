package config

import "time"

// Application constants
const (
	AppName   = "vanbiz"
	EnvPrefix = "VANBIZ"

	// File Paths (relative to the base directory)
	DefaultDataDir       = "data"
	DefaultOutputDir     = "data/output"
	DefaultLogsDir       = "logs"
	DefaultBusinessFile  = "data/business-licences.csv"
	DefaultInventoryFile = "data/storefronts-inventory.csv"

	// Output file names written into the output directory
	BusinessSummaryCSV   = "business_summary.csv"
	BusinessSummaryJSON  = "business_summary.json"
	InventorySummaryCSV  = "inventory_summary.csv"
	InventorySummaryJSON = "inventory_summary.json"
	BusinessCleanedCSV   = "business_cleaned.csv"
	InventoryCleanedCSV  = "inventory_cleaned.csv"
	WorkbookXLSX         = "vanbiz_summary.xlsx"

	// Pipeline defaults
	DefaultBusinessYear       = 24
	DefaultInventoryYear      = 2023
	DefaultMinEmployees       = 1
	DefaultLowerPercentile    = 0.1
	DefaultUpperPercentile    = 99.9
	DefaultInventoryThreshold = 3
	DefaultSeparator          = ';'
	DefaultHistoricPattern    = `\s*\*Historic\*`

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Timeouts
	DefaultRunTimeout   = 5 * time.Minute
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// RuntimeSampleInterval is how often process gauges are refreshed
	RuntimeSampleInterval = 15 * time.Second

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel = "info"
)
