// Package config provides centralized configuration management for vanbiz.
// It loads configuration from multiple sources, validates it, and exposes a
// type-safe API for the pipeline, the dashboard server and telemetry.
//
// # Configuration Sources
//
// Configuration is layered in order of increasing precedence:
//
//  1. Default values (Default)
//  2. A YAML file (vanbiz.yaml, configs/vanbiz.yaml or $VANBIZ_CONFIG_FILE)
//  3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern VANBIZ_<SECTION>_<FIELD>:
//
//	VANBIZ_SERVER_PORT=8080
//	VANBIZ_LOGGING_LEVEL=debug
//	VANBIZ_LOGGING_FORMAT=text
//	VANBIZ_PIPELINE_BUSINESS_YEAR=24
//	VANBIZ_PIPELINE_INVENTORY_THRESHOLD=3
//	VANBIZ_PIPELINE_PROVINCES=BC,British Columbia
//	VANBIZ_PATHS_BUSINESS_FILE=data/business-licences.csv
//
// # Path Management
//
// ResolvePaths turns PathsConfig into absolute locations for inputs and
// every output file:
//
//	paths, err := cfg.ResolvePaths()
//	summaryCSV := paths.BusinessSummaryCSV
//
// # Validation
//
// Load validates every section with go-playground/validator: port and
// percentile ranges, exporter names, log levels and the CSV separator.
package config
