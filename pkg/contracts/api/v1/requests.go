// Package api contains the HTTP request and response contracts of the
// dashboard API.
package api

import (
	"vanbiz/pkg/contracts/domain"
)

// RunRequest starts a pipeline run. Empty paths fall back to the configured
// input files.
type RunRequest struct {
	BusinessPath  string `json:"business_path,omitempty" validate:"omitempty,min=1"`
	InventoryPath string `json:"inventory_path,omitempty" validate:"omitempty,min=1"`
	WriteOutputs  bool   `json:"write_outputs"`
}

// RunResponse reports a completed run.
type RunResponse struct {
	RunID      string              `json:"run_id"`
	Businesses int                 `json:"businesses"`
	Inventory  int                 `json:"inventory"`
	Coverage   domain.Coverage     `json:"coverage"`
	Stages     []domain.StageStats `json:"stages"`
}

// BusinessListResponse wraps the business summary table.
type BusinessListResponse struct {
	RunID string                   `json:"run_id"`
	Total int                      `json:"total"`
	Items []domain.BusinessSummary `json:"items"`
}

// InventoryListResponse wraps the inventory summary table.
type InventoryListResponse struct {
	RunID string                    `json:"run_id"`
	Total int                       `json:"total"`
	Items []domain.InventorySummary `json:"items"`
}

// CoverageResponse reports how many inventory names matched a business.
type CoverageResponse struct {
	RunID string `json:"run_id"`
	domain.Coverage
	Ratio float64 `json:"ratio"`
}

// ChartResponse carries one rendered chart artifact. Chart is a bar,
// scatter, heatmap or column heatmap depending on Kind.
type ChartResponse struct {
	RunID string      `json:"run_id"`
	Kind  string      `json:"kind"`
	Chart interface{} `json:"chart"`
}
