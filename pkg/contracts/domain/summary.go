package domain

import "time"

// BusinessSummary is one row of the business summary table. CSV headers are
// the column names published by the dashboard.
type BusinessSummary struct {
	Name             string  `json:"name" csv:"Business Name"`
	Category         string  `json:"category" csv:"Business Category"`
	StoreCount       int     `json:"store_count" csv:"Number of Store"`
	EmployeeTotal    int64   `json:"employee_total" csv:"Number of Employees"`
	InventoryCount   int     `json:"inventory_count" csv:"Number of Inventory"`
	RegisterFeeTotal float64 `json:"register_fee_total" csv:"Total Register Fee"`
	City             string  `json:"city" csv:"City"`
}

// InventorySummary is one row of the inventory summary table.
type InventorySummary struct {
	Name           string `json:"name" csv:"Business Name"`
	Category       string `json:"category" csv:"Business Category"`
	InventoryCount int    `json:"inventory_count" csv:"Number of inventory"`
}

// Summary bundles the two tables produced by one pipeline run.
type Summary struct {
	RunID       string             `json:"run_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Businesses  []BusinessSummary  `json:"businesses"`
	Inventory   []InventorySummary `json:"inventory"`
}

// BusinessHeaders is the column order of the business summary table.
var BusinessHeaders = []string{
	"Business Name", "Business Category", "Number of Store",
	"Number of Employees", "Number of Inventory", "Total Register Fee", "City",
}

// InventoryHeaders is the column order of the inventory summary table.
var InventoryHeaders = []string{"Business Name", "Business Category", "Number of inventory"}

// Coverage lists inventory canonical names that never matched a business.
type Coverage struct {
	InventoryNames int      `json:"inventory_names"`
	Matched        int      `json:"matched"`
	Unmatched      []string `json:"unmatched"`
}

// Ratio is the share of inventory names that matched a business, 1 when
// there are no inventory names.
func (c Coverage) Ratio() float64 {
	if c.InventoryNames == 0 {
		return 1
	}
	return float64(c.Matched) / float64(c.InventoryNames)
}

// StageStats records the row counts observed at one pipeline stage.
type StageStats struct {
	Stage    string        `json:"stage"`
	RowsIn   int           `json:"rows_in"`
	RowsOut  int           `json:"rows_out"`
	Duration time.Duration `json:"duration_ns"`
}
