package exporter

import (
	"fmt"

	"vanbiz/pkg/contracts/domain"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return fmt.Sprintf("%d", i)
}

// BusinessRecords renders business summary rows in BusinessHeaders order.
func BusinessRecords(rows []domain.BusinessSummary) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{
			r.Name,
			r.Category,
			formatInt(int64(r.StoreCount)),
			formatInt(r.EmployeeTotal),
			formatInt(int64(r.InventoryCount)),
			formatFloat(r.RegisterFeeTotal),
			r.City,
		}
	}
	return records
}

// InventoryRecords renders inventory summary rows in InventoryHeaders order.
func InventoryRecords(rows []domain.InventorySummary) [][]string {
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = []string{r.Name, r.Category, formatInt(int64(r.InventoryCount))}
	}
	return records
}
