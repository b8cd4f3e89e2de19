package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// RawBusinessHeader is the column layout of the municipal licence export.
var RawBusinessHeader = []string{
	"FOLDERYEAR", "LicenceRSN", "BusinessName", "BusinessTradeName", "Status",
	"BusinessType", "BusinessSubType", "Unit", "UnitType", "House", "Street",
	"City", "Province", "LocalArea", "NumberofEmployees", "FeePaid",
}

// RawInventoryHeader is the column layout of the storefront inventory export.
var RawInventoryHeader = []string{
	"ID", "Business name", "Store type", "Retail category", "Geo Local Area",
	"Unit", "Civic number - Parcel", "Street name - Parcel", "Year recorded",
}

// RawBusinessRows covers every cleaning rule: one row per rejection reason
// plus the three Acme licences and a trade-name alias for Tim Hortons.
var RawBusinessRows = [][]string{
	{"24", "1", "Acme Holdings Ltd", "Acme", "Issued", "Retail", "Hardware", "", "", "123", "Main St", "Vancouver", "BC", "Downtown", "5", "10"},
	{"24", "2", "Acme Holdings Ltd", "Acme", "Issued", "Retail *Historic*", "Hardware", "", "", "456", "Oak St", "Vancouver", "BC", "Kitsilano", "3", "5"},
	{"24", "3", "TDL Group Corp", "Tim Horton's #441", "Issued", "Restaurant", "Coffee", "101", "Unit", "88", "Pender St", "Vancouver", "British Columbia", "Downtown", "12", "200"},
	{"24", "4", "", "Nameless", "Issued", "Retail", "", "", "", "1", "Nowhere St", "Vancouver", "BC", "Downtown", "2", "1"},
	{"24", "5", "Far Away Inc", "Far Away", "Issued", "Retail", "", "", "", "2", "Yonge St", "Toronto", "ON", "", "4", "1"},
	{"24", "6", "Pending Co", "Pending", "Pending", "Retail", "", "", "", "3", "Main St", "Vancouver", "BC", "Downtown", "4", "1"},
	{"24", "7", "Solo Co", "Solo", "Issued", "Retail", "", "", "", "4", "Main St", "Vancouver", "BC", "Downtown", "0", "1"},
	{"23", "8", "Old Co", "Old", "Issued", "Retail", "", "", "", "5", "Main St", "Vancouver", "BC", "Downtown", "4", "1"},
}

// RawInventoryRows holds three Acme storefronts, one Tim Hortons storefront,
// a vacant unit, a row from an earlier survey and one unmatched business.
var RawInventoryRows = [][]string{
	{"1", "Acme", "Retail", "Hardware", "Downtown", "", "123", "Main St", "2023"},
	{"2", "Acme", "Retail", "Hardware", "Kitsilano", "", "456", "Oak St", "2023"},
	{"3", "Acme", "Retail", "Hardware", "Kitsilano", "2", "789", "Fir St", "2023"},
	{"4", "Tim Hortons", "Food", "Coffee", "Downtown", "101", "88", "Pender St", "2023"},
	{"5", "Vacant", "Vacant", "Vacant", "Downtown", "", "10", "Main St", "2023"},
	{"6", "Acme", "Retail", "Hardware", "Downtown", "", "1", "Old St", "2021"},
	{"7", "Nobody Store", "Retail", "Books", "Downtown", "", "9", "Main St", "2023"},
}

// JoinRows renders header and rows as a CSV document separated by sep.
func JoinRows(sep string, header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, sep))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(strings.Join(r, sep))
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteFile writes content under dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}

// WriteRawFixtures writes business-licences.csv and storefronts-inventory.csv
// (';'-separated) into a fresh temporary directory and returns it.
func WriteRawFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, dir, "business-licences.csv", JoinRows(";", RawBusinessHeader, RawBusinessRows))
	WriteFile(t, dir, "storefronts-inventory.csv", JoinRows(";", RawInventoryHeader, RawInventoryRows))
	return dir
}
