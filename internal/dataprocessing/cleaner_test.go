package dataprocessing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "vanbiz/internal/errors"
	"vanbiz/internal/reconcile"
	"vanbiz/internal/shared/testutil"
	"vanbiz/internal/table"
)

func rawTable(t *testing.T, header []string, rows [][]string) *table.Table {
	t.Helper()
	tbl, err := table.ReadCSV(strings.NewReader(testutil.JoinRows(";", header, rows)), table.ReadOptions{Comma: ';'})
	require.NoError(t, err)
	return tbl
}

func rawBusinesses(t *testing.T) *table.Table {
	return rawTable(t, testutil.RawBusinessHeader, testutil.RawBusinessRows)
}

func rawInventory(t *testing.T) *table.Table {
	return rawTable(t, testutil.RawInventoryHeader, testutil.RawInventoryRows)
}

// untrimmedConfig keeps every row through the percentile trim, which on a
// handful of rows always removes the extremes.
func untrimmedConfig() CleanerConfig {
	cfg := DefaultCleanerConfig()
	cfg.LowerPercentile = 0
	cfg.UpperPercentile = 100
	return cfg
}

// testRules is the default rule set plus a direct name that joins the Acme
// licences to their storefronts.
func testRules(t *testing.T) *reconcile.RuleSet {
	t.Helper()
	rs, err := reconcile.DefaultRuleSet()
	require.NoError(t, err)
	rs.DirectNames = append(rs.DirectNames, "Acme")
	return rs
}

func column(t *testing.T, tbl *table.Table, name string) []string {
	t.Helper()
	values, err := tbl.Column(name)
	require.NoError(t, err)
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestCleanBusinesses(t *testing.T) {
	ctx := context.Background()
	logger, _ := testutil.NewTestLogger(t)
	c := NewCleaner(logger, untrimmedConfig(), testRules(t))

	cleaned, err := c.CleanBusinesses(ctx, rawBusinesses(t))
	require.NoError(t, err)

	assert.Equal(t, CleanedBusinessColumns, cleaned.Columns())
	assert.Equal(t, []string{"Acme Holdings Ltd", "Acme Holdings Ltd", "TDL Group Corp"}, column(t, cleaned, ColBusinessName))
	assert.Equal(t, []string{"Retail", "Retail", "Restaurant"}, column(t, cleaned, ColBusinessType))
	assert.Equal(t, []string{"123 Main St", "456 Oak St", "101 Unit 88 Pender St"}, column(t, cleaned, ColAddress))
	assert.Equal(t, []string{"5", "3", "12"}, column(t, cleaned, ColEmployees))
}

func TestCleanBusinesses_DefaultPercentilesTrimExtremes(t *testing.T) {
	c := NewCleaner(nil, DefaultCleanerConfig(), testRules(t))

	cleaned, err := c.CleanBusinesses(context.Background(), rawBusinesses(t))
	require.NoError(t, err)

	// [3, 5, 12] at 0.1/99.9 keeps only the median
	assert.Equal(t, []string{"5"}, column(t, cleaned, ColEmployees))
}

func TestCleanBusinesses_LogsEveryStep(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	c := NewCleaner(logger, untrimmedConfig(), testRules(t))

	_, err := c.CleanBusinesses(context.Background(), rawBusinesses(t))
	require.NoError(t, err)

	assert.True(t, handler.ContainsMessage("recipe complete"))
	assert.True(t, handler.ContainsAttr("step", "filter_province"))
	assert.True(t, handler.ContainsAttr("step", "trim_employee_outliers"))
}

func TestCleanBusinesses_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CleanerConfig)
		header  []string
		rows    [][]string
		wantErr func(error) bool
	}{
		{
			name:    "missing province column",
			header:  []string{"BusinessName", "Status"},
			rows:    [][]string{{"Acme", "Issued"}},
			wantErr: apperrors.IsSchemaError,
		},
		{
			name:    "non numeric employee column",
			header:  []string{"BusinessName", "Province", "Status", "NumberofEmployees"},
			rows:    [][]string{{"Acme", "BC", "Issued", "many"}},
			wantErr: apperrors.IsTypeError,
		},
		{
			name:    "invalid historic pattern",
			mutate:  func(c *CleanerConfig) { c.HistoricPattern = "(" },
			header:  testutil.RawBusinessHeader,
			rows:    testutil.RawBusinessRows,
			wantErr: apperrors.IsTypeError,
		},
		{
			name:    "inverted percentiles",
			mutate:  func(c *CleanerConfig) { c.LowerPercentile, c.UpperPercentile = 90, 10 },
			header:  testutil.RawBusinessHeader,
			rows:    testutil.RawBusinessRows,
			wantErr: apperrors.IsValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := untrimmedConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			c := NewCleaner(nil, cfg, testRules(t))

			_, err := c.CleanBusinesses(context.Background(), rawTable(t, tt.header, tt.rows))
			require.Error(t, err)
			assert.True(t, tt.wantErr(err), "unexpected error type: %v", err)
			assert.Contains(t, err.Error(), "clean_businesses")
		})
	}
}

func TestCleanInventory(t *testing.T) {
	c := NewCleaner(nil, DefaultCleanerConfig(), testRules(t))

	cleaned, err := c.CleanInventory(context.Background(), rawInventory(t))
	require.NoError(t, err)

	assert.Equal(t, CleanedInventoryColumns, cleaned.Columns())
	assert.Equal(t, []string{"Acme", "Acme", "Acme", "Tim Hortons", "Nobody Store"}, column(t, cleaned, ColInventoryName))
	assert.Equal(t, []string{"123 Main St", "456 Oak St", "2 789 Fir St", "101 88 Pender St", "9 Main St"},
		column(t, cleaned, ColInventoryAddress))
}

func TestCleanInventory_DropsBlankNames(t *testing.T) {
	rows := append([][]string{{"8", "", "Retail", "Books", "Downtown", "", "3", "Main St", "2023"}}, testutil.RawInventoryRows...)
	c := NewCleaner(nil, DefaultCleanerConfig(), testRules(t))

	cleaned, err := c.CleanInventory(context.Background(), rawTable(t, testutil.RawInventoryHeader, rows))
	require.NoError(t, err)
	assert.Equal(t, 5, cleaned.Len())
}

func TestReconcileBusinesses(t *testing.T) {
	ctx := context.Background()
	c := NewCleaner(nil, untrimmedConfig(), testRules(t))

	cleaned, err := c.CleanBusinesses(ctx, rawBusinesses(t))
	require.NoError(t, err)

	reconciled, err := c.ReconcileBusinesses(ctx, cleaned)
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme", "Acme", "Tim Hortons"}, column(t, reconciled, ColBusinessName))
	// the input table is untouched
	assert.Equal(t, "Acme Holdings Ltd", column(t, cleaned, ColBusinessName)[0])
}

func TestReconcileBusinesses_BusinessNameMappings(t *testing.T) {
	names := rawTable(t, []string{ColBusinessName, ColBusinessTradeName}, [][]string{
		{"Overexposure Photo Ltd", ""},
		{"Sleep Country Canada Inc", ""},
	})

	tests := []struct {
		name    string
		enabled bool
		want    []string
	}{
		{
			name: "disabled by default",
			want: []string{"Overexposure Photo Ltd", "Sleep Country Canada Inc"},
		},
		{
			name:    "enabled",
			enabled: true,
			want:    []string{"Exposure", "Sleep Country"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCleanerConfig()
			cfg.ApplyBusinessNameMappings = tt.enabled
			rs, err := reconcile.DefaultRuleSet()
			require.NoError(t, err)

			reconciled, err := NewCleaner(nil, cfg, rs).ReconcileBusinesses(context.Background(), names)
			require.NoError(t, err)
			assert.Equal(t, tt.want, column(t, reconciled, ColBusinessName))
		})
	}
}

func TestReconcileInventory(t *testing.T) {
	rs := testRules(t)
	rs.InventoryNameMappings = append(rs.InventoryNameMappings, reconcile.Rule{Pattern: "nobody", Canonical: "Somebody"})
	c := NewCleaner(nil, DefaultCleanerConfig(), rs)

	cleaned, err := c.CleanInventory(context.Background(), rawInventory(t))
	require.NoError(t, err)

	reconciled, err := c.ReconcileInventory(context.Background(), cleaned)
	require.NoError(t, err)
	assert.Equal(t, "Somebody", column(t, reconciled, ColInventoryName)[4])
}
