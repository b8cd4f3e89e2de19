package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vanbiz/internal/config"
	"vanbiz/internal/reconcile"
	"vanbiz/internal/table"
)

// Raw and cleaned licence columns.
const (
	ColFolderYear        = "FOLDERYEAR"
	ColBusinessName      = "BusinessName"
	ColBusinessTradeName = "BusinessTradeName"
	ColStatus            = "Status"
	ColBusinessType      = "BusinessType"
	ColBusinessSubType   = "BusinessSubType"
	ColUnit              = "Unit"
	ColUnitType          = "UnitType"
	ColHouse             = "House"
	ColStreet            = "Street"
	ColCity              = "City"
	ColProvince          = "Province"
	ColLocalArea         = "LocalArea"
	ColEmployees         = "NumberofEmployees"
	ColFeePaid           = "FeePaid"
	ColAddress           = "Address"

	StatusIssued = "Issued"
)

// Raw and cleaned storefront columns.
const (
	ColInventoryID       = "ID"
	ColInventoryName     = "Business name"
	ColRetailCategory    = "Retail category"
	ColGeoLocalArea      = "Geo Local Area"
	ColInventoryUnit     = "Unit"
	ColCivicNumber       = "Civic number - Parcel"
	ColStreetName        = "Street name - Parcel"
	ColYearRecorded      = "Year recorded"
	ColInventoryAddress  = "Address"
	VacantName           = "Vacant"
	VacantUnderConstName = "Vacant UC"
)

// CleanedBusinessColumns is the column order of the cleaned licence dataset.
var CleanedBusinessColumns = []string{
	ColFolderYear, ColBusinessName, ColBusinessTradeName, ColBusinessType, ColBusinessSubType,
	ColAddress, ColCity, ColLocalArea, ColEmployees, ColFeePaid,
}

// CleanedInventoryColumns is the column order of the cleaned storefront dataset.
var CleanedInventoryColumns = []string{
	ColInventoryID, ColInventoryName, ColRetailCategory, ColGeoLocalArea, ColInventoryAddress,
}

// CleanerConfig holds the cleaning thresholds.
type CleanerConfig struct {
	BusinessYear    int64
	InventoryYear   int64
	MinEmployees    int64
	LowerPercentile float64
	UpperPercentile float64
	Provinces       []string
	HistoricPattern string
	// ApplyBusinessNameMappings adds the business_name_mappings pass to
	// ReconcileBusinesses.
	ApplyBusinessNameMappings bool
}

// CleanerConfigFrom maps the pipeline section of the application config.
func CleanerConfigFrom(cfg config.PipelineConfig) CleanerConfig {
	return CleanerConfig{
		BusinessYear:    cfg.BusinessYear,
		InventoryYear:   cfg.InventoryYear,
		MinEmployees:    cfg.MinEmployees,
		LowerPercentile: cfg.LowerPercentile,
		UpperPercentile: cfg.UpperPercentile,
		Provinces:       append([]string(nil), cfg.Provinces...),
		HistoricPattern: cfg.HistoricPattern,

		ApplyBusinessNameMappings: cfg.ApplyBusinessNameMappings,
	}
}

// DefaultCleanerConfig returns the thresholds used for the 2024 licence and
// 2023 storefront releases.
func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfigFrom(config.Default().Pipeline)
}

// Cleaner applies the cleaning recipes and reconciliation passes to the raw
// datasets.
type Cleaner struct {
	logger *slog.Logger
	config CleanerConfig
	rules  *reconcile.RuleSet
}

// NewCleaner creates a cleaner. rules must be a validated rule set.
func NewCleaner(logger *slog.Logger, cfg CleanerConfig, rules *reconcile.RuleSet) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		logger: logger.With(slog.String("component", "cleaner")),
		config: cfg,
		rules:  rules,
	}
}

// step is one table transformation in a recipe.
type step struct {
	name string
	fn   func(*table.Table) (*table.Table, error)
}

// run applies steps in order and stops at the first error.
func (c *Cleaner) run(ctx context.Context, recipe string, t *table.Table, steps []step) (*table.Table, error) {
	start := time.Now()
	rowsIn := t.Len()

	for _, s := range steps {
		before := t.Len()
		next, err := s.fn(t)
		if err != nil {
			c.logger.ErrorContext(ctx, "cleaning step failed",
				slog.String("recipe", recipe),
				slog.String("step", s.name),
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("%s: %s: %w", recipe, s.name, err)
		}
		t = next
		c.logger.DebugContext(ctx, "cleaning step applied",
			slog.String("recipe", recipe),
			slog.String("step", s.name),
			slog.Int("rows_in", before),
			slog.Int("rows_out", t.Len()))
	}

	c.logger.InfoContext(ctx, "recipe complete",
		slog.String("recipe", recipe),
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", t.Len()),
		slog.Duration("duration", time.Since(start)))
	return t, nil
}

func pure(fn func(*table.Table) *table.Table) func(*table.Table) (*table.Table, error) {
	return func(t *table.Table) (*table.Table, error) { return fn(t), nil }
}

// CleanBusinesses keeps issued British Columbia licences for the configured
// folder year with at least MinEmployees staff, normalises business types,
// builds a single address column and trims employee-count outliers.
func (c *Cleaner) CleanBusinesses(ctx context.Context, t *table.Table) (*table.Table, error) {
	cfg := c.config
	return c.run(ctx, "clean_businesses", t, []step{
		{"drop_missing_name", func(t *table.Table) (*table.Table, error) {
			return table.DropRowsMissing(t, []string{ColBusinessName})
		}},
		{"filter_province", func(t *table.Table) (*table.Table, error) {
			return table.FilterByMembership(t, ColProvince, cfg.Provinces)
		}},
		{"filter_status", func(t *table.Table) (*table.Table, error) {
			return table.FilterByExactMatch(t, ColStatus, StatusIssued, true)
		}},
		{"filter_min_employees", func(t *table.Table) (*table.Table, error) {
			return table.FilterByNumericThreshold(t, ColEmployees, cfg.MinEmployees, table.ModeMin)
		}},
		{"filter_folder_year", func(t *table.Table) (*table.Table, error) {
			return table.FilterByNumericThreshold(t, ColFolderYear, cfg.BusinessYear, table.ModeEqual)
		}},
		{"strip_historic_type", func(t *table.Table) (*table.Table, error) {
			return c.stripHistoric(t, ColBusinessType)
		}},
		{"strip_historic_subtype", func(t *table.Table) (*table.Table, error) {
			return c.stripHistoric(t, ColBusinessSubType)
		}},
		{"combine_address", func(t *table.Table) (*table.Table, error) {
			return table.CombineFields(t, []string{ColUnit, ColUnitType, ColHouse, ColStreet}, ColAddress)
		}},
		{"select_columns", func(t *table.Table) (*table.Table, error) {
			return table.SelectColumns(t, CleanedBusinessColumns)
		}},
		{"fill_null", pure(func(t *table.Table) *table.Table { return table.FillNull(t, "") })},
		{"drop_duplicates", pure(table.DropDuplicates)},
		{"trim_employee_outliers", func(t *table.Table) (*table.Table, error) {
			return table.RemoveOutliersByPercentile(t, ColEmployees, cfg.LowerPercentile, cfg.UpperPercentile)
		}},
	})
}

// stripHistoric is a no-op when no pattern is configured.
func (c *Cleaner) stripHistoric(t *table.Table, field string) (*table.Table, error) {
	if c.config.HistoricPattern == "" {
		return t, nil
	}
	return table.StripSubstring(t, field, c.config.HistoricPattern)
}

// CleanInventory keeps occupied storefronts from the configured survey year
// and builds a single address column.
func (c *Cleaner) CleanInventory(ctx context.Context, t *table.Table) (*table.Table, error) {
	cfg := c.config
	return c.run(ctx, "clean_inventory", t, []step{
		{"combine_address", func(t *table.Table) (*table.Table, error) {
			return table.CombineFields(t, []string{ColInventoryUnit, ColCivicNumber, ColStreetName}, ColInventoryAddress)
		}},
		{"drop_missing_name", func(t *table.Table) (*table.Table, error) {
			return table.DropRowsMissing(t, []string{ColInventoryName})
		}},
		{"drop_vacant", func(t *table.Table) (*table.Table, error) {
			return table.FilterByExactMatch(t, ColInventoryName, VacantName, false)
		}},
		{"drop_vacant_uc", func(t *table.Table) (*table.Table, error) {
			return table.FilterByExactMatch(t, ColInventoryName, VacantUnderConstName, false)
		}},
		{"filter_year_recorded", func(t *table.Table) (*table.Table, error) {
			return table.FilterByNumericThreshold(t, ColYearRecorded, cfg.InventoryYear, table.ModeEqual)
		}},
		{"select_columns", func(t *table.Table) (*table.Table, error) {
			return table.SelectColumns(t, CleanedInventoryColumns)
		}},
	})
}

// ReconcileBusinesses canonicalises BusinessName: trade-name rules keyed on
// the trade name, the same rules keyed on the legal name, then the direct
// names over both name columns. The legal-name rules run before the direct
// names only when ApplyBusinessNameMappings is set.
func (c *Cleaner) ReconcileBusinesses(ctx context.Context, t *table.Table) (*table.Table, error) {
	rs := c.rules
	steps := []step{
		{"trade_name_by_trade_name", func(t *table.Table) (*table.Table, error) {
			return reconcile.ApplyMapping(t, ColBusinessTradeName, ColBusinessName, rs.TradeNameMappings)
		}},
		{"trade_name_by_name", func(t *table.Table) (*table.Table, error) {
			return reconcile.ApplyMapping(t, ColBusinessName, ColBusinessName, rs.TradeNameMappings)
		}},
	}
	if c.config.ApplyBusinessNameMappings {
		steps = append(steps, step{"business_name", func(t *table.Table) (*table.Table, error) {
			return reconcile.ApplyMapping(t, ColBusinessName, ColBusinessName, rs.BusinessNameMappings)
		}})
	}
	steps = append(steps, step{"direct_names", func(t *table.Table) (*table.Table, error) {
		return reconcile.ApplyDirectNames(t, []string{ColBusinessTradeName, ColBusinessName}, rs.DirectNames)
	}})
	return c.run(ctx, "reconcile_businesses", t, steps)
}

// ReconcileInventory canonicalises the storefront business name.
func (c *Cleaner) ReconcileInventory(ctx context.Context, t *table.Table) (*table.Table, error) {
	rs := c.rules
	return c.run(ctx, "reconcile_inventory", t, []step{
		{"inventory_name", func(t *table.Table) (*table.Table, error) {
			return reconcile.ApplyMapping(t, ColInventoryName, ColInventoryName, rs.InventoryNameMappings)
		}},
	})
}
