// Package dataprocessing turns the raw licence and storefront exports into
// the business and inventory summary tables.
//
// # Architecture
//
// The package is organized into three components:
//
// 1. Cleaner: the cleaning recipes and name reconciliation passes
// 2. Pipeline: load, clean, reconcile, aggregate and summarize as one run
// 3. Summarizer: writes summary and cleaned tables as CSV or JSON
//
// # Usage
//
//	rules, _ := reconcile.LoadRuleSet(cfg.Pipeline.RulesFile)
//	cleaner := dataprocessing.NewCleaner(logger, dataprocessing.CleanerConfigFrom(cfg.Pipeline), rules)
//	pipeline := dataprocessing.NewPipeline(logger, cleaner, cfg.Pipeline.InventoryThreshold)
//	res, err := pipeline.Run(ctx, dataprocessing.Inputs{
//	    BusinessPath:  paths.BusinessFile,
//	    InventoryPath: paths.InventoryFile,
//	    Comma:         ';',
//	})
//
// # Data Flow
//
//	raw CSV/XLSX → Cleaner → Name reconciliation → aggregate.Index → Summary
//
// # Error Handling
//
// Every stage error aborts the run and is wrapped with the stage name; the
// underlying AppError type (SCHEMA, TYPE, VALIDATION, KEY, STORAGE, PARSING)
// survives wrapping and is what the HTTP layer maps to a status code.
package dataprocessing
