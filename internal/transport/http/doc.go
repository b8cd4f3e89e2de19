// Package http implements the HTTP handlers of the dashboard. Handlers stay
// thin: they bind request parameters, call a service and render JSON; every
// failure goes through errors.ErrorHandler as an RFC 7807 problem.
//
// # Routes
//
//	GET  /api/summary/businesses   business summary table
//	GET  /api/summary/inventory    inventory summary table
//	GET  /api/overview             headline numbers
//	GET  /api/coverage             unmatched inventory names
//	GET  /api/charts/{kind}        bar | scatter | heatmap | column-heatmap
//	GET  /api/export/xlsx          workbook download
//	GET  /api/pipeline/status      final snapshot of the last run
//	POST /api/pipeline/run         run the pipeline
//	GET  /healthz[/ready|/live|/version|/detail]
//	GET  /metrics[/runtime]
//
// Chart query parameters bind into chart.PlotParams by name (dataset, x, y,
// top_n, theme); missing values take the dashboard defaults:
//
//	GET /api/charts/bar?dataset=business&x=Business+Name&y=Number+of+Store&top_n=10&theme=Blue
//
// Handlers depend on DashboardServiceInterface, so tests drive them with a
// testify mock and net/http/httptest.
package http
