// Package services sits between the HTTP handlers and the pipeline. Handlers
// stay thin; the services own run serialisation, snapshot publication and
// health reporting.
//
// # Available Services
//
//   - DashboardService: runs the pipeline on demand, keeps the latest
//     immutable result and renders summaries, charts and workbook exports
//   - HealthService: liveness, readiness and version information
//
// # Run lifecycle
//
// DashboardService.Run holds a run lock for the whole run; a concurrent
// request fails fast with errors.ErrRunInProgress instead of queueing. Stage
// events from the pipeline are folded into an events.RunSnapshot and the
// complete snapshot is broadcast after every transition, so websocket
// clients never merge partial state:
//
//	svc := services.NewDashboardService(pipeline, summarizer, cfg, logger,
//	    services.WithBroadcaster(hub),
//	    services.WithValidator(validation.NewFileValidator(logger)),
//	)
//	resp, err := svc.Run(ctx, api.RunRequest{WriteOutputs: true})
//
// Readers (Businesses, Inventory, Overview, Coverage, Chart, ExportWorkbook)
// see either the previous result or the new one, never a partial run. Before
// the first run completes they return errors.ErrSummaryNotReady.
//
// # Testing
//
// The pipeline and output writer are interfaces, so tests drive the service
// with testify mocks:
//
//	runner := new(mockRunner)
//	runner.On("RunWithProgress", mock.Anything, mock.Anything, mock.Anything).Return(result, nil)
package services
