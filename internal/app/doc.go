// Package app wires the dashboard process: configuration, logging and
// telemetry, the pipeline, the websocket hub, the services and the chi
// router.
//
// # Initialization Flow
//
//  1. Resolve paths and create the data, output and log directories
//  2. Initialize OpenTelemetry (tracer, meter, Prometheus handler)
//  3. Build the pipeline from the reconciliation rules and cleaner settings
//  4. Create the hub, the runtime collector and the services
//  5. Set up middleware and routes, wrapped in otelhttp
//
// # Usage
//
//	app, err := app.NewApplication(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return app.Run(ctx)
//
// # Graceful Shutdown
//
// Run starts the HTTP server, the hub loop and the runtime collector in one
// errgroup. When the context is cancelled, or any of them fails, the server
// drains active requests within ShutdownTimeout, the hub closes every client
// and telemetry is flushed.
//
// NewApplication returns errors to the caller and never exits the process.
package app
