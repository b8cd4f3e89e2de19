package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"vanbiz/internal/config"
	"vanbiz/internal/dataprocessing"
	apperrors "vanbiz/internal/errors"
	"vanbiz/internal/infrastructure"
	customMiddleware "vanbiz/internal/middleware"
	"vanbiz/internal/reconcile"
	"vanbiz/internal/services"
	handlers "vanbiz/internal/transport/http"
	"vanbiz/internal/validation"
	ws "vanbiz/internal/websocket"
	"vanbiz/pkg/contracts"
)

const AppName = "vanbiz dashboard"

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Paths            *config.Paths
	Router           chi.Router
	Handler          http.Handler
	Server           *http.Server
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	RuntimeCollector *infrastructure.RuntimeCollector
	OTelProviders    *infrastructure.OTelProviders
	Logger           *slog.Logger
}

// NewApplication wires every component from cfg. The caller owns the logger.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		OTelProviders: otelProviders,
		Logger:        logger,
	}

	if err := app.initializeServices(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()

	return app, nil
}

// initializeServices builds the pipeline, hub and services
func (a *Application) initializeServices() error {
	meter := a.OTelProviders.MeterOrNoop()

	hubMetrics, err := ws.NewHubMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger, ws.WithMetrics(hubMetrics))

	collector, err := infrastructure.NewRuntimeCollector(meter, config.RuntimeSampleInterval)
	if err != nil {
		return fmt.Errorf("failed to create runtime collector: %w", err)
	}
	a.RuntimeCollector = collector

	pipeline, err := NewPipeline(a.Config, a.OTelProviders, a.Logger)
	if err != nil {
		return err
	}

	a.DashboardService = services.NewDashboardService(
		pipeline,
		dataprocessing.NewSummarizer(a.Logger, dataprocessing.DefaultSummarizerConfig()),
		services.DashboardConfig{
			Inputs:     InputsFor(a.Config, a.Paths),
			Outputs:    OutputsFor(a.Config, a.Paths),
			DataDir:    a.Paths.DataDir,
			RunTimeout: a.Config.Server.RunTimeout,
		},
		a.Logger,
		services.WithBroadcaster(a.WebSocketHub),
		services.WithValidator(validation.NewFileValidator(a.Logger)),
	)

	a.HealthService = services.NewHealthService(a.Paths, a.WebSocketHub, a.DashboardService, a.RuntimeCollector, a.Logger)
	return nil
}

// NewPipeline builds the pipeline the binaries share: rules from the
// configured file (or the embedded defaults), cleaner settings and telemetry.
func NewPipeline(cfg *config.Config, providers *infrastructure.OTelProviders, logger *slog.Logger) (*dataprocessing.Pipeline, error) {
	rules, err := reconcile.LoadRuleSet(cfg.Pipeline.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciliation rules: %w", err)
	}

	opts := []dataprocessing.Option{}
	if providers != nil {
		metrics, err := infrastructure.CreatePipelineMetrics(providers.MeterOrNoop())
		if err != nil {
			return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
		}
		opts = append(opts,
			dataprocessing.WithTracer(providers.TracerOrNoop()),
			dataprocessing.WithMetrics(metrics))
	}

	cleaner := dataprocessing.NewCleaner(logger, dataprocessing.CleanerConfigFrom(cfg.Pipeline), rules)
	return dataprocessing.NewPipeline(logger, cleaner, cfg.Pipeline.InventoryThreshold, opts...), nil
}

// InputsFor returns the configured raw datasets.
func InputsFor(cfg *config.Config, paths *config.Paths) dataprocessing.Inputs {
	return dataprocessing.Inputs{
		BusinessPath:  paths.BusinessFile,
		InventoryPath: paths.InventoryFile,
		Comma:         cfg.Pipeline.SeparatorRune(),
	}
}

// OutputsFor returns the files a run writes. Cleaned datasets are written
// only when enabled.
func OutputsFor(cfg *config.Config, paths *config.Paths) dataprocessing.OutputPaths {
	out := dataprocessing.OutputPaths{
		BusinessCSV:   paths.BusinessSummaryCSV,
		BusinessJSON:  paths.BusinessSummaryJSON,
		InventoryCSV:  paths.InventorySummaryCSV,
		InventoryJSON: paths.InventorySummaryJSON,
	}
	if cfg.Pipeline.WriteCleaned {
		out.BusinessCleanedCSV = paths.BusinessCleanedCSV
		out.InventoryCleanedCSV = paths.InventoryCleanedCSV
	}
	return out
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger, false)

	httpMetrics, err := customMiddleware.NewHTTPMetrics(a.OTelProviders.MeterOrNoop())
	if err != nil {
		return fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	// RequestID → Metrics → Logger → Recoverer
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.Metrics(httpMetrics))
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apperrors.RecoveryMiddleware(errorHandler))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// The websocket route skips rate limiting; clients hold one long connection.
	r.Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Logger))

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.RuntimeCollector)
	r.Mount("/metrics", metricsHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{}))
		if a.Config.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.RateLimit.RPS,
				a.Config.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Mount("/healthz", handlers.NewHealthHandler(a.HealthService, a.Logger).Routes())

		r.Mount("/api", handlers.NewDashboardHandler(a.DashboardService, a.Logger, errorHandler).Routes())
	})

	a.Router = r
	a.Handler = otelhttp.NewHandler(r, "vanbiz.http",
		otelhttp.WithTracerProvider(tracerProvider(a.OTelProviders)),
		otelhttp.WithSpanNameFormatter(func(_ string, req *http.Request) string {
			return req.Method + " " + req.URL.Path
		}),
	)
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           net.JoinHostPort(a.Config.Server.Host, strconv.Itoa(a.Config.Server.Port)),
		Handler:        a.Handler,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run serves until ctx is cancelled or a component fails, then shuts every
// component down. A clean shutdown returns nil.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	g.Go(func() error { return a.WebSocketHub.Run(gctx) })
	g.Go(func() error { return a.RuntimeCollector.Run(gctx) })
	g.Go(func() error {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server and flushes telemetry. The hub and
// runtime collector stop with the Run context.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

func tracerProvider(p *infrastructure.OTelProviders) trace.TracerProvider {
	if p == nil || p.TracerProvider == nil {
		return noop.NewTracerProvider()
	}
	return p.TracerProvider
}
