package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"vanbiz/internal/app"
	"vanbiz/internal/config"
	"vanbiz/internal/dataprocessing"
	"vanbiz/internal/exporter"
	"vanbiz/internal/infrastructure"
	"vanbiz/internal/services"
	"vanbiz/internal/validation"
	"vanbiz/pkg/contracts"
)

// options holds the command line overrides.
type options struct {
	configFile string
	business   string
	inventory  string
	outDir     string
	workbook   bool
	version    bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.version {
		printVersion(os.Stdout)
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := process(ctx, cfg, opts, logger, os.Stdout); err != nil {
		logger.Error("Processing failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.configFile, "config", "", "config file (defaults to vanbiz.yaml lookup)")
	fs.StringVar(&opts.business, "business", "", "business licence dataset (.csv or .xlsx)")
	fs.StringVar(&opts.inventory, "inventory", "", "storefront inventory dataset (.csv or .xlsx)")
	fs.StringVar(&opts.outDir, "out", "", "output directory for summary files")
	fs.BoolVar(&opts.workbook, "xlsx", false, "also write the summary workbook with charts")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unexpected arguments: %v", fs.Args())
		fmt.Fprintln(errOut, err)
		return options{}, err
	}
	return opts, nil
}

// loadConfig applies the flag overrides on top of the loaded configuration.
func loadConfig(opts options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.business != "" {
		cfg.Paths.BusinessFile = opts.business
	}
	if opts.inventory != "" {
		cfg.Paths.InventoryFile = opts.inventory
	}
	if opts.outDir != "" {
		cfg.Paths.OutputDir = opts.outDir
	}
	return cfg, nil
}

// process runs the pipeline once and writes every configured output.
func process(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger, stdout io.Writer) error {
	paths, err := cfg.ResolvePaths()
	if err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	paths.LogPathResolution(logger)

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateDatasets(paths.BusinessFile, paths.InventoryFile); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(paths.OutputDir); err != nil {
		return err
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		if err := providers.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}()

	pipeline, err := app.NewPipeline(cfg, providers, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Starting processing",
		slog.String("business_file", paths.BusinessFile),
		slog.String("inventory_file", paths.InventoryFile),
		slog.String("output_dir", paths.OutputDir),
		slog.Bool("workbook", opts.workbook))

	res, err := pipeline.Run(ctx, app.InputsFor(cfg, paths))
	if err != nil {
		return err
	}

	summarizer := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())
	if err := summarizer.WriteAll(ctx, res, app.OutputsFor(cfg, paths)); err != nil {
		return err
	}

	if opts.workbook {
		charts, err := services.WorkbookCharts(res.Summary)
		if err != nil {
			return err
		}
		if err := exporter.NewWorkbookExporter(logger).Export(paths.WorkbookXLSX, res.Summary, charts); err != nil {
			return err
		}
	}

	if len(res.Coverage.Unmatched) > 0 {
		logger.WarnContext(ctx, "Inventory names without a business counterpart",
			slog.Int("count", len(res.Coverage.Unmatched)),
			slog.Any("names", res.Coverage.Unmatched))
	}

	printReport(stdout, res, paths, opts.workbook)
	return nil
}

func printVersion(w io.Writer) {
	fmt.Fprintln(w, contracts.GetFullVersionString())
	if contracts.IsPrerelease() {
		fmt.Fprintln(w, "pre-release build")
	}
}

func printReport(w io.Writer, res *dataprocessing.Result, paths *config.Paths, workbook bool) {
	fmt.Fprintf(w, "Run %s\n", res.Summary.RunID)
	fmt.Fprintf(w, "Businesses: %d\n", len(res.Summary.Businesses))
	fmt.Fprintf(w, "Inventory records: %d (merged %d)\n", len(res.Summary.Inventory), res.MergedInventory)
	fmt.Fprintf(w, "Coverage: %d/%d inventory names matched\n", res.Coverage.Matched, res.Coverage.InventoryNames)
	fmt.Fprintf(w, "Summaries written to %s\n", paths.OutputDir)
	if workbook {
		fmt.Fprintf(w, "Workbook written to %s\n", paths.WorkbookXLSX)
	}
}
