package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"vanbiz/internal/app"
	"vanbiz/internal/config"
	"vanbiz/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		slog.Error("Application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// run loads the configuration, builds the application and serves until ctx
// is cancelled.
func run(ctx context.Context, args []string, errOut io.Writer) error {
	cfg, err := loadConfig(args, errOut)
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	application, err := app.NewApplication(cfg, logger)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}

func loadConfig(args []string, errOut io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configFile := fs.String("config", "", "config file (defaults to vanbiz.yaml lookup)")
	host := fs.String("host", "", "listen host (overrides config)")
	port := fs.Int("port", 0, "listen port (overrides config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	return cfg, cfg.Validate()
}
