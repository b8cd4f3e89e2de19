package services

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vanbiz/internal/chart"
	"vanbiz/internal/dataprocessing"
	apperrors "vanbiz/internal/errors"
	"vanbiz/internal/exporter"
	api "vanbiz/pkg/contracts/api/v1"
	"vanbiz/pkg/contracts/domain"
	"vanbiz/pkg/contracts/events"
)

// PipelineRunner executes one pipeline run.
type PipelineRunner interface {
	RunWithProgress(ctx context.Context, in dataprocessing.Inputs, progress dataprocessing.ProgressReporter) (*dataprocessing.Result, error)
}

// OutputWriter persists the outputs of a run.
type OutputWriter interface {
	WriteAll(ctx context.Context, res *dataprocessing.Result, out dataprocessing.OutputPaths) error
}

// DatasetValidator checks raw dataset paths before a run.
type DatasetValidator interface {
	ValidateDatasets(paths ...string) error
}

// DashboardConfig holds the defaults a run falls back to. DataDir bounds the
// dataset paths a run request may name; with no DataDir, requests cannot
// override the configured inputs.
type DashboardConfig struct {
	Inputs     dataprocessing.Inputs
	Outputs    dataprocessing.OutputPaths
	DataDir    string
	RunTimeout time.Duration
}

// DashboardOption configures a DashboardService.
type DashboardOption func(*DashboardService)

// WithBroadcaster sends run snapshots to b.
func WithBroadcaster(b SnapshotBroadcaster) DashboardOption {
	return func(s *DashboardService) { s.broadcaster = b }
}

// WithValidator checks dataset paths with v before every run.
func WithValidator(v DatasetValidator) DashboardOption {
	return func(s *DashboardService) { s.validator = v }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

// DashboardService runs the pipeline on demand and serves read-only views
// of the latest completed run. Runs are serialised; readers never see a
// partially built result.
type DashboardService struct {
	runner      PipelineRunner
	writer      OutputWriter
	workbook    *exporter.WorkbookExporter
	broadcaster SnapshotBroadcaster
	validator   DatasetValidator
	cfg         DashboardConfig
	now         func() time.Time
	logger      *slog.Logger

	runMu sync.Mutex

	mu      sync.RWMutex
	latest  *dataprocessing.Result
	lastRun *events.RunSnapshot
}

// NewDashboardService creates a dashboard service. writer may be nil when
// outputs are never persisted.
func NewDashboardService(runner PipelineRunner, writer OutputWriter, cfg DashboardConfig, logger *slog.Logger, opts ...DashboardOption) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DashboardService{
		runner:   runner,
		writer:   writer,
		workbook: exporter.NewWorkbookExporter(logger),
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.With(slog.String("service", "dashboard")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the pipeline and publishes the result. Request paths override
// the configured inputs and must resolve inside the data directory; relative
// paths are taken from it. A second run while one is active fails with
// ErrRunInProgress.
func (s *DashboardService) Run(ctx context.Context, req api.RunRequest) (*api.RunResponse, error) {
	if !s.runMu.TryLock() {
		s.logger.WarnContext(ctx, "run rejected, another run is active")
		return nil, apperrors.ErrRunInProgress
	}
	defer s.runMu.Unlock()

	in := s.cfg.Inputs
	if req.BusinessPath != "" {
		p, err := s.datasetPath("business_path", req.BusinessPath)
		if err != nil {
			s.logger.WarnContext(ctx, "run rejected, dataset path outside data directory",
				slog.String("business_path", req.BusinessPath))
			return nil, err
		}
		in.BusinessPath = p
		in.BusinessTable = nil
	}
	if req.InventoryPath != "" {
		p, err := s.datasetPath("inventory_path", req.InventoryPath)
		if err != nil {
			s.logger.WarnContext(ctx, "run rejected, dataset path outside data directory",
				slog.String("inventory_path", req.InventoryPath))
			return nil, err
		}
		in.InventoryPath = p
		in.InventoryTable = nil
	}

	if s.validator != nil {
		var paths []string
		if in.BusinessTable == nil {
			paths = append(paths, in.BusinessPath)
		}
		if in.InventoryTable == nil {
			paths = append(paths, in.InventoryPath)
		}
		if err := s.validator.ValidateDatasets(paths...); err != nil {
			return nil, err
		}
	}

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	s.logger.InfoContext(ctx, "starting pipeline run",
		slog.String("business_path", in.BusinessPath),
		slog.String("inventory_path", in.InventoryPath),
		slog.Bool("write_outputs", req.WriteOutputs))

	tracker := newRunTracker(s.broadcaster, s.now)
	res, err := s.runner.RunWithProgress(ctx, in, tracker)
	if err == nil && req.WriteOutputs && s.writer != nil {
		err = s.writer.WriteAll(ctx, res, s.cfg.Outputs)
	}
	snapshot := tracker.finish(ctx, err)
	s.recordRun(snapshot)

	if err != nil {
		s.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("run_id", snapshot.RunID),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.SetResult(res)
	s.logger.InfoContext(ctx, "pipeline run completed",
		slog.String("run_id", res.Summary.RunID),
		slog.Int("businesses", len(res.Summary.Businesses)),
		slog.Int("inventory", len(res.Summary.Inventory)))

	return &api.RunResponse{
		RunID:      res.Summary.RunID,
		Businesses: len(res.Summary.Businesses),
		Inventory:  len(res.Summary.Inventory),
		Coverage:   res.Coverage,
		Stages:     res.Stats,
	}, nil
}

// datasetPath resolves a requested dataset path against the data directory
// and rejects anything that escapes it.
func (s *DashboardService) datasetPath(field, requested string) (string, error) {
	if s.cfg.DataDir == "" {
		return "", apperrors.ErrValidation(field, "dataset paths cannot be overridden")
	}
	root, err := filepath.Abs(s.cfg.DataDir)
	if err != nil {
		return "", apperrors.ErrValidation(field, "data directory cannot be resolved")
	}

	p := requested
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)

	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.ErrValidation(field, "path must be inside the data directory")
	}
	return p, nil
}

// SetResult publishes res as the latest run.
func (s *DashboardService) SetResult(res *dataprocessing.Result) {
	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()
}

func (s *DashboardService) recordRun(snapshot events.RunSnapshot) {
	s.mu.Lock()
	s.lastRun = &snapshot
	s.mu.Unlock()
}

// LastRun returns the final snapshot of the most recent run, successful or not.
func (s *DashboardService) LastRun() (events.RunSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return events.RunSnapshot{}, false
	}
	return copySnapshot(*s.lastRun), true
}

// HasResult reports whether any run has completed.
func (s *DashboardService) HasResult() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest != nil
}

// Latest returns the latest completed run or ErrSummaryNotReady.
func (s *DashboardService) Latest() (*dataprocessing.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, apperrors.ErrSummaryNotReady
	}
	return s.latest, nil
}

// Businesses returns the business summary table.
func (s *DashboardService) Businesses(ctx context.Context) (*api.BusinessListResponse, error) {
	res, err := s.Latest()
	if err != nil {
		return nil, err
	}
	items := res.Summary.Businesses
	if items == nil {
		items = []domain.BusinessSummary{}
	}
	return &api.BusinessListResponse{RunID: res.Summary.RunID, Total: len(items), Items: items}, nil
}

// Inventory returns the inventory summary table.
func (s *DashboardService) Inventory(ctx context.Context) (*api.InventoryListResponse, error) {
	res, err := s.Latest()
	if err != nil {
		return nil, err
	}
	items := res.Summary.Inventory
	if items == nil {
		items = []domain.InventorySummary{}
	}
	return &api.InventoryListResponse{RunID: res.Summary.RunID, Total: len(items), Items: items}, nil
}

// Overview returns the headline numbers of the latest run.
func (s *DashboardService) Overview(ctx context.Context) (chart.Overview, error) {
	res, err := s.Latest()
	if err != nil {
		return chart.Overview{}, err
	}
	return chart.NewOverview(res.Summary), nil
}

// Coverage reports which inventory names never matched a business.
func (s *DashboardService) Coverage(ctx context.Context) (*api.CoverageResponse, error) {
	res, err := s.Latest()
	if err != nil {
		return nil, err
	}
	cov := res.Coverage
	if cov.Unmatched == nil {
		cov.Unmatched = []string{}
	}
	return &api.CoverageResponse{RunID: res.Summary.RunID, Coverage: cov, Ratio: cov.Ratio()}, nil
}

// Chart renders one chart of the latest run. Zero fields of p take the
// dashboard defaults.
func (s *DashboardService) Chart(ctx context.Context, p chart.PlotParams) (*api.ChartResponse, error) {
	res, err := s.Latest()
	if err != nil {
		return nil, err
	}
	p = p.WithDefaults()
	artifact, err := chart.Render(res.Summary, p)
	if err != nil {
		s.logger.DebugContext(ctx, "chart rejected",
			slog.String("kind", string(p.Kind)),
			slog.String("error", err.Error()))
		return nil, err
	}
	return &api.ChartResponse{RunID: res.Summary.RunID, Kind: string(p.Kind), Chart: artifact}, nil
}

// ExportWorkbook writes the latest summary tables and the default bar charts
// of both datasets as an XLSX workbook.
func (s *DashboardService) ExportWorkbook(ctx context.Context, w io.Writer) error {
	res, err := s.Latest()
	if err != nil {
		return err
	}
	charts, err := WorkbookCharts(res.Summary)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "exporting workbook", slog.String("run_id", res.Summary.RunID))
	return s.workbook.Write(w, res.Summary, charts)
}

// WorkbookCharts builds the bar charts embedded in exported workbooks: top
// businesses by store count and by storefront records.
func WorkbookCharts(sum domain.Summary) ([]*chart.BarChart, error) {
	business, err := chart.NewBarChart(sum, chart.DefaultPlotParams())
	if err != nil {
		return nil, err
	}

	p := chart.DefaultPlotParams()
	p.Dataset = chart.DatasetInventory
	p.YField = chart.FieldInventoryRecords
	inventory, err := chart.NewBarChart(sum, p)
	if err != nil {
		return nil, err
	}
	return []*chart.BarChart{business, inventory}, nil
}
