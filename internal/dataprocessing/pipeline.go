package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"vanbiz/internal/aggregate"
	"vanbiz/internal/entity"
	"vanbiz/internal/infrastructure"
	"vanbiz/internal/reconcile"
	"vanbiz/internal/table"
	"vanbiz/pkg/contracts/domain"
	"vanbiz/pkg/contracts/events"
)

// Stage names, in execution order.
const (
	StageLoadBusinesses      = "load_businesses"
	StageLoadInventory       = "load_inventory"
	StageCleanBusinesses     = "clean_businesses"
	StageCleanInventory      = "clean_inventory"
	StageReconcileBusinesses = "reconcile_businesses"
	StageReconcileInventory  = "reconcile_inventory"
	StageAggregateBusinesses = "aggregate_businesses"
	StageAggregateInventory  = "aggregate_inventory"
	StageMergeInventory      = "merge_inventory"
	StageSummarize           = "summarize"
)

// Stages lists every stage of a run in order.
var Stages = []string{
	StageLoadBusinesses, StageLoadInventory,
	StageCleanBusinesses, StageCleanInventory,
	StageReconcileBusinesses, StageReconcileInventory,
	StageAggregateBusinesses, StageAggregateInventory,
	StageMergeInventory, StageSummarize,
}

// Inputs names the raw datasets of a run. A preloaded table takes precedence
// over its path.
type Inputs struct {
	BusinessPath   string
	InventoryPath  string
	Comma          rune
	BusinessTable  *table.Table
	InventoryTable *table.Table
}

// Result is the immutable outcome of one run.
type Result struct {
	Summary           domain.Summary
	Coverage          domain.Coverage
	Stats             []domain.StageStats
	MergedInventory   int
	CleanedBusinesses *table.Table
	CleanedInventory  *table.Table
	Businesses        *aggregate.Index[*entity.Business]
	Inventory         *aggregate.Index[*entity.InventoryRecord]
}

// StageEvent describes a stage transition.
type StageEvent struct {
	RunID  string
	Stage  string
	Index  int // 1-based position in Stages
	Total  int
	Status string // events.Status*
	Stats  domain.StageStats
	Err    error
}

// ProgressReporter receives stage transitions of a run.
type ProgressReporter interface {
	ReportStage(ctx context.Context, ev StageEvent)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(ctx context.Context, ev StageEvent)

// ReportStage calls f.
func (f ProgressFunc) ReportStage(ctx context.Context, ev StageEvent) { f(ctx, ev) }

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTracer sets the tracer used for run and stage spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// WithMetrics sets the pipeline instruments.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithProgress sets the default progress reporter.
func WithProgress(r ProgressReporter) Option {
	return func(p *Pipeline) { p.progress = r }
}

// Pipeline runs load, clean, reconcile, aggregate and summarize as one
// synchronous pass.
type Pipeline struct {
	logger    *slog.Logger
	cleaner   *Cleaner
	threshold int
	tracer    trace.Tracer
	metrics   *infrastructure.PipelineMetrics
	progress  ProgressReporter
	now       func() time.Time
}

// NewPipeline creates a pipeline. threshold is the minimum storefront count
// an inventory record needs before it is merged into its business.
func NewPipeline(logger *slog.Logger, cleaner *Cleaner, threshold int, opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:    infrastructure.WithComponent(logger, "pipeline"),
		cleaner:   cleaner,
		threshold: threshold,
		tracer:    otel.Tracer(infrastructure.MeterName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run carries per-run state through the stages.
type run struct {
	id       string
	index    int
	stats    []domain.StageStats
	progress ProgressReporter
}

// Run executes every stage with the pipeline's default reporter.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Result, error) {
	return p.RunWithProgress(ctx, in, p.progress)
}

// RunWithProgress executes every stage and reports transitions to progress,
// which may be nil. Any error aborts the run; cancellation is observed
// between stages.
func (p *Pipeline) RunWithProgress(ctx context.Context, in Inputs, progress ProgressReporter) (*Result, error) {
	r := &run{id: uuid.New().String(), progress: progress}
	ctx = infrastructure.WithRunID(ctx, r.id)
	if infrastructure.GetTraceID(ctx) == "" {
		ctx = infrastructure.WithTraceID(ctx, r.id)
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(attribute.String("run.id", r.id)))
	defer span.End()

	if p.metrics != nil {
		p.metrics.ActiveRuns.Add(ctx, 1)
		defer p.metrics.ActiveRuns.Add(ctx, -1)
	}

	start := p.now()
	p.logger.InfoContext(ctx, "pipeline run started",
		slog.String("run_id", r.id),
		slog.String("business_path", in.BusinessPath),
		slog.String("inventory_path", in.InventoryPath))

	res, err := p.execute(ctx, r, in)
	duration := p.now().Sub(start)
	infrastructure.RecordRunMetrics(ctx, p.metrics, r.id, duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		p.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("run_id", r.id),
			slog.String("error", err.Error()),
			slog.Duration("duration", duration))
		return nil, err
	}

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.String("run_id", r.id),
		slog.Int("businesses", len(res.Summary.Businesses)),
		slog.Int("inventory", len(res.Summary.Inventory)),
		slog.Int("merged_inventory", res.MergedInventory),
		slog.Int("unmatched_inventory_names", len(res.Coverage.Unmatched)),
		slog.Duration("duration", duration))
	return res, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run, in Inputs) (*Result, error) {
	var (
		rawBiz, rawInv     *table.Table
		cleanBiz, cleanInv *table.Table
		bizIdx             *aggregate.Index[*entity.Business]
		invIdx             *aggregate.Index[*entity.InventoryRecord]
		merged             int
		summary            domain.Summary
	)

	opts := table.ReadOptions{Comma: in.Comma}

	err := p.stage(ctx, r, StageLoadBusinesses, 0, func(ctx context.Context) (int, error) {
		t, err := loadTable(in.BusinessTable, in.BusinessPath, opts)
		rawBiz = t
		return rowsOf(t), err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageLoadInventory, 0, func(ctx context.Context) (int, error) {
		t, err := loadTable(in.InventoryTable, in.InventoryPath, opts)
		rawInv = t
		return rowsOf(t), err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageCleanBusinesses, rawBiz.Len(), func(ctx context.Context) (int, error) {
		t, err := p.cleaner.CleanBusinesses(ctx, rawBiz)
		cleanBiz = t
		return rowsOf(t), err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageCleanInventory, rawInv.Len(), func(ctx context.Context) (int, error) {
		t, err := p.cleaner.CleanInventory(ctx, rawInv)
		cleanInv = t
		return rowsOf(t), err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageReconcileBusinesses, cleanBiz.Len(), func(ctx context.Context) (int, error) {
		t, err := p.cleaner.ReconcileBusinesses(ctx, cleanBiz)
		cleanBiz = t
		return rowsOf(t), err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageReconcileInventory, cleanInv.Len(), func(ctx context.Context) (int, error) {
		t, err := p.cleaner.ReconcileInventory(ctx, cleanInv)
		cleanInv = t
		return rowsOf(t), err
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageAggregateBusinesses, cleanBiz.Len(), func(ctx context.Context) (int, error) {
		idx, err := aggregate.AggregateBusinesses(cleanBiz, aggregate.DefaultBusinessColumns())
		if err != nil {
			return 0, err
		}
		bizIdx = idx
		infrastructure.RecordEntities(ctx, p.metrics, "business", idx.Len())
		return idx.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageAggregateInventory, cleanInv.Len(), func(ctx context.Context) (int, error) {
		idx, err := aggregate.AggregateInventory(cleanInv, aggregate.DefaultInventoryColumns())
		if err != nil {
			return 0, err
		}
		invIdx = idx
		infrastructure.RecordEntities(ctx, p.metrics, "inventory", idx.Len())
		return idx.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageMergeInventory, invIdx.Len(), func(ctx context.Context) (int, error) {
		merged = aggregate.MergeInventoryIntoBusiness(bizIdx, invIdx, p.threshold)
		infrastructure.RecordInventoryMerge(ctx, p.metrics, merged)
		return merged, nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, r, StageSummarize, bizIdx.Len()+invIdx.Len(), func(ctx context.Context) (int, error) {
		summary = domain.Summary{
			RunID:       r.id,
			GeneratedAt: p.now().UTC(),
			Businesses:  aggregate.FlattenBusinesses(bizIdx),
			Inventory:   aggregate.FlattenInventory(invIdx),
		}
		return len(summary.Businesses) + len(summary.Inventory), nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Summary:           summary,
		Coverage:          coverage(bizIdx, invIdx),
		Stats:             r.stats,
		MergedInventory:   merged,
		CleanedBusinesses: cleanBiz,
		CleanedInventory:  cleanInv,
		Businesses:        bizIdx,
		Inventory:         invIdx,
	}, nil
}

// stage runs fn inside a span and records its statistics.
func (p *Pipeline) stage(ctx context.Context, r *run, name string, rowsIn int, fn func(context.Context) (int, error)) error {
	r.index++
	ev := StageEvent{RunID: r.id, Stage: name, Index: r.index, Total: len(Stages)}

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("run cancelled before %s: %w", name, err)
		p.report(ctx, r, ev, events.StatusFailed, err)
		return err
	}

	ev.Stats = domain.StageStats{Stage: name, RowsIn: rowsIn}
	p.report(ctx, r, ev, events.StatusRunning, nil)

	ctx, span := p.tracer.Start(ctx, "pipeline."+name, trace.WithAttributes(
		attribute.String("run.id", r.id),
		attribute.Int("rows.in", rowsIn)))
	defer span.End()

	start := p.now()
	rowsOut, err := fn(ctx)
	ev.Stats.RowsOut = rowsOut
	ev.Stats.Duration = p.now().Sub(start)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		err = fmt.Errorf("%s: %w", name, err)
		p.report(ctx, r, ev, events.StatusFailed, err)
		return err
	}

	span.SetAttributes(attribute.Int("rows.out", rowsOut))
	r.stats = append(r.stats, ev.Stats)
	infrastructure.RecordStageMetrics(ctx, p.metrics, name, rowsIn, rowsOut, ev.Stats.Duration)

	p.logger.DebugContext(ctx, "stage complete",
		slog.String("run_id", r.id),
		slog.String("stage", name),
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", rowsOut),
		slog.Duration("duration", ev.Stats.Duration))

	p.report(ctx, r, ev, events.StatusCompleted, nil)
	return nil
}

func (p *Pipeline) report(ctx context.Context, r *run, ev StageEvent, status string, err error) {
	if r.progress == nil {
		return
	}
	ev.Status = status
	ev.Err = err
	r.progress.ReportStage(ctx, ev)
}

func loadTable(preloaded *table.Table, path string, opts table.ReadOptions) (*table.Table, error) {
	if preloaded != nil {
		return preloaded, nil
	}
	return table.ReadFile(path, opts)
}

func rowsOf(t *table.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

func coverage(biz *aggregate.Index[*entity.Business], inv *aggregate.Index[*entity.InventoryRecord]) domain.Coverage {
	return reconcile.Coverage(biz.Keys(), inv.Keys())
}
