package http

import (
	"context"
	"io"

	"vanbiz/internal/chart"
	api "vanbiz/pkg/contracts/api/v1"
	"vanbiz/pkg/contracts/events"
)

// DashboardServiceInterface defines the dashboard operations the handlers serve
type DashboardServiceInterface interface {
	Run(ctx context.Context, req api.RunRequest) (*api.RunResponse, error)
	LastRun() (events.RunSnapshot, bool)

	Businesses(ctx context.Context) (*api.BusinessListResponse, error)
	Inventory(ctx context.Context) (*api.InventoryListResponse, error)
	Overview(ctx context.Context) (chart.Overview, error)
	Coverage(ctx context.Context) (*api.CoverageResponse, error)
	Chart(ctx context.Context, p chart.PlotParams) (*api.ChartResponse, error)
	ExportWorkbook(ctx context.Context, w io.Writer) error
}
