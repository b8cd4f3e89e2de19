package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"vanbiz/internal/chart"
	apierrors "vanbiz/internal/errors"
	customMiddleware "vanbiz/internal/middleware"
	api "vanbiz/pkg/contracts/api/v1"
)

// XLSXContentType is the media type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WorkbookFilename is the attachment name of exported workbooks.
const WorkbookFilename = "vanbiz_summary.xlsx"

// DashboardHandler serves the summary tables, charts, exports and pipeline
// runs with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *customMiddleware.ValidationMiddleware
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    customMiddleware.NewValidationMiddleware(logger, errorHandler),
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
	}
}

// Routes returns the dashboard routes, mounted under /api
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/summary", func(r chi.Router) {
		r.Get("/businesses", h.GetBusinesses)
		r.Get("/inventory", h.GetInventory)
	})
	r.Get("/overview", h.GetOverview)
	r.Get("/coverage", h.GetCoverage)
	r.Get("/charts/{kind}", h.GetChart)
	r.Get("/export/xlsx", h.ExportWorkbook)

	r.Route("/pipeline", func(r chi.Router) {
		r.Get("/status", h.GetRunStatus)
		r.With(
			customMiddleware.ContentTypeValidator("application/json"),
			h.validator.LimitBody,
		).Post("/run", h.RunPipeline)
	})

	return r
}

// GetBusinesses handles GET /api/summary/businesses
func (h *DashboardHandler) GetBusinesses(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Businesses(r.Context())
	if err != nil {
		h.fail(w, r, "failed to get business summary", err)
		return
	}
	render.JSON(w, r, resp)
}

// GetInventory handles GET /api/summary/inventory
func (h *DashboardHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Inventory(r.Context())
	if err != nil {
		h.fail(w, r, "failed to get inventory summary", err)
		return
	}
	render.JSON(w, r, resp)
}

// GetOverview handles GET /api/overview
func (h *DashboardHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context())
	if err != nil {
		h.fail(w, r, "failed to get overview", err)
		return
	}
	render.JSON(w, r, overview)
}

// GetCoverage handles GET /api/coverage
func (h *DashboardHandler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Coverage(r.Context())
	if err != nil {
		h.fail(w, r, "failed to get coverage", err)
		return
	}
	render.JSON(w, r, resp)
}

// GetChart handles GET /api/charts/{kind}?dataset=&x=&y=&top_n=&theme=
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	params, err := plotParamsFromRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Chart(r.Context(), params)
	if err != nil {
		h.fail(w, r, "failed to render chart", err)
		return
	}
	render.JSON(w, r, resp)
}

// plotParamsFromRequest binds the URL kind and query parameters. Missing
// parameters stay zero and take the dashboard defaults.
func plotParamsFromRequest(r *http.Request) (chart.PlotParams, error) {
	q := r.URL.Query()
	p := chart.PlotParams{
		Kind:    chart.Kind(chi.URLParam(r, "kind")),
		Dataset: chart.Dataset(q.Get("dataset")),
		XField:  q.Get("x"),
		YField:  q.Get("y"),
		Theme:   chart.Theme(q.Get("theme")),
	}

	if raw := q.Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, apierrors.ErrValidation("top_n", fmt.Sprintf("top_n must be an integer, got %q", raw))
		}
		p.TopN = n
	}
	return p, nil
}

// ExportWorkbook handles GET /api/export/xlsx. The workbook is built in
// memory so a failure still produces a problem response.
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportWorkbook(r.Context(), &buf); err != nil {
		h.fail(w, r, "failed to export workbook", err)
		return
	}

	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", WorkbookFilename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "workbook download interrupted",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	}
}

// RunPipeline handles POST /api/pipeline/run
func (h *DashboardHandler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	var req api.RunRequest
	if err := h.validator.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "pipeline run requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Bool("write_outputs", req.WriteOutputs))

	resp, err := h.service.Run(r.Context(), req)
	if err != nil {
		h.fail(w, r, "pipeline run failed", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// GetRunStatus handles GET /api/pipeline/status
func (h *DashboardHandler) GetRunStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.service.LastRun()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("pipeline run"))
		return
	}
	render.JSON(w, r, snapshot)
}

func (h *DashboardHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	h.errorHandler.HandleError(w, r, err)
}
