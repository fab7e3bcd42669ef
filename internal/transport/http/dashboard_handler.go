package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salesdash/internal/config"
	"salesdash/internal/dashboard"
	apierrors "salesdash/internal/errors"
	"salesdash/internal/services"
)

// DashboardServiceInterface abstracts the render service for handler tests.
type DashboardServiceInterface interface {
	Render(ctx context.Context, req services.RenderRequest) (*dashboard.Payload, error)
}

// DashboardHandler handles dashboard render requests.
type DashboardHandler struct {
	service        DashboardServiceInterface
	cfg            config.DashboardConfig
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service DashboardServiceInterface, cfg config.DashboardConfig, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:        service,
		cfg:            cfg,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "dashboard")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Render)
	r.Get("/sample", h.RenderSample)

	return r
}

// Render handles POST /api/dashboard. It accepts a multipart form with an
// optional "file" part (CSV or Excel) and a "target" value; when no file is
// uploaded the embedded sample dataset is rendered instead.
func (h *DashboardHandler) Render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("body", "Expected multipart form data"))
		return
	}

	target, err := h.parseTarget(r.FormValue("target"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	req := services.RenderRequest{Target: target}

	file, header, err := r.FormFile("file")
	switch {
	case err == http.ErrMissingFile:
		req.UseSample = r.FormValue("use_sample") != "false"
	case err != nil:
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Failed to read uploaded file"))
		return
	default:
		defer file.Close()
		content, readErr := io.ReadAll(file)
		if readErr != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "Failed to read uploaded file"))
			return
		}
		format, fmtErr := formatFromFilename(header.Filename)
		if fmtErr != nil {
			h.errorHandler.HandleError(w, r, fmtErr)
			return
		}
		req.Content = content
		req.Format = format
	}

	payload, err := h.service.Render(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, payload)
}

// RenderSample handles GET /api/dashboard/sample?target=N, rendering the
// embedded sample dataset without an upload.
func (h *DashboardHandler) RenderSample(w http.ResponseWriter, r *http.Request) {
	target, err := h.parseTarget(r.URL.Query().Get("target"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	payload, err := h.service.Render(r.Context(), services.RenderRequest{
		UseSample: true,
		Target:    target,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, payload)
}

// parseTarget resolves the KPI target value, falling back to the configured
// default when the parameter is absent.
func (h *DashboardHandler) parseTarget(raw string) (float64, error) {
	if raw == "" {
		return h.cfg.DefaultTarget, nil
	}
	target, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, apierrors.ErrValidation("target", "Target must be a number")
	}
	if target < h.cfg.MinTarget {
		return 0, apierrors.ErrValidation("target", "Target is below the allowed minimum")
	}
	return target, nil
}

func formatFromFilename(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return services.FormatCSV, nil
	case ".xlsx", ".xls":
		return services.FormatExcel, nil
	default:
		return "", apierrors.ErrValidation("file", "Unsupported file type; upload a .csv or .xlsx file")
	}
}
