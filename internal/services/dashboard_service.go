// Package services orchestrates the per-cycle render pipeline:
// Loader → Enricher → Dashboard, with content-keyed memoization in front.
package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"salesdash/internal/cache"
	"salesdash/internal/dashboard"
	"salesdash/internal/dataset"
	"salesdash/internal/enrich"
	apierrors "salesdash/internal/errors"
	"salesdash/internal/infrastructure"
)

// Input formats accepted for uploads
const (
	FormatCSV   = "csv"
	FormatExcel = "xlsx"
)

// Render sources, used for logging and metrics labels
const (
	SourceUpload = "upload"
	SourceSample = "sample"
)

// Broadcaster pushes refresh notifications to open dashboard pages
type Broadcaster interface {
	BroadcastRefresh(source string)
}

// RenderRequest carries one render cycle's input
type RenderRequest struct {
	// Content is the raw uploaded file; empty means no upload
	Content []byte
	// Format selects the upload parser, FormatCSV by default
	Format string
	// UseSample falls back to the embedded sample when no file is supplied
	UseSample bool
	// Target is the KPI target revenue
	Target float64 `validate:"gte=0"`
}

// DashboardService runs render cycles. Every anticipated failure comes
// back as an error value; the surrounding process stays alive for the next
// input change.
type DashboardService struct {
	builder  *dashboard.Builder
	cache    *cache.RenderCache
	hub      Broadcaster
	metrics  *infrastructure.BusinessMetrics
	validate *validator.Validate
	logger   *slog.Logger
}

// NewDashboardService creates the render service. The cache, hub, and
// metrics collaborators are optional; a nil logger falls back to the
// default slog logger.
func NewDashboardService(builder *dashboard.Builder, renderCache *cache.RenderCache, hub Broadcaster, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		builder:  builder,
		cache:    renderCache,
		hub:      hub,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
}

// Render runs one complete render cycle and returns the dashboard payload
func (s *DashboardService) Render(ctx context.Context, req RenderRequest) (*dashboard.Payload, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apierrors.ErrValidation("target", "must be non-negative")
	}

	content, source, err := s.resolveInput(req)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil && source == SourceUpload {
		s.metrics.UploadBytesProcessed.Add(ctx, int64(len(content)))
	}

	format := req.Format
	if format == "" {
		format = FormatCSV
	}
	key := cache.Key(content, format, req.Target)
	if s.cache != nil {
		if payload, ok := s.cache.Get(key); ok {
			s.logger.InfoContext(ctx, "render served from cache",
				slog.String("source", source))
			s.recordCacheLookup(ctx, true)
			infrastructure.RecordRender(ctx, s.metrics, source, 0, true, nil)
			return payload, nil
		}
		s.recordCacheLookup(ctx, false)
	}

	started := time.Now()
	payload, err := s.renderFresh(ctx, content, req)
	elapsed := time.Since(started)
	infrastructure.RecordRender(ctx, s.metrics, source, elapsed, false, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "render failed",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.InfoContext(ctx, "render complete",
		slog.String("source", source),
		slog.Int("rows", len(payload.Preview.Rows)),
		slog.Duration("duration", elapsed))

	if s.cache != nil {
		s.cache.Set(key, payload)
	}
	if s.hub != nil {
		s.hub.BroadcastRefresh(source)
	}

	return payload, nil
}

// resolveInput picks the input bytes for this cycle: the upload when
// present, the embedded sample when enabled, otherwise a no-input error.
func (s *DashboardService) resolveInput(req RenderRequest) ([]byte, string, error) {
	if len(req.Content) > 0 {
		return req.Content, SourceUpload, nil
	}
	if req.UseSample {
		return dataset.SampleBytes(), SourceSample, nil
	}
	return nil, "", apierrors.ErrNoInput
}

// renderFresh parses, enriches, and builds the payload without the cache
func (s *DashboardService) renderFresh(ctx context.Context, content []byte, req RenderRequest) (*dashboard.Payload, error) {
	var (
		table *dataset.Table
		err   error
	)
	switch req.Format {
	case FormatExcel:
		table, err = dataset.ParseExcel(bytes.NewReader(content))
	case FormatCSV, "":
		table, err = dataset.ParseCSV(bytes.NewReader(content))
	default:
		return nil, apierrors.InvalidRequestWithError(fmt.Errorf("unsupported input format %q", req.Format))
	}
	if err != nil {
		return nil, apierrors.ParseFailedError(err)
	}

	ds, err := enrich.Enrich(table)
	if err != nil {
		var schemaErr *enrich.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, apierrors.SchemaError(err)
		}
		return nil, err
	}

	return s.builder.Build(ctx, ds, req.Target), nil
}

// CacheStats exposes memoization counters; zero stats when caching is off
func (s *DashboardService) CacheStats() cache.Stats {
	if s.cache == nil {
		return cache.Stats{}
	}
	return s.cache.GetStats()
}

func (s *DashboardService) recordCacheLookup(ctx context.Context, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.Add(ctx, 1)
	} else {
		s.metrics.CacheMissesTotal.Add(ctx, 1)
	}
}
