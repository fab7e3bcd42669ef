package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	ServiceName    = "salesdash"
	ServiceVersion = "v1.0.0"
	MeterName      = "salesdash"
)

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Exporter       string // "prometheus", "none"
}

// MetricsProviders holds the meter provider and the scrape handler
type MetricsProviders struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultMetricsConfig returns the default metrics configuration
func DefaultMetricsConfig() *MetricsConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	return &MetricsConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		Exporter:       "prometheus",
	}
}

// InitializeMetrics sets up the OpenTelemetry meter provider backed by the
// Prometheus exporter and returns the provider bundle.
func InitializeMetrics(cfg *MetricsConfig, logger *slog.Logger) (*MetricsProviders, error) {
	if cfg == nil {
		cfg = DefaultMetricsConfig()
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	providers := &MetricsProviders{Logger: logger}

	switch cfg.Exporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)
	case "none":
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName)
	default:
		return nil, fmt.Errorf("unsupported metric exporter: %s", cfg.Exporter)
	}

	logger.Info("metrics initialized", slog.String("exporter", cfg.Exporter))

	return providers, nil
}

// Shutdown flushes and stops the meter provider
func (p *MetricsProviders) Shutdown(ctx context.Context) error {
	if p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}

// BusinessMetrics holds the application-specific instruments
type BusinessMetrics struct {
	HTTPRequestsTotal    metric.Int64Counter
	HTTPRequestDuration  metric.Float64Histogram
	HTTPActiveRequests   metric.Int64UpDownCounter
	RendersTotal         metric.Int64Counter
	EnrichDuration       metric.Float64Histogram
	CacheHitsTotal       metric.Int64Counter
	CacheMissesTotal     metric.Int64Counter
	UploadBytesProcessed metric.Int64Counter
}

// CreateBusinessMetrics creates the dashboard's instruments on the given meter
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	rendersTotal, err := meter.Int64Counter(
		"dashboard_renders_total",
		metric.WithDescription("Total number of dashboard render cycles"),
	)
	if err != nil {
		return nil, err
	}

	enrichDuration, err := meter.Float64Histogram(
		"dashboard_enrich_duration_seconds",
		metric.WithDescription("Enrichment pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"dashboard_cache_hits_total",
		metric.WithDescription("Render cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"dashboard_cache_misses_total",
		metric.WithDescription("Render cache misses"),
	)
	if err != nil {
		return nil, err
	}

	uploadBytes, err := meter.Int64Counter(
		"dashboard_upload_bytes_total",
		metric.WithDescription("Bytes of uploaded input processed"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		HTTPActiveRequests:   httpActiveRequests,
		RendersTotal:         rendersTotal,
		EnrichDuration:       enrichDuration,
		CacheHitsTotal:       cacheHits,
		CacheMissesTotal:     cacheMisses,
		UploadBytesProcessed: uploadBytes,
	}, nil
}

// RecordRender records one completed render cycle
func RecordRender(ctx context.Context, m *BusinessMetrics, source string, enrichDuration time.Duration, cached bool, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
		attribute.Bool("cached", cached),
	)

	m.RendersTotal.Add(ctx, 1, attrs)
	if !cached && err == nil {
		m.EnrichDuration.Record(ctx, enrichDuration.Seconds(),
			metric.WithAttributes(attribute.String("source", source)))
	}
}
