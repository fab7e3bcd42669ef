package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"salesdash/internal/cache"
	"salesdash/internal/config"
	"salesdash/internal/dashboard"
	apierrors "salesdash/internal/errors"
	"salesdash/internal/infrastructure"
	custommw "salesdash/internal/middleware"
	"salesdash/internal/services"
	handlers "salesdash/internal/transport/http"
	ws "salesdash/internal/websocket"
)

const apiTimeout = 30 * time.Second

// Application wires configuration, infrastructure, services and the HTTP
// transport into a runnable server.
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	Metrics          *infrastructure.MetricsProviders
	BusinessMetrics  *infrastructure.BusinessMetrics
	RenderCache      *cache.RenderCache
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	FrontendFS       fs.FS
}

// NewApplication creates the application container with all dependencies wired.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("service", infrastructure.ServiceName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.Int("port", cfg.Server.Port))

	metrics, err := infrastructure.InitializeMetrics(infrastructure.DefaultMetricsConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	businessMetrics, err := infrastructure.CreateBusinessMetrics(metrics.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	var renderCache *cache.RenderCache
	if cfg.Cache.Enabled {
		renderCache = cache.NewRenderCache(cfg.Cache.TTL, cfg.Cache.MaxSize)
	} else {
		renderCache = cache.NewRenderCache(cfg.Cache.TTL, 0)
	}

	hub := ws.NewHub(logger)

	builder := dashboard.NewBuilder(logger, dashboard.DefaultTheme())
	dashboardService := services.NewDashboardService(builder, renderCache, hub, businessMetrics, logger)

	app := &Application{
		Config:           cfg,
		Logger:           logger,
		Metrics:          metrics,
		BusinessMetrics:  businessMetrics,
		RenderCache:      renderCache,
		WebSocketHub:     hub,
		DashboardService: dashboardService,
		FrontendFS:       frontendFS,
	}

	app.Router = app.setupRouter()
	app.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

func (a *Application) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.Metrics(a.BusinessMetrics))
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(custommw.SecurityHeaders)
	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}
	r.Use(chimiddleware.Compress(5))

	dashboardHandler := handlers.NewDashboardHandler(
		a.DashboardService,
		a.Config.Dashboard,
		a.Config.Server.MaxUploadBytes,
		a.Logger,
		errorHandler,
	)
	configHandler := handlers.NewConfigHandler(a.Config.Dashboard, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.Logger)

	r.Route("/api", func(r chi.Router) {
		if a.Config.Security.RateLimit.Enabled {
			limiter := custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			)
			r.Use(limiter.Handler)
		}
		r.Use(custommw.Timeout(apiTimeout, a.Logger))

		r.Mount("/dashboard", dashboardHandler.Routes())
		r.Get("/config", configHandler.Get)
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/version", healthHandler.Version)
	})

	r.Get("/ws", a.handleWebSocket)

	if a.Metrics.PrometheusHTTP != nil {
		r.Handle("/metrics", a.Metrics.PrometheusHTTP)
	}

	if a.FrontendFS != nil {
		r.Handle("/*", http.FileServer(http.FS(a.FrontendFS)))
	}

	return r
}

func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			// Same-host frontend; dashboards are served and consumed locally.
			return true
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	client := ws.NewClient(a.WebSocketHub, conn, a.Logger)
	client.Register()
}

// Run starts the hub and HTTP server and blocks until the context is
// cancelled or the server fails. Shutdown is graceful within the configured
// timeout.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.WebSocketHub.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		a.WebSocketHub.Stop()
		a.RenderCache.Close()

		if err := a.Metrics.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("metrics shutdown failed", slog.String("error", err.Error()))
		}
		if err := infrastructure.CloseLogFile(); err != nil {
			a.Logger.Warn("log file close failed", slog.String("error", err.Error()))
		}
		return nil
	})

	return g.Wait()
}
