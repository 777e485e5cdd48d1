// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the samplegate server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"samplegate/config"
	"samplegate/internal/admin"
	"samplegate/internal/mcp"
	"samplegate/internal/observability"
	"samplegate/internal/providers"
	"samplegate/internal/sampling"
	"samplegate/internal/server"
	"samplegate/internal/usage"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config    *config.Config
	providers *providers.InitResult
	usage     *usage.Result
	service   *sampling.Service
	mcp       *mcp.Handler
	server    *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig holds the configuration produced by config.Load.
	AppConfig *config.LoadResult

	// Factory provides the registered sampling strategies.
	Factory *providers.StrategyFactory

	// Registerer receives the application metrics. When nil and metrics are
	// enabled, the Prometheus default registry is used.
	Registerer prometheus.Registerer

	// Gatherer serves the metrics endpoint; it should match Registerer.
	Gatherer prometheus.Gatherer
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}

	if cfg.AppConfig.Config == nil {
		return nil, fmt.Errorf("app config contains nil Config")
	}

	if cfg.Factory == nil {
		return nil, fmt.Errorf("factory is required")
	}

	appCfg := cfg.AppConfig.Config

	app := &App{
		config: appCfg,
	}

	// Metrics hooks must be set before strategies are built
	var metrics *observability.Metrics
	var metricsHandler http.Handler
	if appCfg.Metrics.Enabled {
		reg, gatherer := cfg.Registerer, cfg.Gatherer
		if reg == nil {
			reg, gatherer = prometheus.DefaultRegisterer, prometheus.DefaultGatherer
		}
		metrics = observability.NewMetrics(reg)
		cfg.Factory.SetHooks(metrics.Hooks())
		if gatherer != nil {
			metricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
		}
	}

	providerResult, err := providers.Init(ctx, appCfg, cfg.Factory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize strategy: %w", err)
	}
	app.providers = providerResult

	usageResult, err := usage.New(ctx, appCfg)
	if err != nil {
		closeErr := app.providers.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("failed to initialize usage tracking: %w (also: providers close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize usage tracking: %w", err)
	}
	app.usage = usageResult

	app.logStartupInfo()

	app.service = sampling.NewService(providerResult.Name, providerResult.Strategy,
		sampling.WithUsageLogger(usageResult.Logger),
		sampling.WithMetrics(metrics),
	)
	app.mcp = mcp.NewHandler(app.service)

	serverCfg := &server.Config{
		MasterKey:       appCfg.Server.MasterKey,
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		BodySizeLimit:   appCfg.Server.BodySizeLimit,
		MetricsHandler:  metricsHandler,
		AdminHandler:    admin.NewHandler(usageResult.Reader, cfg.Factory.Definitions(), providerResult.Name),
	}
	app.server = server.New(app.service, serverCfg)

	return app, nil
}

// Service returns the sampling service.
func (a *App) Service() *sampling.Service {
	return a.service
}

// MCPHandler returns the handler for in-process MCP clients.
func (a *App) MCPHandler() *mcp.Handler {
	return a.mcp
}

// UsageLogger returns the usage logger interface.
func (a *App) UsageLogger() usage.LoggerInterface {
	if a.usage == nil {
		return nil
	}
	return a.usage.Logger
}

// Handler returns the HTTP handler of the server.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order:
// the HTTP server first, then the catalog cache, then usage tracking so
// pending entries are flushed last.
//
// Shutdown is idempotent; after the first call, subsequent calls are no-ops.
// It attempts every close step and returns a joined error if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.providers != nil {
		if err := a.providers.Close(); err != nil {
			slog.Error("providers close error", "error", err)
			errs = append(errs, fmt.Errorf("providers close: %w", err))
		}
	}

	if a.usage != nil {
		if err := a.usage.Close(); err != nil {
			slog.Error("usage logger close error", "error", err)
			errs = append(errs, fmt.Errorf("usage close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	if cfg.Server.MasterKey == "" {
		slog.Warn("SECURITY WARNING: SAMPLEGATE_MASTER_KEY not set - server running in UNSAFE MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set SAMPLEGATE_MASTER_KEY environment variable to secure this gateway")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}

	if cfg.Usage.Enabled {
		slog.Info("usage tracking enabled",
			"storage_type", cfg.Storage.Type,
			"buffer_size", cfg.Usage.BufferSize,
			"flush_interval", cfg.Usage.FlushInterval,
			"retention_days", cfg.Usage.RetentionDays,
		)
	} else {
		slog.Info("usage tracking disabled")
	}
}
