package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/haasonsaas/cmdtree/internal/commands"
	"github.com/haasonsaas/cmdtree/internal/config"
	"github.com/haasonsaas/cmdtree/internal/host"
	"github.com/haasonsaas/cmdtree/internal/observability"
	"github.com/haasonsaas/cmdtree/internal/permissions"
	"github.com/haasonsaas/cmdtree/internal/town"
)

// app wires the configured stores, telemetry and root commands together.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	store    permissions.Store
	resolver *permissions.Resolver
	commands *host.CommandMap
	towns    *town.Registry

	metricsServer  *http.Server
	shutdownTracer func(context.Context) error
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newApp builds the runtime described by cfg. Close releases it.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := observability.NewLogger(observability.LogConfig{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		Output:         os.Stderr,
		AddSource:      cfg.Logging.AddSource,
		RedactPatterns: cfg.Logging.RedactPatterns,
	})
	slog.SetDefault(logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		towns:    town.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = observability.NewMetrics(a.registry)
	a.tracer, a.shutdownTracer = observability.NewTracer(observability.TraceConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		EnableInsecure: cfg.Tracing.Insecure,
	})

	store, err := openStore(ctx, cfg.Permissions, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.store = store
	a.resolver = permissions.NewResolver(store, cfg.Permissions.Defaults, logger)

	a.commands = host.NewCommandMap(
		host.WithLogger(logger),
		host.WithRecorder(a.metrics),
		host.WithPrefixes(cfg.Commands.Prefixes...),
	)
	townCmd, err := town.New(a.towns, logger,
		commands.WithRecorder(a.metrics),
		commands.WithTracer(a.tracer.Tracer()))
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("build town command: %w", err)
	}
	if err := a.commands.Register(townCmd); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	if cfg.Metrics.Address != "" {
		a.serveMetrics(cfg.Metrics.Address)
	}
	return a, nil
}

// openStore opens the configured permission backend. A watched file store
// reloads until ctx is done.
func openStore(ctx context.Context, cfg config.PermissionsConfig, logger *slog.Logger) (permissions.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		fs, err := permissions.OpenFile(cfg.Path,
			permissions.WithFileLogger(logger),
			permissions.WithDebounce(cfg.Debounce))
		if err != nil {
			return nil, fmt.Errorf("open permission file: %w", err)
		}
		if cfg.Watch {
			if err := fs.Watch(ctx); err != nil {
				_ = fs.Close()
				return nil, fmt.Errorf("watch permission file: %w", err)
			}
		}
		return fs, nil
	case config.BackendSQLite:
		db, err := permissions.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open permission database: %w", err)
		}
		return db, nil
	default:
		return permissions.NewMemoryStore(), nil
	}
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("serving metrics", "address", addr)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()
}

// Close shuts down every component that was started.
func (a *app) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var errs []error
	if a.metricsServer != nil {
		errs = append(errs, a.metricsServer.Shutdown(ctx))
	}
	if a.commands != nil {
		errs = append(errs, a.commands.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.shutdownTracer != nil {
		errs = append(errs, a.shutdownTracer(ctx))
	}
	return multierr.Combine(errs...)
}

// sender returns the console sender, or a player named player whose
// permissions come from the store under "player:<name>".
func (a *app) sender(console *host.ConsoleSender, player string) commands.Sender {
	if player == "" {
		return console
	}
	return host.NewPlayerSender(player, "player:"+player, a.resolver, console.SendMessage)
}
