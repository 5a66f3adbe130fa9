package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"textpilot/internal/client"
	"textpilot/internal/config"
	"textpilot/internal/core"
	"textpilot/internal/core/processors"
	"textpilot/internal/core/security"
	"textpilot/internal/metrics"
	"textpilot/internal/pkg/logger"
	"textpilot/internal/settings"
)

// app holds the components shared by every command
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    settings.Store
	client   *client.Client
	registry *prometheus.Registry
}

// newApp loads the configuration and builds the logger, settings store and request client.
// logOpts overrides the configured log output for commands that print results on stdout.
func newApp(logOpts *logger.Options) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	opts := logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}
	if logOpts != nil {
		opts.Format = logOpts.Format
		opts.Output = logOpts.Output
	}
	log, err := logger.NewWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	scanner := security.NewScanner()
	if err := scanner.AddPatterns(cfg.Log.RedactPatterns...); err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("invalid log.redact_patterns: %w", err)
	}

	store, err := settings.NewStore(cfg.Settings)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("failed to open settings store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pipeline := core.NewPipeline(
		processors.NewRequestLogger(scanner),
		processors.NewMetricsRecorder(metrics.New(registry)),
	)

	c := client.New(
		client.WithHTTPClient(client.NewHTTPClient(cfg.Client.Timeout)),
		client.WithRetryPolicy(cfg.Client.RetryPolicy()),
		client.WithLogger(log),
		client.WithPipeline(pipeline),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		client:   c,
		registry: registry,
	}, nil
}

// Close releases the settings store and flushes the logger
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close settings store", zap.Error(err))
	}
	_ = a.log.Sync()
}
