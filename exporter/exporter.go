// Package exporter periodically scrapes the nf_tables ruleset, exposing rule
// counters to Prometheus and the ruleset itself over a JSON API.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var logger = slog.Default()

type Exporter struct {
	Config

	dial Dialer
	m    *metrics
	reg  *prometheus.Registry

	metricsServer *http.Server
	api           *echo.Echo

	mu   sync.RWMutex
	sel  selection
	snap *Snapshot
}

func (e *Exporter) String() string {
	return "exporter"
}

func New(c *Config, dial Dialer) (*Exporter, error) {
	if c == nil {
		c = &DefaultConfig
	}
	if c.Log {
		logger = slog.Default().With("t", "exporter")
	} else {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initialising the exporter")

	sel, err := newSelection(c.Families, c.Tables)
	if err != nil {
		return nil, err
	}

	e := &Exporter{
		Config: *c,
		dial:   dial,
		m:      newMetrics(),
		reg:    prometheus.NewRegistry(),
		sel:    sel,
		snap:   &Snapshot{Tables: []Table{}},
	}

	if err := e.m.register(e.reg); err != nil {
		return nil, fmt.Errorf("error registering the metrics: %w", err)
	}

	if e.MetricsPort != 0 {
		handler := http.NewServeMux()
		handler.Handle("/metrics", promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{Registry: e.reg}))

		e.metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", e.BindAddress, e.MetricsPort),
			Handler: handler,
		}
	}

	e.api = e.newAPI()

	return e, nil
}

// Select changes the families and tables scraped from the next refresh on.
func (e *Exporter) Select(families, tables []string) error {
	sel, err := newSelection(families, tables)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.sel = sel
	e.mu.Unlock()

	logger.Info("updated the scrape selection", "families", families, "tables", tables)
	return nil
}

// Snapshot returns the result of the last successful refresh.
func (e *Exporter) Snapshot() *Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Refresh scrapes the ruleset once. On failure the previous snapshot is
// kept.
func (e *Exporter) Refresh(ctx context.Context) error {
	e.mu.RLock()
	sel := e.sel
	e.mu.RUnlock()

	snap, err := scrape(ctx, e.dial, sel)
	if err != nil {
		e.m.ScrapeErrors.Inc()
		return err
	}

	e.mu.Lock()
	e.snap = snap
	e.m.update(snap)
	e.mu.Unlock()

	return nil
}

// Run refreshes the snapshot every RefreshSeconds and serves it until done
// is closed.
func (e *Exporter) Run(done <-chan struct{}) {
	logger.Debug("running the exporter")

	if e.metricsServer != nil {
		go func() {
			if err := e.metricsServer.ListenAndServe(); err != nil {
				logger.Info("stopped listening", "err", err)
			}
		}()
	}
	if e.ApiPort != 0 {
		go func() {
			if err := e.api.Start(fmt.Sprintf("%s:%d", e.BindAddress, e.ApiPort)); err != http.ErrServerClosed {
				logger.Error("couldn't start the API server", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-done
		cancel()
	}()

	period := time.Duration(e.RefreshSeconds) * time.Second
	if period <= 0 {
		period = time.Duration(DefaultConfig.RefreshSeconds) * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		if err := e.Refresh(ctx); err != nil && ctx.Err() == nil {
			logger.Error("error refreshing the ruleset", "err", err)
		}

		select {
		case <-ticker.C:
		case <-done:
			logger.Debug("cleanly exiting the exporter")
			return
		}
	}
}

func (e *Exporter) Cleanup() error {
	logger.Debug("cleaning up the exporter")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs error
	if e.metricsServer != nil {
		if err := e.metricsServer.Shutdown(ctx); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if err := e.api.Shutdown(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("error shutting down the API server: %w", err))
	}

	return errs
}
