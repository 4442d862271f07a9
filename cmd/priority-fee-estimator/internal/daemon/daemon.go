// Package daemon wires the fee tracker, the ingestion runner and the HTTP
// surfaces into one process.
package daemon

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal"
	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/config"
	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/feetracker"
	"github.com/dyxushuai/atlas-priority-fee-estimator/cmd/priority-fee-estimator/internal/ingest"
)

const (
	prometheusNamespace = "priority_fee_estimator"

	shutdownGracePeriod = 10 * time.Second
)

type Daemon struct {
	cfg      *config.Config
	logger   *logrus.Entry
	registry *prometheus.Registry
	tracker  *feetracker.Tracker
	handler  internal.Handler
	runner   *ingest.Runner
}

// New builds a daemon from configuration. The config must already be
// validated.
func New(cfg *config.Config) (*Daemon, error) {
	logger := newLogger(cfg)

	tracker, err := feetracker.New(int(cfg.SlotWindowCapacity), logger)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		tracker:  tracker,
	}
	d.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: prometheusNamespace}),
	)

	d.handler = internal.NewJSONRPCHandler(cfg, internal.HandlerParams{
		Tracker: tracker,
		Logger:  logger,
		Daemon:  d,
	})

	if cfg.StreamEndpoint != "" {
		source := ingest.NewTCPSource(cfg.StreamEndpoint, logger)
		d.runner = ingest.NewRunner(source, []ingest.Consumer{
			ingest.TrackerConsumer{Tracker: tracker},
		}, logger, d)
	} else {
		logger.Warn("no stream endpoint configured, serving estimates from an empty fee window")
	}

	return d, nil
}

func newLogger(cfg *config.Config) *logrus.Entry {
	logger := logrus.New()
	if cfg.LogFormat == config.LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logrus.NewEntry(logger)
}

func (d *Daemon) MetricsRegistry() *prometheus.Registry {
	return d.registry
}

func (d *Daemon) MetricsNamespace() string {
	return prometheusNamespace
}

// Tracker exposes the fee tracker, mostly for tests.
func (d *Daemon) Tracker() *feetracker.Tracker {
	return d.tracker
}

// Run serves until the context is cancelled or a fatal error occurs.
// Cancellation drains the HTTP servers within the grace period.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:        d.cfg.Endpoint,
		Handler:     d.handler,
		ReadTimeout: 5 * time.Second,
	}
	group.Go(func() error {
		d.logger.WithField("addr", d.cfg.Endpoint).Info("starting JSON RPC server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	var adminServer *http.Server
	if d.cfg.AdminEndpoint != "" {
		adminMux := http.NewServeMux()
		adminMux.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
		adminServer = &http.Server{
			Addr:        d.cfg.AdminEndpoint,
			Handler:     adminMux,
			ReadTimeout: 5 * time.Second,
		}
		group.Go(func() error {
			d.logger.WithField("addr", d.cfg.AdminEndpoint).Info("starting admin server")
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}

	if d.runner != nil {
		group.Go(func() error {
			err := d.runner.Run(ctx)
			if err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		d.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if adminServer != nil {
			_ = adminServer.Shutdown(shutdownCtx)
		}
		err := server.Shutdown(shutdownCtx)
		d.handler.Close()
		return err
	})

	return group.Wait()
}
