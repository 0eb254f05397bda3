// Package metric exposes export statistics as Prometheus collectors.
package metric

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bimgraph"

// Collector records export passes. It implements exporter.Observer and is
// safe for concurrent use.
type Collector struct {
	registry   *prometheus.Registry
	elements   *prometheus.CounterVec
	failures   *prometheus.CounterVec
	passes     *prometheus.CounterVec
	statements prometheus.Counter
	duration   prometheus.Histogram
	published  *prometheus.CounterVec
}

// NewCollector creates a collector on its own registry, together with the
// Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		elements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_exported_total",
			Help:      "Model elements written to a graph document, by phase.",
		}, []string{"phase"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "element_failures_total",
			Help:      "Recoverable per-element failures, by phase.",
		}, []string{"phase"}),
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_passes_total",
			Help:      "Export passes, by outcome.",
		}, []string{"outcome"}),
		statements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_rendered_total",
			Help:      "Statements rendered across all successful passes.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Wall time of one export pass.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_published_total",
			Help:      "Documents handed to an output sink, by sink and outcome.",
		}, []string{"sink", "outcome"}),
	}
	c.registry.MustRegister(
		c.elements, c.failures, c.passes, c.statements, c.duration, c.published,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the collectors are registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObservePhase records the element count and failures of one phase.
func (c *Collector) ObservePhase(phase string, elements, failures int) {
	c.elements.WithLabelValues(phase).Add(float64(elements))
	c.failures.WithLabelValues(phase).Add(float64(failures))
}

// ObservePass records the outcome and duration of one pass.
func (c *Collector) ObservePass(outcome string, elapsed time.Duration, statements int) {
	c.passes.WithLabelValues(outcome).Inc()
	c.duration.Observe(elapsed.Seconds())
	c.statements.Add(float64(statements))
}

// ObservePublish records one delivery attempt to an output sink.
func (c *Collector) ObservePublish(sink string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	c.published.WithLabelValues(sink, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown failed", "error", err)
		}
	}()

	logger.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
