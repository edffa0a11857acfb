// Package metrics exposes Prometheus counters for remote calls and workflows.
package metrics

import (
	"context"
	"errors"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	RemoteRequests  *prometheus.CounterVec
	RemoteDuration  *prometheus.HistogramVec
	Workflows       *prometheus.CounterVec
	BusyRejections  prometheus.Counter
	WorkflowsActive prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RemoteRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alloc_admin_remote_requests_total",
				Help: "Total number of calls to the allocation service",
			},
			[]string{"op", "code"},
		),
		RemoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "alloc_admin_remote_request_seconds",
				Help:    "Duration of calls to the allocation service in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"op"},
		),
		Workflows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alloc_admin_workflows_total",
				Help: "Total number of settled workflows",
			},
			[]string{"workflow", "outcome"},
		),
		BusyRejections: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "alloc_admin_busy_rejections_total",
				Help: "Workflows rejected because another one was in flight",
			},
		),
		WorkflowsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "alloc_admin_workflows_active",
				Help: "1 while a guarded workflow is running",
			},
		),
	}
}

// ObserveRequest records one remote call. A zero status is labeled "network".
func (m *Metrics) ObserveRequest(op string, statusCode int, elapsed time.Duration) {
	code := "network"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	m.RemoteRequests.WithLabelValues(op, code).Inc()
	m.RemoteDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// WorkflowStarted marks a guarded workflow as running.
func (m *Metrics) WorkflowStarted(string) {
	m.WorkflowsActive.Set(1)
}

// WorkflowSettled records the outcome ("ok", "error", "invalid") of a workflow.
func (m *Metrics) WorkflowSettled(workflow, outcome string) {
	m.WorkflowsActive.Set(0)
	m.Workflows.WithLabelValues(workflow, outcome).Inc()
}

// BusyRejected counts a single-flight rejection.
func (m *Metrics) BusyRejected(string) {
	m.BusyRejections.Inc()
}

// WatchDroppedEvents exports the event bus drop counter. dropped is read on
// every scrape.
func (m *Metrics) WatchDroppedEvents(dropped func() int64) {
	promauto.With(m.registry).NewCounterFunc(
		prometheus.CounterOpts{
			Name: "alloc_admin_events_dropped_total",
			Help: "Events skipped because a front end's buffer was full",
		},
		func() float64 { return float64(dropped()) },
	)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() nethttp.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := nethttp.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}
