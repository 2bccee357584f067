// Package metrics provides Prometheus metrics instrumentation for sigild.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for sigild. It implements
// both the dispatch hooks of pkg/sigil and the HTTP middleware
// recorder of pkg/api.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	// Dispatch metrics
	listenersFired *prometheus.CounterVec
	firesSkipped   *prometheus.CounterVec
	listenerPanics *prometheus.CounterVec

	// Registry metrics
	registrySize prometheus.Gauge

	// HTTP metrics
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpConnections prometheus.Gauge

	// Watch stream metrics
	watchClients prometheus.Gauge
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	HTTPDurationBuckets []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:             true,
		Port:                9091,
		Path:                "/metrics",
		HTTPDurationBuckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}
}

// NewManager creates a new metrics manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		enabled:  true,
	}

	m.initDispatchMetrics()
	m.initHTTPMetrics(cfg)

	return m
}

// NoOpManager returns a no-op metrics manager for when metrics are disabled.
func NoOpManager() *Manager {
	return &Manager{enabled: false}
}

func (m *Manager) initDispatchMetrics() {
	m.listenersFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigil_listeners_fired_total",
			Help: "Total listener invocations scheduled, by fire target",
		},
		[]string{"target"},
	)

	m.firesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigil_fires_skipped_total",
			Help: "Fires skipped by the enabled gate, by target and reason",
		},
		[]string{"target", "reason"},
	)

	m.listenerPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigil_listener_panics_total",
			Help: "Listener invocations that panicked and were isolated",
		},
		[]string{"target"},
	)

	m.registrySize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigil_registry_signals",
			Help: "Number of names currently bound in the signal registry",
		},
	)

	m.watchClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigild_watch_clients",
			Help: "Connected watch stream clients",
		},
	)

	m.registry.MustRegister(m.listenersFired)
	m.registry.MustRegister(m.firesSkipped)
	m.registry.MustRegister(m.listenerPanics)
	m.registry.MustRegister(m.registrySize)
	m.registry.MustRegister(m.watchClients)
}

func (m *Manager) initHTTPMetrics(cfg Config) {
	buckets := cfg.HTTPDurationBuckets
	if len(buckets) == 0 {
		buckets = DefaultConfig().HTTPDurationBuckets
	}

	m.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sigild_http_requests_total",
			Help: "Total HTTP requests by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	m.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sigild_http_request_duration_seconds",
			Help:    "HTTP request duration by method and path",
			Buckets: buckets,
		},
		[]string{"method", "path"},
	)

	m.httpConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sigild_http_active_connections",
			Help: "Currently active HTTP connections",
		},
	)

	m.registry.MustRegister(m.httpRequests)
	m.registry.MustRegister(m.httpDuration)
	m.registry.MustRegister(m.httpConnections)
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// RecordFired implements sigil.MetricsRecorder.
func (m *Manager) RecordFired(target string, listeners int) {
	if !m.enabled {
		return
	}
	m.listenersFired.WithLabelValues(target).Add(float64(listeners))
}

// RecordSkipped implements sigil.MetricsRecorder.
func (m *Manager) RecordSkipped(target string, reason string) {
	if !m.enabled {
		return
	}
	m.firesSkipped.WithLabelValues(target, reason).Inc()
}

// RecordPanic implements sigil.MetricsRecorder.
func (m *Manager) RecordPanic(target string) {
	if !m.enabled {
		return
	}
	m.listenerPanics.WithLabelValues(target).Inc()
}

// SetRegistrySize updates the registry size gauge.
func (m *Manager) SetRegistrySize(n int) {
	if !m.enabled {
		return
	}
	m.registrySize.Set(float64(n))
}

// IncWatchClients records a watch client connecting.
func (m *Manager) IncWatchClients() {
	if !m.enabled {
		return
	}
	m.watchClients.Inc()
}

// DecWatchClients records a watch client disconnecting.
func (m *Manager) DecWatchClients() {
	if !m.enabled {
		return
	}
	m.watchClients.Dec()
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Manager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncActiveConnections increments the active connection gauge.
func (m *Manager) IncActiveConnections() {
	if !m.enabled {
		return
	}
	m.httpConnections.Inc()
}

// DecActiveConnections decrements the active connection gauge.
func (m *Manager) DecActiveConnections() {
	if !m.enabled {
		return
	}
	m.httpConnections.Dec()
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server on the configured port.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}
