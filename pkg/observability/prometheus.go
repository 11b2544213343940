package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements every hook interface on top of Prometheus
// collectors.
type PrometheusHooks struct {
	runsTotal        *prometheus.CounterVec
	runDuration      prometheus.Histogram
	iterationsTotal  prometheus.Counter
	iterationSeconds prometheus.Histogram
	averageError     prometheus.Gauge
	runIterations    prometheus.Histogram

	renderTotal    *prometheus.CounterVec
	renderDuration prometheus.Histogram

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartogram_runs_total",
			Help: "Cartogram runs by final status",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cartogram_run_duration_seconds",
			Help:    "Wall time of a cartogram run",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		iterationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cartogram_iterations_total",
			Help: "Displacement passes performed over all runs",
		}),
		iterationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cartogram_iteration_duration_seconds",
			Help:    "Wall time of one displacement pass",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		averageError: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cartogram_average_error",
			Help: "Average error reported by the most recent iteration",
		}),
		runIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cartogram_run_iterations",
			Help:    "Passes performed per run",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		renderTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartogram_render_total",
			Help: "Render calls by outcome",
		}, []string{"outcome"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cartogram_render_duration_seconds",
			Help:    "Wall time of rendering all requested formats",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartogram_cache_hits_total",
			Help: "Cache hits by key type",
		}, []string{"type"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartogram_cache_misses_total",
			Help: "Cache misses by key type",
		}, []string{"type"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartogram_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{"type"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cartogram_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cartogram_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	if reg != nil {
		reg.MustRegister(
			h.runsTotal, h.runDuration, h.iterationsTotal, h.iterationSeconds,
			h.averageError, h.runIterations, h.renderTotal, h.renderDuration,
			h.cacheHits, h.cacheMisses, h.cacheBytes, h.httpRequests, h.httpDuration,
		)
	}
	return h
}

// Register installs h as the global hooks for every category.
func (h *PrometheusHooks) Register() {
	SetCartogramHooks(h)
	SetRenderHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *PrometheusHooks) OnRunStart(context.Context, int, int) {}

func (h *PrometheusHooks) OnIteration(_ context.Context, _ int, averageError float64, d time.Duration) {
	h.iterationsTotal.Inc()
	h.iterationSeconds.Observe(d.Seconds())
	h.averageError.Set(averageError)
}

func (h *PrometheusHooks) OnRunComplete(_ context.Context, iterations int, _ float64, status string, d time.Duration, err error) {
	if err != nil {
		status = "failed"
	}
	h.runsTotal.WithLabelValues(status).Inc()
	h.runDuration.Observe(d.Seconds())
	h.runIterations.Observe(float64(iterations))
}

func (h *PrometheusHooks) OnRenderStart(context.Context, []string) {}

func (h *PrometheusHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	h.renderTotal.WithLabelValues(outcome).Inc()
	h.renderDuration.Observe(d.Seconds())
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheHits.WithLabelValues(keyType).Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheMisses.WithLabelValues(keyType).Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(context.Context, string, string) {}

func (h *PrometheusHooks) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	h.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ CartogramHooks = (*PrometheusHooks)(nil)
	_ RenderHooks    = (*PrometheusHooks)(nil)
	_ CacheHooks     = (*PrometheusHooks)(nil)
	_ HTTPHooks      = (*PrometheusHooks)(nil)
)
