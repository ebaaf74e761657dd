package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "review_digest"

// Metrics owns a private registry so tests and multiple app instances never
// collide on the default one.
type Metrics struct {
	reg *prometheus.Registry

	resolveTotal        *prometheus.CounterVec
	resolveDuration     *prometheus.HistogramVec
	keywordsSubstituted prometheus.Counter
	persistFailures     prometheus.Counter
	publishFailures     prometheus.Counter
	sweepModules        *prometheus.CounterVec
	sweepDuration       prometheus.Histogram
	httpRequests        *prometheus.CounterVec
	httpLatency         *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		resolveTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Digest resolutions by outcome",
		}, []string{"outcome"}),
		resolveDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Digest resolution latency by outcome",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		keywordsSubstituted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keywords_substituted_total",
			Help:      "Generated keyword lists replaced by the deterministic ranking",
		}),
		persistFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Regenerated digests that could not be written",
		}),
		publishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Digest events that could not be published",
		}),
		sweepModules: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_modules_total",
			Help:      "Modules visited by the background sweep, by status",
		}, []string{"status"}),
		sweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of a full sweep",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) ObserveResolve(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.resolveTotal.WithLabelValues(outcome).Inc()
	m.resolveDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) IncKeywordsSubstituted() {
	if m == nil {
		return
	}
	m.keywordsSubstituted.Inc()
}

func (m *Metrics) IncPersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *Metrics) IncPublishFailure() {
	if m == nil {
		return
	}
	m.publishFailures.Inc()
}

func (m *Metrics) ObserveSweep(ok, failed int, d time.Duration) {
	if m == nil {
		return
	}
	m.sweepModules.WithLabelValues("ok").Add(float64(ok))
	m.sweepModules.WithLabelValues("failed").Add(float64(failed))
	m.sweepDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
