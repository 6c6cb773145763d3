// Package metrics holds the Prometheus collectors of the identity service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "identity"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	httpInflight prometheus.Gauge

	domainEvents     *prometheus.CounterVec
	outboxEnqueued   *prometheus.CounterVec
	outboxPublished  *prometheus.CounterVec
	outboxFailures   *prometheus.CounterVec
	outboxPending    prometheus.Gauge
	expiredInvites   prometheus.Counter
	housekeepingRuns *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		httpInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_inflight",
			Help:      "HTTP requests currently being served.",
		}),
		domainEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "dispatched_total",
			Help:      "Domain events delivered to in-process handlers.",
		}, []string{"event"}),
		outboxEnqueued: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "enqueued_total",
			Help:      "Integration events written to the outbox.",
		}, []string{"event"}),
		outboxPublished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Integration events delivered to the broker.",
		}, []string{"event"}),
		outboxFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "failures_total",
			Help:      "Failed attempts to deliver an integration event.",
		}, []string{"event"}),
		outboxPending: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "pending",
			Help:      "Outbox messages waiting to be published after the last relay pass.",
		}),
		expiredInvites: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invitations",
			Name:      "expired_total",
			Help:      "Pending invitations expired by housekeeping.",
		}),
		housekeepingRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "housekeeping",
			Name:      "runs_total",
			Help:      "Housekeeping passes by outcome.",
		}, []string{"outcome"}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The recording methods accept a nil receiver so services run without
// metrics in tests.

func (m *Metrics) DomainEventDispatched(name string) {
	if m == nil {
		return
	}
	m.domainEvents.WithLabelValues(name).Inc()
}

func (m *Metrics) OutboxEnqueued(name string) {
	if m == nil {
		return
	}
	m.outboxEnqueued.WithLabelValues(name).Inc()
}

func (m *Metrics) OutboxPublished(name string) {
	if m == nil {
		return
	}
	m.outboxPublished.WithLabelValues(name).Inc()
}

func (m *Metrics) OutboxFailed(name string) {
	if m == nil {
		return
	}
	m.outboxFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) OutboxPending(n int) {
	if m == nil {
		return
	}
	m.outboxPending.Set(float64(n))
}

func (m *Metrics) InvitationsExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.expiredInvites.Add(float64(n))
}

func (m *Metrics) HousekeepingRun(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.housekeepingRuns.WithLabelValues(outcome).Inc()
}

// HTTPMiddleware records request counts and latency. It must wrap the
// ServeMux directly so the matched pattern is visible after routing.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.httpInflight.Inc()
		defer m.httpInflight.Dec()

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
		m.httpLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter

	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
