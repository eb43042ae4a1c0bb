package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/internship-tracker-api/internal/models"
)

const metricsNamespace = "itrack"

// tally accumulates a count and a total duration without locking.
type tally struct {
	count atomic.Uint64
	nanos atomic.Uint64
}

func (t *tally) add(d time.Duration) {
	t.count.Add(1)
	if d > 0 {
		t.nanos.Add(uint64(d))
	}
}

func (t *tally) averageMillis() float64 {
	n := t.count.Load()
	if n == 0 {
		return 0
	}
	return float64(t.nanos.Load()) / float64(n) / float64(time.Millisecond)
}

// labelCounts mirrors a CounterVec so the admin summary can read it back.
type labelCounts struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func (l *labelCounts) inc(label string) {
	l.mu.Lock()
	if l.counts == nil {
		l.counts = make(map[string]uint64)
	}
	l.counts[label]++
	l.mu.Unlock()
}

func (l *labelCounts) snapshot() map[string]uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]uint64, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// MetricsService owns the Prometheus registry and a small set of mirrored
// counters served by the admin summary endpoint. Every method is safe on a
// nil receiver.
type MetricsService struct {
	registry *prometheus.Registry
	handler  http.Handler
	started  time.Time

	httpDuration  *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	cacheLatency  prometheus.Histogram
	cacheWrites   prometheus.Histogram
	queryDuration *prometheus.HistogramVec
	reportJobs    *prometheus.CounterVec
	transitions   *prometheus.CounterVec

	requests     tally
	serverErrors atomic.Uint64
	queries      tally
	cacheHits    atomic.Uint64
	cacheMisses  atomic.Uint64
	jobOutcomes  labelCounts
	dayEvents    labelCounts
}

// NewMetricsService registers the application collectors plus the Go and
// process collectors on a private registry.
func NewMetricsService() *MetricsService {
	m := &MetricsService{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Dashboard cache lookups by result.",
		}, []string{"result"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookup_seconds",
			Help:      "Dashboard cache read latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		}),
		cacheWrites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "write_seconds",
			Help:      "Dashboard cache write latency.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25},
		}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Projection query latency by entity.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		reportJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "reports",
			Name:      "jobs_total",
			Help:      "Report export jobs by type and outcome.",
		}, []string{"type", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "attendance",
			Name:      "transitions_total",
			Help:      "Check-ins, check-outs and leave requests.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration,
		m.cacheLookups,
		m.cacheLatency,
		m.cacheWrites,
		m.queryDuration,
		m.reportJobs,
		m.transitions,
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
	m.requests.add(duration)
	if status >= http.StatusInternalServerError {
		m.serverErrors.Add(1)
	}
}

func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		m.cacheHits.Add(1)
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
	m.cacheMisses.Add(1)
}

func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrites.Observe(duration.Seconds())
}

func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.queries.add(duration)
}

// RecordReportJob counts a report job that reached a terminal outcome.
func (m *MetricsService) RecordReportJob(jobType, outcome string) {
	if m == nil {
		return
	}
	m.reportJobs.WithLabelValues(jobType, outcome).Inc()
	m.jobOutcomes.inc(jobType + ":" + outcome)
}

// RecordTransition counts one attendance state change.
func (m *MetricsService) RecordTransition(kind string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(kind).Inc()
	m.dayEvents.inc(kind)
}

// Snapshot reads the mirrored counters.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.cacheHits.Load(), m.cacheMisses.Load()
	var ratio float64
	if hits+misses > 0 {
		ratio = float64(hits) / float64(hits+misses)
	}
	return models.SystemMetrics{
		Requests: models.RequestStats{
			Total:         m.requests.count.Load(),
			ServerErrors:  m.serverErrors.Load(),
			AverageMillis: m.requests.averageMillis(),
		},
		Cache: models.CacheStats{Hits: hits, Misses: misses, HitRatio: ratio},
		Projections: models.QueryStats{
			Count:         m.queries.count.Load(),
			AverageMillis: m.queries.averageMillis(),
		},
		ReportJobs:    m.jobOutcomes.snapshot(),
		Transitions:   m.dayEvents.snapshot(),
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		GeneratedAt:   time.Now().UTC(),
	}
}
