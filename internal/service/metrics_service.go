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
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/college-admin-api/internal/models"
)

const metricsNamespace = "college_admin"

// MetricsService owns the process's Prometheus registry. Besides the scrape
// endpoint it keeps running totals for the JSON snapshot served to admins.
// All methods are safe on a nil receiver.
type MetricsService struct {
	registry *prometheus.Registry

	httpLatency  *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
	cacheLatency *prometheus.HistogramVec
	cacheRatio   prometheus.Gauge
	dbLatency    *prometheus.HistogramVec
	signIns      *prometheus.CounterVec
	decisions    *prometheus.CounterVec
	feeEntries   *prometheus.CounterVec
	mails        *prometheus.CounterVec

	requests, requestNanos atomic.Uint64
	hits, misses           atomic.Uint64
	queries, queryNanos    atomic.Uint64

	mu             sync.Mutex
	signInTally    map[string]uint64
	decisionsTally map[string]uint64
}

func NewMetricsService() *MetricsService {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	latency := func(subsystem, name, help string, labels ...string) *prometheus.HistogramVec {
		return f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace, Subsystem: subsystem, Name: name, Help: help,
			Buckets: prometheus.DefBuckets,
		}, labels)
	}
	counter := func(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace, Subsystem: subsystem, Name: name, Help: help,
		}, labels)
	}

	return &MetricsService{
		registry:     reg,
		httpLatency:  latency("http", "request_duration_seconds", "HTTP request latency by route.", "method", "route", "status"),
		cacheLookups: counter("cache", "lookups_total", "Cache lookups by result.", "result"),
		cacheLatency: latency("cache", "operation_duration_seconds", "Cache round trip latency.", "op"),
		cacheRatio: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace, Subsystem: "cache", Name: "hit_ratio", Help: "Hits over lookups since start.",
		}),
		dbLatency:      latency("db", "query_duration_seconds", "Latency of instrumented queries.", "query"),
		signIns:        counter("auth", "signin_attempts_total", "Sign-in attempts by outcome.", "outcome"),
		decisions:      counter("admissions", "decisions_total", "Approvals and rejections.", "decision"),
		feeEntries:     counter("fees", "transactions_total", "Ledger entries written.", "kind"),
		mails:          counter("notifications", "deliveries_total", "Email deliveries by status.", "status"),
		signInTally:    map[string]uint64{},
		decisionsTally: map[string]uint64{},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(took.Seconds())
	m.requests.Add(1)
	m.requestNanos.Add(uint64(took))
}

func (m *MetricsService) RecordCacheOperation(hit bool, took time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("get").Observe(took.Seconds())
	result := "miss"
	if hit {
		result = "hit"
		m.hits.Add(1)
	} else {
		m.misses.Add(1)
	}
	m.cacheLookups.WithLabelValues(result).Inc()
	m.cacheRatio.Set(ratio(m.hits.Load(), m.misses.Load()))
}

func (m *MetricsService) ObserveCacheWrite(took time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.WithLabelValues("set").Observe(took.Seconds())
}

func (m *MetricsService) ObserveDBQuery(query string, took time.Duration) {
	if m == nil {
		return
	}
	m.dbLatency.WithLabelValues(query).Observe(took.Seconds())
	m.queries.Add(1)
	m.queryNanos.Add(uint64(took))
}

func (m *MetricsService) RecordSignIn(outcome string) {
	if m == nil {
		return
	}
	m.signIns.WithLabelValues(outcome).Inc()
	m.mu.Lock()
	m.signInTally[outcome]++
	m.mu.Unlock()
}

func (m *MetricsService) RecordAdmissionDecision(decision models.AdmissionDecisionKind) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(decision)).Inc()
	m.mu.Lock()
	m.decisionsTally[string(decision)]++
	m.mu.Unlock()
}

func (m *MetricsService) RecordFeeTransaction(kind models.FeeKind) {
	if m == nil {
		return
	}
	m.feeEntries.WithLabelValues(string(kind)).Inc()
}

func (m *MetricsService) RecordNotification(status string) {
	if m == nil {
		return
	}
	m.mails.WithLabelValues(status).Inc()
}

// Snapshot summarises the running totals.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits, misses := m.hits.Load(), m.misses.Load()
	requests, queries := m.requests.Load(), m.queries.Load()

	m.mu.Lock()
	signIns := copyTally(m.signInTally)
	decisions := copyTally(m.decisionsTally)
	m.mu.Unlock()

	return models.SystemMetrics{
		CacheHitRatio:            ratio(hits, misses),
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMillis(m.requestNanos.Load(), requests),
		DBQueryCount:             queries,
		AverageDBQueryDurationMs: averageMillis(m.queryNanos.Load(), queries),
		SignInAttempts:           signIns,
		AdmissionDecisions:       decisions,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func ratio(hits, misses uint64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

func averageMillis(totalNanos, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return float64(totalNanos) / float64(n) / float64(time.Millisecond)
}

func copyTally(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
