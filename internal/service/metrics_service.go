package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SortMetricsSnapshot is an aggregated, allocation-free view over the
// counters MetricsService keeps for analytics-style endpoints.
type SortMetricsSnapshot struct {
	RunsTotal               uint64    `json:"runsTotal"`
	TicketsPlacedTotal      uint64    `json:"ticketsPlacedTotal"`
	TicketsDiagnosedTotal   uint64    `json:"ticketsDiagnosedTotal"`
	InvariantViolationTotal uint64    `json:"invariantViolationTotal"`
	AverageSortDurationMs   float64   `json:"averageSortDurationMs"`
	Goroutines              int       `json:"goroutines"`
	GeneratedAt             time.Time `json:"generatedAt"`
}

// MetricsService encapsulates Prometheus instrumentation for the sort
// gateway: HTTP request metrics plus the engine's own run outcomes.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	sortDuration       *prometheus.HistogramVec
	sortRunsTotal      *prometheus.CounterVec
	ticketsPlacedTotal prometheus.Counter
	diagnosticsTotal   *prometheus.CounterVec
	groupBalanceRange  prometheus.Gauge

	requestCount          uint64
	requestDurationTotal  uint64
	runCount              uint64
	runDurationTotal      uint64
	ticketsPlacedCount    uint64
	diagnosticsCount      uint64
	invariantViolationCnt uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	sortDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sort_run_duration_seconds",
		Help:    "Duration of ticket sort runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	sortRunsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sort_runs_total",
		Help: "Total number of sort runs by outcome",
	}, []string{"outcome"})

	ticketsPlacedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sort_tickets_placed_total",
		Help: "Total tickets placed across all sort runs",
	})

	diagnosticsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sort_diagnostics_total",
		Help: "Total recoverable diagnostics emitted, by code",
	}, []string{"code"})

	groupBalanceRange := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sort_group_balance_range",
		Help: "Max-min ticket count spread across delivery groups in the last run",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, sortDuration, sortRunsTotal,
		ticketsPlacedTotal, diagnosticsTotal, groupBalanceRange, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		sortDuration:       sortDuration,
		sortRunsTotal:      sortRunsTotal,
		ticketsPlacedTotal: ticketsPlacedTotal,
		diagnosticsTotal:   diagnosticsTotal,
		groupBalanceRange:  groupBalanceRange,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveSortRun records one sort run's duration and outcome
// (spec.md §7: a run either returns a plan, possibly with diagnostics, or
// aborts with an invariant violation and no partial plan).
func (m *MetricsService) ObserveSortRun(duration time.Duration, invariantViolated bool, placedCount, diagnosticCount int) {
	if m == nil {
		return
	}
	outcome := "ok"
	if invariantViolated {
		outcome = "invariant_violation"
		atomic.AddUint64(&m.invariantViolationCnt, 1)
	}
	m.sortDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.sortRunsTotal.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.runCount, 1)
	atomic.AddUint64(&m.runDurationTotal, uint64(duration.Nanoseconds()))

	if placedCount > 0 {
		m.ticketsPlacedTotal.Add(float64(placedCount))
		atomic.AddUint64(&m.ticketsPlacedCount, uint64(placedCount))
	}
	if diagnosticCount > 0 {
		atomic.AddUint64(&m.diagnosticsCount, uint64(diagnosticCount))
	}
}

// ObserveDiagnostic tallies one recoverable diagnostic by code
// (e.g. INVALID_TICKET, INSUFFICIENT_CAPACITY).
func (m *MetricsService) ObserveDiagnostic(code string) {
	if m == nil {
		return
	}
	m.diagnosticsTotal.WithLabelValues(code).Inc()
}

// SetGroupBalanceRange records the max-min ticket spread across delivery
// groups for the most recently completed run.
func (m *MetricsService) SetGroupBalanceRange(groupRange int) {
	if m == nil {
		return
	}
	m.groupBalanceRange.Set(float64(groupRange))
}

// Snapshot returns aggregated metrics suitable for an analytics endpoint.
func (m *MetricsService) Snapshot() SortMetricsSnapshot {
	if m == nil {
		return SortMetricsSnapshot{}
	}
	runs := atomic.LoadUint64(&m.runCount)
	runDuration := atomic.LoadUint64(&m.runDurationTotal)

	var avgRunMs float64
	if runs > 0 {
		avgRunMs = float64(runDuration) / float64(runs) / float64(time.Millisecond)
	}

	return SortMetricsSnapshot{
		RunsTotal:               runs,
		TicketsPlacedTotal:      atomic.LoadUint64(&m.ticketsPlacedCount),
		TicketsDiagnosedTotal:   atomic.LoadUint64(&m.diagnosticsCount),
		InvariantViolationTotal: atomic.LoadUint64(&m.invariantViolationCnt),
		AverageSortDurationMs:   avgRunMs,
		Goroutines:              runtime.NumGoroutine(),
		GeneratedAt:             time.Now().UTC(),
	}
}
