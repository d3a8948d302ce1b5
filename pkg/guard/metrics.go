package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// MetricsRegistry is a process-local Prometheus registry shaped after
// PerformanceMetrics. It is fed only by explicit Observe calls; a Context
// does not call Observe itself. It is never wired to an HTTP exposition
// handler: the registry is read back in-process only, via Gather, to satisfy
// the ambient "local metrics" concern (A4) without shipping telemetry
// anywhere (an explicit non-goal).
type MetricsRegistry struct {
	registry *prometheus.Registry

	totalTime     prometheus.Summary
	patternTime   prometheus.Summary
	sanitizeTime  prometheus.Summary
	patternsCheck prometheus.Counter
	matchesFound  prometheus.Counter
	budgetBreach  prometheus.Counter
}

// NewMetricsRegistry builds a fresh local registry.
func NewMetricsRegistry() *MetricsRegistry {
	r := &MetricsRegistry{registry: prometheus.NewRegistry()}

	r.totalTime = prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "promptguard_scan_total_time_ms",
		Help: "Wall-clock time of a single Scan call, in milliseconds.",
	})
	r.patternTime = prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "promptguard_scan_pattern_time_ms",
		Help: "Time spent in the compiled matcher during a Scan call, in milliseconds.",
	})
	r.sanitizeTime = prometheus.NewSummary(prometheus.SummaryOpts{
		Name: "promptguard_scan_sanitize_time_ms",
		Help: "Time spent sanitizing during a Scan call, in milliseconds.",
	})
	r.patternsCheck = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promptguard_patterns_checked_total",
		Help: "Cumulative count of compiled patterns checked across all scans.",
	})
	r.matchesFound = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promptguard_matches_found_total",
		Help: "Cumulative count of verified pattern matches across all scans.",
	})
	r.budgetBreach = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "promptguard_budget_exceeded_total",
		Help: "Count of scans that exceeded max_processing_time_ms.",
	})

	r.registry.MustRegister(r.totalTime, r.patternTime, r.sanitizeTime, r.patternsCheck, r.matchesFound, r.budgetBreach)
	return r
}

// Observe records one scan's timing/counter contributions.
func (r *MetricsRegistry) Observe(totalMs, patternMs, sanitizeMs float64, patternsChecked, matchesFound int, budgetExceeded bool) {
	r.totalTime.Observe(totalMs)
	r.patternTime.Observe(patternMs)
	r.sanitizeTime.Observe(sanitizeMs)
	r.patternsCheck.Add(float64(patternsChecked))
	r.matchesFound.Add(float64(matchesFound))
	if budgetExceeded {
		r.budgetBreach.Add(1)
	}
}

// Gather returns the registry's current metric families for local
// inspection; it is never served over HTTP.
func (r *MetricsRegistry) Gather() ([]*dto.MetricFamily, error) {
	return r.registry.Gather()
}
