// Package metrics provides Prometheus metrics for the token broker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Result labels for metrics.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Lookup paths taken by the broker.
const (
	// LookupKeyed is a request with an explicit request id (exact cache key).
	LookupKeyed = "keyed"
	// LookupCompatible is a request without request id scanning for a compatible token.
	LookupCompatible = "compatible"
	// LookupCached is a read-only lookup that never acquires.
	LookupCached = "cached"
)

// Registry holds every collector of this package. It is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// TokenAcquisitionsTotal counts acquisitions performed against the authority.
	TokenAcquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oms_authenticator",
			Subsystem: "token",
			Name:      "acquisitions_total",
			Help:      "Total number of token acquisitions against the authority",
		},
		[]string{"provider", "class", "result"},
	)

	// TokenAcquisitionDuration tracks how long acquisitions take, signing included.
	TokenAcquisitionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "oms_authenticator",
			Subsystem: "token",
			Name:      "acquisition_duration_seconds",
			Help:      "Duration of token acquisitions against the authority",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider", "class"},
	)

	// CacheLookupsTotal counts broker lookups by path and outcome.
	// For the keyed path the outcome is always success (the lookup itself cannot miss).
	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oms_authenticator",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Total number of token cache lookups",
		},
		[]string{"provider", "path", "result"},
	)

	// CacheEntriesGauge tracks the number of cache entries after each cleanup sweep.
	CacheEntriesGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "oms_authenticator",
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of token cache entries (pending, live and not yet swept)",
		},
		[]string{"provider"},
	)

	// CacheEvictionsTotal counts stale entries removed by cleanup sweeps.
	CacheEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oms_authenticator",
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Total number of stale cache entries removed by cleanup",
		},
		[]string{"provider"},
	)

	// SignerInvocationsTotal counts calls to the external signer.
	SignerInvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oms_authenticator",
			Subsystem: "signer",
			Name:      "invocations_total",
			Help:      "Total number of external signer invocations",
		},
		[]string{"signer", "result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		TokenAcquisitionsTotal,
		TokenAcquisitionDuration,
		CacheLookupsTotal,
		CacheEntriesGauge,
		CacheEvictionsTotal,
		SignerInvocationsTotal,
	)
}

func resultLabel(success bool) string {
	if success {
		return ResultSuccess
	}
	return ResultFailure
}

// RecordAcquisition records one acquisition and its duration.
func RecordAcquisition(provider, class string, success bool, elapsed time.Duration) {
	TokenAcquisitionsTotal.WithLabelValues(provider, class, resultLabel(success)).Inc()
	TokenAcquisitionDuration.WithLabelValues(provider, class).Observe(elapsed.Seconds())
}

// RecordLookup records a broker lookup.
func RecordLookup(provider, path string, found bool) {
	CacheLookupsTotal.WithLabelValues(provider, path, resultLabel(found)).Inc()
}

// RecordCleanup records a cleanup sweep.
func RecordCleanup(provider string, removed, remaining int) {
	CacheEvictionsTotal.WithLabelValues(provider).Add(float64(removed))
	CacheEntriesGauge.WithLabelValues(provider).Set(float64(remaining))
}

// RecordSignerInvocation records one signer run.
func RecordSignerInvocation(signer string, success bool) {
	SignerInvocationsTotal.WithLabelValues(signer, resultLabel(success)).Inc()
}
