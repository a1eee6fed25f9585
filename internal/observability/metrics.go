// Package observability exposes the engine's running counters as
// Prometheus metrics, replacing original_source's ad hoc src/metric.rs
// counters with the ecosystem-standard prometheus/client_golang used
// throughout the rest of this engine's stack (spec.md's ambient
// observability, carried regardless of the Non-goals scoping out a full
// metrics *system*).
package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	PoolsAdmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arbengine",
		Name:      "pools_admitted_total",
		Help:      "Pools successfully admitted into the route index.",
	})

	DecodeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbengine",
		Name:      "decode_failures_total",
		Help:      "Account decode failures by kind.",
	}, []string{"kind"})

	RoutesEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arbengine",
		Name:      "routes_evaluated_total",
		Help:      "Routes passed through the optimizer.",
	})

	CandidatesQueued = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "arbengine",
		Name:      "candidates_queued",
		Help:      "Profitable candidates currently held in the route store.",
	})

	TransactionsSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arbengine",
		Name:      "transactions_submitted_total",
		Help:      "Transactions submitted to the cluster, by outcome.",
	}, []string{"outcome"})

	LookupTableCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arbengine",
		Name:      "lookup_table_cache_hits_total",
		Help:      "Address lookup table cache hits.",
	})

	LookupTableCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "arbengine",
		Name:      "lookup_table_cache_misses_total",
		Help:      "Address lookup table cache misses.",
	})
)

func init() {
	prometheus.MustRegister(
		PoolsAdmitted,
		DecodeFailures,
		RoutesEvaluated,
		CandidatesQueued,
		TransactionsSubmitted,
		LookupTableCacheHits,
		LookupTableCacheMisses,
	)
}
