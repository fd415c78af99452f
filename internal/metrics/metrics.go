// Package metrics - Prometheus metrics for route planning operations
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RouteCalculationDuration tracks route calculation duration
	RouteCalculationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "route_calculation_duration_seconds",
		Help:    "Duration of maritime route calculation",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to 20.48s
	})

	// RouteCacheHitsTotal counts route cache hits by tier
	RouteCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "route_cache_hits_total",
		Help: "Total route cache hits by cache tier",
	}, []string{"tier"})

	// RouteCacheMissesTotal counts route cache misses
	RouteCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_cache_misses_total",
		Help: "Total route cache misses",
	})

	// PathfinderCallsTotal counts pathfinding invocations by algorithm
	PathfinderCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_calls_total",
		Help: "Total pathfinder invocations by algorithm",
	}, []string{"algorithm"})

	// GraphBuildDuration tracks shipping graph build duration
	GraphBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shipping_graph_build_duration_seconds",
		Help:    "Duration of shipping graph rebuilds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	// GraphEdges tracks the current shipping graph edge count
	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shipping_graph_edges",
		Help: "Number of edges in the current shipping graph snapshot",
	})

	// PortStoreRequestsTotal counts port store queries by outcome
	PortStoreRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "port_store_requests_total",
		Help: "Total port store queries by operation and outcome",
	}, []string{"operation", "outcome"})

	// RoutesEvaluatedTotal counts candidate routes materialized
	RoutesEvaluatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "routes_evaluated_total",
		Help: "Total candidate routes materialized",
	})

	// CalculationTimeoutsTotal counts calculations abandoned at the deadline
	CalculationTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "route_calculation_timeouts_total",
		Help: "Total route calculations that hit the deadline",
	})
)
