package metrics

import "github.com/prometheus/client_golang/prometheus"

// Market data Prometheus metrics.
var (
	MarketFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "katalog",
			Name:      "market_fetch_total",
			Help:      "Auction data fetches by kind and status",
		},
		[]string{"kind", "status"}, // kind: "historical" / "live"
	)

	MarketFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "katalog",
			Name:      "market_fetch_duration_seconds",
			Help:      "Auction data fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	MarketCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "katalog",
			Name:      "market_cache_total",
			Help:      "Market analysis cache hits and misses",
		},
		[]string{"layer", "result"}, // layer: "memory" / "kv", result: "hit" / "miss"
	)

	TermFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "katalog",
			Name:      "term_fallback_total",
			Help:      "AI search-term generations that fell back to rules",
		},
		[]string{"reason"},
	)

	SessionUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "katalog",
			Name:      "session_updates_total",
			Help:      "Query snapshots published, by source",
		},
		[]string{"source"},
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "katalog",
			Name:      "sessions_active",
			Help:      "Search sessions held in memory",
		},
	)
)

var marketMetricsRegistered bool

// RegisterMarketMetrics registers Prometheus market and session metrics. Must be called once from main.
func RegisterMarketMetrics() {
	if marketMetricsRegistered {
		return
	}
	prometheus.MustRegister(MarketFetchTotal)
	prometheus.MustRegister(MarketFetchDuration)
	prometheus.MustRegister(MarketCacheTotal)
	prometheus.MustRegister(TermFallbackTotal)
	prometheus.MustRegister(SessionUpdatesTotal)
	prometheus.MustRegister(SessionsActive)
	marketMetricsRegistered = true
}
