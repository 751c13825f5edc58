package tokenclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokenCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_client_cache_hits_total",
		Help: "Total number of machine-token requests served from the cache.",
	})

	tokenCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_client_cache_misses_total",
		Help: "Total number of machine-token requests that missed the cache.",
	})

	tokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_client_refreshes_total",
		Help: "Total number of background refresh-ahead fetches scheduled.",
	})

	tokenFetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "token_client_fetch_errors_total",
		Help: "Total number of failed token endpoint fetches.",
	})
)
