package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks responses served from the cache by layer
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgm_cache_hits_total",
			Help: "Total number of Bangumi API cache hits",
		},
		[]string{"layer"}, // "redis"
	)

	// CacheMisses tracks lookups with no stored entry
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bgm_cache_misses_total",
			Help: "Total number of Bangumi API cache misses",
		},
	)

	// NotModifiedResponses tracks stale entries revalidated by a 304
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bgm_304_responses_total",
			Help: "Total number of 304 Not Modified responses served from cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bgm_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
