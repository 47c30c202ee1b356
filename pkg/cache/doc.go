// Package cache stores Bangumi API responses in Redis between runs.
//
// The cache is opt-in: the collector only wires it when a Redis address is
// configured. It never changes what a run produces, only how many full
// responses have to be downloaded to produce it.
//
//   - Fresh entries (before Expires) are served without a request.
//   - Stale entries that carry an ETag or Last-Modified are kept for
//     StaleRetention and revalidated with If-None-Match / If-Modified-Since.
//     A 304 refreshes the entry and serves the cached body.
//   - Responses without an Expires header live for the fallback TTL the
//     caller passes to ResponseToEntry.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/v0/subjects",
//		QueryParams: url.Values{"offset": []string{"100"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API, then:
//		entry, _ = cache.ResponseToEntry(resp, 6*time.Hour)
//		_ = manager.Set(ctx, key, entry)
//	}
//
// # Metrics
//
//   - bgm_cache_hits_total{layer="redis"}
//   - bgm_cache_misses_total
//   - bgm_304_responses_total
//   - bgm_cache_errors_total{operation}
package cache
