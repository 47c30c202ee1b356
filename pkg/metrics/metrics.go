// Package metrics exposes the Prometheus registry used by the pipeline and
// writes it out once per batch run.
// All metrics are defined in their respective packages (client, cache,
// ratelimit, pagination, collector, formatter) to keep those packages
// self-contained.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry; every metric is registered
// via promauto in its own package.
var Registry = prometheus.DefaultRegisterer

// Gatherer is read by WriteTextfile.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteTextfile dumps all gathered metrics to path in the text exposition
// format, suitable for node_exporter's textfile collector. The CLI runs to
// completion and exits, so there is no scrape endpoint.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Metrics Documentation
//
// API client (pkg/client):
//   - bgm_requests_total{endpoint, status} (Counter): requests by route and HTTP status
//   - bgm_request_duration_seconds{endpoint} (Histogram): request duration by route
//   - bgm_errors_total{class} (Counter): failures by class (client, server, network, decode)
//
// Response cache (pkg/cache):
//   - bgm_cache_hits_total{layer="redis"} (Counter)
//   - bgm_cache_misses_total (Counter)
//   - bgm_304_responses_total (Counter): revalidated responses served from cache
//   - bgm_cache_errors_total{operation} (Counter)
//
// Pacing and listing (pkg/ratelimit, pkg/pagination):
//   - bgm_pacer_pauses_total (Counter): fixed inter-request pauses taken
//   - bgm_pacer_pause_seconds_total (Counter): time spent pausing
//   - bgm_listing_pages_total{outcome} (Counter): listing pages by outcome (data, empty, error)
//
// Pipeline (pkg/collector, pkg/formatter):
//   - bgm_collector_items_total{result} (Counter): detail fetches by result (ok, failed)
//   - bgm_formatter_blocks_total (Counter): Markdown blocks rendered
//
// Example queries:
//
//   # Detail failure ratio of the last run
//   bgm_collector_items_total{result="failed"} / ignoring(result) sum(bgm_collector_items_total)
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(bgm_request_duration_seconds_bucket[5m]))
