package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every Redis key written by this package.
const KeyPrefix = "bgm"

// CacheKey identifies one cached GET.
type CacheKey struct {
	// Endpoint is the request path (e.g. "/v0/subjects/253")
	Endpoint string

	// QueryParams of the request (e.g. {"offset": "100"})
	QueryParams url.Values
}

// String generates a deterministic key.
// Format: bgm:<path>:<q1>=<v1>:<q2>=<v2>, query names sorted.
//
// Example:
//
//	bgm:v0/subjects:limit=100:offset=200:sort=rank:type=2
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		names := make([]string, 0, len(k.QueryParams))
		for name := range k.QueryParams {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, strings.Join(k.QueryParams[name], ",")))
		}
	}

	return strings.Join(parts, ":")
}
