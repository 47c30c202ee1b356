package cache

import (
	"net/http"
	"time"
)

// CacheEntry is one stored API response.
type CacheEntry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// ETag validator for If-None-Match
	ETag string `json:"etag,omitempty"`

	// Expires is when the entry stops being served without revalidation
	Expires time.Time `json:"expires"`

	// LastModified validator for If-Modified-Since
	LastModified time.Time `json:"last_modified,omitempty"`

	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers,omitempty"`

	// CachedAt is when the body was downloaded
	CachedAt time.Time `json:"cached_at"`
}

// IsExpired returns true once the entry needs revalidation.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Revalidatable reports whether the server can answer 304 for this entry.
func (e *CacheEntry) Revalidatable() bool {
	return e.ETag != "" || !e.LastModified.IsZero()
}
