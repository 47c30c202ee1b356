// Package client provides the Bangumi API HTTP client with bearer
// authentication, an optional response cache and error classification.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/bangumi-kb/pkg/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for API client operations.
var (
	bgmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgm_requests_total",
		Help: "Total Bangumi API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	bgmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bgm_request_duration_seconds",
		Help:    "Bangumi API request duration in seconds by endpoint",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	bgmErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bgm_errors_total",
		Help: "Total Bangumi API errors by class",
	}, []string{"class"})
)

// maxErrorBody caps how much of an error response ends up in APIError.
const maxErrorBody = 512

// Client is the Bangumi API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL including the API version, e.g. https://api.bgm.tv/v0
	BaseURL string

	// AccessToken is sent as "Authorization: Bearer <token>" when set.
	AccessToken string

	// UserAgent header, required by the API.
	// Format: "AppName/Version (contact)"
	UserAgent string

	// Timeout bounds one request.
	Timeout time.Duration

	// Cache is optional; nil disables response caching.
	Cache *cache.Manager

	// CacheTTL applies to responses without an Expires header.
	CacheTTL time.Duration
}

// DefaultConfig returns a configuration without cache.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Timeout:   30 * time.Second,
		CacheTTL:  6 * time.Hour,
	}
}

// New creates a new Bangumi API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		cache:   cfg.Cache,
		config:  cfg,
		logger:  log.With().Str("component", "bangumi-client").Logger(),
	}, nil
}

// ListSubjects fetches one page of the subject listing.
func (c *Client) ListSubjects(ctx context.Context, params ListParams) (*SubjectPage, error) {
	query := url.Values{}
	query.Set("type", strconv.Itoa(params.Type))
	if params.Sort != "" {
		query.Set("sort", params.Sort)
	}
	query.Set("limit", strconv.Itoa(params.Limit))
	query.Set("offset", strconv.Itoa(params.Offset))

	var page SubjectPage
	if err := c.getJSON(ctx, "/subjects", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetSubject fetches the detail record of one subject. A null or empty
// object body is an *APIError of class decode wrapping ErrEmptySubject.
func (c *Client) GetSubject(ctx context.Context, id int) (*Subject, error) {
	path := "/subjects/" + strconv.Itoa(id)

	var raw json.RawMessage
	if err := c.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, err
	}

	decodeErr := func(message string, err error) error {
		bgmErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &APIError{
			Endpoint:   c.baseURL.Path + path,
			StatusCode: http.StatusOK,
			ErrorClass: ErrorClassDecode,
			Message:    message,
			Err:        err,
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, decodeErr("decode response body", err)
	}
	if len(fields) == 0 {
		return nil, decodeErr("detail response carries no fields", ErrEmptySubject)
	}

	var subject Subject
	if err := json.Unmarshal(raw, &subject); err != nil {
		return nil, decodeErr("decode response body", err)
	}
	return &subject, nil
}

// Get performs a GET request to an API path relative to the base URL.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// Do performs an HTTP request with authentication, caching and the
// status-raising contract: any non-2xx response is returned as *APIError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := routeLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		bgmRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check cache
	var (
		cacheKey    cache.CacheKey
		cachedEntry *cache.CacheEntry
	)
	if c.cache != nil && req.Method == http.MethodGet {
		cacheKey = cache.CacheKey{
			Endpoint:    req.URL.Path,
			QueryParams: req.URL.Query(),
		}

		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}

		if entry != nil && !entry.IsExpired() {
			c.logger.Debug().Str("path", req.URL.Path).Msg("Serving fresh response from cache")
			bgmRequestsTotal.WithLabelValues(endpoint, "cached").Inc()
			return cache.EntryToResponse(req, entry), nil
		}

		if cache.ShouldMakeConditionalRequest(entry) {
			cachedEntry = entry
			cache.AddConditionalHeaders(req, entry)
			c.logger.Debug().
				Str("path", req.URL.Path).
				Str("etag", entry.ETag).
				Msg("Making conditional request")
		}
	}

	// Step 2: Headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}

	// Step 3: Execute
	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("url", req.URL.String()).
		Msg("Executing Bangumi request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		errClass := c.classifyError(nil, err)
		bgmErrorsTotal.WithLabelValues(string(errClass)).Inc()
		bgmRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, &APIError{
			Endpoint:   req.URL.Path,
			ErrorClass: errClass,
			Message:    "request failed",
			Err:        err,
		}
	}

	// Step 4: 304 Not Modified, serve the revalidated entry
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		resp.Body.Close()
		bgmRequestsTotal.WithLabelValues(endpoint, "304").Inc()
		cache.NotModifiedResponses.Inc()

		newExpires := time.Now().Add(c.config.CacheTTL)
		if expiresStr := resp.Header.Get("Expires"); expiresStr != "" {
			if parsed, err := http.ParseTime(expiresStr); err == nil && parsed.After(time.Now()) {
				newExpires = parsed
			}
		}
		if err := c.cache.UpdateTTL(ctx, cacheKey, newExpires); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update cache TTL")
		}

		c.logger.Debug().Str("path", req.URL.Path).Msg("304 Not Modified - using cache")
		return cache.EntryToResponse(req, cachedEntry), nil
	}

	bgmRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	// Step 5: Status-raising contract
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errClass := c.classifyError(resp, nil)
		bgmErrorsTotal.WithLabelValues(string(errClass)).Inc()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		c.logger.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Bangumi request error")

		message := resp.Status
		if len(body) > 0 {
			message = resp.Status + ": " + strings.TrimSpace(string(body))
		}
		return nil, &APIError{
			Endpoint:   req.URL.Path,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    message,
			Err:        ErrUnexpectedStatus,
		}
	}

	// Step 6: Store in cache
	if c.cache != nil && req.Method == http.MethodGet && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp, c.config.CacheTTL)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// getJSON performs a GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.Get(ctx, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		bgmErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return &APIError{
			Endpoint:   resp.Request.URL.Path,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassDecode,
			Message:    "decode response body",
			Err:        err,
		}
	}
	return nil
}

// classifyError categorizes a failure for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// 1xx and unhandled 3xx
		return ErrorClassClient
	default:
		return ""
	}
}

var numericSegment = regexp.MustCompile(`/\d+(/|$)`)

// routeLabel collapses numeric path segments so metric labels stay bounded:
// /v0/subjects/253 -> /v0/subjects/{id}.
func routeLabel(path string) string {
	return numericSegment.ReplaceAllString(path, "/{id}$1")
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
