// Package testutil provides a mock Bangumi API server for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// APIPrefix is the version prefix the mock serves under.
const APIPrefix = "/v0"

// MockResponse defines a canned response for one path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockBangumi is a configurable mock of the subject listing and detail
// endpoints. Subjects are listed in the order they were added.
type MockBangumi struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	order          []int
	details        map[int]string
	detailFailures map[int]int
	listingFailure map[int]int

	// Tracking
	RequestCount      int
	ConditionalCount  int
	DetailRequests    []int
	ListingOffsets    []int
	LastRequestHeader http.Header
}

// NewMockBangumi starts a mock server with an empty catalog.
func NewMockBangumi() *MockBangumi {
	mock := &MockBangumi{
		handlers:       make(map[string]func(w http.ResponseWriter, r *http.Request)),
		details:        make(map[int]string),
		detailFailures: make(map[int]int),
		listingFailure: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.ConditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		path := strings.TrimPrefix(r.URL.Path, APIPrefix)
		switch {
		case path == "/subjects":
			mock.listingHandler(w, r)
		case strings.HasPrefix(path, "/subjects/"):
			mock.detailHandler(w, r, strings.TrimPrefix(path, "/subjects/"))
		default:
			http.NotFound(w, r)
		}
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockBangumi) URL() string {
	return m.server.URL
}

// BaseURL returns the API base URL including the version prefix.
func (m *MockBangumi) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockBangumi) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockBangumi) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ConditionalCount = 0
	m.DetailRequests = nil
	m.ListingOffsets = nil
	m.LastRequestHeader = nil
}

// AddSubject appends a subject to the catalog with its raw detail body.
func (m *MockBangumi) AddSubject(id int, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.details[id]; !ok {
		m.order = append(m.order, id)
	}
	m.details[id] = detail
}

// FailDetail makes the detail endpoint of id answer with status.
func (m *MockBangumi) FailDetail(id, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailFailures[id] = status
}

// FailListingAt makes the listing page at offset answer with status.
func (m *MockBangumi) FailListingAt(offset, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listingFailure[offset] = status
}

// SetHandler sets a custom handler for a specific path.
func (m *MockBangumi) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockBangumi) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockBangumi) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetConditionalCount returns the number of conditional requests.
func (m *MockBangumi) GetConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ConditionalCount
}

// GetDetailRequests returns the subject ids requested so far, in order.
func (m *MockBangumi) GetDetailRequests() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.DetailRequests...)
}

func (m *MockBangumi) listingHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	m.mu.Lock()
	m.ListingOffsets = append(m.ListingOffsets, offset)
	status, failing := m.listingFailure[offset]
	ids := m.order
	m.mu.Unlock()

	if failing {
		writeError(w, status)
		return
	}

	type listed struct {
		ID int `json:"id"`
	}
	page := struct {
		Data   []listed `json:"data"`
		Total  int      `json:"total"`
		Limit  int      `json:"limit"`
		Offset int      `json:"offset"`
	}{Data: []listed{}, Total: len(ids), Limit: limit, Offset: offset}

	if offset < len(ids) && limit > 0 {
		end := offset + limit
		if end > len(ids) {
			end = len(ids)
		}
		for _, id := range ids[offset:end] {
			page.Data = append(page.Data, listed{ID: id})
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func (m *MockBangumi) detailHandler(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	m.mu.Lock()
	m.DetailRequests = append(m.DetailRequests, id)
	status, failing := m.detailFailures[id]
	detail, exists := m.details[id]
	m.mu.Unlock()

	if failing {
		writeError(w, status)
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound)
		return
	}

	etag := fmt.Sprintf(`"subject-%d"`, id)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(detail))
}

func writeError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"title":%q,"description":"mock failure"}`, http.StatusText(status))
}

// SubjectJSON builds a detail body with the common fields set.
func SubjectJSON(id int, name, nameCN string, score float64, rank int, tags ...string) string {
	type tag struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	body := map[string]any{
		"id":      id,
		"name":    name,
		"name_cn": nameCN,
		"rank":    rank,
		"rating":  map[string]any{"score": score, "total": 100, "rank": rank},
		"summary": fmt.Sprintf("subject %d", id),
	}
	tagList := make([]tag, 0, len(tags))
	for i, name := range tags {
		tagList = append(tagList, tag{Name: name, Count: len(tags) - i})
	}
	body["tags"] = tagList

	data, _ := json.Marshal(body)
	return string(data)
}
