//go:build integration

package integration

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/bangumi-kb/internal/testutil"
	"github.com/Sternrassler/bangumi-kb/pkg/cache"
	"github.com/Sternrassler/bangumi-kb/pkg/client"
	"github.com/Sternrassler/bangumi-kb/pkg/collector"
	"github.com/Sternrassler/bangumi-kb/pkg/formatter"
	"github.com/Sternrassler/bangumi-kb/pkg/kb"
	"github.com/Sternrassler/bangumi-kb/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newCatalog(t *testing.T) *testutil.MockBangumi {
	t.Helper()

	mock := testutil.NewMockBangumi()
	mock.AddSubject(253, testutil.SubjectJSON(253, "カウボーイビバップ", "星际牛仔", 9.0, 3, "科幻", "SUNRISE"))
	mock.AddSubject(326, testutil.SubjectJSON(326, "攻殻機動隊", "攻壳机动队", 8.8, 10))
	mock.AddSubject(876, testutil.SubjectJSON(876, "CLANNAD", "", 8.4, 55, "Key", "京都动画"))
	return mock
}

func newClient(t *testing.T, baseURL string, manager *cache.Manager, ttl time.Duration) *client.Client {
	t.Helper()

	cfg := client.DefaultConfig(baseURL, "TestApp/1.0.0")
	cfg.Cache = manager
	cfg.CacheTTL = ttl

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

// TestPipeline runs collector and formatter against the mock API with the
// Redis cache enabled.
func TestPipeline(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := newCatalog(t)
	defer mock.Close()

	dir := t.TempDir()
	kbPath := filepath.Join(dir, "data.json")
	mdPath := filepath.Join(dir, "知识库.md")

	api := newClient(t, mock.BaseURL(), cache.NewManager(redisClient), time.Hour)
	c := collector.New(api, ratelimit.NewPacer(10*time.Millisecond), collector.Config{
		PageSize:    2,
		SubjectType: 2,
		Sort:        "rank",
	}, nil)

	ctx := context.Background()
	report, err := c.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Succeeded() != 3 {
		t.Fatalf("Succeeded() = %d, want 3", report.Succeeded())
	}
	if err := kb.Save(kbPath, report.Records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	res, err := formatter.New(formatter.Config{Input: kbPath, Output: mdPath}).Run(ctx)
	if err != nil {
		t.Fatalf("formatter Run() error = %v", err)
	}
	if !res.Structure.Matches(3) {
		t.Errorf("Structure = %+v, want 3 blocks", res.Structure)
	}

	data, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	if got := len(strings.Split(doc, formatter.ChunkSeparator)); got != 3 {
		t.Errorf("segments = %d, want 3", got)
	}
	if !strings.Contains(doc, "# 作品：CLANNAD\n") {
		t.Error("original name not used when the localized name is empty")
	}
}

// TestCacheServesSecondRun verifies a second collection within the TTL does
// not reach the API.
func TestCacheServesSecondRun(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := newCatalog(t)
	defer mock.Close()

	manager := cache.NewManager(redisClient)
	ctx := context.Background()

	first, err := collector.New(newClient(t, mock.BaseURL(), manager, time.Hour), nil, collector.Config{PageSize: 100}, nil).Run(ctx)
	if err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	afterFirst := mock.GetRequestCount()
	// one listing page with data, one empty page, three details
	if afterFirst != 5 {
		t.Errorf("requests after first run = %d, want 5", afterFirst)
	}

	second, err := collector.New(newClient(t, mock.BaseURL(), manager, time.Hour), nil, collector.Config{PageSize: 100}, nil).Run(ctx)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if got := mock.GetRequestCount(); got != afterFirst {
		t.Errorf("requests after second run = %d, want %d (all cached)", got, afterFirst)
	}
	if len(second.Records) != len(first.Records) {
		t.Errorf("second run records = %d, want %d", len(second.Records), len(first.Records))
	}
}

// TestNotModified verifies an expired entry is revalidated with its ETag and
// the cached body is served on 304.
func TestNotModified(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := newCatalog(t)
	defer mock.Close()

	api := newClient(t, mock.BaseURL(), cache.NewManager(redisClient), time.Millisecond)
	ctx := context.Background()

	resp1, err := api.Get(ctx, "/subjects/253", nil)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	body1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()

	time.Sleep(50 * time.Millisecond)

	resp2, err := api.Get(ctx, "/subjects/253", nil)
	if err != nil {
		t.Fatalf("Second request failed: %v", err)
	}
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if string(body2) != string(body1) {
		t.Errorf("Second response body = %s, want %s (cached)", body2, body1)
	}
	if mock.GetConditionalCount() != 1 {
		t.Errorf("Conditional requests = %d, want 1", mock.GetConditionalCount())
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("API requests = %d, want 2", mock.GetRequestCount())
	}
}

// TestFailedDetailNotCached verifies error responses never enter the cache.
func TestFailedDetailNotCached(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := newCatalog(t)
	defer mock.Close()
	mock.FailDetail(326, 503)

	manager := cache.NewManager(redisClient)
	api := newClient(t, mock.BaseURL(), manager, time.Hour)
	ctx := context.Background()

	report, err := collector.New(api, nil, collector.Config{PageSize: 100}, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := report.FailedIDs(); len(got) != 1 || got[0] != 326 {
		t.Fatalf("FailedIDs() = %v, want [326]", got)
	}

	_, err = manager.Get(ctx, cache.CacheKey{Endpoint: "/v0/subjects/326"})
	if err != cache.ErrCacheMiss {
		t.Errorf("cache lookup for failed subject = %v, want ErrCacheMiss", err)
	}
}
