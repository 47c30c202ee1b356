// Package config holds the pipeline configuration shared by the collector and
// the formatter.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the values the pipeline has always run with.
const (
	DefaultBaseURL           = "https://api.bgm.tv/v0"
	DefaultUserAgent         = "BangumiKnowledgeBaseBuilder/2.0 (https://github.com/Sternrassler/bangumi-kb)"
	DefaultKnowledgeBasePath = "data.json"
	DefaultMarkdownPath      = "知识库.md"
	DefaultRequestDelayMS    = 500
	DefaultPageSize          = 100
	DefaultSubjectType       = 2 // anime
	DefaultSort              = "rank"
	DefaultMaxTags           = 10
	DefaultHTTPTimeoutSec    = 30
	DefaultCacheTTLMinutes   = 360
)

// Config is passed explicitly to every component.
type Config struct {
	// Remote API
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
	UserAgent   string `yaml:"user_agent"`

	// Files
	KnowledgeBasePath string `yaml:"knowledge_base_path"`
	MarkdownPath      string `yaml:"markdown_path"`

	// Listing and pacing
	RequestDelayMS int    `yaml:"request_delay_ms"`
	PageSize       int    `yaml:"page_size"`
	SubjectType    int    `yaml:"subject_type"`
	Sort           string `yaml:"sort"`
	MaxTags        int    `yaml:"max_tags"`
	HTTPTimeoutSec int    `yaml:"http_timeout_sec"`

	// Optional response cache, disabled when RedisAddr is empty
	RedisAddr       string `yaml:"redis_addr"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"`

	// Observability
	MetricsFile string    `yaml:"metrics_file"`
	Log         LogConfig `yaml:"log"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		UserAgent:         DefaultUserAgent,
		KnowledgeBasePath: DefaultKnowledgeBasePath,
		MarkdownPath:      DefaultMarkdownPath,
		RequestDelayMS:    DefaultRequestDelayMS,
		PageSize:          DefaultPageSize,
		SubjectType:       DefaultSubjectType,
		Sort:              DefaultSort,
		MaxTags:           DefaultMaxTags,
		HTTPTimeoutSec:    DefaultHTTPTimeoutSec,
		CacheTTLMinutes:   DefaultCacheTTLMinutes,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from BGM_* environment variables.
func (c *Config) ApplyEnv() error {
	c.BaseURL = getEnv("BGM_BASE_URL", c.BaseURL)
	c.AccessToken = getEnv("BGM_ACCESS_TOKEN", c.AccessToken)
	c.UserAgent = getEnv("BGM_USER_AGENT", c.UserAgent)
	c.KnowledgeBasePath = getEnv("BGM_KNOWLEDGE_BASE", c.KnowledgeBasePath)
	c.MarkdownPath = getEnv("BGM_MARKDOWN", c.MarkdownPath)
	c.RedisAddr = getEnv("BGM_REDIS_ADDR", c.RedisAddr)
	c.MetricsFile = getEnv("BGM_METRICS_FILE", c.MetricsFile)
	c.Log.Level = getEnv("BGM_LOG_LEVEL", c.Log.Level)

	var err error
	if c.RequestDelayMS, err = getEnvInt("BGM_REQUEST_DELAY_MS", c.RequestDelayMS); err != nil {
		return err
	}
	if c.PageSize, err = getEnvInt("BGM_PAGE_SIZE", c.PageSize); err != nil {
		return err
	}
	return nil
}

// Validate checks the fields every component relies on.
func (c Config) Validate() error {
	var errs []error
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base_url is required"))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("user_agent is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page_size must be > 0 (got %d)", c.PageSize))
	}
	if c.RequestDelayMS < 0 {
		errs = append(errs, fmt.Errorf("request_delay_ms must be >= 0 (got %d)", c.RequestDelayMS))
	}
	if c.MaxTags < 0 {
		errs = append(errs, fmt.Errorf("max_tags must be >= 0 (got %d)", c.MaxTags))
	}
	if c.KnowledgeBasePath == "" {
		errs = append(errs, errors.New("knowledge_base_path is required"))
	}
	return errors.Join(errs...)
}

// RequestDelay is the fixed pause between two outbound requests.
func (c Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

// HTTPTimeout bounds a single request.
func (c Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSec <= 0 {
		return DefaultHTTPTimeoutSec * time.Second
	}
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// CacheTTL is how long a response without an Expires header stays cached.
func (c Config) CacheTTL() time.Duration {
	if c.CacheTTLMinutes <= 0 {
		return DefaultCacheTTLMinutes * time.Minute
	}
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
