package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds survey configuration.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	SearchPath       string        `yaml:"search_path"` // must contain one %s for the escaped query
	MaxPages         int           `yaml:"max_pages"`
	SampleSize       int           `yaml:"sample_size"`
	Currency         string        `yaml:"currency"`
	Timeout          time.Duration `yaml:"timeout"`
	UserAgent        string        `yaml:"user_agent"`
	OutputDir        string        `yaml:"output_dir"`
	RespectRobotsTxt bool          `yaml:"respect_robots_txt"`
	PageCacheTTL     time.Duration `yaml:"page_cache_ttl"`
	PageCacheSize    int           `yaml:"page_cache_size"`
	MetricsAddr      string        `yaml:"metrics_addr"`
	Verbose          bool          `yaml:"verbose"`
}

// DefaultConfig returns the settings for olx.ua.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://www.olx.ua",
		SearchPath:       "/uk/list/q-%s/",
		MaxPages:         3,
		SampleSize:       20,
		Currency:         "грн",
		Timeout:          30 * time.Second,
		UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		OutputDir:        ExecutableDir(),
		RespectRobotsTxt: false,
		PageCacheTTL:     0,
		PageCacheSize:    16,
		MetricsAddr:      "",
		Verbose:          false,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if strings.Count(c.SearchPath, "%s") != 1 {
		return fmt.Errorf("search path must contain exactly one %%s placeholder")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("sample size must be positive")
	}
	if c.Currency == "" {
		return fmt.Errorf("currency label cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output dir cannot be empty")
	}
	if c.PageCacheTTL < 0 {
		return fmt.Errorf("page cache ttl cannot be negative")
	}
	if c.PageCacheTTL > 0 && c.PageCacheSize <= 0 {
		return fmt.Errorf("page cache size must be positive when the cache is enabled")
	}

	return nil
}

// EnvString returns the value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer when it is set.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// ExecutableDir is the directory holding the running binary, or "." if it
// cannot be resolved.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
