package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the trainwatch server.
type Config struct {
	Server       ServerConfig
	Orchestrator OrchestratorConfig
	Monitor      MonitorConfig
	Cache        CacheConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type OrchestratorConfig struct {
	BaseURL string
	Timeout time.Duration
}

type MonitorConfig struct {
	PollInterval time.Duration
	// Series is the declared metric order used for chart columns.
	Series          []string
	DirectoryLimit  int
	DirectoryStatus string
}

type CacheConfig struct {
	Backend  string
	RedisURL string
	TTL      time.Duration
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

var validStatuses = map[string]bool{
	"queued":    true,
	"pending":   true,
	"running":   true,
	"succeeded": true,
	"failed":    true,
	"cancelled": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("TRAINWATCH_PORT", 8080),
			Env:  envString("TRAINWATCH_ENV", "development"),
		},
		Orchestrator: OrchestratorConfig{
			BaseURL: os.Getenv("ORCHESTRATOR_BASE_URL"),
			Timeout: envDuration("ORCHESTRATOR_TIMEOUT", 30*time.Second),
		},
		Monitor: MonitorConfig{
			PollInterval:    envDuration("POLL_INTERVAL", 3*time.Second),
			Series:          envList("METRIC_SERIES", []string{"loss", "accuracy"}),
			DirectoryLimit:  envInt("DIRECTORY_LIMIT", 0),
			DirectoryStatus: os.Getenv("DIRECTORY_STATUS"),
		},
		Cache: CacheConfig{
			Backend:  envString("CACHE_BACKEND", CacheMemory),
			RedisURL: os.Getenv("REDIS_URL"),
			TTL:      envDuration("CACHE_TTL", 10*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("TRAINWATCH_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Orchestrator.BaseURL == "" {
		return fmt.Errorf("ORCHESTRATOR_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Orchestrator.BaseURL, "http://") && !strings.HasPrefix(c.Orchestrator.BaseURL, "https://") {
		return fmt.Errorf("ORCHESTRATOR_BASE_URL must start with http:// or https://, got %q", c.Orchestrator.BaseURL)
	}
	if c.Orchestrator.Timeout <= 0 {
		return fmt.Errorf("ORCHESTRATOR_TIMEOUT must be positive")
	}

	if c.Monitor.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.Monitor.DirectoryLimit < 0 {
		return fmt.Errorf("DIRECTORY_LIMIT must not be negative, got %d", c.Monitor.DirectoryLimit)
	}
	if c.Monitor.DirectoryStatus != "" && !validStatuses[c.Monitor.DirectoryStatus] {
		return fmt.Errorf("DIRECTORY_STATUS must be a job status, got %q", c.Monitor.DirectoryStatus)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be one of memory, redis; got %q", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// envList splits a comma-separated value, dropping blanks and duplicates.
func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
