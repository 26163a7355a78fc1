package config_test

import (
	"testing"
	"time"

	"github.com/mltrain/trainwatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnv sets environment variables for a test and restores them after.
func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

// validEnv returns the minimum set of valid environment variables. Optional
// keys are blanked so values from the host environment don't leak in.
func validEnv() map[string]string {
	return map[string]string{
		"ORCHESTRATOR_BASE_URL": "http://localhost:8000",
		"TRAINWATCH_PORT":       "",
		"TRAINWATCH_ENV":        "",
		"ORCHESTRATOR_TIMEOUT":  "",
		"POLL_INTERVAL":         "",
		"METRIC_SERIES":         "",
		"DIRECTORY_LIMIT":       "",
		"DIRECTORY_STATUS":      "",
		"CACHE_BACKEND":         "",
		"REDIS_URL":             "",
		"CACHE_TTL":             "",
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setEnv(t, validEnv())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, "http://localhost:8000", cfg.Orchestrator.BaseURL)
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, validEnv())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Orchestrator.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Monitor.PollInterval)
	assert.Equal(t, []string{"loss", "accuracy"}, cfg.Monitor.Series)
	assert.Equal(t, 0, cfg.Monitor.DirectoryLimit)
	assert.Empty(t, cfg.Monitor.DirectoryStatus)
	assert.Equal(t, config.CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}

func TestLoad_CustomPort(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("TRAINWATCH_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_InvalidPort(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("TRAINWATCH_PORT", "70000")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRAINWATCH_PORT")
}

func TestLoad_CustomEnv(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("TRAINWATCH_ENV", "production")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Server.Env)
}

func TestLoad_MissingOrchestratorBaseURL(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("ORCHESTRATOR_BASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ORCHESTRATOR_BASE_URL")
}

func TestLoad_OrchestratorBaseURLMustStartWithHTTP(t *testing.T) {
	for _, u := range []string{"not-a-valid-url", "ftp://localhost:8000"} {
		t.Run(u, func(t *testing.T) {
			setEnv(t, validEnv())
			t.Setenv("ORCHESTRATOR_BASE_URL", u)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "ORCHESTRATOR_BASE_URL")
		})
	}
}

func TestLoad_OrchestratorHTTPSURL(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("ORCHESTRATOR_BASE_URL", "https://orchestrator.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "https://orchestrator.example.com", cfg.Orchestrator.BaseURL)
}

func TestLoad_PollInterval(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("POLL_INTERVAL", "500ms")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, cfg.Monitor.PollInterval)
}

func TestLoad_UnparseableDurationFallsBack(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("POLL_INTERVAL", "soon")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Monitor.PollInterval)
}

func TestLoad_NonPositivePollInterval(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("POLL_INTERVAL", "-1s")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POLL_INTERVAL")
}

func TestLoad_MetricSeries(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("METRIC_SERIES", " loss, val_loss,,loss ,accuracy")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"loss", "val_loss", "accuracy"}, cfg.Monitor.Series)
}

func TestLoad_DirectoryFilters(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("DIRECTORY_LIMIT", "50")
	t.Setenv("DIRECTORY_STATUS", "running")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Monitor.DirectoryLimit)
	assert.Equal(t, "running", cfg.Monitor.DirectoryStatus)
}

func TestLoad_InvalidDirectoryStatus(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("DIRECTORY_STATUS", "exploded")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTORY_STATUS")
}

func TestLoad_NegativeDirectoryLimit(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("DIRECTORY_LIMIT", "-5")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DIRECTORY_LIMIT")
}

func TestLoad_RedisBackend(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CACHE_TTL", "2m")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379", cfg.Cache.RedisURL)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
}

func TestLoad_RedisBackendMissingURL(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("CACHE_BACKEND", "redis")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoad_RedisURLIgnoredForMemory(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.CacheMemory, cfg.Cache.Backend)
}

func TestLoad_InvalidCacheBackend(t *testing.T) {
	setEnv(t, validEnv())
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CACHE_BACKEND")
}
