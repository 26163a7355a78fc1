package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mltrain/trainwatch/internal/cache"
	"github.com/mltrain/trainwatch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache + cleanup.
func setupRedis(t *testing.T, ttl time.Duration) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisURL := "redis://" + host + ":" + port.Port()
	rc, err := cache.NewRedisCache(redisURL, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	return rc
}

func sampleSnapshot() models.MetricsSnapshot {
	return models.MetricsSnapshot{
		"loss": {
			{Step: 0, Epoch: 0, Value: 2.31},
			{Step: 100, Epoch: 0.5, Value: 1.72},
		},
		"accuracy": {
			{Step: 0, Epoch: 0, Value: 0.12},
		},
	}
}

// --- store contract, run against every backend ---

func runStoreContract(t *testing.T, c cache.Cache) {
	ctx := context.Background()
	jobID := uuid.NewString()

	t.Run("get missing", func(t *testing.T) {
		snap, found, err := c.Get(ctx, jobID)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, snap)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, jobID, sampleSnapshot()))

		snap, found, err := c.Get(ctx, jobID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, sampleSnapshot(), snap)
	})

	t.Run("set replaces whole snapshot", func(t *testing.T) {
		next := models.MetricsSnapshot{"loss": {{Step: 200, Epoch: 1, Value: 1.1}}}
		require.NoError(t, c.Set(ctx, jobID, next))

		snap, found, err := c.Get(ctx, jobID)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, next, snap)
		assert.NotContains(t, snap, "accuracy")
	})

	t.Run("entries are per job", func(t *testing.T) {
		other := uuid.NewString()
		_, found, err := c.Get(ctx, other)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, c.Clear(ctx, jobID))

		_, found, err := c.Get(ctx, jobID)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("clear missing is not an error", func(t *testing.T) {
		assert.NoError(t, c.Clear(ctx, "never-set"))
	})
}

func TestMemoryCache_Contract(t *testing.T) {
	c := cache.NewMemoryCache()
	assert.NoError(t, c.Ping(context.Background()))
	runStoreContract(t, c)
	assert.Equal(t, 0, c.Len())
}

func TestRedisCache_Contract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t, time.Minute)
	require.NoError(t, rc.Ping(context.Background()))
	runStoreContract(t, rc)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t, 1*time.Second)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "job-ttl", sampleSnapshot()))

	// Immediately should exist
	_, found, err := rc.Get(ctx, "job-ttl")
	require.NoError(t, err)
	assert.True(t, found)

	// Wait for TTL to expire
	time.Sleep(1500 * time.Millisecond)

	_, found, err = rc.Get(ctx, "job-ttl")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := cache.NewRedisCache("not-a-redis-url", time.Minute)
	assert.Error(t, err)
}

// --- Cache Key Builders ---

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "trainwatch:metrics:5f1c", cache.SnapshotKey("5f1c"))
}

func TestSnapshotKey_Scoped(t *testing.T) {
	owner := uuid.MustParse("0b7c2f3e-8a41-4d5e-9f6a-1c2d3e4f5a6b")
	assert.Equal(t,
		"trainwatch:metrics:0b7c2f3e-8a41-4d5e-9f6a-1c2d3e4f5a6b:job-a",
		cache.SnapshotKey(owner.String()+":job-a"))
}

// --- Scoped ---

func TestScoped_Contract(t *testing.T) {
	runStoreContract(t, cache.Scoped(cache.NewMemoryCache(), uuid.New()))
}

func TestScoped_OwnersDoNotShareEntries(t *testing.T) {
	ctx := context.Background()
	shared := cache.NewMemoryCache()
	a := cache.Scoped(shared, uuid.New())
	b := cache.Scoped(shared, uuid.New())

	full := sampleSnapshot()
	older := models.MetricsSnapshot{"loss": full["loss"][:1]}

	require.NoError(t, a.Set(ctx, "job-a", full))
	require.NoError(t, b.Set(ctx, "job-a", older))
	assert.Equal(t, 2, shared.Len())

	got, found, err := a.Get(ctx, "job-a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, full, got, "b's write must not replace a's entry")

	require.NoError(t, b.Clear(ctx, "job-a"))
	_, found, err = a.Get(ctx, "job-a")
	require.NoError(t, err)
	assert.True(t, found, "b's clear must not delete a's entry")
	assert.Equal(t, 1, shared.Len())

	_, found, err = shared.Get(ctx, "job-a")
	require.NoError(t, err)
	assert.False(t, found, "scoped entries are not visible under the bare job id")
}

func TestScoped_RedisKeyIncludesOwner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	require.NoError(t, cache.Scoped(rc, owner).Set(ctx, "job-a", sampleSnapshot()))

	_, found, err := rc.Get(ctx, owner.String()+":job-a")
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = rc.Get(ctx, "job-a")
	require.NoError(t, err)
	assert.False(t, found)
}
