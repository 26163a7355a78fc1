package cache

import (
	"context"
	"sync"

	"github.com/mltrain/trainwatch/pkg/models"
)

// MemoryCache keeps snapshots in process. It is the default store since
// only one job is polled at a time.
type MemoryCache struct {
	mu    sync.RWMutex
	snaps map[string]models.MetricsSnapshot
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{snaps: make(map[string]models.MetricsSnapshot)}
}

func (c *MemoryCache) Ping(_ context.Context) error { return nil }

func (c *MemoryCache) Set(_ context.Context, jobID string, snap models.MetricsSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps[jobID] = snap
	return nil
}

func (c *MemoryCache) Get(_ context.Context, jobID string) (models.MetricsSnapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snaps[jobID]
	return snap, ok, nil
}

func (c *MemoryCache) Clear(_ context.Context, jobID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snaps, jobID)
	return nil
}

// Len reports how many jobs have a stored snapshot.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snaps)
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
