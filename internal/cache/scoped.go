package cache

import (
	"context"

	"github.com/google/uuid"
	"github.com/mltrain/trainwatch/pkg/models"
)

// Scoped returns a view of c whose entries belong to owner alone. Two
// owners writing the same job id never see or clear each other's entry.
func Scoped(c Cache, owner uuid.UUID) Cache {
	return &scoped{inner: c, prefix: owner.String() + ":"}
}

type scoped struct {
	inner  Cache
	prefix string
}

func (s *scoped) Set(ctx context.Context, jobID string, snap models.MetricsSnapshot) error {
	return s.inner.Set(ctx, s.prefix+jobID, snap)
}

func (s *scoped) Get(ctx context.Context, jobID string) (models.MetricsSnapshot, bool, error) {
	return s.inner.Get(ctx, s.prefix+jobID)
}

func (s *scoped) Clear(ctx context.Context, jobID string) error {
	return s.inner.Clear(ctx, s.prefix+jobID)
}

func (s *scoped) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}
