package app

import (
	"context"
	"time"

	"hotel_recs/internal/domain"
)

const (
	recentBuildsKey = "builds:recent"
	recentBuildsMax = 200
)

// BuildQueries serves the build audit log, caching the most recent page.
// The cache is optional and is invalidated whenever a build is recorded.
type BuildQueries struct {
	repo     domain.BuildRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewBuildQueries(r domain.BuildRepository, c domain.Cache, ttl time.Duration) *BuildQueries {
	return &BuildQueries{repo: r, cache: c, cacheTTL: ttl}
}

// ListBuilds returns up to limit records, newest first. limit outside 1..200
// falls back to 50.
func (q *BuildQueries) ListBuilds(ctx context.Context, limit int) ([]domain.BuildRecord, error) {
	if limit <= 0 || limit > recentBuildsMax {
		limit = 50
	}
	if q.repo == nil {
		return []domain.BuildRecord{}, nil
	}

	var recent []domain.BuildRecord
	if q.cache != nil {
		if ok, _ := q.cache.Get(ctx, recentBuildsKey, &recent); ok {
			return head(recent, limit), nil
		}
	}

	recent, err := q.repo.ListBuilds(ctx, recentBuildsMax)
	if err != nil {
		return nil, err
	}
	if q.cache != nil {
		_ = q.cache.Set(ctx, recentBuildsKey, recent, int(q.cacheTTL.Seconds()))
	}
	return head(recent, limit), nil
}

// Invalidate drops the cached page.
func (q *BuildQueries) Invalidate(ctx context.Context) {
	if q.cache != nil {
		_ = q.cache.Del(ctx, recentBuildsKey)
	}
}

// head copies so callers never alias the cached slice.
func head(in []domain.BuildRecord, n int) []domain.BuildRecord {
	if len(in) < n {
		n = len(in)
	}
	out := make([]domain.BuildRecord, n)
	copy(out, in[:n])
	return out
}
