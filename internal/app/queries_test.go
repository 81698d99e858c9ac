package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hotel_recs/internal/app"
	"hotel_recs/internal/domain"
)

// jsonCache stores values as JSON, the way the Redis cache does.
type jsonCache struct {
	store map[string][]byte
	gets  int
	hits  int
	dels  int
}

func (c *jsonCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *jsonCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *jsonCache) Del(ctx context.Context, key string) error {
	c.dels++
	delete(c.store, key)
	return nil
}

func TestListBuilds_CacheMissThenHit(t *testing.T) {
	repo := &fakeRepo{builds: []domain.BuildRecord{
		{ID: "1", Destination: "Lisbon", Status: domain.BuildOK},
		{ID: "2", Destination: "Porto", Status: domain.BuildFailed},
	}}
	cache := &jsonCache{}
	q := app.NewBuildQueries(repo, cache, time.Minute)

	got, err := q.ListBuilds(context.Background(), 10)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" {
		t.Fatalf("unexpected builds: %+v", got)
	}
	if cache.hits != 0 {
		t.Fatalf("expected a miss first")
	}

	// mutate the repo; the cached page is served until invalidated
	repo.builds = append(repo.builds, domain.BuildRecord{ID: "3"})
	got, _ = q.ListBuilds(context.Background(), 1)
	if cache.hits != 1 || len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected cached page, got %+v (hits=%d)", got, cache.hits)
	}

	q.Invalidate(context.Background())
	got, _ = q.ListBuilds(context.Background(), 1)
	if got[0].ID != "3" {
		t.Fatalf("expected fresh page after invalidate, got %+v", got)
	}
}

func TestListBuilds_ClampsLimit(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 80; i++ {
		repo.builds = append(repo.builds, domain.BuildRecord{ID: "x"})
	}
	q := app.NewBuildQueries(repo, nil, 0)

	for _, limit := range []int{0, -3, 5000} {
		got, err := q.ListBuilds(context.Background(), limit)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if len(got) != 50 {
			t.Fatalf("limit %d: got %d records, want 50", limit, len(got))
		}
	}
}

func TestService_RecordInvalidatesCachedListing(t *testing.T) {
	repo := &fakeRepo{}
	cache := &jsonCache{}
	svc := newService(t, repo).WithCache(cache, time.Minute)

	if _, err := svc.ListBuilds(context.Background(), 5); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := svc.Generate(context.Background(), domain.BuildRequest{Hotels: []domain.HotelEntry{{Link: "https://a.test"}}}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if cache.dels != 1 {
		t.Fatalf("expected the listing to be invalidated, dels=%d", cache.dels)
	}
	got, _ := svc.ListBuilds(context.Background(), 5)
	if len(got) != 1 {
		t.Fatalf("expected the new build to be listed, got %d", len(got))
	}
}
