package gallery

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"promptlens/internal/domain"
)

type countingSource struct {
	calls atomic.Int32
	items []domain.GalleryItem
	err   error
}

func (s *countingSource) FetchItems(ctx context.Context) ([]domain.GalleryItem, error) {
	s.calls.Add(1)
	return s.items, s.err
}

type corruptCache struct {
	*MemoryCache
	corrupt bool
	deletes int
}

func (c *corruptCache) Get(ctx context.Context, key string) ([]domain.GalleryItem, bool, error) {
	if c.corrupt {
		return nil, false, ErrCorruptEntry
	}
	return c.MemoryCache.Get(ctx, key)
}

func (c *corruptCache) Delete(ctx context.Context, key string) error {
	c.deletes++
	c.corrupt = false
	return c.MemoryCache.Delete(ctx, key)
}

func sampleItems() []domain.GalleryItem {
	return []domain.GalleryItem{
		{ID: "1", Slug: "neon-city", Title: "Neon City", Category: "City"},
		{ID: "2", Slug: "old-man", Title: "Old Man", Category: "People"},
		{ID: "3", Slug: "harbor", Title: "Harbor", Category: "City"},
		{ID: "4", Slug: "fox", Title: "Fox", Category: "Animals"},
	}
}

func TestServiceListCachesResult(t *testing.T) {
	src := &countingSource{items: sampleItems()}
	svc := NewService(src, NewMemoryCache(), Options{})

	for i := 0; i < 3; i++ {
		items, err := svc.List(context.Background())
		if err != nil {
			t.Fatalf("List error: %v", err)
		}
		if len(items) != 4 {
			t.Fatalf("expected 4 items, got %d", len(items))
		}
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}
}

func TestServiceListRefetchesAfterTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache().WithClock(func() time.Time { return now })
	src := &countingSource{items: sampleItems()}
	svc := NewService(src, cache, Options{TTL: time.Hour})

	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	now = now.Add(59 * time.Minute)
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("expected cached read before expiry, got %d fetches", got)
	}
	now = now.Add(time.Minute)
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected refetch after expiry, got %d fetches", got)
	}
}

func TestServiceListDropsCorruptEntry(t *testing.T) {
	cache := &corruptCache{MemoryCache: NewMemoryCache(), corrupt: true}
	src := &countingSource{items: sampleItems()}
	svc := NewService(src, cache, Options{})

	items, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}
	if cache.deletes != 1 {
		t.Fatalf("expected corrupt entry to be deleted once, got %d", cache.deletes)
	}
	if _, ok, _ := cache.MemoryCache.Get(context.Background(), CacheKey); !ok {
		t.Fatal("expected fresh entry to be stored")
	}
}

func TestServiceListPropagatesFetchError(t *testing.T) {
	src := &countingSource{err: domain.ErrUpstream}
	svc := NewService(src, nil, Options{})
	if _, err := svc.List(context.Background()); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestServiceRefreshBypassesCache(t *testing.T) {
	src := &countingSource{items: sampleItems()}
	svc := NewService(src, NewMemoryCache(), Options{})
	if _, err := svc.List(context.Background()); err != nil {
		t.Fatalf("List error: %v", err)
	}
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh error: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestServiceFind(t *testing.T) {
	svc := NewService(&countingSource{items: sampleItems()}, nil, Options{})
	item, err := svc.Find(context.Background(), "harbor")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if item.ID != "3" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if _, err := svc.Find(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoriesKeepFirstSeenOrder(t *testing.T) {
	got := Categories(sampleItems())
	want := []string{"All", "City", "People", "Animals"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Categories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"All"}, Categories(nil)); diff != "" {
		t.Fatalf("Categories(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	items := sampleItems()
	if got := Filter(items, "All"); len(got) != 4 {
		t.Fatalf("All should keep everything, got %d", len(got))
	}
	if got := Filter(items, ""); len(got) != 4 {
		t.Fatalf("empty category should keep everything, got %d", len(got))
	}
	got := Filter(items, "City")
	ids := make([]string, 0, len(got))
	for _, item := range got {
		ids = append(ids, item.ID)
	}
	if diff := cmp.Diff([]string{"1", "3"}, ids); diff != "" {
		t.Fatalf("Filter mismatch (-want +got):\n%s", diff)
	}
	if got := Filter(items, "Nope"); len(got) != 0 {
		t.Fatalf("unknown category should be empty, got %d", len(got))
	}
}

func TestPage(t *testing.T) {
	items := make([]domain.GalleryItem, 50)
	tests := []struct {
		name     string
		offset   int
		limit    int
		wantLen  int
		wantNext int
	}{
		{name: "initial page", offset: 0, limit: 0, wantLen: InitialPageSize, wantNext: 28},
		{name: "load more step", offset: 28, limit: 0, wantLen: PageStep, wantNext: 42},
		{name: "tail", offset: 42, limit: 0, wantLen: 8, wantNext: -1},
		{name: "explicit limit", offset: 10, limit: 5, wantLen: 5, wantNext: 15},
		{name: "negative offset", offset: -3, limit: 2, wantLen: 2, wantNext: 2},
		{name: "past end", offset: 60, limit: 10, wantLen: 0, wantNext: -1},
		{name: "exact end", offset: 40, limit: 10, wantLen: 10, wantNext: -1},
		{name: "huge limit", offset: 1, limit: math.MaxInt, wantLen: 49, wantNext: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, next := Page(items, tt.offset, tt.limit)
			if len(got) != tt.wantLen || next != tt.wantNext {
				t.Fatalf("Page(%d,%d) = len %d next %d, want len %d next %d", tt.offset, tt.limit, len(got), next, tt.wantLen, tt.wantNext)
			}
		})
	}
}

func TestFindBySlugMatchesSlugOrID(t *testing.T) {
	items := sampleItems()
	if item, ok := FindBySlug(items, "old-man"); !ok || item.ID != "2" {
		t.Fatalf("slug lookup failed: %+v %v", item, ok)
	}
	if item, ok := FindBySlug(items, "4"); !ok || item.Slug != "fox" {
		t.Fatalf("id lookup failed: %+v %v", item, ok)
	}
	if _, ok := FindBySlug(items, ""); ok {
		t.Fatal("empty key should not match")
	}
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	if err := cache.Set(ctx, "k", sampleItems(), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, ok, err := cache.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = %v %v", ok, err)
	}
	got[0].Title = "mutated"
	again, _, _ := cache.Get(ctx, "k")
	if again[0].Title != "Neon City" {
		t.Fatalf("cache entry was mutated: %q", again[0].Title)
	}
	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := cache.Get(ctx, "k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestNewRedisCacheRequiresAddress(t *testing.T) {
	if _, _, err := NewRedisCache(context.Background(), RedisOptions{Addr: " "}); err == nil {
		t.Fatal("expected error for empty redis address")
	}
}
