package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"promptlens/internal/domain"
)

const (
	// CacheKey is versioned so a format change invalidates older entries.
	CacheKey   = "ainsider_gallery_data_v5"
	DefaultTTL = 360 * time.Minute
)

// ErrCorruptEntry is returned by a Cache when a stored value cannot be decoded.
var ErrCorruptEntry = errors.New("gallery cache entry is corrupt")

// Cache stores the fetched gallery list under a key with an expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]domain.GalleryItem, bool, error)
	Set(ctx context.Context, key string, items []domain.GalleryItem, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// entry mirrors the stored envelope: a millisecond timestamp plus the items.
type entry struct {
	Timestamp int64               `json:"timestamp"`
	Data      []domain.GalleryItem `json:"data"`
}

type memoryEntry struct {
	items    []domain.GalleryItem
	storedAt time.Time
	ttl      time.Duration
}

// MemoryCache keeps entries in process. Expired entries are dropped on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]memoryEntry{}, now: time.Now}
}

// WithClock replaces the time source; tests use it to move past the TTL.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now != nil {
		c.now = now
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.GalleryItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.ttl > 0 && c.now().Sub(e.storedAt) >= e.ttl {
		delete(c.entries, key)
		return nil, false, nil
	}
	return slices.Clone(e.items), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, items []domain.GalleryItem, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{items: slices.Clone(items), storedAt: c.now(), ttl: ttl}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache stores the JSON envelope in Redis and lets Redis expire it.
type RedisCache struct {
	rdb goredis.Cmdable
	now func() time.Time
}

// NewRedisCache dials Redis and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, func() error, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb, now: time.Now}, rdb.Close, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.GalleryItem, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if e.Data == nil {
		return nil, false, ErrCorruptEntry
	}
	return e.Data, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, items []domain.GalleryItem, ttl time.Duration) error {
	if items == nil {
		items = []domain.GalleryItem{}
	}
	raw, err := json.Marshal(entry{Timestamp: c.now().UnixMilli(), Data: items})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)
