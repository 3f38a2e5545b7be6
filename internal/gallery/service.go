package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"promptlens/internal/domain"
	"promptlens/internal/infra"
)

// Source fetches the full gallery from the document store.
type Source interface {
	FetchItems(ctx context.Context) ([]domain.GalleryItem, error)
}

type Options struct {
	Key    string
	TTL    time.Duration
	Logger *infra.Logger
}

// Service serves the gallery list from cache and falls back to the source on
// a miss or a corrupt entry.
type Service struct {
	source Source
	cache  Cache
	key    string
	ttl    time.Duration
	logger infra.Logger

	mu sync.Mutex
}

func NewService(source Source, cache Cache, opts Options) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	key := opts.Key
	if key == "" {
		key = CacheKey
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := infra.DiscardLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Service{source: source, cache: cache, key: key, ttl: ttl, logger: logger}
}

// List returns the cached gallery, fetching and caching it when needed.
func (s *Service) List(ctx context.Context) ([]domain.GalleryItem, error) {
	items, ok, err := s.cache.Get(ctx, s.key)
	switch {
	case err != nil:
		s.logger.Warn().Err(err).Str("key", s.key).Msg("gallery cache read failed")
		if errors.Is(err, ErrCorruptEntry) {
			if delErr := s.cache.Delete(ctx, s.key); delErr != nil {
				s.logger.Warn().Err(delErr).Str("key", s.key).Msg("gallery cache delete failed")
			}
		}
	case ok:
		return items, nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches from the source regardless of cache state and stores the
// result. Concurrent refreshes are serialised.
func (s *Service) Refresh(ctx context.Context) ([]domain.GalleryItem, error) {
	if s.source == nil {
		return nil, fmt.Errorf("gallery source not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	items, err := s.source.FetchItems(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("gallery fetch failed")
		return nil, fmt.Errorf("fetch gallery: %w", err)
	}
	if items == nil {
		items = []domain.GalleryItem{}
	}
	if err := s.cache.Set(ctx, s.key, items, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", s.key).Msg("gallery cache write failed")
	}
	s.logger.Info().
		Int("items", len(items)).
		Dur("took", time.Since(start)).
		Msg("gallery refreshed")
	return items, nil
}

// Find returns the item whose slug or id matches key.
func (s *Service) Find(ctx context.Context, key string) (domain.GalleryItem, error) {
	items, err := s.List(ctx)
	if err != nil {
		return domain.GalleryItem{}, err
	}
	item, ok := FindBySlug(items, key)
	if !ok {
		return domain.GalleryItem{}, fmt.Errorf("prompt %q: %w", key, domain.ErrNotFound)
	}
	return item, nil
}
