package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"inmobiliaria/internal/domain"
)

const (
	featuredCacheKey = "properties:featured"
	propertyKeyFmt   = "property:"
)

func propertyCacheKey(id string) string { return propertyKeyFmt + id }

type QueryService struct {
	repo     domain.PropertyRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.PropertyRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

// SearchProperties runs the listing read. Search results are never cached:
// the filter space is unbounded and the result must reflect current data.
func (s *QueryService) SearchProperties(ctx context.Context, f domain.PropertyFilters, opts domain.SearchOptions) ([]domain.Property, error) {
	out, err := s.repo.Search(ctx, BuildPropertyQuery(f, opts))
	if err != nil {
		return nil, domain.Dependency("search properties", err)
	}
	return out, nil
}

func (s *QueryService) Featured(ctx context.Context) ([]domain.Property, error) {
	var out []domain.Property
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, featuredCacheKey, &out); ok {
			return out, nil
		}
	}
	out, err := s.repo.Search(ctx, FeaturedQuery())
	if err != nil {
		return nil, domain.Dependency("featured properties", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, featuredCacheKey, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

func (s *QueryService) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	key := propertyCacheKey(id)
	var p domain.Property
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &p); ok {
			return p, nil
		}
	}
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return domain.Property{}, domain.Dependency("get property", err)
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, p, int(s.cacheTTL.Seconds()))
	}
	return p, nil
}

// invalidateProperty drops every cached read that can contain the given
// properties. The featured list is always dropped.
func invalidateProperty(ctx context.Context, c domain.Cache, ids ...string) {
	if c == nil {
		return
	}
	keys := []string{featuredCacheKey}
	for _, id := range ids {
		if id != "" {
			keys = append(keys, propertyCacheKey(id))
		}
	}
	if err := c.Del(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
