// Package access is the data access layer the presentation code calls. It
// caches proxy results, collapses identical concurrent misses and absorbs every
// proxy error into an empty result, so callers only see "data" or "no data".
package access

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kjstillabower/city-guide-service/internal/cache"
	"github.com/kjstillabower/city-guide-service/internal/client"
	"github.com/kjstillabower/city-guide-service/internal/models"
	"github.com/kjstillabower/city-guide-service/internal/observability"
	"github.com/kjstillabower/city-guide-service/internal/service"
)

// DefaultTTL is how long search and details results stay live.
const DefaultTTL = 5 * time.Minute

const (
	cacheSearch  = "search"
	cacheDetails = "details"
)

// Proxy is the subset of the places proxy the layer reads through.
type Proxy interface {
	Search(ctx context.Context, q service.SearchQuery) ([]models.Place, error)
	Details(ctx context.Context, id string) (models.PlaceDetails, error)
}

// Layer is a cache-aside wrapper over Proxy. Only successful results are cached.
type Layer struct {
	proxy       Proxy
	search      cache.Cache[[]models.Place]
	details     cache.Cache[*models.PlaceDetails]
	ttl         time.Duration
	defaultCity string
	group       singleflight.Group
}

// NewLayer wires a Layer. ttl <= 0 uses DefaultTTL.
func NewLayer(proxy Proxy, search cache.Cache[[]models.Place], details cache.Cache[*models.PlaceDetails], ttl time.Duration, defaultCity string) *Layer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Layer{
		proxy:       proxy,
		search:      search,
		details:     details,
		ttl:         ttl,
		defaultCity: defaultCity,
	}
}

// SearchKey is the cache key of a search. Each part is trimmed and quoted, so
// separators inside a query or type cannot make two searches collide. A blank
// type is keyed as "all".
func SearchKey(query, location, placeType string) string {
	t := strings.TrimSpace(placeType)
	if t == "" {
		t = "all"
	}
	return "search:" + strconv.Quote(strings.TrimSpace(query)) +
		":" + strconv.Quote(strings.TrimSpace(location)) +
		":" + strconv.Quote(t)
}

// SearchPlaces returns cached or fresh results. Any proxy error yields an empty list.
func (l *Layer) SearchPlaces(ctx context.Context, query, location, placeType string) []models.Place {
	if strings.TrimSpace(location) == "" {
		location = l.defaultCity
	}
	places, err := l.searchThrough(ctx, query, location, placeType, false)
	if err != nil {
		observability.FailSoftTotal.WithLabelValues(cacheSearch).Inc()
		observability.LoggerFromContext(ctx).Warn("search unavailable, returning no places",
			zap.String("query", query),
			zap.String("location", location),
			zap.Error(err),
		)
		return []models.Place{}
	}
	return places
}

// Prefetch refetches the default search of city and overwrites its cache
// entry, live or not, reporting errors instead of absorbing them. Used by the
// cache warmer, so a refresh interval below the TTL keeps the entry live.
func (l *Layer) Prefetch(ctx context.Context, city string) error {
	_, err := l.searchThrough(ctx, "", city, "", true)
	return err
}

// searchThrough serves key from cache unless refresh is set, then falls back
// to one coalesced proxy call whose result replaces the entry.
func (l *Layer) searchThrough(ctx context.Context, query, location, placeType string, refresh bool) ([]models.Place, error) {
	key := SearchKey(query, location, placeType)
	if !refresh {
		if cached, ok := lookup(ctx, l.search, cacheSearch, key); ok {
			return cached, nil
		}
	}

	v, err, shared := l.group.Do(cacheSearch+":"+key, func() (interface{}, error) {
		places, err := l.proxy.Search(ctx, service.SearchQuery{Query: query, Location: location, Type: placeType})
		if err != nil {
			return nil, err
		}
		if places == nil {
			places = []models.Place{}
		}
		store(ctx, l.search, cacheSearch, key, places, l.ttl)
		return places, nil
	})
	if shared {
		observability.LoggerFromContext(ctx).Debug("search coalesced", zap.String("key", key))
	}
	if err != nil {
		return nil, err
	}
	return v.([]models.Place), nil
}

// PlaceDetails returns cached or fresh details, or nil when the place does not
// exist or the proxy failed. Neither outcome is cached, so a place that appears
// later is found on the next call.
func (l *Layer) PlaceDetails(ctx context.Context, id string) *models.PlaceDetails {
	if cached, ok := lookup(ctx, l.details, cacheDetails, id); ok {
		return cached
	}

	v, err, _ := l.group.Do(cacheDetails+":"+id, func() (interface{}, error) {
		d, err := l.proxy.Details(ctx, id)
		if err != nil {
			return (*models.PlaceDetails)(nil), err
		}
		store(ctx, l.details, cacheDetails, id, &d, l.ttl)
		return &d, nil
	})
	if err != nil {
		observability.FailSoftTotal.WithLabelValues(cacheDetails).Inc()
		logger := observability.LoggerFromContext(ctx)
		if errors.Is(err, client.ErrNotFound) {
			logger.Info("place not found", zap.String("place_id", id))
		} else {
			logger.Warn("details unavailable, returning none", zap.String("place_id", id), zap.Error(err))
		}
		return nil
	}
	return v.(*models.PlaceDetails)
}

// lookup reads key, treating cache errors as misses.
func lookup[T any](ctx context.Context, c cache.Cache[T], name, key string) (T, bool) {
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("cache get failed", zap.String("cache", name), zap.Error(err))
		var zero T
		return zero, false
	}
	if ok {
		observability.CacheHitsTotal.WithLabelValues(name).Inc()
		return v, true
	}
	observability.CacheMissesTotal.WithLabelValues(name).Inc()
	return v, false
}

func store[T any](ctx context.Context, c cache.Cache[T], name, key string, v T, ttl time.Duration) {
	if err := c.Set(ctx, key, v, ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn("cache set failed", zap.String("cache", name), zap.Error(err))
	}
}
