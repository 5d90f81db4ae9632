package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjstillabower/city-guide-service/internal/observability"
)

// SearchPrefetcher is implemented by the access layer to load a city's default
// search into its cache. Used by CacheWarmer to avoid a dependency on access.
type SearchPrefetcher interface {
	Prefetch(ctx context.Context, city string) error
}

// maxConcurrentWarms bounds the prefetches in flight so a long city list
// cannot trip the places breaker on its own.
const maxConcurrentWarms = 4

// CacheWarmer warms the search cache by prefetching the default search of a list of cities.
type CacheWarmer struct {
	fetcher SearchPrefetcher
	logger  *zap.Logger
}

// NewCacheWarmer creates a CacheWarmer that uses the given fetcher and logger.
func NewCacheWarmer(fetcher SearchPrefetcher, logger *zap.Logger) *CacheWarmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheWarmer{fetcher: fetcher, logger: logger}
}

// Warm prefetches each distinct city, at most maxConcurrentWarms at a time.
// A failed city does not stop the others; the per-city errors are joined.
func (w *CacheWarmer) Warm(ctx context.Context, cities []string) error {
	cities = distinctCities(cities)
	if len(cities) == 0 {
		return nil
	}
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	w.logger.Info("warming cache", zap.Strings("cities", cities))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(maxConcurrentWarms)
	for _, city := range cities {
		city := city
		g.Go(func() error {
			if err := w.fetcher.Prefetch(ctx, city); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("warm %s: %w", city, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	w.logger.Info("cache warming complete",
		zap.Int("cities", len(cities)),
		zap.Int("errors", len(errs)),
		zap.Float64("duration_seconds", duration),
	)
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %w", errors.Join(errs...))
	}
	return nil
}

// distinctCities trims names and drops blanks and case-insensitive repeats,
// keeping first-seen order.
func distinctCities(cities []string) []string {
	seen := make(map[string]struct{}, len(cities))
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval until ctx is done.
// The interval should be shorter than the cache TTL so warmed entries never lapse.
func (w *CacheWarmer) WarmPeriodic(ctx context.Context, cities []string, interval time.Duration) error {
	if err := w.Warm(ctx, cities); err != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, cities); err != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
