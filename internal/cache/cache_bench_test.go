package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/kjstillabower/city-guide-service/internal/mockdata"
	"github.com/kjstillabower/city-guide-service/internal/models"
)

// BenchmarkInMemoryCache_Get_Hit benchmarks cache Get operation on cache hit.
func BenchmarkInMemoryCache_Get_Hit(b *testing.B) {
	cache := NewInMemoryCache[[]models.Place]("bench", 0)
	ctx := context.Background()
	_ = cache.Set(ctx, "search__Karlstad_all", mockdata.Places(), 5*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = cache.Get(ctx, "search__Karlstad_all")
	}
}

// BenchmarkInMemoryCache_Get_Miss benchmarks cache Get operation on cache miss.
func BenchmarkInMemoryCache_Get_Miss(b *testing.B) {
	cache := NewInMemoryCache[[]models.Place]("bench", 0)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = cache.Get(ctx, "nonexistent")
	}
}

// BenchmarkInMemoryCache_SetFull benchmarks Set on a full cache, which sweeps and evicts.
func BenchmarkInMemoryCache_SetFull(b *testing.B) {
	cache := NewInMemoryCache[[]models.Place]("bench", 1000)
	ctx := context.Background()
	places := mockdata.Places()
	for i := 0; i < 1000; i++ {
		_ = cache.Set(ctx, "warm"+strconv.Itoa(i), places, 5*time.Minute)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cache.Set(ctx, "key"+strconv.Itoa(i), places, 5*time.Minute)
	}
}

// BenchmarkInMemoryCache_Concurrent benchmarks concurrent cache reads.
func BenchmarkInMemoryCache_Concurrent(b *testing.B) {
	cache := NewInMemoryCache[[]models.Place]("bench", 0)
	ctx := context.Background()
	_ = cache.Set(ctx, "search__Karlstad_all", mockdata.Places(), 5*time.Minute)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _, _ = cache.Get(ctx, "search__Karlstad_all")
		}
	})
}
