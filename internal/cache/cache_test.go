package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kjstillabower/city-guide-service/internal/models"
)

// fakeClock is a manually advanced clock for TTL tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// TestInMemoryCache_GetSet verifies that Set stores values and Get retrieves
// them correctly with the expected data.
func TestInMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache[[]models.Place]("search", 10)

	val := []models.Place{{PlaceID: "p1", Name: "Bryggan"}}
	if err := c.Set(ctx, "search_café_Karlstad_all", val, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "search_café_Karlstad_all")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if len(got) != 1 || got[0].PlaceID != "p1" {
		t.Errorf("Get() = %+v, want %+v", got, val)
	}
}

// TestInMemoryCache_Get_Miss verifies that Get returns ok=false when
// the requested key does not exist in cache.
func TestInMemoryCache_Get_Miss(t *testing.T) {
	c := NewInMemoryCache[string]("test", 10)
	_, ok, err := c.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}

// TestInMemoryCache_TTL verifies that an entry is live strictly before its TTL
// elapses and absent from that instant on.
func TestInMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewInMemoryCacheWithClock[string]("test", 10, clock.Now)

	if err := c.Set(ctx, "k", "v", 5*time.Minute); err != nil {
		t.Fatal(err)
	}
	clock.Advance(5*time.Minute - time.Second)
	if _, ok, _ := c.Get(ctx, "k"); !ok {
		t.Fatal("Get() before TTL ok = false, want true")
	}
	clock.Advance(time.Second)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("Get() at TTL ok = true, want false")
	}
}

// TestInMemoryCache_SweepsAllExpired verifies that any access removes every
// expired entry, not only the one requested.
func TestInMemoryCache_SweepsAllExpired(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewInMemoryCacheWithClock[int]("test", 10, clock.Now)

	_ = c.Set(ctx, "a", 1, time.Minute)
	_ = c.Set(ctx, "b", 2, time.Minute)
	_ = c.Set(ctx, "c", 3, time.Hour)
	clock.Advance(2 * time.Minute)

	if _, ok, _ := c.Get(ctx, "c"); !ok {
		t.Fatal("long-lived entry missing")
	}
	if n := c.Len(); n != 1 {
		t.Errorf("Len() after sweep = %d, want 1", n)
	}
}

// TestInMemoryCache_EvictsOldestWhenFull verifies the size bound.
func TestInMemoryCache_EvictsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewInMemoryCacheWithClock[int]("test", 2, clock.Now)

	_ = c.Set(ctx, "first", 1, time.Hour)
	clock.Advance(time.Second)
	_ = c.Set(ctx, "second", 2, time.Hour)
	clock.Advance(time.Second)
	_ = c.Set(ctx, "third", 3, time.Hour)

	if _, ok, _ := c.Get(ctx, "first"); ok {
		t.Error("oldest entry should have been evicted")
	}
	for _, k := range []string{"second", "third"} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Errorf("entry %q missing", k)
		}
	}

	// Overwriting an existing key does not evict.
	_ = c.Set(ctx, "second", 22, time.Hour)
	if n := c.Len(); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
}

// TestInMemoryCache_NilValue verifies that a nil pointer is a cached value, not a miss.
func TestInMemoryCache_NilValue(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache[*models.PlaceDetails]("details", 10)
	_ = c.Set(ctx, "gone", nil, time.Minute)

	got, ok, err := c.Get(ctx, "gone")
	if err != nil || !ok {
		t.Fatalf("Get() ok = %v, err = %v; want cached nil", ok, err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestInMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache[int]("test", 50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", (i+j)%80)
				_ = c.Set(ctx, key, j, time.Minute)
				_, _, _ = c.Get(ctx, key)
			}
		}(i)
	}
	wg.Wait()
	if n := c.Len(); n > 50 {
		t.Errorf("Len() = %d, exceeds bound 50", n)
	}
}

func TestMemcachedCache_KeyIsProtocolSafe(t *testing.T) {
	c := NewMemcachedCache[[]models.Place](nil, "search")

	if got := c.key("ChIJabc"); got != "cityguide:search:ChIJabc" {
		t.Errorf("key() = %q", got)
	}
	hashed := c.key("search_café nära_Karlstad_all")
	if len(hashed) > maxKeyLen {
		t.Errorf("hashed key too long: %d", len(hashed))
	}
	for _, r := range hashed {
		if r <= ' ' {
			t.Fatalf("hashed key %q contains whitespace", hashed)
		}
	}
	if c.key("search_café nära_Karlstad_all") != hashed {
		t.Error("hashing is not deterministic")
	}
}

func TestExpirationSeconds(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int32
	}{
		{5 * time.Minute, 300},
		{90 * time.Second, 90},
		{0, 300},
		{-time.Second, 300},
		{40 * 24 * time.Hour, 300},
	}
	for _, tt := range tests {
		if got := expirationSeconds(tt.ttl); got != tt.want {
			t.Errorf("expirationSeconds(%v) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}
