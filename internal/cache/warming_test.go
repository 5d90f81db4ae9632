package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockPrefetcher struct {
	mu     sync.Mutex
	cities []string
	failOn map[string]error
}

func (m *mockPrefetcher) Prefetch(ctx context.Context, city string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cities = append(m.cities, city)
	return m.failOn[city]
}

func (m *mockPrefetcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cities)
}

func TestCacheWarmer_Warm_Success(t *testing.T) {
	fetcher := &mockPrefetcher{}
	warmer := NewCacheWarmer(fetcher, nil)

	if err := warmer.Warm(context.Background(), []string{"Karlstad", "Umeå"}); err != nil {
		t.Fatalf("Warm() error = %v, want nil", err)
	}
	if fetcher.calls() != 2 {
		t.Errorf("prefetch calls = %d, want 2", fetcher.calls())
	}
}

func TestCacheWarmer_Warm_EmptyCities(t *testing.T) {
	warmer := NewCacheWarmer(&mockPrefetcher{}, nil)
	ctx := context.Background()

	if err := warmer.Warm(ctx, nil); err != nil {
		t.Fatalf("Warm() with nil cities error = %v, want nil", err)
	}
	if err := warmer.Warm(ctx, []string{}); err != nil {
		t.Fatalf("Warm() with empty cities error = %v, want nil", err)
	}
}

func TestCacheWarmer_Warm_PrefetchError(t *testing.T) {
	apiDown := errors.New("api down")
	fetcher := &mockPrefetcher{failOn: map[string]error{"Karlstad": apiDown}}
	warmer := NewCacheWarmer(fetcher, nil)

	err := warmer.Warm(context.Background(), []string{"Karlstad", "Lund"})
	if err == nil {
		t.Fatal("Warm() error = nil, want non-nil")
	}
	if !errors.Is(err, apiDown) {
		t.Errorf("Warm() error = %v, want wrapped api down", err)
	}
	if !strings.Contains(err.Error(), "warm Karlstad") {
		t.Errorf("Warm() error = %q, want city in message", err)
	}
}

func TestCacheWarmer_WarmPeriodic_StopsOnCancel(t *testing.T) {
	fetcher := &mockPrefetcher{}
	warmer := NewCacheWarmer(fetcher, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- warmer.WarmPeriodic(ctx, []string{"Karlstad"}, 10*time.Millisecond) }()

	deadline := time.Now().Add(2 * time.Second)
	for fetcher.calls() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("WarmPeriodic() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WarmPeriodic did not stop after cancel")
	}
	if fetcher.calls() < 2 {
		t.Errorf("prefetch calls = %d, want initial plus at least one tick", fetcher.calls())
	}
}

func TestCacheWarmer_Warm_DistinctCities(t *testing.T) {
	fetcher := &mockPrefetcher{}
	warmer := NewCacheWarmer(fetcher, nil)

	if err := warmer.Warm(context.Background(), []string{"Karlstad", " karlstad ", "", "Lund", "LUND"}); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if got := fetcher.calls(); got != 2 {
		t.Errorf("Prefetch calls = %d, want 2 (%v)", got, fetcher.cities)
	}
}

// peakPrefetcher records the highest number of overlapping Prefetch calls.
type peakPrefetcher struct {
	mu      sync.Mutex
	current int
	peak    int
}

func (p *peakPrefetcher) Prefetch(ctx context.Context, city string) error {
	p.mu.Lock()
	p.current++
	if p.current > p.peak {
		p.peak = p.current
	}
	p.mu.Unlock()
	time.Sleep(5 * time.Millisecond)
	p.mu.Lock()
	p.current--
	p.mu.Unlock()
	return nil
}

func TestCacheWarmer_Warm_BoundedConcurrency(t *testing.T) {
	fetcher := &peakPrefetcher{}
	warmer := NewCacheWarmer(fetcher, nil)
	cities := []string{"Karlstad", "Stockholm", "Göteborg", "Malmö", "Uppsala", "Örebro", "Linköping", "Västerås", "Umeå", "Lund"}

	if err := warmer.Warm(context.Background(), cities); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if fetcher.peak > maxConcurrentWarms {
		t.Errorf("peak concurrent prefetches = %d, want <= %d", fetcher.peak, maxConcurrentWarms)
	}
}
