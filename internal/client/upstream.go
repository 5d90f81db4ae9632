package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/kjstillabower/city-guide-service/internal/observability"
)

// maxBodyBytes caps upstream bodies; photos are the largest payloads.
const maxBodyBytes = 10 << 20

// BreakerConfig configures the per-provider circuit breaker. Zero FailureThreshold disables it.
type BreakerConfig struct {
	FailureThreshold uint32
	Timeout          time.Duration
	MaxRequests      uint32
}

// response is a fully read upstream reply.
type response struct {
	status      int
	contentType string
	body        []byte
}

// fetcher performs single GET calls against one provider with a hard timeout,
// an optional circuit breaker, and per-call metrics. It never retries.
type fetcher struct {
	provider string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[response]
}

func newFetcher(provider string, timeout time.Duration, bc BreakerConfig) *fetcher {
	f := &fetcher{
		provider: provider,
		client:   &http.Client{Timeout: timeout},
	}
	if bc.FailureThreshold > 0 {
		f.breaker = gobreaker.NewCircuitBreaker[response](gobreaker.Settings{
			Name:        provider,
			MaxRequests: bc.MaxRequests,
			Timeout:     bc.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= bc.FailureThreshold
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, ErrUpstreamUnavailable)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				observability.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			},
		})
		observability.CircuitBreakerState.WithLabelValues(provider).Set(0)
	}
	return f
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// BreakerState reports the breaker state name, or "disabled".
func (f *fetcher) BreakerState() string {
	if f.breaker == nil {
		return "disabled"
	}
	return f.breaker.State().String()
}

// get issues one GET. A 404 is returned as ErrNotFound and any other non-2xx
// status as ErrUpstreamUnavailable, together with the response so callers can
// inspect the status code.
func (f *fetcher) get(ctx context.Context, rawURL string) (response, error) {
	if f.breaker == nil {
		return f.do(ctx, rawURL)
	}
	resp, err := f.breaker.Execute(func() (response, error) {
		return f.do(ctx, rawURL)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		observability.UpstreamErrorsTotal.WithLabelValues(f.provider, string(ErrorCategoryCircuitOpen)).Inc()
		return response{}, ErrCircuitOpen
	}
	return resp, err
}

func (f *fetcher) do(ctx context.Context, rawURL string) (response, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("%w: build request: %v", ErrUpstreamUnavailable, err)
	}
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.observe("error", start)
		err = fmt.Errorf("%w: %s request failed: %w", ErrUpstreamUnavailable, f.provider, err)
		f.countError(err)
		return response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		f.observe("error", start)
		err = fmt.Errorf("%w: read %s response: %w", ErrUpstreamUnavailable, f.provider, err)
		f.countError(err)
		return response{}, err
	}
	f.observe(statusLabel(resp.StatusCode), start)

	out := response{status: resp.StatusCode, contentType: resp.Header.Get("Content-Type"), body: body}
	if resp.StatusCode == http.StatusNotFound {
		err = fmt.Errorf("%w: %s HTTP %d", ErrNotFound, f.provider, resp.StatusCode)
		f.countError(err)
		return out, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("%w: %s HTTP %d", ErrUpstreamUnavailable, f.provider, resp.StatusCode)
		f.countError(err)
		return out, err
	}
	return out, nil
}

func (f *fetcher) observe(status string, start time.Time) {
	observability.UpstreamCallsTotal.WithLabelValues(f.provider, status).Inc()
	observability.UpstreamDuration.WithLabelValues(f.provider, status).Observe(time.Since(start).Seconds())
}

func (f *fetcher) countError(err error) {
	observability.UpstreamErrorsTotal.WithLabelValues(f.provider, string(CategorizeError(err))).Inc()
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
