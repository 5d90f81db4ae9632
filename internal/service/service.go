package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/city-guide-service/internal/client"
	"github.com/kjstillabower/city-guide-service/internal/mockdata"
	"github.com/kjstillabower/city-guide-service/internal/models"
	"github.com/kjstillabower/city-guide-service/internal/observability"
	"github.com/kjstillabower/city-guide-service/internal/traffic"
)

// SearchQuery is a place search as the browser sends it. Empty Location means
// the default city; empty or "all" Type means no category filter.
type SearchQuery struct {
	Query    string
	Location string
	Type     string
}

// PlacesService is the places proxy: it hides the provider key, falls back to
// mock data when no provider is configured, and types every upstream failure.
// It does not cache; see the access package.
type PlacesService struct {
	client      client.PlacesClient
	defaultCity string
}

// NewPlacesService creates a PlacesService. A nil client means the provider is
// not configured (no usable key, or demo mode) and every call is served from mock data.
func NewPlacesService(c client.PlacesClient, defaultCity string) *PlacesService {
	if strings.TrimSpace(defaultCity) == "" {
		defaultCity = mockdata.DefaultCity
	}
	return &PlacesService{client: c, defaultCity: defaultCity}
}

// Configured reports whether calls go upstream.
func (s *PlacesService) Configured() bool {
	return s.client != nil
}

// BreakerState reports the upstream breaker state, or "unconfigured".
func (s *PlacesService) BreakerState() string {
	if s.client == nil {
		return "unconfigured"
	}
	return s.client.BreakerState()
}

// ComposeQuery builds the upstream text query: "<q> in <location>", or just
// the location when q is empty.
func ComposeQuery(q, location string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return location
	}
	return q + " in " + location
}

// Search returns places in upstream relevance order. Without a provider it
// returns the mock list filtered by the same query and type and never fails.
func (s *PlacesService) Search(ctx context.Context, sq SearchQuery) ([]models.Place, error) {
	logger := observability.LoggerFromContext(ctx)
	location := strings.TrimSpace(sq.Location)
	if location == "" {
		location = s.defaultCity
	}
	observability.RecordSearch(location)

	if s.client == nil {
		s.fallback(logger, "search")
		return mockdata.SearchPlaces(sq.Query, sq.Type), nil
	}

	req := client.TextSearchRequest{Query: ComposeQuery(sq.Query, location)}
	if t := strings.TrimSpace(sq.Type); t != "" && t != "all" {
		req.Type = t
	}

	start := time.Now()
	places, err := s.client.TextSearch(ctx, req)
	if err != nil {
		traffic.RecordError()
		logger.Warn("place search failed",
			zap.String("query", req.Query),
			zap.String("type", req.Type),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err),
		)
		return nil, fmt.Errorf("search places %q: %w", req.Query, err)
	}
	traffic.RecordSuccess()
	logger.Debug("place search served",
		zap.String("query", req.Query),
		zap.Int("results", len(places)),
		zap.Duration("duration", time.Since(start)),
	)
	return places, nil
}

// Details returns the full record for id. client.ErrNotFound is kept distinct
// from transient failures.
func (s *PlacesService) Details(ctx context.Context, id string) (models.PlaceDetails, error) {
	logger := observability.LoggerFromContext(ctx)
	if s.client == nil {
		s.fallback(logger, "details")
		return mockdata.PlaceDetails(id), nil
	}

	d, err := s.client.Details(ctx, id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			traffic.RecordSuccess()
			logger.Info("place not found", zap.String("place_id", id))
		} else {
			traffic.RecordError()
			logger.Warn("place details failed",
				zap.String("place_id", id),
				zap.String("category", string(client.CategorizeError(err))),
				zap.Error(err),
			)
		}
		return models.PlaceDetails{}, fmt.Errorf("place details %s: %w", id, err)
	}
	traffic.RecordSuccess()
	return d, nil
}

// Photo fetches image bytes. Mock references and a missing provider return
// client.ErrConfigurationMissing; the caller redirects to the placeholder on any error.
func (s *PlacesService) Photo(ctx context.Context, reference string, maxWidth int) (client.PhotoData, error) {
	logger := observability.LoggerFromContext(ctx)
	if s.client == nil || mockdata.IsMockPhoto(reference) {
		s.fallback(logger, "photo")
		return client.PhotoData{}, fmt.Errorf("photo %s: %w", reference, client.ErrConfigurationMissing)
	}
	photo, err := s.client.Photo(ctx, reference, maxWidth)
	if err != nil {
		traffic.RecordError()
		logger.Warn("photo fetch failed",
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err),
		)
		return client.PhotoData{}, fmt.Errorf("photo: %w", err)
	}
	traffic.RecordSuccess()
	return photo, nil
}

func (s *PlacesService) fallback(logger *zap.Logger, operation string) {
	observability.MockFallbacksTotal.WithLabelValues(operation).Inc()
	traffic.RecordFallback()
	logger.Debug("serving mock data", zap.String("operation", operation))
}

// WeatherService is the weather proxy. Demo mode serves the mock snapshot;
// a missing key is a failure the caller surfaces by hiding the widget.
type WeatherService struct {
	client      client.WeatherClient
	demo        bool
	defaultCity string
}

// NewWeatherService creates a WeatherService. A nil client with demo off means
// every call fails with client.ErrConfigurationMissing.
func NewWeatherService(c client.WeatherClient, demo bool, defaultCity string) *WeatherService {
	if strings.TrimSpace(defaultCity) == "" {
		defaultCity = mockdata.DefaultCity
	}
	return &WeatherService{client: c, demo: demo, defaultCity: defaultCity}
}

// BreakerState reports the upstream breaker state, "demo", or "unconfigured".
func (s *WeatherService) BreakerState() string {
	switch {
	case s.demo:
		return "demo"
	case s.client == nil:
		return "unconfigured"
	}
	return s.client.BreakerState()
}

// Weather returns current conditions for city (default city when blank).
func (s *WeatherService) Weather(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	logger := observability.LoggerFromContext(ctx)
	city = strings.TrimSpace(city)
	if city == "" {
		city = s.defaultCity
	}
	if s.demo {
		observability.MockFallbacksTotal.WithLabelValues("weather").Inc()
		traffic.RecordFallback()
		return mockdata.Weather(city), nil
	}
	if s.client == nil {
		return models.WeatherSnapshot{}, fmt.Errorf("weather for %s: %w", city, client.ErrConfigurationMissing)
	}

	w, err := s.client.CurrentWeather(ctx, city)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			traffic.RecordSuccess()
		} else {
			traffic.RecordError()
		}
		logger.Warn("weather fetch failed",
			zap.String("city", city),
			zap.String("category", string(client.CategorizeError(err))),
			zap.Error(err),
		)
		return models.WeatherSnapshot{}, fmt.Errorf("weather for %s: %w", city, err)
	}
	traffic.RecordSuccess()
	return w, nil
}
