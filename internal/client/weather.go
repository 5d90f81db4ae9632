package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/kjstillabower/city-guide-service/internal/models"
)

// ProviderWeather is the provider label used in metrics and breaker names.
const ProviderWeather = "weather"

// DefaultWeatherURL is the current-weather endpoint.
const DefaultWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

type WeatherClient interface {
	CurrentWeather(ctx context.Context, city string) (models.WeatherSnapshot, error)
	BreakerState() string
}

type OpenWeatherClient struct {
	apiKey string
	apiURL string
	*fetcher
}

func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration, bc BreakerConfig) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: weather API key is required", ErrConfigurationMissing)
	}
	if apiURL == "" {
		apiURL = DefaultWeatherURL
	}
	if _, err := url.Parse(apiURL); err != nil {
		return nil, fmt.Errorf("invalid weather API URL: %w", err)
	}
	return &OpenWeatherClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		fetcher: newFetcher(ProviderWeather, timeout, bc),
	}, nil
}

type openWeatherResponse struct {
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity" validate:"gte=0,lte=100"`
	} `json:"main" validate:"required"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather" validate:"required,min=1"`
	Wind struct {
		Speed float64 `json:"speed" validate:"gte=0"`
	} `json:"wind"`
	Name string `json:"name"`
}

// CurrentWeather fetches current conditions in metric units with Swedish descriptions.
// An unknown city is ErrNotFound and a refused key is ErrUpstreamRejected.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, city string) (models.WeatherSnapshot, error) {
	base, err := url.Parse(c.apiURL)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("invalid weather API URL: %w", err)
	}
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	params.Set("lang", "sv")
	base.RawQuery = params.Encode()

	resp, err := c.get(ctx, base.String())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.WeatherSnapshot{}, fmt.Errorf("%w: city %q", ErrNotFound, city)
		}
		if resp.status == http.StatusUnauthorized {
			return models.WeatherSnapshot{}, fmt.Errorf("%w: invalid API key", ErrUpstreamRejected)
		}
		return models.WeatherSnapshot{}, err
	}

	var body openWeatherResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		err = fmt.Errorf("%w: parse weather response: %v", ErrUpstreamRejected, err)
		c.countError(err)
		return models.WeatherSnapshot{}, err
	}
	if err := schemaValidator.Struct(body); err != nil {
		err = fmt.Errorf("%w: invalid weather payload: %v", ErrUpstreamRejected, err)
		c.countError(err)
		return models.WeatherSnapshot{}, err
	}
	return mapWeather(body, city), nil
}

func mapWeather(r openWeatherResponse, city string) models.WeatherSnapshot {
	w := r.Weather[0]
	description := w.Description
	if description == "" {
		description = strings.ToLower(w.Main)
	}
	location := r.Name
	if location == "" {
		location = city
	}
	return models.WeatherSnapshot{
		Location:    location,
		Temperature: int(math.Round(r.Main.Temp)),
		Description: description,
		Icon:        w.Icon,
		Humidity:    r.Main.Humidity,
		WindSpeed:   r.Wind.Speed,
		FeelsLike:   int(math.Round(r.Main.FeelsLike)),
	}
}
