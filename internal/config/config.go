package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	CacheBackendInMemory  = "in_memory"
	CacheBackendMemcached = "memcached"

	FavoritesBackendMemory   = "memory"
	FavoritesBackendPostgres = "postgres"
)

// placeholderPrefix marks template key values such as "your_google_api_key".
const placeholderPrefix = "your_"

// Config holds service configuration loaded from YAML, .env and env.
type Config struct {
	ServerPort string

	// DemoMode forces mock places and weather even when keys are present.
	DemoMode bool

	PlacesAPIKey     string
	PlacesAPIURL     string
	PlacesAPITimeout time.Duration

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	// PlacesConfigured and WeatherConfigured are decided once at load:
	// a usable key is present and demo mode is off.
	PlacesConfigured  bool
	WeatherConfigured bool

	SiteURL         string
	PlaceholderPath string

	DefaultCity string
	Cities      []string

	RequestTimeout time.Duration

	CacheTTL        time.Duration
	CacheMaxEntries int
	CacheBackend    string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	CacheWarmInterval time.Duration
	WarmCities        []string

	BreakerFailureThreshold uint32
	BreakerTimeout          time.Duration
	BreakerMaxRequests      uint32

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration

	HealthWindow     time.Duration
	DegradedErrorPct int

	FavoritesBackend string // "memory" or "postgres"
	FavoritesDSN     string

	TrackedCities []string
}

type fileConfig struct {
	DemoMode *bool `yaml:"demo_mode"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Site struct {
		URL         string `yaml:"url"`
		Placeholder string `yaml:"placeholder"`
	} `yaml:"site"`

	PlacesAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"places_api"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Catalogue struct {
		DefaultCity string   `yaml:"default_city"`
		Cities      []string `yaml:"cities"`
	} `yaml:"catalogue"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend    string `yaml:"backend"`
		TTL        string `yaml:"ttl"`
		MaxEntries int    `yaml:"max_entries"`
		Memcached  struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Warming struct {
			Interval string   `yaml:"interval"`
			Cities   []string `yaml:"cities"`
		} `yaml:"warming"`
	} `yaml:"cache"`

	Reliability struct {
		BreakerFailureThreshold *uint32 `yaml:"breaker_failure_threshold"`
		BreakerTimeout          string  `yaml:"breaker_timeout"`
		BreakerMaxRequests      uint32  `yaml:"breaker_max_requests"`
		RateLimitRPS            int     `yaml:"rate_limit_rps"`
		RateLimitBurst          int     `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Health struct {
		Window           string `yaml:"window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`

	Favorites struct {
		Backend string `yaml:"backend"`
		DSN     string `yaml:"dsn"`
	} `yaml:"favorites"`

	Metrics struct {
		TrackedCities []string `yaml:"tracked_cities"`
	} `yaml:"metrics"`
}

type secretsFile struct {
	PlacesAPIKey  string `yaml:"places_api_key"`
	WeatherAPIKey string `yaml:"weather_api_key"`
	FavoritesDSN  string `yaml:"favorites_dsn"`
}

var defaultCities = []string{
	"Karlstad", "Stockholm", "Göteborg", "Malmö", "Uppsala",
	"Örebro", "Linköping", "Västerås", "Umeå", "Lund",
}

// Load reads configuration relative to the working directory. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFrom(cwd)
}

// LoadFrom reads dir/.env (optional), config/{ENV_NAME}.yaml (default dev;
// optional) and config/secrets.yaml (optional), then applies env overrides.
// Missing keys are normal: the service runs on mock data.
func LoadFrom(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	configPath := filepath.Join(dir, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var sec secretsFile
	secretsData, err := os.ReadFile(filepath.Join(dir, "config", "secrets.yaml"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read secrets file: %w", err)
		}
	} else if err := yaml.Unmarshal(secretsData, &sec); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}

	cfg := &Config{}
	if fc.DemoMode != nil {
		cfg.DemoMode = *fc.DemoMode
	}
	if v := strings.TrimSpace(os.Getenv("DEMO_MODE")); v != "" {
		demo, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DEMO_MODE must be a boolean, got %q", v)
		}
		cfg.DemoMode = demo
	}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.PlacesAPIKey = firstNonEmpty(os.Getenv("PLACES_API_KEY"), os.Getenv("GOOGLE_API_KEY"), sec.PlacesAPIKey)
	cfg.PlacesAPIURL = fc.PlacesAPI.URL
	if cfg.PlacesAPIURL == "" {
		cfg.PlacesAPIURL = "https://maps.googleapis.com/maps/api/place"
	}
	cfg.PlacesAPITimeout = parseDurationOrZero(fc.PlacesAPI.Timeout, 5*time.Second)

	cfg.WeatherAPIKey = firstNonEmpty(os.Getenv("WEATHER_API_KEY"), os.Getenv("OPENWEATHER_KEY"), sec.WeatherAPIKey)
	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 5*time.Second)

	cfg.PlacesConfigured = usableKey(cfg.PlacesAPIKey) && !cfg.DemoMode
	cfg.WeatherConfigured = usableKey(cfg.WeatherAPIKey) && !cfg.DemoMode

	cfg.SiteURL = firstNonEmpty(os.Getenv("SITE_URL"), fc.Site.URL)
	cfg.PlaceholderPath = fc.Site.Placeholder
	if cfg.PlaceholderPath == "" {
		cfg.PlaceholderPath = "/placeholder.jpg"
	}

	cfg.DefaultCity = strings.TrimSpace(fc.Catalogue.DefaultCity)
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = "Karlstad"
	}
	cfg.Cities = fc.Catalogue.Cities
	if len(cfg.Cities) == 0 {
		cfg.Cities = append([]string(nil), defaultCities...)
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 5*time.Minute)
	cfg.CacheMaxEntries = fc.Cache.MaxEntries
	if cfg.CacheMaxEntries <= 0 {
		cfg.CacheMaxEntries = 1000
	}
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = CacheBackendInMemory
	}
	cfg.MemcachedAddrs = strings.TrimSpace(firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), fc.Cache.Memcached.Addrs))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.CacheWarmInterval = parseDurationOrZero(fc.Cache.Warming.Interval, 0)
	cfg.WarmCities = fc.Cache.Warming.Cities

	cfg.BreakerFailureThreshold = 5
	if fc.Reliability.BreakerFailureThreshold != nil {
		cfg.BreakerFailureThreshold = *fc.Reliability.BreakerFailureThreshold
	}
	cfg.BreakerTimeout = parseDuration(fc.Reliability.BreakerTimeout, 30*time.Second)
	cfg.BreakerMaxRequests = fc.Reliability.BreakerMaxRequests
	if cfg.BreakerMaxRequests == 0 {
		cfg.BreakerMaxRequests = 1
	}
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.HealthWindow = parseDuration(fc.Health.Window, 60*time.Second)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 20
	}

	cfg.FavoritesDSN = firstNonEmpty(os.Getenv("FAVORITES_DSN"), sec.FavoritesDSN, fc.Favorites.DSN)
	cfg.FavoritesBackend = strings.TrimSpace(strings.ToLower(firstNonEmpty(os.Getenv("FAVORITES_BACKEND"), fc.Favorites.Backend)))
	if cfg.FavoritesBackend == "" {
		cfg.FavoritesBackend = FavoritesBackendMemory
		if cfg.FavoritesDSN != "" {
			cfg.FavoritesBackend = FavoritesBackendPostgres
		}
	}

	cfg.TrackedCities = fc.Metrics.TrackedCities
	if len(cfg.TrackedCities) == 0 {
		cfg.TrackedCities = cfg.Cities
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// usableKey rejects empty and template keys.
func usableKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.HasPrefix(strings.ToLower(key), placeholderPrefix)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// PlaceholderURL resolves the placeholder image path against SiteURL when one is set.
func (c *Config) PlaceholderURL() string {
	if c.SiteURL == "" {
		return c.PlaceholderPath
	}
	base, err := url.Parse(c.SiteURL)
	if err != nil {
		return c.PlaceholderPath
	}
	ref, err := url.Parse(c.PlaceholderPath)
	if err != nil {
		return c.PlaceholderPath
	}
	return base.ResolveReference(ref).String()
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// RequestTimeout is raised above the slowest upstream timeout when needed.
func validate(cfg *Config) error {
	if cfg.PlacesAPITimeout <= 0 {
		return fmt.Errorf("places_api.timeout must be positive")
	}
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	upstream := max(cfg.PlacesAPITimeout, cfg.WeatherAPITimeout)
	if cfg.RequestTimeout <= upstream {
		cfg.RequestTimeout = upstream + time.Second
	}
	switch cfg.CacheBackend {
	case CacheBackendInMemory, CacheBackendMemcached:
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	switch cfg.FavoritesBackend {
	case FavoritesBackendMemory:
	case FavoritesBackendPostgres:
		if cfg.FavoritesDSN == "" {
			return fmt.Errorf("favorites.backend postgres requires FAVORITES_DSN")
		}
	default:
		return fmt.Errorf("favorites.backend must be memory or postgres, got %q", cfg.FavoritesBackend)
	}
	if cfg.SiteURL != "" {
		if u, err := url.Parse(cfg.SiteURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("SITE_URL must be an absolute URL, got %q", cfg.SiteURL)
		}
	}
	return nil
}
