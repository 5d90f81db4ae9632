package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalEnvYAML = `
server:
  port: "9090"
places_api:
  timeout: 3s
weather_api:
  timeout: 2s
`

var keyEnvVars = []string{
	"ENV_NAME", "PLACES_API_KEY", "GOOGLE_API_KEY", "WEATHER_API_KEY", "OPENWEATHER_KEY",
	"DEMO_MODE", "SITE_URL", "FAVORITES_DSN", "FAVORITES_BACKEND", "CACHE_BACKEND", "MEMCACHED_ADDRS",
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keyEnvVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "dev.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func writeSecretsFile(t *testing.T, dir, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "secrets.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

// TestLoad_MissingFileUsesDefaults verifies that no config file and no keys is a
// valid, mock-only configuration.
func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.PlacesConfigured || cfg.WeatherConfigured {
		t.Errorf("configured flags = %v/%v, want false/false", cfg.PlacesConfigured, cfg.WeatherConfigured)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if cfg.CacheBackend != CacheBackendInMemory || cfg.FavoritesBackend != FavoritesBackendMemory {
		t.Errorf("backends = %q/%q", cfg.CacheBackend, cfg.FavoritesBackend)
	}
	if cfg.DefaultCity != "Karlstad" || len(cfg.Cities) == 0 {
		t.Errorf("catalogue = %q %v", cfg.DefaultCity, cfg.Cities)
	}
	if cfg.PlaceholderURL() != "/placeholder.jpg" {
		t.Errorf("PlaceholderURL() = %q", cfg.PlaceholderURL())
	}
}

func TestLoad_ConfiguredFlags(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantPlaces  bool
		wantWeather bool
	}{
		{"both keys", map[string]string{"PLACES_API_KEY": "AIza-real", "WEATHER_API_KEY": "ow-real"}, true, true},
		{"aliases", map[string]string{"GOOGLE_API_KEY": "AIza-real", "OPENWEATHER_KEY": "ow-real"}, true, true},
		{"placeholder keys", map[string]string{"PLACES_API_KEY": "your_google_api_key", "WEATHER_API_KEY": "YOUR_KEY"}, false, false},
		{"demo mode", map[string]string{"PLACES_API_KEY": "AIza-real", "WEATHER_API_KEY": "ow-real", "DEMO_MODE": "true"}, false, false},
		{"only weather", map[string]string{"WEATHER_API_KEY": "ow-real"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := LoadFrom(t.TempDir())
			if err != nil {
				t.Fatalf("LoadFrom() error = %v", err)
			}
			if cfg.PlacesConfigured != tt.wantPlaces || cfg.WeatherConfigured != tt.wantWeather {
				t.Errorf("configured = %v/%v, want %v/%v", cfg.PlacesConfigured, cfg.WeatherConfigured, tt.wantPlaces, tt.wantWeather)
			}
		})
	}
}

func TestLoad_InvalidDemoMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEMO_MODE", "sometimes")
	if _, err := LoadFrom(t.TempDir()); err == nil || !strings.Contains(err.Error(), "DEMO_MODE") {
		t.Errorf("LoadFrom() error = %v, want DEMO_MODE error", err)
	}
}

func TestLoad_SecretsFileAndDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, "places_api_key: key-from-secrets-file\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("WEATHER_API_KEY=key-from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.PlacesAPIKey != "key-from-secrets-file" {
		t.Errorf("PlacesAPIKey = %q, want key from secrets file", cfg.PlacesAPIKey)
	}
	if cfg.WeatherAPIKey != "key-from-dotenv" {
		t.Errorf("WeatherAPIKey = %q, want key from .env", cfg.WeatherAPIKey)
	}
	if cfg.ServerPort != "9090" || cfg.PlacesAPITimeout != 3*time.Second {
		t.Errorf("file values not applied: port=%q timeout=%v", cfg.ServerPort, cfg.PlacesAPITimeout)
	}
}

func TestLoad_EnvOverridesSecrets(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeSecretsFile(t, dir, "places_api_key: from-file\n")
	t.Setenv("PLACES_API_KEY", "from-env")

	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.PlacesAPIKey != "from-env" {
		t.Errorf("PlacesAPIKey = %q, want from-env", cfg.PlacesAPIKey)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, `
request:
  timeout: "not-a-duration"
cache:
  ttl: "-1m"
`)
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
}

func TestLoad_RequestTimeoutRaisedAboveUpstream(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, `
places_api:
  timeout: 8s
request:
  timeout: 5s
`)
	cfg, err := LoadFrom(dir)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.RequestTimeout != 9*time.Second {
		t.Errorf("RequestTimeout = %v, want 9s", cfg.RequestTimeout)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantSub string
	}{
		{"zero weather timeout", "weather_api:\n  timeout: 0s\n", nil, "weather_api.timeout"},
		{"bad cache backend", "cache:\n  backend: redis\n", nil, "cache.backend"},
		{"postgres without dsn", "favorites:\n  backend: postgres\n", nil, "FAVORITES_DSN"},
		{"relative site url", "", map[string]string{"SITE_URL": "example.se"}, "SITE_URL"},
		{"invalid yaml", "server: [unclosed", nil, "parse config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			writeEnvFile(t, dir, tt.yaml)
			cfg, err := LoadFrom(dir)
			if err == nil {
				t.Fatalf("LoadFrom() expected error, got %+v", cfg)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %v, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_FavoritesDSNSelectsPostgres(t *testing.T) {
	clearEnv(t)
	t.Setenv("FAVORITES_DSN", "postgres://localhost/cityguide?sslmode=disable")
	cfg, err := LoadFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.FavoritesBackend != FavoritesBackendPostgres {
		t.Errorf("FavoritesBackend = %q, want postgres", cfg.FavoritesBackend)
	}
}

func TestConfig_PlaceholderURL(t *testing.T) {
	cfg := &Config{SiteURL: "https://guide.example.se/app/", PlaceholderPath: "/placeholder.jpg"}
	if got := cfg.PlaceholderURL(); got != "https://guide.example.se/placeholder.jpg" {
		t.Errorf("PlaceholderURL() = %q", got)
	}
}
