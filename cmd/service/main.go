package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/city-guide-service/internal/access"
	"github.com/kjstillabower/city-guide-service/internal/cache"
	"github.com/kjstillabower/city-guide-service/internal/client"
	"github.com/kjstillabower/city-guide-service/internal/config"
	"github.com/kjstillabower/city-guide-service/internal/favorites"
	httphandler "github.com/kjstillabower/city-guide-service/internal/http"
	"github.com/kjstillabower/city-guide-service/internal/lifecycle"
	"github.com/kjstillabower/city-guide-service/internal/models"
	"github.com/kjstillabower/city-guide-service/internal/observability"
	"github.com/kjstillabower/city-guide-service/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := newApp(startCtx, cfg, logger)
	startCancel()
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}
	defer a.close()

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	a.warm(runCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()
	lifecycle.SetReady(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	if err := httphandler.WaitForInFlight(shutdownCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// app is the wired service: everything main needs besides the listener.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	router    http.Handler
	layer     *access.Layer
	favorites favorites.Store
	memcached *memcache.Client
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	observability.SetTrackedCities(cfg.TrackedCities)
	observability.RegisterTrafficGauges(cfg.HealthWindow)

	bc := client.BreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		Timeout:          cfg.BreakerTimeout,
		MaxRequests:      cfg.BreakerMaxRequests,
	}

	// An unconfigured provider must reach the services as an untyped nil.
	var placesClient client.PlacesClient
	if cfg.PlacesConfigured {
		pc, err := client.NewGooglePlacesClient(cfg.PlacesAPIKey, cfg.PlacesAPIURL, cfg.PlacesAPITimeout, bc)
		if err != nil {
			return nil, fmt.Errorf("places client: %w", err)
		}
		placesClient = pc
	} else {
		logger.Warn("places provider not configured; serving mock data", zap.Bool("demo_mode", cfg.DemoMode))
	}
	var weatherClient client.WeatherClient
	if cfg.WeatherConfigured {
		wc, err := client.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout, bc)
		if err != nil {
			return nil, fmt.Errorf("weather client: %w", err)
		}
		weatherClient = wc
	} else if !cfg.DemoMode {
		logger.Warn("weather provider not configured; weather requests will fail")
	}

	placesService := service.NewPlacesService(placesClient, cfg.DefaultCity)
	weatherService := service.NewWeatherService(weatherClient, cfg.DemoMode, cfg.DefaultCity)

	a := &app{cfg: cfg, logger: logger}
	var (
		searchCache  cache.Cache[[]models.Place]
		detailsCache cache.Cache[*models.PlaceDetails]
		cachePing    func() error
	)
	switch cfg.CacheBackend {
	case config.CacheBackendMemcached:
		a.memcached = cache.NewMemcachedClient(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		search := cache.NewMemcachedCache[[]models.Place](a.memcached, "search")
		searchCache = search
		detailsCache = cache.NewMemcachedCache[*models.PlaceDetails](a.memcached, "details")
		cachePing = search.Ping
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		searchCache = cache.NewInMemoryCache[[]models.Place]("search", cfg.CacheMaxEntries)
		detailsCache = cache.NewInMemoryCache[*models.PlaceDetails]("details", cfg.CacheMaxEntries)
		logger.Info("cache backend: in_memory", zap.Int("max_entries", cfg.CacheMaxEntries))
	}
	a.layer = access.NewLayer(placesService, searchCache, detailsCache, cfg.CacheTTL, cfg.DefaultCity)

	switch cfg.FavoritesBackend {
	case config.FavoritesBackendPostgres:
		store, err := favorites.NewPostgresStore(ctx, cfg.FavoritesDSN)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("favorites store: %w", err)
		}
		a.favorites = store
		logger.Info("favorites backend: postgres")
	default:
		a.favorites = favorites.NewMemoryStore()
		logger.Info("favorites backend: memory")
	}

	handler := httphandler.NewHandler(httphandler.Deps{
		Places:         placesService,
		Weather:        weatherService,
		Access:         a.layer,
		Favorites:      a.favorites,
		Cities:         service.NewCityList(cfg.DefaultCity, cfg.Cities),
		PlaceholderURL: cfg.PlaceholderURL(),
		Health: &httphandler.HealthConfig{
			Window:           cfg.HealthWindow,
			DegradedErrorPct: cfg.DegradedErrorPct,
			StartTime:        time.Now(),
			CachePing:        cachePing,
		},
		Logger: logger,
	})

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	a.router = httphandler.NewRouter(handler, httphandler.RouterConfig{
		Logger:         logger,
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})

	logger.Info("service configured",
		zap.Bool("places_configured", cfg.PlacesConfigured),
		zap.Bool("weather_configured", cfg.WeatherConfigured),
		zap.Bool("demo_mode", cfg.DemoMode),
		zap.String("default_city", cfg.DefaultCity),
	)
	return a, nil
}

// warm prefetches the configured cities now and every CacheWarmInterval
// until ctx ends. Disabled when the interval is zero or no cities are listed.
func (a *app) warm(ctx context.Context) {
	if a.cfg.CacheWarmInterval <= 0 || len(a.cfg.WarmCities) == 0 {
		return
	}
	warmer := cache.NewCacheWarmer(a.layer, a.logger)
	go func() {
		if err := warmer.WarmPeriodic(ctx, a.cfg.WarmCities, a.cfg.CacheWarmInterval); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("periodic cache warming stopped", zap.Error(err))
		}
	}()
}

func (a *app) close() {
	if a.favorites != nil {
		if err := a.favorites.Close(); err != nil {
			a.logger.Error("favorites close", zap.Error(err))
		}
	}
	if a.memcached != nil {
		if err := a.memcached.Close(); err != nil {
			a.logger.Error("memcached close", zap.Error(err))
		}
	}
}
