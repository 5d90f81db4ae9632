package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/city-guide-service/internal/observability"
)

// RouterConfig holds the middleware settings for NewRouter.
type RouterConfig struct {
	Logger *zap.Logger
	// Limiter guards the upstream-facing routes. nil disables rate limiting.
	Limiter *rate.Limiter
	// RequestTimeout bounds upstream-facing routes. 0 disables it.
	RequestTimeout time.Duration
}

// NewRouter registers every route. Upstream-facing routes (places, photos,
// weather, browse) sit behind the rate limiter and request timeout; catalogue,
// favorites, health and metrics do not. A rate-limited photo request is
// redirected to the placeholder like any other photo failure.
func NewRouter(h *Handler, rc RouterConfig) *mux.Router {
	logger := rc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.Use(RequestLogMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	router.HandleFunc("/cities", h.ListCities).Methods(http.MethodGet)
	router.HandleFunc("/categories", h.ListCategories).Methods(http.MethodGet)

	router.HandleFunc("/favorites", h.ListFavorites).Methods(http.MethodGet)
	router.HandleFunc("/favorites", h.AddFavorite).Methods(http.MethodPost)
	router.HandleFunc("/favorites/{id}", h.GetFavorite).Methods(http.MethodGet)
	router.HandleFunc("/favorites/{id}", h.RemoveFavorite).Methods(http.MethodDelete)

	upstream := router.NewRoute().Subrouter()
	upstream.Use(RateLimitMiddleware(rc.Limiter))
	upstream.Use(TimeoutMiddleware(rc.RequestTimeout))
	upstream.HandleFunc("/places", h.SearchPlaces).Methods(http.MethodGet)
	upstream.HandleFunc("/places/{id}", h.GetPlace).Methods(http.MethodGet)
	upstream.HandleFunc("/weather", h.GetWeather).Methods(http.MethodGet)
	upstream.HandleFunc("/browse", h.Browse).Methods(http.MethodGet)

	photos := router.NewRoute().Subrouter()
	photos.Use(rateLimit(rc.Limiter, func(w http.ResponseWriter, r *http.Request) {
		h.redirectToPlaceholder(w, r, errRateLimited)
	}))
	photos.Use(TimeoutMiddleware(rc.RequestTimeout))
	photos.HandleFunc("/photos/{reference}", h.GetPhoto).Methods(http.MethodGet)

	return router
}
