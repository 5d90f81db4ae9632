package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/city-guide-service/internal/access"
	"github.com/kjstillabower/city-guide-service/internal/client"
	"github.com/kjstillabower/city-guide-service/internal/favorites"
	"github.com/kjstillabower/city-guide-service/internal/filter"
	"github.com/kjstillabower/city-guide-service/internal/lifecycle"
	"github.com/kjstillabower/city-guide-service/internal/models"
	"github.com/kjstillabower/city-guide-service/internal/observability"
	"github.com/kjstillabower/city-guide-service/internal/service"
	"github.com/kjstillabower/city-guide-service/internal/traffic"
	"github.com/kjstillabower/city-guide-service/internal/validation"
)

const (
	cityMinLength  = 1
	cityMaxLength  = 100
	queryMaxLength = 200

	// PhotoCacheControl lets browsers and CDNs keep proxied photos for a day.
	PhotoCacheControl = "public, max-age=86400, stale-while-revalidate=604800"
)

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	// Window is the sliding window the error rate is computed over.
	Window time.Duration
	// DegradedErrorPct is the upstream error percentage at which health reports degraded. 0 disables.
	DegradedErrorPct int
	StartTime        time.Time
	// CachePing, when set, is called to check cache reachability. Used when backend is memcached.
	CachePing func() error
}

// Deps are the collaborators a Handler serves from.
type Deps struct {
	Places    *service.PlacesService
	Weather   *service.WeatherService
	Access    *access.Layer
	Favorites favorites.Store
	Cities    service.CityList
	// PlaceholderURL is where photo requests redirect when no image can be served.
	PlaceholderURL string
	Health         *HealthConfig
	Logger         *zap.Logger
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	places         *service.PlacesService
	weather        *service.WeatherService
	access         *access.Layer
	favorites      favorites.Store
	cities         service.CityList
	placeholderURL string
	healthConfig   *HealthConfig
	logger         *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	placeholder := d.PlaceholderURL
	if placeholder == "" {
		placeholder = "/placeholder.jpg"
	}
	return &Handler{
		places:         d.Places,
		weather:        d.Weather,
		access:         d.Access,
		favorites:      d.Favorites,
		cities:         d.Cities,
		placeholderURL: placeholder,
		healthConfig:   d.Health,
		logger:         logger,
	}
}

// SearchPlaces handles GET /places?q=&location=&type=.
func (h *Handler) SearchPlaces(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query, err := validation.ValidateQuery(q.Get("q"), queryMaxLength)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	location, err := optionalCity(q.Get("location"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	placeType, err := validation.NormalizePlaceType(q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	places, err := h.places.Search(r.Context(), service.SearchQuery{Query: query, Location: location, Type: placeType})
	if err != nil {
		logServiceError(r, "search places", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch places")
		return
	}
	if places == nil {
		places = []models.Place{}
	}
	writeJSON(w, http.StatusOK, places)
}

// GetPlace handles GET /places/{id}.
func (h *Handler) GetPlace(w http.ResponseWriter, r *http.Request) {
	id, err := validation.ValidatePlaceID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	details, err := h.places.Details(r.Context(), id)
	switch {
	case errors.Is(err, client.ErrNotFound):
		writeError(w, http.StatusNotFound, "Place not found")
	case err != nil:
		logServiceError(r, "place details", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch place details")
	default:
		writeJSON(w, http.StatusOK, details)
	}
}

// GetPhoto handles GET /photos/{reference}?maxwidth=. Any failure redirects to
// the placeholder image; this route never answers with an error body.
func (h *Handler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	ref, err := validation.ValidatePhotoReference(mux.Vars(r)["reference"])
	if err != nil {
		h.redirectToPlaceholder(w, r, err)
		return
	}
	maxWidth := validation.ParseMaxWidth(r.URL.Query().Get("maxwidth"))

	photo, err := h.places.Photo(r.Context(), ref, maxWidth)
	if err != nil {
		h.redirectToPlaceholder(w, r, err)
		return
	}
	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Cache-Control", PhotoCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(photo.Body)
}

func (h *Handler) redirectToPlaceholder(w http.ResponseWriter, r *http.Request, err error) {
	observability.LoggerFromContext(r.Context()).Debug("photo redirected to placeholder", zap.Error(err))
	http.Redirect(w, r, h.placeholderURL, http.StatusFound)
}

// GetWeather handles GET /weather?city=. A blank city means the default city.
func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	city, err := optionalCity(r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot, err := h.weather.Weather(r.Context(), city)
	if err != nil {
		logServiceError(r, "weather", err)
		writeError(w, http.StatusServiceUnavailable, "Weather unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type browseResponse struct {
	City          string         `json:"city"`
	Category      string         `json:"category"`
	Total         int            `json:"total"`
	Count         int            `json:"count"`
	ActiveFilters int            `json:"active_filters"`
	Filters       filter.Options `json:"filters"`
	Places        []models.Place `json:"places"`
}

// Browse handles GET /browse?city=&category=&q=&name=&rating=&open_now=&sort=.
// It reads through the cached access layer and always answers 200; malformed
// parameters fall back to their defaults.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logger := observability.LoggerFromContext(r.Context())

	city, err := optionalCity(q.Get("city"))
	if err != nil || city == "" {
		if err != nil {
			logger.Debug("browse city ignored", zap.Error(err))
		}
		city = h.cities.Default
	}
	category, err := validation.NormalizePlaceType(q.Get("category"))
	if err != nil {
		category = "all"
	}
	query, err := validation.ValidateQuery(q.Get("q"), queryMaxLength)
	if err != nil {
		query = ""
	}
	opts := filter.ParseOptions(q)

	all := h.access.SearchPlaces(r.Context(), query, city, category)
	shown := filter.Apply(all, opts)

	writeJSON(w, http.StatusOK, browseResponse{
		City:          city,
		Category:      category,
		Total:         len(all),
		Count:         len(shown),
		ActiveFilters: opts.ActiveCount(),
		Filters:       opts,
		Places:        shown,
	})
}

// ListCities handles GET /cities.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cities)
}

// ListCategories handles GET /categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, service.Categories())
}

// ListFavorites handles GET /favorites, newest first.
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	owner, ok := clientID(w, r)
	if !ok {
		return
	}
	list, err := h.favorites.List(r.Context(), owner)
	if err != nil {
		logServiceError(r, "list favorites", err)
		writeError(w, http.StatusInternalServerError, "Failed to load favorites")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type addFavoriteRequest struct {
	PlaceID      string `json:"place_id"`
	PlaceName    string `json:"place_name"`
	PlaceAddress string `json:"place_address"`
}

// AddFavorite handles POST /favorites. Saving the same place twice returns the first record.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	owner, ok := clientID(w, r)
	if !ok {
		return
	}
	var body addFavoriteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	placeID, err := validation.ValidatePlaceID(body.PlaceID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	fav := models.Favorite{
		OwnerID:      owner,
		PlaceID:      placeID,
		PlaceName:    strings.TrimSpace(body.PlaceName),
		PlaceAddress: strings.TrimSpace(body.PlaceAddress),
	}
	h.fillFavorite(r.Context(), &fav)

	fav, err = h.favorites.Add(r.Context(), fav)
	if err != nil {
		logServiceError(r, "add favorite", err)
		writeError(w, http.StatusInternalServerError, "Failed to save favorite")
		return
	}
	writeJSON(w, http.StatusCreated, fav)
}

// fillFavorite completes a missing name or address from the cached place
// details. An unknown place or provider failure leaves the fields as sent.
func (h *Handler) fillFavorite(ctx context.Context, fav *models.Favorite) {
	if h.access == nil || (fav.PlaceName != "" && fav.PlaceAddress != "") {
		return
	}
	details := h.access.PlaceDetails(ctx, fav.PlaceID)
	if details == nil {
		return
	}
	if fav.PlaceName == "" {
		fav.PlaceName = details.Name
	}
	if fav.PlaceAddress == "" {
		fav.PlaceAddress = details.FormattedAddress
	}
}

// GetFavorite handles GET /favorites/{id}: whether the client saved place id.
func (h *Handler) GetFavorite(w http.ResponseWriter, r *http.Request) {
	owner, ok := clientID(w, r)
	if !ok {
		return
	}
	placeID, err := validation.ValidatePlaceID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fav, err := h.favorites.IsFavorite(r.Context(), owner, placeID)
	if err != nil {
		logServiceError(r, "favorite lookup", err)
		writeError(w, http.StatusInternalServerError, "Failed to load favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"place_id": placeID, "favorite": fav})
}

// RemoveFavorite handles DELETE /favorites/{id}.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	owner, ok := clientID(w, r)
	if !ok {
		return
	}
	placeID, err := validation.ValidatePlaceID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = h.favorites.Remove(r.Context(), owner, placeID)
	switch {
	case errors.Is(err, favorites.ErrNotFound):
		writeError(w, http.StatusNotFound, "Favorite not found")
	case err != nil:
		logServiceError(r, "remove favorite", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove favorite")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// clientID reads X-Client-ID, writing 400 when it is missing or malformed.
func clientID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := validation.ValidateClientID(r.Header.Get("X-Client-ID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

// optionalCity validates a city parameter; blank passes through as "".
func optionalCity(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return validation.ValidateCity(raw, cityMinLength, cityMaxLength)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{
		"places":  h.places.BreakerState(),
		"weather": h.weather.BreakerState(),
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	resp := map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   "dev",
		"phase":     lifecycle.Phase(),
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if result.reason != "" {
		resp["reason"] = result.reason
	}
	if h.healthConfig != nil && !h.healthConfig.StartTime.IsZero() {
		resp["uptime_seconds"] = int64(time.Since(h.healthConfig.StartTime).Seconds())
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > open breaker > error rate breach > healthy.
// Mock-served providers are healthy; the service still answers.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.places.BreakerState() == "open" {
		return healthResult{"degraded", http.StatusServiceUnavailable, "places_circuit_open"}
	}
	if h.weather.BreakerState() == "open" {
		return healthResult{"degraded", http.StatusServiceUnavailable, "weather_circuit_open"}
	}
	if h.healthConfig != nil && h.healthConfig.Window > 0 && h.healthConfig.DegradedErrorPct > 0 {
		errs, total := traffic.ErrorRate(h.healthConfig.Window)
		if total > 0 && float64(errs)*100/float64(total) >= float64(h.healthConfig.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// logServiceError logs a failure at the handler boundary.
func logServiceError(r *http.Request, op string, err error) {
	logger := observability.LoggerFromContext(r.Context())
	level := logger.Error
	switch {
	case errors.Is(err, client.ErrConfigurationMissing):
		level = logger.Debug
	case errors.Is(err, client.ErrUpstreamUnavailable), errors.Is(err, context.DeadlineExceeded):
		level = logger.Warn
	}
	level(op+" failed",
		zap.String("category", string(client.CategorizeError(err))),
		zap.Error(err),
	)
}
