package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kjstillabower/city-guide-service/internal/models"
	"github.com/kjstillabower/city-guide-service/internal/observability"
)

// ProviderPlaces is the provider label used in metrics and breaker names.
const ProviderPlaces = "places"

// DefaultPlacesURL is the places provider base URL; endpoints are appended as path segments.
const DefaultPlacesURL = "https://maps.googleapis.com/maps/api/place"

const defaultPhotoContentType = "image/jpeg"

// detailFields is the field mask requested for place details.
var detailFields = []string{
	"place_id", "name", "formatted_address", "rating", "price_level", "types",
	"opening_hours", "current_opening_hours", "geometry", "website",
	"formatted_phone_number", "international_phone_number", "reviews",
	"editorial_summary", "photos",
}

// TextSearchRequest is one upstream text search. Query is already composed
// ("<q> in <location>"); Type is sent only when set.
type TextSearchRequest struct {
	Query string
	Type  string
}

// PhotoData is an upstream image passed through untouched.
type PhotoData struct {
	Body        []byte
	ContentType string
}

type PlacesClient interface {
	TextSearch(ctx context.Context, req TextSearchRequest) ([]models.Place, error)
	Details(ctx context.Context, placeID string) (models.PlaceDetails, error)
	Photo(ctx context.Context, reference string, maxWidth int) (PhotoData, error)
	BreakerState() string
}

// GooglePlacesClient talks to a Google Places style web service.
type GooglePlacesClient struct {
	apiKey  string
	baseURL string
	*fetcher
}

func NewGooglePlacesClient(apiKey, baseURL string, timeout time.Duration, bc BreakerConfig) (*GooglePlacesClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: places API key is required", ErrConfigurationMissing)
	}
	if baseURL == "" {
		baseURL = DefaultPlacesURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid places API URL: %w", err)
	}
	return &GooglePlacesClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: newFetcher(ProviderPlaces, timeout, bc),
	}, nil
}

func (c *GooglePlacesClient) endpoint(path string, params url.Values) string {
	params.Set("key", c.apiKey)
	return c.baseURL + "/" + path + "?" + params.Encode()
}

// TextSearch returns results in upstream relevance order, keeping one photo per place.
// Results that fail schema validation are dropped and logged.
func (c *GooglePlacesClient) TextSearch(ctx context.Context, req TextSearchRequest) ([]models.Place, error) {
	params := url.Values{}
	params.Set("query", req.Query)
	params.Set("language", "sv")
	params.Set("region", "se")
	if req.Type != "" {
		params.Set("type", req.Type)
	}

	resp, err := c.get(ctx, c.endpoint("textsearch/json", params))
	if err != nil {
		return nil, err
	}

	var body textSearchResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return nil, c.rejected(fmt.Errorf("%w: parse text search response: %v", ErrUpstreamRejected, err))
	}
	if body.ErrorMessage != "" || (body.Status != statusOK && body.Status != statusZeroResults) {
		return nil, c.rejected(fmt.Errorf("%w: text search status %s: %s", ErrUpstreamRejected, body.Status, body.ErrorMessage))
	}

	logger := observability.LoggerFromContext(ctx)
	places := make([]models.Place, 0, len(body.Results))
	for i, r := range body.Results {
		if err := r.check(); err != nil {
			observability.UpstreamSchemaRejectsTotal.WithLabelValues(c.provider).Inc()
			logger.Warn("dropping invalid search result",
				zap.Int("index", i),
				zap.String("place_id", r.PlaceID),
				zap.Error(err),
			)
			continue
		}
		places = append(places, r.toPlace(1))
	}
	return places, nil
}

// Details fetches the full record for placeID. An unknown id is ErrNotFound.
func (c *GooglePlacesClient) Details(ctx context.Context, placeID string) (models.PlaceDetails, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", strings.Join(detailFields, ","))
	params.Set("language", "sv")
	params.Set("region", "se")

	resp, err := c.get(ctx, c.endpoint("details/json", params))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.PlaceDetails{}, fmt.Errorf("%w: place %s", ErrNotFound, placeID)
		}
		return models.PlaceDetails{}, err
	}

	var body detailsResponse
	if err := json.Unmarshal(resp.body, &body); err != nil {
		return models.PlaceDetails{}, c.rejected(fmt.Errorf("%w: parse details response: %v", ErrUpstreamRejected, err))
	}
	switch body.Status {
	case statusOK:
	case statusNotFound, statusZeroResults, statusInvalidRequest:
		return models.PlaceDetails{}, fmt.Errorf("%w: place %s", ErrNotFound, placeID)
	default:
		return models.PlaceDetails{}, c.rejected(fmt.Errorf("%w: details status %s: %s", ErrUpstreamRejected, body.Status, body.ErrorMessage))
	}
	if body.Result == nil {
		return models.PlaceDetails{}, fmt.Errorf("%w: place %s", ErrNotFound, placeID)
	}
	if err := body.Result.check(); err != nil {
		observability.UpstreamSchemaRejectsTotal.WithLabelValues(c.provider).Inc()
		return models.PlaceDetails{}, c.rejected(fmt.Errorf("%w: invalid details payload: %v", ErrUpstreamRejected, err))
	}
	return body.Result.toDetails(), nil
}

// Photo fetches image bytes for reference scaled to maxWidth by the provider.
func (c *GooglePlacesClient) Photo(ctx context.Context, reference string, maxWidth int) (PhotoData, error) {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photo_reference", reference)

	resp, err := c.get(ctx, c.endpoint("photo", params))
	if err != nil {
		return PhotoData{}, err
	}
	if len(resp.body) == 0 {
		err := fmt.Errorf("%w: empty photo body", ErrUpstreamUnavailable)
		c.countError(err)
		return PhotoData{}, err
	}
	contentType := resp.contentType
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = defaultPhotoContentType
	}
	return PhotoData{Body: resp.body, ContentType: contentType}, nil
}

// rejected counts a provider-level rejection; transport failures are counted by the fetcher.
func (c *GooglePlacesClient) rejected(err error) error {
	c.countError(err)
	return err
}
