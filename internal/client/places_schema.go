package client

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kjstillabower/city-guide-service/internal/models"
)

// Upstream statuses the places provider reports in the body of a 200 response.
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusNotFound       = "NOT_FOUND"
	statusInvalidRequest = "INVALID_REQUEST"
)

// MaxDetailItems bounds reviews and photos kept on a details response.
const MaxDetailItems = 5

var schemaValidator = validator.New(validator.WithRequiredStructEnabled())

type textSearchResponse struct {
	Results      []placeResult `json:"results"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
}

type detailsResponse struct {
	Result       *placeResult `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
}

// placeResult is the provider's place shape. Required fields are checked with
// validate before mapping; everything else is optional and stays nil when absent.
// Photos and reviews are not validated as a whole: toPlace and toDetails skip
// the unusable ones so a single bad item cannot drop the place.
type placeResult struct {
	PlaceID                  string                    `json:"place_id" validate:"required"`
	Name                     string                    `json:"name" validate:"required"`
	FormattedAddress         string                    `json:"formatted_address"`
	Rating                   *float64                  `json:"rating" validate:"omitempty,gte=0,lte=5"`
	PriceLevel               *int                      `json:"price_level" validate:"omitempty,gte=0,lte=4"`
	Types                    []string                  `json:"types"`
	OpeningHours             *upstreamOpeningHours     `json:"opening_hours"`
	CurrentOpeningHours      *upstreamCurrentHours     `json:"current_opening_hours"`
	Geometry                 *upstreamGeometry         `json:"geometry" validate:"required"`
	Website                  string                    `json:"website"`
	FormattedPhoneNumber     string                    `json:"formatted_phone_number"`
	InternationalPhoneNumber string                    `json:"international_phone_number"`
	Photos                   []upstreamPhoto           `json:"photos"`
	Reviews                  []upstreamReview          `json:"reviews"`
	EditorialSummary         *upstreamEditorialSummary `json:"editorial_summary"`
}

type upstreamGeometry struct {
	Location *upstreamLocation `json:"location" validate:"required"`
}

type upstreamLocation struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

type upstreamOpeningHours struct {
	OpenNow     *bool    `json:"open_now"`
	WeekdayText []string `json:"weekday_text"`
}

type upstreamCurrentHours struct {
	OpenNow     *bool            `json:"open_now"`
	WeekdayText []string         `json:"weekday_text"`
	Periods     []upstreamPeriod `json:"periods"`
}

type upstreamPeriod struct {
	Open  *upstreamDayTime `json:"open"`
	Close *upstreamDayTime `json:"close"`
}

type upstreamDayTime struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

type upstreamPhoto struct {
	PhotoReference string `json:"photo_reference"`
	Height         int    `json:"height"`
	Width          int    `json:"width"`
}

type upstreamReview struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}

type upstreamEditorialSummary struct {
	Overview string `json:"overview"`
}

func (r placeResult) check() error {
	return schemaValidator.Struct(r)
}

// toPlace maps the list-view fields, keeping at most maxPhotos photos that
// carry a reference.
func (r placeResult) toPlace(maxPhotos int) models.Place {
	p := models.Place{
		PlaceID:                  r.PlaceID,
		Name:                     r.Name,
		FormattedAddress:         r.FormattedAddress,
		Rating:                   r.Rating,
		PriceLevel:               r.PriceLevel,
		Types:                    r.Types,
		Website:                  r.Website,
		FormattedPhoneNumber:     r.FormattedPhoneNumber,
		InternationalPhoneNumber: r.InternationalPhoneNumber,
	}
	if p.Types == nil {
		p.Types = []string{}
	}
	if r.Geometry != nil && r.Geometry.Location != nil {
		p.Geometry = models.Geometry{Location: models.Location{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng}}
	}
	if r.OpeningHours != nil {
		p.OpeningHours = &models.OpeningHours{OpenNow: r.OpeningHours.OpenNow, WeekdayText: r.OpeningHours.WeekdayText}
	}
	for _, ph := range r.Photos {
		if len(p.Photos) >= maxPhotos {
			break
		}
		if strings.TrimSpace(ph.PhotoReference) == "" {
			continue
		}
		p.Photos = append(p.Photos, models.Photo{PhotoReference: ph.PhotoReference, Height: ph.Height, Width: ph.Width})
	}
	return p
}

func (r placeResult) toDetails() models.PlaceDetails {
	d := models.PlaceDetails{Place: r.toPlace(MaxDetailItems)}
	for _, rv := range r.Reviews {
		if len(d.Reviews) >= MaxDetailItems {
			break
		}
		if rv.Rating < 0 || rv.Rating > 5 {
			continue
		}
		d.Reviews = append(d.Reviews, models.Review{AuthorName: rv.AuthorName, Rating: rv.Rating, Text: rv.Text, Time: rv.Time})
	}
	if r.EditorialSummary != nil {
		d.EditorialSummary = &models.EditorialSummary{Overview: r.EditorialSummary.Overview}
	}
	if r.CurrentOpeningHours != nil {
		c := &models.CurrentOpeningHours{OpenNow: r.CurrentOpeningHours.OpenNow, WeekdayText: r.CurrentOpeningHours.WeekdayText}
		for _, per := range r.CurrentOpeningHours.Periods {
			c.Periods = append(c.Periods, models.Period{Open: dayTime(per.Open), Close: dayTime(per.Close)})
		}
		d.CurrentOpeningHours = c
	}
	return d
}

func dayTime(dt *upstreamDayTime) *models.DayTime {
	if dt == nil {
		return nil
	}
	return &models.DayTime{Day: dt.Day, Time: dt.Time}
}
