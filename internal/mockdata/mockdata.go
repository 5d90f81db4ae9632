// Package mockdata is the curated fallback dataset served when no places
// provider key is configured or demo mode is on.
package mockdata

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kjstillabower/city-guide-service/internal/models"
)

// DefaultCity is the city the mock dataset describes and the default search location.
const DefaultCity = "Karlstad"

// PhotoPrefix marks photo references that only exist in the mock dataset.
const PhotoPrefix = "mock_photo_"

// DetailPrefixes is the fixed set of id prefixes resolvable by PlaceDetails.
// Ids that match none of them get a generic filler record.
var DetailPrefixes = []string{
	"mock_restaurant",
	"mock_cafe",
	"mock_store",
	"mock_attraction",
	"mock_park",
}

// categoryTags widens a category selector value to the tags it covers.
var categoryTags = map[string][]string{
	"restaurant":         {"restaurant", "cafe", "bakery", "bar", "food", "meal_takeaway"},
	"store":              {"store", "shopping_mall", "book_store", "clothing_store", "supermarket"},
	"tourist_attraction": {"tourist_attraction", "museum", "park", "church"},
}

var places = []models.Place{
	{
		PlaceID:          "mock_restaurant_1",
		Name:             "Restaurang Bryggan",
		FormattedAddress: "Hamngatan 5, 652 24 Karlstad, Sverige",
		Rating:           models.Float64(4.4),
		PriceLevel:       models.Int(2),
		Types:            []string{"restaurant", "food", "point_of_interest", "establishment"},
		OpeningHours:     &models.OpeningHours{OpenNow: models.Bool(true)},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3783, Lng: 13.4990}},
		Website:          "https://example.se/bryggan",
		Photos:           []models.Photo{{PhotoReference: PhotoPrefix + "restaurant_1", Height: 800, Width: 1200}},
	},
	{
		PlaceID:          "mock_cafe_1",
		Name:             "Café Artisan",
		FormattedAddress: "Västra Torggatan 12, 652 25 Karlstad, Sverige",
		Rating:           models.Float64(4.6),
		PriceLevel:       models.Int(1),
		Types:            []string{"cafe", "food", "point_of_interest", "establishment"},
		OpeningHours:     &models.OpeningHours{OpenNow: models.Bool(true)},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3802, Lng: 13.5012}},
		Photos:           []models.Photo{{PhotoReference: PhotoPrefix + "cafe_1", Height: 900, Width: 1200}},
	},
	{
		PlaceID:          "mock_cafe_2",
		Name:             "Tösse Konditori",
		FormattedAddress: "Tingvallagatan 8, 652 24 Karlstad, Sverige",
		Rating:           models.Float64(4.2),
		PriceLevel:       models.Int(1),
		Types:            []string{"bakery", "cafe", "food", "establishment"},
		OpeningHours:     &models.OpeningHours{OpenNow: models.Bool(false)},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3811, Lng: 13.5049}},
	},
	{
		PlaceID:          "mock_restaurant_2",
		Name:             "Pizzeria Napoli",
		FormattedAddress: "Drottninggatan 20, 652 25 Karlstad, Sverige",
		Rating:           models.Float64(3.8),
		PriceLevel:       models.Int(1),
		Types:            []string{"restaurant", "meal_takeaway", "food", "establishment"},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3797, Lng: 13.5071}},
	},
	{
		PlaceID:          "mock_cafe_3",
		Name:             "Kaffe & Kanel",
		FormattedAddress: "Kungsgatan 3, 652 24 Karlstad, Sverige",
		Types:            []string{"cafe", "food", "establishment"},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3789, Lng: 13.5025}},
	},
	{
		PlaceID:          "mock_store_1",
		Name:             "Mitt i City Galleria",
		FormattedAddress: "Östra Torggatan 9, 652 24 Karlstad, Sverige",
		Rating:           models.Float64(4.0),
		Types:            []string{"shopping_mall", "store", "point_of_interest", "establishment"},
		OpeningHours:     &models.OpeningHours{OpenNow: models.Bool(true)},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3795, Lng: 13.5040}},
		Photos:           []models.Photo{{PhotoReference: PhotoPrefix + "store_1", Height: 768, Width: 1024}},
	},
	{
		PlaceID:          "mock_store_2",
		Name:             "Bokhandeln vid Stora torget",
		FormattedAddress: "Stora torget 1, 652 24 Karlstad, Sverige",
		Rating:           models.Float64(2.7),
		Types:            []string{"book_store", "store", "establishment"},
		OpeningHours:     &models.OpeningHours{OpenNow: models.Bool(false)},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3806, Lng: 13.5033}},
	},
	{
		PlaceID:          "mock_attraction_1",
		Name:             "Sandgrund Lars Lerin",
		FormattedAddress: "Sandgrundsudden, 652 21 Karlstad, Sverige",
		Rating:           models.Float64(4.7),
		Types:            []string{"museum", "tourist_attraction", "point_of_interest"},
		OpeningHours:     &models.OpeningHours{OpenNow: models.Bool(true)},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3757, Lng: 13.4960}},
		Website:          "https://example.se/sandgrund",
		Photos:           []models.Photo{{PhotoReference: PhotoPrefix + "attraction_1", Height: 1000, Width: 1500}},
	},
	{
		PlaceID:          "mock_attraction_2",
		Name:             "Karlstads domkyrka",
		FormattedAddress: "Kyrkogatan 4, 652 24 Karlstad, Sverige",
		Rating:           models.Float64(4.3),
		Types:            []string{"church", "tourist_attraction", "place_of_worship"},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3810, Lng: 13.5057}},
	},
	{
		PlaceID:          "mock_park_1",
		Name:             "Mariebergsskogen",
		FormattedAddress: "Långövägen, 652 26 Karlstad, Sverige",
		Rating:           models.Float64(4.5),
		Types:            []string{"park", "tourist_attraction", "point_of_interest"},
		OpeningHours:     &models.OpeningHours{OpenNow: models.Bool(true)},
		Geometry:         models.Geometry{Location: models.Location{Lat: 59.3712, Lng: 13.4887}},
	},
}

var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases and strips diacritics so "café" matches the "cafe" tag.
func fold(s string) string {
	out, _, err := transform.String(folder, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Places returns a copy of the whole mock dataset in curated order.
func Places() []models.Place {
	out := make([]models.Place, len(places))
	copy(out, places)
	return out
}

// SearchPlaces filters the curated list the way the upstream search would:
// placeType narrows by category ("" and "all" keep everything) and query
// matches name or any type tag, case- and accent-insensitively.
func SearchPlaces(query, placeType string) []models.Place {
	q := fold(strings.TrimSpace(query))
	out := make([]models.Place, 0, len(places))
	for _, p := range places {
		if !matchesType(p, placeType) {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesType(p models.Place, placeType string) bool {
	placeType = strings.TrimSpace(placeType)
	if placeType == "" || placeType == "all" {
		return true
	}
	tags, ok := categoryTags[placeType]
	if !ok {
		tags = []string{placeType}
	}
	for _, t := range p.Types {
		for _, want := range tags {
			if t == want {
				return true
			}
		}
	}
	return false
}

func matchesQuery(p models.Place, foldedQuery string) bool {
	if strings.Contains(fold(p.Name), foldedQuery) {
		return true
	}
	for _, t := range p.Types {
		if strings.Contains(fold(t), foldedQuery) {
			return true
		}
	}
	return false
}

// PlaceDetails resolves a mock record for id: an exact mock id first, then the
// first documented prefix match, and otherwise a generic filler record. The
// returned record always carries the requested id.
func PlaceDetails(id string) models.PlaceDetails {
	for _, p := range places {
		if p.PlaceID == id {
			return detailsFor(p)
		}
	}
	for _, prefix := range DetailPrefixes {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		for _, p := range places {
			if strings.HasPrefix(p.PlaceID, prefix) {
				d := detailsFor(p)
				d.PlaceID = id
				return d
			}
		}
	}
	return filler(id)
}

func detailsFor(p models.Place) models.PlaceDetails {
	d := models.PlaceDetails{Place: p}
	d.FormattedPhoneNumber = "054-12 34 56"
	d.InternationalPhoneNumber = "+46 54 12 34 56"
	if p.OpeningHours != nil {
		hours := *p.OpeningHours
		hours.WeekdayText = weekdayText
		d.OpeningHours = &hours
		d.CurrentOpeningHours = &models.CurrentOpeningHours{
			OpenNow:     hours.OpenNow,
			WeekdayText: weekdayText,
			Periods:     weekdayPeriods(),
		}
	}
	d.EditorialSummary = &models.EditorialSummary{Overview: p.Name + " är ett populärt besöksmål i centrala " + DefaultCity + "."}
	d.Reviews = []models.Review{
		{AuthorName: "Anna L.", Rating: 5, Text: "Fantastiskt ställe, kommer gärna tillbaka!", Time: 1717171717},
		{AuthorName: "Erik S.", Rating: 4, Text: "Trevlig personal och bra läge.", Time: 1714141414},
	}
	return d
}

func filler(id string) models.PlaceDetails {
	return models.PlaceDetails{
		Place: models.Place{
			PlaceID:          id,
			Name:             "Okänd plats",
			FormattedAddress: DefaultCity + ", Sverige",
			Types:            []string{"point_of_interest"},
			Geometry:         models.Geometry{Location: models.Location{Lat: 59.3793, Lng: 13.5036}},
		},
		EditorialSummary: &models.EditorialSummary{Overview: "Det finns ingen detaljerad information om den här platsen i demoläget."},
	}
}

var weekdayText = []string{
	"måndag: 10:00–18:00",
	"tisdag: 10:00–18:00",
	"onsdag: 10:00–18:00",
	"torsdag: 10:00–18:00",
	"fredag: 10:00–19:00",
	"lördag: 10:00–16:00",
	"söndag: Stängt",
}

// weekdayPeriods matches weekdayText; day 0 is Sunday as upstream counts.
func weekdayPeriods() []models.Period {
	periods := make([]models.Period, 0, 6)
	for day := 1; day <= 6; day++ {
		closeAt := "1800"
		switch day {
		case 5:
			closeAt = "1900"
		case 6:
			closeAt = "1600"
		}
		periods = append(periods, models.Period{
			Open:  &models.DayTime{Day: day, Time: "1000"},
			Close: &models.DayTime{Day: day, Time: closeAt},
		})
	}
	return periods
}

// IsMockPhoto reports whether ref points into the mock dataset.
func IsMockPhoto(ref string) bool {
	return strings.HasPrefix(ref, PhotoPrefix)
}

// Weather returns the demo-mode weather snapshot for city.
func Weather(city string) models.WeatherSnapshot {
	city = strings.TrimSpace(city)
	if city == "" {
		city = DefaultCity
	}
	return models.WeatherSnapshot{
		Location:    city,
		Temperature: 12,
		Description: "lätt molnighet",
		Icon:        "02d",
		Humidity:    71,
		WindSpeed:   3.6,
		FeelsLike:   10,
	}
}
