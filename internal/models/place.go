package models

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Geometry struct {
	Location Location `json:"location"`
}

// OpeningHours holds the open-now flag and human readable weekly lines.
// OpenNow is a pointer because upstream omits it for places without hours.
type OpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Photo is an opaque upstream photo reference with pixel dimensions.
type Photo struct {
	PhotoReference string `json:"photo_reference"`
	Height         int    `json:"height"`
	Width          int    `json:"width"`
}

// Place is one directory entry as shown in list views.
type Place struct {
	PlaceID                  string        `json:"place_id"`
	Name                     string        `json:"name"`
	FormattedAddress         string        `json:"formatted_address"`
	Rating                   *float64      `json:"rating,omitempty"`
	PriceLevel               *int          `json:"price_level,omitempty"`
	Types                    []string      `json:"types"`
	OpeningHours             *OpeningHours `json:"opening_hours,omitempty"`
	Geometry                 Geometry      `json:"geometry"`
	Website                  string        `json:"website,omitempty"`
	FormattedPhoneNumber     string        `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string        `json:"international_phone_number,omitempty"`
	Photos                   []Photo       `json:"photos,omitempty"`
}

// IsOpenNow reports whether the place is known to be open right now.
// Unknown and closed are both false.
func (p Place) IsOpenNow() bool {
	return p.OpeningHours != nil && p.OpeningHours.OpenNow != nil && *p.OpeningHours.OpenNow
}

// RatingOrZero returns the rating, treating an absent rating as 0.
func (p Place) RatingOrZero() float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

type Review struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Text       string `json:"text"`
	Time       int64  `json:"time"`
}

type EditorialSummary struct {
	Overview string `json:"overview,omitempty"`
}

// DayTime is one end of an opening period; Time is "HHMM".
type DayTime struct {
	Day  int    `json:"day"`
	Time string `json:"time"`
}

type Period struct {
	Open  *DayTime `json:"open,omitempty"`
	Close *DayTime `json:"close,omitempty"`
}

type CurrentOpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
	Periods     []Period `json:"periods,omitempty"`
}

// PlaceDetails extends Place with the fields only the detail page needs.
type PlaceDetails struct {
	Place
	Reviews             []Review             `json:"reviews,omitempty"`
	EditorialSummary    *EditorialSummary    `json:"editorial_summary,omitempty"`
	CurrentOpeningHours *CurrentOpeningHours `json:"current_opening_hours,omitempty"`
}

// Float64 and Int return pointers for optional fields.
func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func Bool(v bool) *bool { return &v }
