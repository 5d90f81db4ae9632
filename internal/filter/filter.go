// Package filter narrows and orders a place list the way the result view does.
// Everything here is pure: inputs are never mutated.
package filter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kjstillabower/city-guide-service/internal/models"
)

type Rating string

const (
	RatingAll    Rating = "all"
	RatingHigh   Rating = "high"   // >= 4.0
	RatingMedium Rating = "medium" // [3.0, 4.0)
	RatingLow    Rating = "low"    // < 3.0 or absent
)

type SortBy string

const (
	SortRelevance  SortBy = "relevance"
	SortRatingHigh SortBy = "rating_high"
	SortRatingLow  SortBy = "rating_low"
	SortName       SortBy = "name"
)

// Options is the filter state of a result view. The zero value behaves like Default().
type Options struct {
	NameSearch string `json:"name_search"`
	Rating     Rating `json:"rating"`
	OpenNow    bool   `json:"open_now"`
	SortBy     SortBy `json:"sort_by"`
}

// Default returns the cleared state: no name filter, all ratings, open or not, relevance order.
func Default() Options {
	return Options{Rating: RatingAll, SortBy: SortRelevance}
}

// Reset clears o back to Default.
func (o *Options) Reset() {
	*o = Default()
}

// ActiveCount reports how many options differ from Default.
func (o Options) ActiveCount() int {
	o = o.normalized()
	n := 0
	if o.NameSearch != "" {
		n++
	}
	if o.Rating != RatingAll {
		n++
	}
	if o.OpenNow {
		n++
	}
	if o.SortBy != SortRelevance {
		n++
	}
	return n
}

func (o Options) normalized() Options {
	o.NameSearch = strings.TrimSpace(o.NameSearch)
	switch o.Rating {
	case RatingHigh, RatingMedium, RatingLow:
	default:
		o.Rating = RatingAll
	}
	switch o.SortBy {
	case SortRatingHigh, SortRatingLow, SortName:
	default:
		o.SortBy = SortRelevance
	}
	return o
}

// ParseOptions reads name, rating, open_now and sort from query parameters.
// Unknown values fall back to their defaults.
func ParseOptions(v url.Values) Options {
	o := Options{
		NameSearch: v.Get("name"),
		Rating:     Rating(strings.ToLower(strings.TrimSpace(v.Get("rating")))),
		SortBy:     SortBy(strings.ToLower(strings.TrimSpace(v.Get("sort")))),
	}
	if raw := strings.TrimSpace(v.Get("open_now")); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			o.OpenNow = b
		} else if strings.EqualFold(raw, "on") {
			o.OpenNow = true
		}
	}
	return o.normalized()
}

// Apply narrows places by name, rating and open-now (in that order, AND
// semantics) and sorts last. Relevance keeps input order.
func Apply(places []models.Place, o Options) []models.Place {
	o = o.normalized()
	needle := strings.ToLower(o.NameSearch)

	out := make([]models.Place, 0, len(places))
	for _, p := range places {
		if needle != "" && !matchesName(p, needle) {
			continue
		}
		if !matchesRating(p, o.Rating) {
			continue
		}
		if o.OpenNow && !p.IsOpenNow() {
			continue
		}
		out = append(out, p)
	}

	switch o.SortBy {
	case SortRatingHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].RatingOrZero() > out[j].RatingOrZero() })
	case SortRatingLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].RatingOrZero() < out[j].RatingOrZero() })
	case SortName:
		sortByName(out)
	}
	return out
}

func matchesName(p models.Place, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(p.Name), lowerNeedle) ||
		strings.Contains(strings.ToLower(p.FormattedAddress), lowerNeedle)
}

func matchesRating(p models.Place, r Rating) bool {
	switch r {
	case RatingHigh:
		return p.Rating != nil && *p.Rating >= 4.0
	case RatingMedium:
		return p.Rating != nil && *p.Rating >= 3.0 && *p.Rating < 4.0
	case RatingLow:
		return p.Rating == nil || *p.Rating < 3.0
	}
	return true
}

// Collators keep internal buffers and are not safe for concurrent use.
var swedish = sync.Pool{
	New: func() any { return collate.New(language.Swedish) },
}

func sortByName(places []models.Place) {
	c := swedish.Get().(*collate.Collator)
	defer swedish.Put(c)
	sort.SliceStable(places, func(i, j int) bool {
		return c.CompareString(places[i].Name, places[j].Name) < 0
	})
}
