package filter

import (
	"net/url"
	"testing"

	"github.com/kjstillabower/city-guide-service/internal/models"
)

func place(id, name, addr string, rating *float64, open *bool) models.Place {
	p := models.Place{PlaceID: id, Name: name, FormattedAddress: addr, Rating: rating}
	if open != nil {
		p.OpeningHours = &models.OpeningHours{OpenNow: open}
	}
	return p
}

func mixed() []models.Place {
	return []models.Place{
		place("1", "Pizzeria Napoli", "Storgatan 1, Karlstad", models.Float64(3.8), models.Bool(true)),
		place("2", "Café Ängel", "Torget 2, Karlstad", models.Float64(4.6), models.Bool(false)),
		place("3", "Bryggan", "Pizzagränd 3, Karlstad", nil, nil),
		place("4", "Pizza Hut", "Drottninggatan 4, Karlstad", models.Float64(4.2), models.Bool(true)),
		place("5", "Åsa Bokhandel", "Västra Torggatan 5, Karlstad", models.Float64(2.9), models.Bool(true)),
	}
}

func ids(places []models.Place) []string {
	out := make([]string, len(places))
	for i, p := range places {
		out[i] = p.PlaceID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestApply_PizzaByRating filters a mixed list by name or address and sorts
// by rating with missing ratings last.
func TestApply_PizzaByRating(t *testing.T) {
	got := Apply(mixed(), Options{NameSearch: "pizza", Rating: RatingAll, SortBy: SortRatingHigh})
	want := []string{"4", "1", "3"}
	if !equal(ids(got), want) {
		t.Errorf("Apply() = %v, want %v", ids(got), want)
	}
}

func TestApply_Rating(t *testing.T) {
	tests := []struct {
		rating Rating
		want   []string
	}{
		{RatingAll, []string{"1", "2", "3", "4", "5"}},
		{RatingHigh, []string{"2", "4"}},
		{RatingMedium, []string{"1"}},
		{RatingLow, []string{"3", "5"}},
		{Rating("bogus"), []string{"1", "2", "3", "4", "5"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.rating), func(t *testing.T) {
			got := Apply(mixed(), Options{Rating: tt.rating})
			if !equal(ids(got), tt.want) {
				t.Errorf("Apply(rating=%s) = %v, want %v", tt.rating, ids(got), tt.want)
			}
		})
	}
}

func TestApply_RatingBoundaries(t *testing.T) {
	in := []models.Place{
		place("a", "A", "", models.Float64(4.0), nil),
		place("b", "B", "", models.Float64(3.0), nil),
		place("c", "C", "", models.Float64(2.99), nil),
	}
	if got := ids(Apply(in, Options{Rating: RatingHigh})); !equal(got, []string{"a"}) {
		t.Errorf("high = %v", got)
	}
	if got := ids(Apply(in, Options{Rating: RatingMedium})); !equal(got, []string{"b"}) {
		t.Errorf("medium = %v", got)
	}
	if got := ids(Apply(in, Options{Rating: RatingLow})); !equal(got, []string{"c"}) {
		t.Errorf("low = %v", got)
	}
}

func TestApply_OpenNowRequiresTrue(t *testing.T) {
	got := Apply(mixed(), Options{OpenNow: true})
	for _, p := range got {
		if !p.IsOpenNow() {
			t.Errorf("place %s kept but not open", p.PlaceID)
		}
	}
	if want := []string{"1", "4", "5"}; !equal(ids(got), want) {
		t.Errorf("Apply(open_now) = %v, want %v", ids(got), want)
	}
}

func TestApply_NameSearch(t *testing.T) {
	tests := []struct {
		name, search string
		want         []string
	}{
		{"case insensitive", "PIZZ", []string{"1", "3", "4"}},
		{"trimmed", "  ängel ", []string{"2"}},
		{"address match", "västra", []string{"5"}},
		{"blank matches all", "   ", []string{"1", "2", "3", "4", "5"}},
		{"no match", "sushi", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(mixed(), Options{NameSearch: tt.search})
			if !equal(ids(got), tt.want) {
				t.Errorf("Apply(%q) = %v, want %v", tt.search, ids(got), tt.want)
			}
		})
	}
}

func TestApply_SortRatingLow(t *testing.T) {
	got := Apply(mixed(), Options{SortBy: SortRatingLow})
	want := []string{"3", "5", "1", "4", "2"}
	if !equal(ids(got), want) {
		t.Errorf("Apply(rating_low) = %v, want %v", ids(got), want)
	}
}

// TestApply_SortName uses Swedish order, where Å and Ä sort after Z.
func TestApply_SortName(t *testing.T) {
	in := []models.Place{
		place("1", "Östra Bageriet", "", nil, nil),
		place("2", "Ängeln", "", nil, nil),
		place("3", "Zorba", "", nil, nil),
		place("4", "Åkes", "", nil, nil),
		place("5", "Bryggan", "", nil, nil),
	}
	got := Apply(in, Options{SortBy: SortName})
	want := []string{"5", "3", "4", "2", "1"}
	if !equal(ids(got), want) {
		t.Fatalf("Apply(name) = %v, want %v", ids(got), want)
	}
	again := Apply(got, Options{SortBy: SortName})
	if !equal(ids(again), want) {
		t.Errorf("sorting twice = %v, want %v", ids(again), want)
	}
}

func TestApply_RelevanceKeepsOrderAndInput(t *testing.T) {
	in := mixed()
	before := ids(in)
	got := Apply(in, Options{SortBy: SortRatingHigh})
	if !equal(ids(in), before) {
		t.Errorf("input mutated: %v, want %v", ids(in), before)
	}
	if got := Apply(in, Default()); !equal(ids(got), before) {
		t.Errorf("relevance = %v, want %v", ids(got), before)
	}
	if len(got) != len(in) {
		t.Errorf("sort dropped places: %d", len(got))
	}
	if out := Apply(nil, Default()); out == nil || len(out) != 0 {
		t.Errorf("Apply(nil) = %v, want empty slice", out)
	}
}

func TestOptions_ActiveCountAndReset(t *testing.T) {
	o := Options{NameSearch: "pizza", Rating: RatingHigh, OpenNow: true, SortBy: SortName}
	if n := o.ActiveCount(); n != 4 {
		t.Errorf("ActiveCount() = %d, want 4", n)
	}
	o.Reset()
	if o != Default() || o.ActiveCount() != 0 {
		t.Errorf("after Reset() = %+v (active %d)", o, o.ActiveCount())
	}
	if n := (Options{}).ActiveCount(); n != 0 {
		t.Errorf("zero Options ActiveCount() = %d, want 0", n)
	}
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		query string
		want  Options
	}{
		{"", Default()},
		{"name=pizza&rating=HIGH&open_now=true&sort=rating_high", Options{NameSearch: "pizza", Rating: RatingHigh, OpenNow: true, SortBy: SortRatingHigh}},
		{"open_now=on&sort=name", Options{Rating: RatingAll, OpenNow: true, SortBy: SortName}},
		{"rating=superb&sort=random&open_now=maybe", Default()},
		{"name=+%20kaffe+", Options{NameSearch: "kaffe", Rating: RatingAll, SortBy: SortRelevance}},
	}
	for _, tt := range tests {
		v, err := url.ParseQuery(tt.query)
		if err != nil {
			t.Fatal(err)
		}
		if got := ParseOptions(v); got != tt.want {
			t.Errorf("ParseOptions(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}
