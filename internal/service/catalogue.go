package service

// Category is one entry of the category selector.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var categories = []Category{
	{Value: "all", Label: "Alla"},
	{Value: "restaurant", Label: "Restauranger & caféer"},
	{Value: "store", Label: "Butiker"},
	{Value: "tourist_attraction", Label: "Sevärdheter"},
}

// Categories returns the category selector values in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CityList is the response of the city selector.
type CityList struct {
	Default string   `json:"default"`
	Cities  []string `json:"cities"`
}

// NewCityList puts defaultCity first and drops duplicates.
func NewCityList(defaultCity string, cities []string) CityList {
	seen := map[string]bool{defaultCity: true}
	out := []string{defaultCity}
	for _, c := range cities {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return CityList{Default: defaultCity, Cities: out}
}
