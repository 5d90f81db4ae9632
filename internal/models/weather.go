package models

// WeatherSnapshot is the current weather for a city as shown by the weather widget.
type WeatherSnapshot struct {
	Location    string  `json:"location"`
	Temperature int     `json:"temperature"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	FeelsLike   int     `json:"feelsLike"`
}
