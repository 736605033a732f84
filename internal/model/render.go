package model

// RenderSource names which input a RenderModel was built from.
type RenderSource string

const (
	SourceDraft RenderSource = "draft"
	SourceEvent RenderSource = "event"
)

// RenderModel is the display-ready shape shared by the editor preview and the
// immersive preview. It is built on demand and never stored.
type RenderModel struct {
	Title           string        `json:"title"`
	FormattedDate   string        `json:"formattedDate"`
	Time            string        `json:"time"`
	Location        string        `json:"location"`
	Description     string        `json:"description"`
	Background      Background    `json:"background"`
	BackgroundStyle string        `json:"backgroundStyle"`
	Source          RenderSource  `json:"source"`
	EventID         string        `json:"eventId,omitempty"`
	Host            *Host         `json:"host,omitempty"`
	GuestSummary    *GuestSummary `json:"guestSummary,omitempty"`
	Weather         *Weather      `json:"weather,omitempty"`
}

// Weather is the forecast shown beside an event. Forecast is false when the
// values are the placeholder rather than a real forecast.
type Weather struct {
	Temp      string  `json:"temp"`
	Condition string  `json:"condition"`
	Icon      string  `json:"icon,omitempty"`
	High      float64 `json:"high,omitempty"`
	Low       float64 `json:"low,omitempty"`
	Forecast  bool    `json:"forecast"`
}

// PlaceholderWeather is shown when no forecast is available for the date.
func PlaceholderWeather() Weather {
	return Weather{Temp: "75°F", Condition: "Sunny", Icon: "☀️"}
}
