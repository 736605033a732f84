package weather

// WMOCondition is the display form of a WMO weather interpretation code.
type WMOCondition struct {
	Desc string
	Icon string
}

var conditions = map[int]WMOCondition{
	0:  {"Clear sky", "☀️"},
	1:  {"Mainly clear", "🌤️"},
	2:  {"Partly cloudy", "⛅"},
	3:  {"Overcast", "☁️"},
	45: {"Fog", "🌫️"},
	48: {"Fog", "🌫️"},
	51: {"Drizzle", "🌦️"},
	53: {"Drizzle", "🌦️"},
	55: {"Drizzle", "🌦️"},
	56: {"Freezing drizzle", "🌧️"},
	57: {"Freezing drizzle", "🌧️"},
	61: {"Rain", "🌧️"},
	63: {"Rain", "🌧️"},
	65: {"Heavy rain", "🌧️"},
	66: {"Freezing rain", "🌧️"},
	67: {"Freezing rain", "🌧️"},
	71: {"Snow", "🌨️"},
	73: {"Snow", "🌨️"},
	75: {"Heavy snow", "❄️"},
	77: {"Snow grains", "🌨️"},
	80: {"Rain showers", "🌦️"},
	81: {"Rain showers", "🌦️"},
	82: {"Violent showers", "⛈️"},
	85: {"Snow showers", "🌨️"},
	86: {"Snow showers", "🌨️"},
	95: {"Thunderstorm", "⛈️"},
	96: {"Thunderstorm with hail", "⛈️"},
	99: {"Thunderstorm with hail", "⛈️"},
}

// Condition maps a WMO code. Unknown codes come back as "Unknown".
func Condition(code int) WMOCondition {
	if c, ok := conditions[code]; ok {
		return c
	}
	return WMOCondition{Desc: "Unknown", Icon: "🌡️"}
}
