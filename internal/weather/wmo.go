package weather

// condition is a rendered weather state: human label plus icon name.
type condition struct {
	Label string
	Icon  string
}

// wmoConditions maps WMO weather interpretation codes to display conditions.
var wmoConditions = map[int]condition{
	0:  {"Clear", "sun"},
	1:  {"Mostly Clear", "sun"},
	2:  {"Partly Cloudy", "cloud-sun"},
	3:  {"Overcast", "cloud"},
	45: {"Fog", "fog"},
	48: {"Freezing Fog", "fog"},
	51: {"Light Drizzle", "drizzle"},
	53: {"Drizzle", "drizzle"},
	55: {"Heavy Drizzle", "drizzle"},
	56: {"Freezing Drizzle", "drizzle"},
	57: {"Freezing Drizzle", "drizzle"},
	61: {"Light Rain", "rain"},
	63: {"Rain", "rain"},
	65: {"Heavy Rain", "rain"},
	66: {"Freezing Rain", "rain"},
	67: {"Freezing Rain", "rain"},
	71: {"Light Snow", "snow"},
	73: {"Snow", "snow"},
	75: {"Heavy Snow", "snow"},
	77: {"Snow Grains", "snow"},
	80: {"Light Showers", "rain"},
	81: {"Showers", "rain"},
	82: {"Heavy Showers", "rain"},
	85: {"Snow Showers", "snow"},
	86: {"Snow Showers", "snow"},
	95: {"Thunderstorm", "storm"},
	96: {"Thunderstorm", "storm"},
	99: {"Thunderstorm", "storm"},
}

// conditionForCode maps a WMO code to its condition. Unknown codes get a
// generic cloudy entry rather than an error.
func conditionForCode(code int) condition {
	if c, ok := wmoConditions[code]; ok {
		return c
	}
	return condition{"Cloudy", "cloud"}
}
