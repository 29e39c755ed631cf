package model

// Settings is the full user-tunable configuration blob stored as a single
// setting. Each section merges independently over defaults, so a partially
// saved blob never erases sibling defaults.
type Settings struct {
	MockMode      bool                 `json:"mockMode"`
	DebugMode     bool                 `json:"debugMode"`
	Brightness    BrightnessSettings   `json:"brightness"`
	Notifications NotificationSettings `json:"notifications"`
	Weather       WeatherSettings      `json:"weather"`
	AI            AISettings           `json:"ai"`
}

// BrightnessSettings controls the panel backlight schedule.
type BrightnessSettings struct {
	Enabled         bool   `json:"enabled"`
	Current         int    `json:"current"`
	NightMode       bool   `json:"nightMode"`
	NightStart      string `json:"nightStart"`
	NightEnd        string `json:"nightEnd"`
	NightBrightness int    `json:"nightBrightness"`
}

// NotificationSettings controls on-device notification behavior.
type NotificationSettings struct {
	Enabled           bool `json:"enabled"`
	SoundEnabled      bool `json:"soundEnabled"`
	QuietHoursEnabled bool `json:"quietHoursEnabled"`
}

// WeatherSettings selects the forecast location and unit system.
type WeatherSettings struct {
	LocationMode string  `json:"locationMode"` // "city" or "latlon"
	CityName     string  `json:"cityName,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	Units        string  `json:"units"` // "metric" or "imperial"
}

// AISettings tunes the suggestion generator.
type AISettings struct {
	Model                string `json:"model"`
	MaxSuggestionsPerDay int    `json:"maxSuggestionsPerDay"`
	AutoGenerateEnabled  bool   `json:"autoGenerateEnabled"`
	AutoGenerateTime     string `json:"autoGenerateTime"` // "HH:MM"
}

// DefaultSettings returns the baseline configuration merged under any stored
// overrides.
func DefaultSettings() Settings {
	return Settings{
		MockMode:  false,
		DebugMode: false,
		Brightness: BrightnessSettings{
			Enabled:         true,
			Current:         100,
			NightMode:       false,
			NightStart:      "22:00",
			NightEnd:        "07:00",
			NightBrightness: 20,
		},
		Notifications: NotificationSettings{
			Enabled:           true,
			SoundEnabled:      true,
			QuietHoursEnabled: true,
		},
		Weather: WeatherSettings{
			LocationMode: "city",
			CityName:     "New York",
			Units:        "metric",
		},
		AI: AISettings{
			Model:                "gpt-4o",
			MaxSuggestionsPerDay: 5,
			AutoGenerateEnabled:  false,
			AutoGenerateTime:     "12:00",
		},
	}
}
