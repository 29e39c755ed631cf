package model

// StravaStatus is the weekly fitness read model.
type StravaStatus struct {
	Connected      bool      `json:"connected"`
	LastSync       *int64    `json:"lastSync,omitempty"`
	WeeklyDistance float64   `json:"weeklyDistance"` // km, rounded to 0.1
	WeeklyTarget   float64   `json:"weeklyTarget"`   // km
	WeekData       []float64 `json:"weekData"`       // 7 days Monday..Sunday, km
}

// HealthSnapshot is one inbound health payload row.
type HealthSnapshot struct {
	TS           int64 `json:"ts"`
	Steps        int   `json:"steps"`
	ActiveCals   int   `json:"activeCals"`
	SleepMinutes int   `json:"sleepMinutes"`
}

// HealthStatus is the derived view of the latest health snapshot.
type HealthStatus struct {
	LastSync        int64 `json:"lastSync"`
	Steps           int   `json:"steps"`
	StepsPercent    int   `json:"stepsPercent"`
	Calories        int   `json:"calories"`
	CaloriesPercent int   `json:"caloriesPercent"`
	SleepMinutes    int   `json:"sleepMinutes"`
	WarningDays     *int  `json:"warningDays,omitempty"`
}

// NowPlaying is the single latest playback row. New data replaces old
// unconditionally; ts orders "latest".
type NowPlaying struct {
	TS          int64   `json:"ts"`
	IsPlaying   bool    `json:"isPlaying"`
	Track       string  `json:"track"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	AlbumArtURL *string `json:"albumArtUrl,omitempty"`
	ProgressMs  int64   `json:"progressMs"`
	DurationMs  int64   `json:"durationMs"`
}

// SpotifyStatus is the music read model for the snapshot.
type SpotifyStatus struct {
	Connected  bool    `json:"connected"`
	IsPlaying  bool    `json:"isPlaying"`
	Track      string  `json:"track"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	AlbumArt   *string `json:"albumArt,omitempty"`
	ProgressMs int64   `json:"progressMs"`
	DurationMs int64   `json:"durationMs"`
}

// WeatherForecastEntry is one day of the 3-day outlook.
type WeatherForecastEntry struct {
	Day  string   `json:"day"`
	High *float64 `json:"high"`
	Low  *float64 `json:"low"`
	Icon string   `json:"icon,omitempty"`
}

// WeatherStatus is the cached weather read model.
type WeatherStatus struct {
	LocationName string                 `json:"locationName"`
	Temperature  *float64               `json:"temperature"`
	High         *float64               `json:"high"`
	Low          *float64               `json:"low"`
	Condition    string                 `json:"condition,omitempty"`
	Icon         string                 `json:"icon,omitempty"`
	LastUpdated  int64                  `json:"lastUpdated,omitempty"`
	Forecast     []WeatherForecastEntry `json:"forecast,omitempty"`
}

// BibleStatus is today's scripture reading and its completion state.
type BibleStatus struct {
	TodayReference string `json:"todayReference"`
	Source         string `json:"source"`
	Completed      bool   `json:"completed"`
	DayIndex       int    `json:"dayIndex"`
}

// LastSyncTimes collects per-channel sync timestamps for the snapshot.
type LastSyncTimes struct {
	Strava  *int64 `json:"strava,omitempty"`
	Health  *int64 `json:"health,omitempty"`
	Spotify *int64 `json:"spotify,omitempty"`
	Weather *int64 `json:"weather,omitempty"`
	AI      *int64 `json:"ai,omitempty"`
}

// DashboardSnapshot is the single aggregated read model returned to the
// presentation layer.
type DashboardSnapshot struct {
	DisplayName  string               `json:"displayName"`
	Timezone     string               `json:"timezone"`
	Settings     Settings             `json:"settings"`
	HasOpenAIKey bool                 `json:"hasOpenAIKey"`
	Tasks        []TaskWithCompletion `json:"tasks"`
	Suggestions  []TaskSuggestion     `json:"suggestions"`
	Strava       *StravaStatus        `json:"strava"`
	Health       *HealthStatus        `json:"health"`
	Spotify      *SpotifyStatus       `json:"spotify"`
	Weather      *WeatherStatus       `json:"weather"`
	Bible        *BibleStatus         `json:"bible"`
	LastSync     LastSyncTimes        `json:"lastSync"`
}
