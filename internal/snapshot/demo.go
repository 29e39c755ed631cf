package snapshot

import (
	"fmt"
	"time"

	"github.com/alvslovescyber/dashingly/internal/model"
)

// cannedSuggestions pad the demo suggestion list when fewer than three
// active tasks exist to riff on.
var cannedSuggestions = []struct{ title, reason string }{
	{"Take a 20-minute walk", "A short walk breaks up long sitting stretches"},
	{"Drink a glass of water", "Hydration slips on busy days"},
	{"Write down three things you're grateful for", "A quick reset for the afternoon"},
}

// applyDemoOverrides overlays fixed illustrative integration data onto the
// snapshot. Pure with respect to storage: only the returned snapshot is
// touched, nothing persists.
func applyDemoOverrides(snap *model.DashboardSnapshot, tasks []model.TaskWithCompletion) {
	now := time.Now().UnixMilli()
	recent := now - 5*60*1000

	lastSync := recent
	snap.LastSync = model.LastSyncTimes{
		Strava:  &lastSync,
		Health:  &lastSync,
		Spotify: &lastSync,
		Weather: &lastSync,
		AI:      &lastSync,
	}

	snap.Strava = &model.StravaStatus{
		Connected:      true,
		LastSync:       &lastSync,
		WeeklyDistance: 31.8,
		WeeklyTarget:   30,
		WeekData:       []float64{5.2, 0, 7.8, 6.1, 0, 8.5, 4.2},
	}

	snap.Health = &model.HealthStatus{
		LastSync:        recent,
		Steps:           7842,
		StepsPercent:    78,
		Calories:        342,
		CaloriesPercent: 68,
		SleepMinutes:    412,
	}

	art := "https://i.scdn.co/image/demo-album-art"
	snap.Spotify = &model.SpotifyStatus{
		Connected:  true,
		IsPlaying:  true,
		Track:      "Good Grace",
		Artist:     "Hillsong UNITED",
		Album:      "People",
		AlbumArt:   &art,
		ProgressMs: 83000,
		DurationMs: 261000,
	}

	temp := 22.0
	high := 24.0
	low := 16.0
	fh1, fl1 := 23.0, 15.0
	fh2, fl2 := 21.0, 14.0
	fh3, fl3 := 25.0, 17.0
	snap.Weather = &model.WeatherStatus{
		LocationName: "New York",
		Temperature:  &temp,
		High:         &high,
		Low:          &low,
		Condition:    "Partly Cloudy",
		Icon:         "cloud-sun",
		LastUpdated:  recent,
		Forecast: []model.WeatherForecastEntry{
			{Day: "Sat", High: &fh1, Low: &fl1, Icon: "sun"},
			{Day: "Sun", High: &fh2, Low: &fl2, Icon: "rain"},
			{Day: "Mon", High: &fh3, Low: &fl3, Icon: "sun"},
		},
	}

	// Real pending suggestions always win over synthesized ones.
	if len(snap.Suggestions) == 0 {
		snap.Suggestions = demoSuggestions(tasks, now)
	}
}

// demoSuggestions synthesizes up to three suggestions from the first three
// active task titles, padding with canned entries when tasks run out.
func demoSuggestions(tasks []model.TaskWithCompletion, now int64) []model.TaskSuggestion {
	out := make([]model.TaskSuggestion, 0, 3)
	for i := 0; i < 3; i++ {
		var title, reason string
		if i < len(tasks) {
			title = fmt.Sprintf("Spend 10 extra minutes on %q", tasks[i].Title)
			reason = "You've been consistent with this one"
		} else {
			canned := cannedSuggestions[i]
			title = canned.title
			reason = canned.reason
		}
		out = append(out, model.TaskSuggestion{
			ID:        fmt.Sprintf("demo-%d", i+1),
			Title:     title,
			Reason:    reason,
			Source:    "demo",
			Status:    model.SuggestionPending,
			CreatedAt: now,
		})
	}
	return out
}
