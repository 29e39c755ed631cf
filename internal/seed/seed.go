// Package seed resets the database to a demo dataset: a week of tasks,
// activity, health, music, and scripture readings that make a fresh kiosk
// look lived-in.
package seed

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/alvslovescyber/dashingly/internal/logicalday"
	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
)

var demoTasks = []struct {
	title    string
	taskType model.TaskType
}{
	{"Morning Prayer", model.TaskDaily},
	{"Read Scripture", model.TaskDaily},
	{"Exercise", model.TaskDaily},
	{"Drink 8 glasses of water", model.TaskDaily},
	{"Call Mom", model.TaskOneoff},
}

var demoSuggestions = []struct{ title, reason string }{
	{"Go for a 5K run", "Your weekly distance is below target"},
	{"Stretch for 10 minutes", "Good recovery after yesterday's run"},
	{"Plan tomorrow's readings", "You've kept a 6-day reading streak"},
}

// weekDistancesM is Monday..Sunday running distance in meters.
var weekDistancesM = []float64{5200, 0, 7800, 6100, 0, 8500, 4200}

var demoReadings = []string{
	"Psalm 23", "John 3:1-21", "Romans 8:1-17", "Matthew 5:1-16",
	"Philippians 4:4-13", "Proverbs 3:1-12", "Isaiah 40:27-31",
	"1 Corinthians 13", "James 1:2-18", "Psalm 121",
}

// Apply wipes user data and loads the demo dataset.
func Apply(db *sql.DB) error {
	for _, table := range []string{
		"task_completions", "tasks", "task_suggestions", "strava_daily_agg",
		"strava_activities", "health_snapshots", "spotify_now_playing",
		"bible_plan", "bible_completions",
	} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	settings := store.NewSettingsStore(db)
	tasks := store.NewTaskStore(db)
	suggestions := store.NewSuggestionStore(db)
	stravaStore := store.NewStravaStore(db)
	health := store.NewHealthStore(db)
	spotifyStore := store.NewSpotifyStore(db)
	bible := store.NewBibleStore(db)
	sync := store.NewSyncStore(db)

	today := logicalday.Today()
	now := time.Now().UnixMilli()

	var created []model.Task
	for _, dt := range demoTasks {
		task, err := tasks.Create(dt.title, dt.taskType)
		if err != nil {
			return fmt.Errorf("seed task: %w", err)
		}
		created = append(created, *task)
	}
	// First three tasks already done today.
	for i := 0; i < 3 && i < len(created); i++ {
		if _, err := tasks.ToggleCompletion(created[i].ID, today); err != nil {
			return fmt.Errorf("seed completion: %w", err)
		}
	}

	for _, ds := range demoSuggestions {
		if _, err := suggestions.Insert(today, ds.title, ds.reason, "ai"); err != nil {
			return fmt.Errorf("seed suggestion: %w", err)
		}
	}

	week := logicalday.Week(today)
	for i, day := range week {
		distance := weekDistancesM[i]
		runs := 0
		var moving int64
		if distance > 0 {
			runs = 1
			moving = int64(distance / 2.8) // ~2.8 m/s easy pace
		}
		if err := stravaStore.UpsertDailyAgg(day, distance, runs, moving); err != nil {
			return fmt.Errorf("seed strava agg: %w", err)
		}
	}
	if err := settings.SetJSON("strava_connected", true); err != nil {
		return fmt.Errorf("seed strava flag: %w", err)
	}

	if err := health.Insert(model.HealthSnapshot{
		TS: now, Steps: 7842, ActiveCals: 342, SleepMinutes: 412,
	}, "{}"); err != nil {
		return fmt.Errorf("seed health: %w", err)
	}

	art := "https://i.scdn.co/image/demo-album-art"
	if err := spotifyStore.UpsertNowPlaying(model.NowPlaying{
		TS: now, IsPlaying: true, Track: "Good Grace", Artist: "Hillsong UNITED",
		Album: "People", AlbumArtURL: &art, ProgressMs: 83000, DurationMs: 261000,
	}); err != nil {
		return fmt.Errorf("seed now playing: %w", err)
	}
	if err := settings.SetJSON("spotify_connected", true); err != nil {
		return fmt.Errorf("seed spotify flag: %w", err)
	}

	for i, ref := range demoReadings {
		if err := bible.UpsertPlanDay(model.BiblePlanDay{
			DayIndex: i + 1, Reference: ref, Source: "ESV",
		}); err != nil {
			return fmt.Errorf("seed bible plan: %w", err)
		}
	}
	if err := settings.SetJSON("bible_plan_start", today); err != nil {
		return fmt.Errorf("seed bible start: %w", err)
	}

	for _, key := range []string{store.SyncStrava, store.SyncHealth, store.SyncSpotify, store.SyncWeather, store.SyncAI} {
		if err := sync.SetLastSync(key, now, "", ""); err != nil {
			return fmt.Errorf("seed sync row: %w", err)
		}
	}
	return nil
}
