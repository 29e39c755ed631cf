// Package snapshot composes settings, local entities, and every adapter's
// cached state into the single read model the kiosk renders.
package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/alvslovescyber/dashingly/internal/ai"
	"github.com/alvslovescyber/dashingly/internal/logicalday"
	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/spotify"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/strava"
	"github.com/alvslovescyber/dashingly/internal/weather"
)

const (
	stepsGoal    = 10000
	caloriesGoal = 500

	// healthWarningAfter is how stale the latest health snapshot may be
	// before the UI shows a warning badge.
	healthWarningAfter = 7 * 24 * time.Hour

	biblePlanLength = 365
)

// Builder aggregates all sources into a DashboardSnapshot.
type Builder struct {
	settings    *store.SettingsStore
	tasks       *store.TaskStore
	suggestions *store.SuggestionStore
	health      *store.HealthStore
	bible       *store.BibleStore
	sync        *store.SyncStore
	strava      *strava.Adapter
	spotify     *spotify.Adapter
	weather     *weather.Adapter
	ai          *ai.Generator
	logger      *slog.Logger
}

func NewBuilder(settings *store.SettingsStore, tasks *store.TaskStore, suggestions *store.SuggestionStore, health *store.HealthStore, bible *store.BibleStore, sync *store.SyncStore, stravaAdapter *strava.Adapter, spotifyAdapter *spotify.Adapter, weatherAdapter *weather.Adapter, generator *ai.Generator, logger *slog.Logger) *Builder {
	return &Builder{
		settings:    settings,
		tasks:       tasks,
		suggestions: suggestions,
		health:      health,
		bible:       bible,
		sync:        sync,
		strava:      stravaAdapter,
		spotify:     spotifyAdapter,
		weather:     weatherAdapter,
		ai:          generator,
		logger:      logger.With("component", "snapshot"),
	}
}

// Build assembles the dashboard read model. Aside from the music refresh
// (which keeps the now-playing row current) it is read-only, and every
// integration failure degrades to a nil block instead of failing the whole
// snapshot. Safe for concurrent invocation.
func (b *Builder) Build(ctx context.Context) (*model.DashboardSnapshot, error) {
	today := logicalday.Today()

	settings := b.mergedSettings()

	snap := &model.DashboardSnapshot{
		DisplayName: b.settings.GetString("display_name", "Friend"),
		Timezone:    b.settings.GetString("timezone", "America/New_York"),
		Settings:    settings,
		Suggestions: []model.TaskSuggestion{},
	}

	tasks, err := b.annotatedTasks(today)
	if err != nil {
		return nil, err
	}
	snap.Tasks = tasks

	if pending, err := b.suggestions.PendingForDay(today); err != nil {
		b.logger.Warn("failed to read suggestions", "error", err)
	} else if pending != nil {
		snap.Suggestions = pending
	}

	if status, err := b.strava.Status(); err != nil {
		b.logger.Warn("failed to read strava status", "error", err)
	} else {
		snap.Strava = status
	}

	snap.Health = b.healthStatus()

	// Trigger-then-read: the refresh keeps the cached row honest; a refresh
	// failure still reads whatever is cached.
	if err := b.spotify.Refresh(ctx); err != nil && err != spotify.ErrNotConnected {
		b.logger.Warn("spotify refresh failed", "error", err)
	}
	if status, err := b.spotify.Status(); err != nil {
		b.logger.Warn("failed to read spotify status", "error", err)
	} else {
		snap.Spotify = status
	}

	if status, err := b.weather.Status(ctx); err != nil {
		b.logger.Warn("failed to read weather status", "error", err)
	} else {
		snap.Weather = status
	}

	snap.Bible = b.bibleStatus(today)
	snap.LastSync = b.lastSyncTimes()
	snap.HasOpenAIKey = settings.MockMode || b.ai.HasKey()

	if settings.MockMode {
		applyDemoOverrides(snap, tasks)
	}
	return snap, nil
}

// mergedSettings returns the stored settings blob unmarshaled over
// defaults. Decoding over a prefilled struct merges per field, so a
// partially saved blob never erases sibling defaults.
func (b *Builder) mergedSettings() model.Settings {
	s := model.DefaultSettings()
	b.settings.GetJSON("app_settings", &s)
	return s
}

// annotatedTasks joins active tasks with today's completions in memory.
func (b *Builder) annotatedTasks(today logicalday.Day) ([]model.TaskWithCompletion, error) {
	tasks, err := b.tasks.ListActive()
	if err != nil {
		return nil, err
	}
	completions, err := b.tasks.CompletionsForDay(today)
	if err != nil {
		return nil, err
	}

	completedAt := make(map[string]int64, len(completions))
	for _, c := range completions {
		completedAt[c.TaskID] = c.CompletedAt
	}

	out := make([]model.TaskWithCompletion, len(tasks))
	for i, task := range tasks {
		out[i] = model.TaskWithCompletion{Task: task}
		if at, ok := completedAt[task.ID]; ok {
			out[i].Completed = true
			out[i].CompletedAt = &at
		}
	}
	return out, nil
}

// healthStatus derives the rendered health block from the latest snapshot,
// or nil when none was ever pushed.
func (b *Builder) healthStatus() *model.HealthStatus {
	snap, err := b.health.Latest()
	if err != nil {
		b.logger.Warn("failed to read health snapshot", "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}

	status := &model.HealthStatus{
		LastSync:        snap.TS,
		Steps:           snap.Steps,
		StepsPercent:    percent(snap.Steps, stepsGoal),
		Calories:        snap.ActiveCals,
		CaloriesPercent: percent(snap.ActiveCals, caloriesGoal),
		SleepMinutes:    snap.SleepMinutes,
	}
	if age := time.Since(time.UnixMilli(snap.TS)); age >= healthWarningAfter {
		days := int(age.Hours() / 24)
		status.WarningDays = &days
	}
	return status
}

func percent(value, goal int) int {
	p := value * 100 / goal
	if p > 100 {
		p = 100
	}
	return p
}

// bibleStatus resolves today's reading from the plan. The plan wraps after
// a year; a missing plan row renders as "No reading scheduled".
func (b *Builder) bibleStatus(today logicalday.Day) *model.BibleStatus {
	start := b.settings.GetInt("bible_plan_start", 0)
	if start == 0 {
		return nil
	}

	dayIndex := logicalday.DaysBetween(start, today)%biblePlanLength + 1
	if dayIndex < 1 {
		dayIndex += biblePlanLength
	}

	status := &model.BibleStatus{
		TodayReference: "No reading scheduled",
		DayIndex:       dayIndex,
	}
	if plan, err := b.bible.PlanDay(dayIndex); err != nil {
		b.logger.Warn("failed to read bible plan", "error", err)
	} else if plan != nil {
		status.TodayReference = plan.Reference
		status.Source = plan.Source
	}
	if completed, err := b.bible.IsCompleted(today); err != nil {
		b.logger.Warn("failed to read bible completion", "error", err)
	} else {
		status.Completed = completed
	}
	return status
}

func (b *Builder) lastSyncTimes() model.LastSyncTimes {
	var times model.LastSyncTimes
	set := func(dst **int64, key string) {
		if ts, ok := b.sync.LastSync(key); ok {
			*dst = &ts
		}
	}
	set(&times.Strava, store.SyncStrava)
	set(&times.Health, store.SyncHealth)
	set(&times.Spotify, store.SyncSpotify)
	set(&times.Weather, store.SyncWeather)
	set(&times.AI, store.SyncAI)
	return times
}
