// Package ai generates daily task suggestions from a local context digest,
// under a call budget and a degraded-mode policy for misbehaving provider
// output.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/alvslovescyber/dashingly/internal/logicalday"
	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/vault"
)

const (
	// dailyCeiling is the storage-backed cap: once this many suggestions
	// exist for today (any status), generate is a no-op. Survives restarts,
	// unlike the in-memory run counter.
	dailyCeiling = 5

	// degradedThreshold consecutive validation failures shrink the
	// requested batch from maxSuggestions to degradedSuggestions.
	degradedThreshold   = 2
	maxSuggestions      = 5
	degradedSuggestions = 3

	defaultModel = "gpt-4o"

	// Field caps the provider response must respect.
	maxTitleLen  = 200
	maxReasonLen = 500

	// vaultKeyName is where the provider key lives when not supplied via
	// OPENAI_API_KEY.
	vaultKeyName = "openai_key"
)

const systemPrompt = `You suggest small, concrete daily tasks for a personal dashboard.
Respond with JSON only: {"suggestions":[{"title":"...","reason":"..."}]}.
Titles are short imperatives. Reasons reference the user's recent activity.`

// completer abstracts the chat provider for test injection.
type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Generator owns the throttle counters and the generation pipeline.
type Generator struct {
	settings    *store.SettingsStore
	suggestions *store.SuggestionStore
	tasks       *store.TaskStore
	strava      *store.StravaStore
	health      *store.HealthStore
	sync        *store.SyncStore
	vault       *vault.Vault
	logger      *slog.Logger

	newCompleter func(apiKey, model string) completer

	mu                  sync.Mutex
	runsToday           int
	consecutiveFailures int
	maxRunsPerDay       int
}

func NewGenerator(settings *store.SettingsStore, suggestions *store.SuggestionStore, tasks *store.TaskStore, strava *store.StravaStore, health *store.HealthStore, sync *store.SyncStore, v *vault.Vault, maxRunsPerDay int, logger *slog.Logger) *Generator {
	return &Generator{
		settings:      settings,
		suggestions:   suggestions,
		tasks:         tasks,
		strava:        strava,
		health:        health,
		sync:          sync,
		vault:         v,
		logger:        logger.With("component", "ai"),
		maxRunsPerDay: maxRunsPerDay,
		newCompleter: func(apiKey, model string) completer {
			return NewClient(apiKey, model)
		},
	}
}

// HasKey reports whether a provider credential is configured, via
// environment or vault.
func (g *Generator) HasKey() bool {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return true
	}
	return g.vault.Has(vaultKeyName)
}

// SaveKey stores the provider key in the vault.
func (g *Generator) SaveKey(key string) error {
	return g.vault.Save(vaultKeyName, key)
}

func (g *Generator) resolveKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	var key string
	if found, err := g.vault.Get(vaultKeyName, &key); err == nil && found {
		return key
	}
	return ""
}

func (g *Generator) resolveModel() string {
	if m := os.Getenv("OPENAI_MODEL"); m != "" {
		return m
	}
	ai := model.DefaultSettings().AI
	g.settings.GetJSON("ai_settings", &ai)
	if ai.Model != "" {
		return ai.Model
	}
	return defaultModel
}

// CanRun reports whether a generate call would be allowed, with the
// blocking reason when not.
func (g *Generator) CanRun() (bool, string) {
	if g.resolveKey() == "" {
		return false, "no API key configured"
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.runsToday >= g.maxRunsPerDay {
		return false, "daily run limit reached"
	}
	return true, ""
}

// ResetDailyCounters zeroes the throttle state. Called by an external
// day-boundary trigger, never self-triggered.
func (g *Generator) ResetDailyCounters() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runsToday = 0
	g.consecutiveFailures = 0
}

// Counters returns the current throttle state.
func (g *Generator) Counters() (runsToday, consecutiveFailures int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runsToday, g.consecutiveFailures
}

// SetCounters overrides the throttle state. Test hook.
func (g *Generator) SetCounters(runsToday, consecutiveFailures int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runsToday = runsToday
	g.consecutiveFailures = consecutiveFailures
}

// suggestionPayload is the schema the provider must return.
type suggestionPayload struct {
	Suggestions []struct {
		Title  string `json:"title"`
		Reason string `json:"reason"`
	} `json:"suggestions"`
}

// Generate runs one provider call and persists valid suggestions as
// pending. Empty results (ceiling hit, invalid provider output) are not
// errors; a validation failure only bumps the degradation counter.
func (g *Generator) Generate(ctx context.Context) ([]model.TaskSuggestion, error) {
	apiKey := g.resolveKey()
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured")
	}

	today := logicalday.Today()
	count, err := g.suggestions.CountForDay(today)
	if err != nil {
		return nil, fmt.Errorf("count suggestions: %w", err)
	}
	if count >= dailyCeiling {
		return []model.TaskSuggestion{}, nil
	}

	g.mu.Lock()
	requested := maxSuggestions
	if g.consecutiveFailures >= degradedThreshold {
		requested = degradedSuggestions
	}
	g.mu.Unlock()
	if remaining := dailyCeiling - count; requested > remaining {
		requested = remaining
	}

	digest, err := g.buildDigest(today)
	if err != nil {
		return nil, fmt.Errorf("build context digest: %w", err)
	}

	client := g.newCompleter(apiKey, g.resolveModel())
	raw, err := client.Complete(ctx, systemPrompt, g.userPrompt(digest, requested))
	if err != nil {
		g.recordSyncError(err)
		return nil, fmt.Errorf("provider call: %w", err)
	}

	titles, reasons, ok := g.validate(raw, requested)
	if !ok {
		g.mu.Lock()
		g.consecutiveFailures++
		failures := g.consecutiveFailures
		g.mu.Unlock()
		g.logger.Warn("provider response failed validation", "consecutiveFailures", failures)
		g.recordSyncError(fmt.Errorf("invalid provider response"))
		return []model.TaskSuggestion{}, nil
	}

	var created []model.TaskSuggestion
	for i := range titles {
		s, err := g.suggestions.Insert(today, titles[i], reasons[i], "ai")
		if err != nil {
			return created, fmt.Errorf("persist suggestion: %w", err)
		}
		created = append(created, *s)
	}

	g.mu.Lock()
	g.consecutiveFailures = 0
	g.runsToday++
	g.mu.Unlock()

	if err := g.sync.SetLastSync(store.SyncAI, time.Now().UnixMilli(), "", ""); err != nil {
		g.logger.Warn("failed to record ai sync", "error", err)
	}
	return created, nil
}

// validate parses the provider output against the fixed schema: a
// non-empty array no longer than the requested batch, every title present
// and within the field caps. Any violation fails the whole response; there
// is no partial salvage.
func (g *Generator) validate(raw string, requested int) (titles, reasons []string, ok bool) {
	var payload suggestionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, nil, false
	}
	if len(payload.Suggestions) == 0 || len(payload.Suggestions) > requested {
		return nil, nil, false
	}
	for _, s := range payload.Suggestions {
		title := strings.TrimSpace(s.Title)
		reason := strings.TrimSpace(s.Reason)
		if title == "" || len(title) > maxTitleLen || len(reason) > maxReasonLen {
			return nil, nil, false
		}
		titles = append(titles, title)
		reasons = append(reasons, reason)
	}
	return titles, reasons, true
}

// contextDigest is what the provider sees about the user's recent state.
type contextDigest struct {
	WeeklyDistanceKm float64
	ActivityCount    int
	LastActivity     string
	Health           string
	CompletedToday   []string
}

func (g *Generator) buildDigest(today logicalday.Day) (contextDigest, error) {
	var d contextDigest

	weekAgo := time.Now().Add(-7 * 24 * time.Hour).UnixMilli()
	activities, err := g.strava.RecentActivities(weekAgo, 20)
	if err != nil {
		return d, err
	}
	for _, a := range activities {
		d.WeeklyDistanceKm += a.DistanceM / 1000
	}
	d.ActivityCount = len(activities)
	if len(activities) > 0 {
		last := activities[0]
		daysAgo := int(time.Since(time.UnixMilli(last.StartDate)).Hours() / 24)
		d.LastActivity = fmt.Sprintf("%s, %.1f km, %d days ago", last.Type, last.DistanceM/1000, daysAgo)
	}

	snap, err := g.health.Latest()
	if err != nil {
		return d, err
	}
	if snap != nil {
		daysAgo := int(time.Since(time.UnixMilli(snap.TS)).Hours() / 24)
		d.Health = fmt.Sprintf("%d steps, %d active calories, %.1f hours sleep, %d days ago",
			snap.Steps, snap.ActiveCals, float64(snap.SleepMinutes)/60, daysAgo)
	}

	titles, err := g.tasks.CompletedTitlesForDay(today)
	if err != nil {
		return d, err
	}
	d.CompletedToday = titles
	return d, nil
}

func (g *Generator) userPrompt(d contextDigest, requested int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Suggest at most %d tasks for today.\n", requested)
	fmt.Fprintf(&b, "Past week: %.1f km across %d activities.\n", d.WeeklyDistanceKm, d.ActivityCount)
	if d.LastActivity != "" {
		fmt.Fprintf(&b, "Most recent activity: %s.\n", d.LastActivity)
	}
	if d.Health != "" {
		fmt.Fprintf(&b, "Latest health snapshot: %s.\n", d.Health)
	}
	if len(d.CompletedToday) > 0 {
		fmt.Fprintf(&b, "Already completed today: %s.\n", strings.Join(d.CompletedToday, ", "))
	} else {
		b.WriteString("Nothing completed yet today.\n")
	}
	return b.String()
}

func (g *Generator) recordSyncError(err error) {
	if serr := g.sync.SetLastSync(store.SyncAI, time.Now().UnixMilli(), "error", err.Error()); serr != nil {
		g.logger.Warn("failed to record ai sync error", "error", serr)
	}
}
