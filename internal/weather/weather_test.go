package weather

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alvslovescyber/dashingly/internal/database"
	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
)

func setupAdapter(t *testing.T) (*Adapter, *store.SettingsStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settings := store.NewSettingsStore(db)
	a := New(settings, store.NewWeatherCacheStore(db), store.NewSyncStore(db), logger)
	return a, settings
}

func geocodeHandler(t *testing.T, results []map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}
}

func forecastHandler(temp float64, code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"current": map[string]any{"temperature_2m": temp, "weather_code": code},
			"daily": map[string]any{
				"time":               []string{"2026-08-27", "2026-08-28", "2026-08-29", "2026-08-30"},
				"temperature_2m_max": []float64{24, 25, 22, 20},
				"temperature_2m_min": []float64{15, 16, 13, 12},
				"weather_code":       []int{code, 61, 3, 0},
			},
		})
	}
}

func TestScoreCandidatesPrefersCountryMatch(t *testing.T) {
	candidates := []City{
		{Name: "Paris", Country: "United States", DisplayName: "Paris, Texas, United States"},
		{Name: "Paris", Country: "France", DisplayName: "Paris, Île-de-France, France"},
	}
	best := scoreCandidates("Paris France", candidates)
	if best == nil || best.Country != "France" {
		t.Errorf("best = %+v, want the French Paris", best)
	}
}

func TestScoreCandidatesFirstSeenTieBreak(t *testing.T) {
	candidates := []City{
		{Name: "Springfield", Country: "United States", DisplayName: "Springfield, Illinois, United States"},
		{Name: "Springfield", Country: "United States", DisplayName: "Springfield, Missouri, United States"},
	}
	best := scoreCandidates("Springfield", candidates)
	if best == nil || best.DisplayName != "Springfield, Illinois, United States" {
		t.Errorf("best = %+v, want first-seen candidate", best)
	}
}

func TestConditionForCode(t *testing.T) {
	if c := conditionForCode(0); c.Label != "Clear" {
		t.Errorf("code 0 = %+v", c)
	}
	if c := conditionForCode(95); c.Label != "Thunderstorm" {
		t.Errorf("code 95 = %+v", c)
	}
	// Unknown codes default to cloudy, never an error.
	if c := conditionForCode(42); c.Label != "Cloudy" || c.Icon != "cloud" {
		t.Errorf("unknown code = %+v, want generic cloudy", c)
	}
}

func TestStatusFetchesAndCaches(t *testing.T) {
	a, settings := setupAdapter(t)

	var forecastCalls int
	geo := httptest.NewServer(geocodeHandler(t, []map[string]any{
		{"name": "Madrid", "latitude": 40.4168, "longitude": -3.7038, "country": "Spain", "admin1": "Madrid"},
	}))
	defer geo.Close()
	fc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forecastCalls++
		forecastHandler(21.5, 2)(w, r)
	}))
	defer fc.Close()
	a.SetBaseURLs(geo.URL, fc.URL)

	if err := settings.SetJSON(settingsKey, model.WeatherSettings{
		LocationMode: "city", CityName: "Madrid", Units: "metric",
	}); err != nil {
		t.Fatalf("set settings: %v", err)
	}

	status, err := a.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status == nil {
		t.Fatal("status nil")
	}
	if status.LocationName != "Madrid" {
		t.Errorf("location = %q", status.LocationName)
	}
	if status.Temperature == nil || *status.Temperature != 21.5 {
		t.Errorf("temperature = %v", status.Temperature)
	}
	if status.Condition != "Partly Cloudy" {
		t.Errorf("condition = %q", status.Condition)
	}
	if len(status.Forecast) != 3 {
		t.Fatalf("forecast len = %d, want 3", len(status.Forecast))
	}
	if status.Forecast[0].Day != "Fri" {
		t.Errorf("forecast day = %q, want Fri", status.Forecast[0].Day)
	}

	// Second read inside the TTL: served from cache, no provider call.
	if _, err := a.Status(context.Background()); err != nil {
		t.Fatalf("cached status: %v", err)
	}
	if forecastCalls != 1 {
		t.Errorf("forecast calls = %d, want 1 (cache hit)", forecastCalls)
	}
}

func TestStatusExpiredCacheRefetches(t *testing.T) {
	a, settings := setupAdapter(t)

	var forecastCalls int
	geo := httptest.NewServer(geocodeHandler(t, []map[string]any{
		{"name": "Oslo", "latitude": 59.91, "longitude": 10.75, "country": "Norway"},
	}))
	defer geo.Close()
	fc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forecastCalls++
		forecastHandler(8, 61)(w, r)
	}))
	defer fc.Close()
	a.SetBaseURLs(geo.URL, fc.URL)

	if err := settings.SetJSON(settingsKey, model.WeatherSettings{
		LocationMode: "city", CityName: "Oslo", Units: "metric",
	}); err != nil {
		t.Fatalf("set settings: %v", err)
	}

	if _, err := a.Status(context.Background()); err != nil {
		t.Fatalf("status: %v", err)
	}

	// Jump past the TTL.
	a.now = func() time.Time { return time.Now().Add(61 * time.Minute) }
	if _, err := a.Status(context.Background()); err != nil {
		t.Fatalf("status after expiry: %v", err)
	}
	if forecastCalls != 2 {
		t.Errorf("forecast calls = %d, want 2 after TTL expiry", forecastCalls)
	}
}

func TestStatusStaleFallbackOnProviderFailure(t *testing.T) {
	a, settings := setupAdapter(t)

	var fail bool
	geo := httptest.NewServer(geocodeHandler(t, []map[string]any{
		{"name": "Lisbon", "latitude": 38.72, "longitude": -9.14, "country": "Portugal"},
	}))
	defer geo.Close()
	fc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "upstream sad", http.StatusBadGateway)
			return
		}
		forecastHandler(28, 0)(w, r)
	}))
	defer fc.Close()
	a.SetBaseURLs(geo.URL, fc.URL)

	if err := settings.SetJSON(settingsKey, model.WeatherSettings{
		LocationMode: "city", CityName: "Lisbon", Units: "metric",
	}); err != nil {
		t.Fatalf("set settings: %v", err)
	}

	first, err := a.Status(context.Background())
	if err != nil || first == nil {
		t.Fatalf("first status: %v %v", first, err)
	}

	// Expired cache plus failing provider: the stale entry comes back.
	fail = true
	a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	stale, err := a.Status(context.Background())
	if err != nil {
		t.Fatalf("stale status should not error: %v", err)
	}
	if stale == nil || stale.LocationName != "Lisbon" {
		t.Errorf("stale = %+v, want cached Lisbon entry", stale)
	}
}

func TestStatusLatLonModeSkipsGeocoding(t *testing.T) {
	a, settings := setupAdapter(t)

	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("geocoder should not be called in latlon mode")
	}))
	defer geo.Close()
	fc := httptest.NewServer(forecastHandler(17, 3))
	defer fc.Close()
	a.SetBaseURLs(geo.URL, fc.URL)

	if err := settings.SetJSON(settingsKey, model.WeatherSettings{
		LocationMode: "latlon", Latitude: 51.5, Longitude: -0.12, Units: "metric",
	}); err != nil {
		t.Fatalf("set settings: %v", err)
	}

	status, err := a.Status(context.Background())
	if err != nil || status == nil {
		t.Fatalf("status: %v %v", status, err)
	}
}

func TestSaveSettingsInvalidatesResolvedLocation(t *testing.T) {
	a, settings := setupAdapter(t)

	if err := settings.SetJSON(resolvedKey, resolvedLocation{Query: "Old", Latitude: 1, Longitude: 2}); err != nil {
		t.Fatalf("seed resolved: %v", err)
	}
	if err := a.SaveSettings(model.WeatherSettings{LocationMode: "city", CityName: "New", Units: "metric"}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	var cached resolvedLocation
	if found, _ := settings.GetJSON(resolvedKey, &cached); found {
		t.Error("resolved location should be invalidated on settings change")
	}
}
