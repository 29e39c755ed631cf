// Package weather resolves a configured location to coordinates, fetches
// forecasts through a TTL cache, and never propagates provider failures to
// the snapshot.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
)

const (
	cacheTTL = 60 * time.Minute

	defaultGeocodeURL  = "https://geocoding-api.open-meteo.com/v1/search"
	defaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	settingsKey = "weather_settings"
	// resolvedKey caches the last geocoded location so a city name is not
	// re-geocoded on every refresh.
	resolvedKey = "weather_resolved_location"
)

// resolvedLocation is the cached geocoding result for a city-mode query.
type resolvedLocation struct {
	Query     string  `json:"query"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Adapter serves the cached weather read model.
type Adapter struct {
	settings *store.SettingsStore
	cache    *store.WeatherCacheStore
	sync     *store.SyncStore
	client   *http.Client
	logger   *slog.Logger

	geocodeURL  string
	forecastURL string
	now         func() time.Time
}

func New(settings *store.SettingsStore, cache *store.WeatherCacheStore, sync *store.SyncStore, logger *slog.Logger) *Adapter {
	return &Adapter{
		settings:    settings,
		cache:       cache,
		sync:        sync,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      logger.With("component", "weather"),
		geocodeURL:  defaultGeocodeURL,
		forecastURL: defaultForecastURL,
		now:         time.Now,
	}
}

// SetBaseURLs overrides provider endpoints. Test hook.
func (a *Adapter) SetBaseURLs(geocodeURL, forecastURL string) {
	a.geocodeURL = geocodeURL
	a.forecastURL = forecastURL
}

// Settings returns the stored weather settings merged over defaults.
func (a *Adapter) Settings() model.WeatherSettings {
	ws := model.DefaultSettings().Weather
	a.settings.GetJSON(settingsKey, &ws)
	return ws
}

// SaveSettings stores new weather settings and drops the resolved-location
// cache so the next refresh re-geocodes.
func (a *Adapter) SaveSettings(ws model.WeatherSettings) error {
	if err := a.settings.SetJSON(settingsKey, ws); err != nil {
		return err
	}
	return a.settings.Delete(resolvedKey)
}

// Status returns the current weather for the configured location. Cache
// entries younger than the TTL are returned without a network call; on
// provider failure the last cached value for the key is returned even when
// stale, and nil only when nothing was ever cached.
func (a *Adapter) Status(ctx context.Context) (*model.WeatherStatus, error) {
	ws := a.Settings()

	lat, lon, name, err := a.resolveLocation(ctx, ws)
	if err != nil {
		a.logger.Warn("failed to resolve weather location", "error", err)
		return nil, nil
	}

	cacheKey := fmt.Sprintf("%.2f,%.2f:%s", lat, lon, ws.Units)

	cached, fetchedAt, err := a.cache.Get(cacheKey)
	if err != nil {
		return nil, err
	}
	if cached != nil && a.now().Sub(time.UnixMilli(fetchedAt)) < cacheTTL {
		return cached, nil
	}

	fresh, err := a.fetch(ctx, lat, lon, ws.Units, name)
	if err != nil {
		a.logger.Warn("forecast fetch failed", "error", err)
		// Stale beats nothing.
		return cached, nil
	}

	if err := a.cache.Put(cacheKey, *fresh); err != nil {
		a.logger.Warn("failed to cache weather", "error", err)
	}
	if err := a.sync.SetLastSync(store.SyncWeather, a.now().UnixMilli(), "", ""); err != nil {
		a.logger.Warn("failed to record weather sync", "error", err)
	}
	return fresh, nil
}

// resolveLocation yields coordinates and a display name from the settings,
// geocoding city-mode queries through a cached resolution.
func (a *Adapter) resolveLocation(ctx context.Context, ws model.WeatherSettings) (lat, lon float64, name string, err error) {
	if ws.LocationMode == "latlon" && (ws.Latitude != 0 || ws.Longitude != 0) {
		return ws.Latitude, ws.Longitude, fmt.Sprintf("%.2f, %.2f", ws.Latitude, ws.Longitude), nil
	}
	if ws.CityName == "" {
		return 0, 0, "", fmt.Errorf("no weather location configured")
	}

	var cached resolvedLocation
	if found, _ := a.settings.GetJSON(resolvedKey, &cached); found && cached.Query == ws.CityName {
		return cached.Latitude, cached.Longitude, cached.Name, nil
	}

	city, err := a.geocode(ctx, ws.CityName)
	if err != nil {
		return 0, 0, "", err
	}

	resolved := resolvedLocation{
		Query:     ws.CityName,
		Name:      city.Name,
		Latitude:  city.Latitude,
		Longitude: city.Longitude,
	}
	if err := a.settings.SetJSON(resolvedKey, resolved); err != nil {
		a.logger.Warn("failed to cache resolved location", "error", err)
	}
	return city.Latitude, city.Longitude, city.Name, nil
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"daily"`
}

// fetch calls the forecast provider and builds the status: current
// conditions, today's range, and a 3-day outlook.
func (a *Adapter) fetch(ctx context.Context, lat, lon float64, units, locationName string) (*model.WeatherStatus, error) {
	tempUnit := "celsius"
	if units == "imperial" {
		tempUnit = "fahrenheit"
	}

	u := fmt.Sprintf(
		"%s?latitude=%.4f&longitude=%.4f&current=temperature_2m,weather_code&daily=temperature_2m_max,temperature_2m_min,weather_code&timezone=auto&forecast_days=4&temperature_unit=%s",
		a.forecastURL, lat, lon, tempUnit,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast provider returned %d", resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}

	cond := conditionForCode(fr.Current.WeatherCode)
	temp := fr.Current.Temperature
	status := &model.WeatherStatus{
		LocationName: locationName,
		Temperature:  &temp,
		Condition:    cond.Label,
		Icon:         cond.Icon,
		LastUpdated:  a.now().UnixMilli(),
	}
	if len(fr.Daily.TempMax) > 0 {
		high := fr.Daily.TempMax[0]
		status.High = &high
	}
	if len(fr.Daily.TempMin) > 0 {
		low := fr.Daily.TempMin[0]
		status.Low = &low
	}

	// Days 1..3 are the outlook; day 0 already feeds today's range.
	for i := 1; i < len(fr.Daily.Time) && i <= 3; i++ {
		entry := model.WeatherForecastEntry{Day: weekdayLabel(fr.Daily.Time[i])}
		if i < len(fr.Daily.TempMax) {
			high := fr.Daily.TempMax[i]
			entry.High = &high
		}
		if i < len(fr.Daily.TempMin) {
			low := fr.Daily.TempMin[i]
			entry.Low = &low
		}
		if i < len(fr.Daily.WeatherCode) {
			entry.Icon = conditionForCode(fr.Daily.WeatherCode[i]).Icon
		}
		status.Forecast = append(status.Forecast, entry)
	}
	return status, nil
}

// weekdayLabel renders an ISO date as a short weekday name, falling back to
// the raw string when it does not parse.
func weekdayLabel(isoDate string) string {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return t.Weekday().String()[:3]
}
