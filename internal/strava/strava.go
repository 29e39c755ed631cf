// Package strava derives the weekly fitness read model from locally synced
// daily aggregates. Snapshot reads never touch the Strava API.
package strava

import (
	"math"

	"github.com/alvslovescyber/dashingly/internal/logicalday"
	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
)

const defaultWeeklyTargetKm = 30

// Adapter reads the current week's fitness summary.
type Adapter struct {
	settings *store.SettingsStore
	strava   *store.StravaStore
	sync     *store.SyncStore
}

func New(settings *store.SettingsStore, strava *store.StravaStore, sync *store.SyncStore) *Adapter {
	return &Adapter{settings: settings, strava: strava, sync: sync}
}

// Status returns the weekly distance summary for the current logical week,
// Monday through Sunday, or nil when Strava is not connected.
func (a *Adapter) Status() (*model.StravaStatus, error) {
	if !a.settings.GetBool("strava_connected", false) {
		return nil, nil
	}

	week := logicalday.Week(logicalday.Today())
	meters, err := a.strava.DistanceForDays(week)
	if err != nil {
		return nil, err
	}

	weekData := make([]float64, len(meters))
	var totalKm float64
	for i, m := range meters {
		km := roundTenth(m / 1000)
		weekData[i] = km
		totalKm += km
	}

	status := &model.StravaStatus{
		Connected:      true,
		WeeklyDistance: roundTenth(totalKm),
		WeeklyTarget:   a.settings.GetFloat("strava_weekly_target", defaultWeeklyTargetKm),
		WeekData:       weekData,
	}
	if ts, ok := a.sync.LastSync(store.SyncStrava); ok {
		status.LastSync = &ts
	}
	return status, nil
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
