package store

import (
	"database/sql"
	"fmt"
)

// StravaActivity is one raw synced activity, feeding the AI context digest.
type StravaActivity struct {
	ID          string
	StartDate   int64
	Type        string
	DistanceM   float64
	MovingTimeS int64
}

// StravaStore owns the strava_activities and strava_daily_agg tables. The
// network sync that populates them is a separate ingestion path; snapshot
// reads never touch the network.
type StravaStore struct {
	db *sql.DB
}

func NewStravaStore(db *sql.DB) *StravaStore {
	return &StravaStore{db: db}
}

// UpsertDailyAgg writes one day's aggregate, replacing any previous row.
func (s *StravaStore) UpsertDailyAgg(day int, distanceM float64, runCount int, movingTimeS int64) error {
	_, err := s.db.Exec(
		`INSERT INTO strava_daily_agg (day, distance_m, run_count, moving_time_s) VALUES (?, ?, ?, ?)
		 ON CONFLICT(day) DO UPDATE SET distance_m = excluded.distance_m,
		 run_count = excluded.run_count, moving_time_s = excluded.moving_time_s`,
		day, distanceM, runCount, movingTimeS,
	)
	if err != nil {
		return fmt.Errorf("upsert daily agg: %w", err)
	}
	return nil
}

// DistanceForDays returns per-day distances in meters for the given logical
// days, zero-filled for days with no aggregate row.
func (s *StravaStore) DistanceForDays(days []int) ([]float64, error) {
	out := make([]float64, len(days))
	for i, day := range days {
		var distance float64
		err := s.db.QueryRow(`SELECT distance_m FROM strava_daily_agg WHERE day = ?`, day).Scan(&distance)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get daily agg for %d: %w", day, err)
		}
		out[i] = distance
	}
	return out, nil
}

// InsertActivity records one raw activity.
func (s *StravaStore) InsertActivity(a StravaActivity, rawJSON string) error {
	if rawJSON == "" {
		rawJSON = "{}"
	}
	_, err := s.db.Exec(
		`INSERT INTO strava_activities (id, start_date, type, distance_m, moving_time_s, raw_json)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET start_date = excluded.start_date, type = excluded.type,
		 distance_m = excluded.distance_m, moving_time_s = excluded.moving_time_s, raw_json = excluded.raw_json`,
		a.ID, a.StartDate, a.Type, a.DistanceM, a.MovingTimeS, rawJSON,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// RecentActivities returns activities starting after the given timestamp,
// newest first, capped at limit.
func (s *StravaStore) RecentActivities(since int64, limit int) ([]StravaActivity, error) {
	rows, err := s.db.Query(
		`SELECT id, start_date, type, distance_m, moving_time_s FROM strava_activities
		 WHERE start_date > ? ORDER BY start_date DESC LIMIT ?`,
		since, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list recent activities: %w", err)
	}
	defer rows.Close()

	var activities []StravaActivity
	for rows.Next() {
		var a StravaActivity
		if err := rows.Scan(&a.ID, &a.StartDate, &a.Type, &a.DistanceM, &a.MovingTimeS); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
