package store

import (
	"database/sql"
	"fmt"

	"github.com/alvslovescyber/dashingly/internal/model"
)

// HealthStore owns the health_snapshots table, written only by the inbound
// push endpoint.
type HealthStore struct {
	db *sql.DB
}

func NewHealthStore(db *sql.DB) *HealthStore {
	return &HealthStore{db: db}
}

// Insert records one pushed health payload. A payload re-sent with the same
// timestamp overwrites the earlier row.
func (s *HealthStore) Insert(snap model.HealthSnapshot, rawJSON string) error {
	if rawJSON == "" {
		rawJSON = "{}"
	}
	_, err := s.db.Exec(
		`INSERT INTO health_snapshots (ts, steps, active_cals, sleep_minutes, raw_json) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(ts) DO UPDATE SET steps = excluded.steps, active_cals = excluded.active_cals,
		 sleep_minutes = excluded.sleep_minutes, raw_json = excluded.raw_json`,
		snap.TS, snap.Steps, snap.ActiveCals, snap.SleepMinutes, rawJSON,
	)
	if err != nil {
		return fmt.Errorf("insert health snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot, or nil when none exist.
func (s *HealthStore) Latest() (*model.HealthSnapshot, error) {
	var snap model.HealthSnapshot
	err := s.db.QueryRow(
		`SELECT ts, steps, active_cals, sleep_minutes FROM health_snapshots ORDER BY ts DESC LIMIT 1`,
	).Scan(&snap.TS, &snap.Steps, &snap.ActiveCals, &snap.SleepMinutes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest health snapshot: %w", err)
	}
	return &snap, nil
}
