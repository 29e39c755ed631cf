package store

import (
	"database/sql"
	"fmt"
)

// Sync channel keys. One row per integration channel, updated after every
// attempted external call, never deleted.
const (
	SyncStrava  = "strava"
	SyncHealth  = "health"
	SyncSpotify = "spotify"
	SyncWeather = "weather"
	SyncAI      = "ai_suggestions"
)

// SyncStore tracks per-integration last-sync timestamps.
type SyncStore struct {
	db *sql.DB
}

func NewSyncStore(db *sql.DB) *SyncStore {
	return &SyncStore{db: db}
}

// LastSync returns the last sync timestamp (epoch ms) for a channel, with
// ok=false when the channel has never synced.
func (s *SyncStore) LastSync(key string) (int64, bool) {
	var ts int64
	err := s.db.QueryRow(`SELECT last_sync FROM sync_status WHERE key = ?`, key).Scan(&ts)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// SetLastSync records a sync attempt for a channel.
func (s *SyncStore) SetLastSync(key string, ts int64, status, errMsg string) error {
	if status == "" {
		status = "success"
	}
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO sync_status (key, last_sync, status, error) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET last_sync = excluded.last_sync, status = excluded.status, error = excluded.error`,
		key, ts, status, errVal,
	)
	if err != nil {
		return fmt.Errorf("set sync status %q: %w", key, err)
	}
	return nil
}
