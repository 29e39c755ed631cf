package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// SettingsStore is the durable key/value store backing configuration,
// feature flags, OAuth tokens, and cached identities. Values are JSON.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// GetJSON unmarshals the stored value for key into out. It returns false when
// the key is absent or the stored payload does not parse; out is left
// untouched in both cases so callers keep their defaults.
func (s *SettingsStore) GetJSON(key string, out any) (bool, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get setting %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, nil
	}
	return true, nil
}

// GetString returns the stored string value for key, or fallback.
func (s *SettingsStore) GetString(key, fallback string) string {
	var v string
	if ok, err := s.GetJSON(key, &v); err != nil || !ok {
		return fallback
	}
	return v
}

// GetBool returns the stored boolean value for key, or fallback.
func (s *SettingsStore) GetBool(key string, fallback bool) bool {
	var v bool
	if ok, err := s.GetJSON(key, &v); err != nil || !ok {
		return fallback
	}
	return v
}

// GetFloat returns the stored numeric value for key, or fallback.
func (s *SettingsStore) GetFloat(key string, fallback float64) float64 {
	var v float64
	if ok, err := s.GetJSON(key, &v); err != nil || !ok {
		return fallback
	}
	return v
}

// GetInt returns the stored integer value for key, or fallback.
func (s *SettingsStore) GetInt(key string, fallback int) int {
	var v int
	if ok, err := s.GetJSON(key, &v); err != nil || !ok {
		return fallback
	}
	return v
}

// SetJSON stores value under key, overwriting any previous value.
func (s *SettingsStore) SetJSON(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal setting %q: %w", key, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(raw),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}

// Delete removes a setting. Deleting an absent key is a no-op.
func (s *SettingsStore) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}
