package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alvslovescyber/dashingly/internal/model"
)

// WeatherCacheStore owns the weather_cache table: one row per rounded
// coordinate + unit combination, overwritten on refresh and never deleted.
type WeatherCacheStore struct {
	db *sql.DB
}

func NewWeatherCacheStore(db *sql.DB) *WeatherCacheStore {
	return &WeatherCacheStore{db: db}
}

// Get returns the cached status and its fetch time for a cache key, or nil
// when absent or unparseable.
func (s *WeatherCacheStore) Get(cacheKey string) (*model.WeatherStatus, int64, error) {
	var payload string
	var fetchedAt int64
	err := s.db.QueryRow(
		`SELECT payload, fetched_at FROM weather_cache WHERE cache_key = ?`, cacheKey,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get weather cache: %w", err)
	}

	var status model.WeatherStatus
	if err := json.Unmarshal([]byte(payload), &status); err != nil {
		// Corrupt payloads behave like a miss.
		return nil, 0, nil
	}
	return &status, fetchedAt, nil
}

// Put writes or overwrites the cache row for a key.
func (s *WeatherCacheStore) Put(cacheKey string, status model.WeatherStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal weather status: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO weather_cache (cache_key, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		cacheKey, string(payload), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put weather cache: %w", err)
	}
	return nil
}
