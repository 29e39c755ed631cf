package store

import (
	"database/sql"
	"fmt"

	"github.com/alvslovescyber/dashingly/internal/model"
)

// SpotifyStore owns the spotify_now_playing table. The table holds at most
// one row: there is no playback history, new data replaces old
// unconditionally.
type SpotifyStore struct {
	db *sql.DB
}

func NewSpotifyStore(db *sql.DB) *SpotifyStore {
	return &SpotifyStore{db: db}
}

// UpsertNowPlaying replaces the latest playback row. Idempotent: repeated
// writes of the same state leave the table in the same single-row shape.
func (s *SpotifyStore) UpsertNowPlaying(np model.NowPlaying) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM spotify_now_playing`); err != nil {
		return fmt.Errorf("clear now playing: %w", err)
	}

	playing := 0
	if np.IsPlaying {
		playing = 1
	}
	var art sql.NullString
	if np.AlbumArtURL != nil {
		art = sql.NullString{String: *np.AlbumArtURL, Valid: true}
	}
	_, err = tx.Exec(
		`INSERT INTO spotify_now_playing (ts, is_playing, track, artist, album, album_art_url, progress_ms, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		np.TS, playing, np.Track, np.Artist, np.Album, art, np.ProgressMs, np.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert now playing: %w", err)
	}
	return tx.Commit()
}

// Latest returns the most recent now-playing row, or nil when none exists.
func (s *SpotifyStore) Latest() (*model.NowPlaying, error) {
	var np model.NowPlaying
	var playing int
	var art sql.NullString
	err := s.db.QueryRow(
		`SELECT ts, is_playing, track, artist, album, album_art_url, progress_ms, duration_ms
		 FROM spotify_now_playing ORDER BY ts DESC LIMIT 1`,
	).Scan(&np.TS, &playing, &np.Track, &np.Artist, &np.Album, &art, &np.ProgressMs, &np.DurationMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get now playing: %w", err)
	}
	np.IsPlaying = playing != 0
	if art.Valid {
		np.AlbumArtURL = &art.String
	}
	return &np, nil
}
