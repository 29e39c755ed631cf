// Package spotify keeps a single cached now-playing row fresh and exposes
// playback controls.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/oauth"
	"github.com/alvslovescyber/dashingly/internal/store"
)

const defaultAPIBase = "https://api.spotify.com/v1"

// ErrNotConnected is returned by Control and Refresh when no usable access
// token exists.
var ErrNotConnected = errors.New("spotify not connected")

// TokenSource hands out fresh access tokens. Satisfied by *oauth.Manager.
type TokenSource interface {
	EnsureFreshAccessToken(ctx context.Context, p oauth.Provider) string
}

// Adapter syncs and reads the now-playing state.
type Adapter struct {
	tokens   TokenSource
	store    *store.SpotifyStore
	settings *store.SettingsStore
	sync     *store.SyncStore
	client   *http.Client
	logger   *slog.Logger
	apiBase  string
}

func New(tokens TokenSource, st *store.SpotifyStore, settings *store.SettingsStore, sync *store.SyncStore, logger *slog.Logger) *Adapter {
	return &Adapter{
		tokens:   tokens,
		store:    st,
		settings: settings,
		sync:     sync,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.With("component", "spotify"),
		apiBase:  defaultAPIBase,
	}
}

// SetAPIBase overrides the Spotify API base URL. Test hook.
func (a *Adapter) SetAPIBase(base string) { a.apiBase = base }

// currentlyPlayingResponse mirrors the subset of the Spotify player payload
// the dashboard renders.
type currentlyPlayingResponse struct {
	IsPlaying  bool  `json:"is_playing"`
	ProgressMs int64 `json:"progress_ms"`
	Item       *struct {
		Name       string `json:"name"`
		DurationMs int64  `json:"duration_ms"`
		Album      struct {
			Name   string `json:"name"`
			Images []struct {
				URL string `json:"url"`
			} `json:"images"`
		} `json:"album"`
		Artists []struct {
			Name string `json:"name"`
		} `json:"artists"`
	} `json:"item"`
}

// Refresh fetches the currently-playing track and replaces the cached row.
// A 204 or a payload without a track maps to a not-playing row rather than
// an error.
func (a *Adapter) Refresh(ctx context.Context) error {
	token := a.tokens.EnsureFreshAccessToken(ctx, oauth.ProviderSpotify)
	if token == "" {
		return ErrNotConnected
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiBase+"/me/player/currently-playing", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch currently playing: %w", err)
	}
	defer resp.Body.Close()

	now := time.Now().UnixMilli()
	np := model.NowPlaying{TS: now}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		// Nothing playing; cache the silence so the kiosk stops showing a
		// stale track.
	case resp.StatusCode == http.StatusOK:
		var cp currentlyPlayingResponse
		if err := json.NewDecoder(resp.Body).Decode(&cp); err != nil {
			return fmt.Errorf("decode currently playing: %w", err)
		}
		if cp.Item != nil {
			np.IsPlaying = cp.IsPlaying
			np.Track = cp.Item.Name
			np.Album = cp.Item.Album.Name
			np.ProgressMs = cp.ProgressMs
			np.DurationMs = cp.Item.DurationMs
			if len(cp.Item.Artists) > 0 {
				np.Artist = cp.Item.Artists[0].Name
			}
			if len(cp.Item.Album.Images) > 0 {
				art := cp.Item.Album.Images[0].URL
				np.AlbumArtURL = &art
			}
		}
	default:
		return fmt.Errorf("currently playing returned %d", resp.StatusCode)
	}

	if err := a.store.UpsertNowPlaying(np); err != nil {
		return err
	}
	if err := a.sync.SetLastSync(store.SyncSpotify, now, "", ""); err != nil {
		a.logger.Warn("failed to record spotify sync", "error", err)
	}
	return nil
}

// Status reads the cached now-playing row. Connected with no cached row
// yields an empty placeholder rather than nil, so the UI can render the
// integration tile.
func (a *Adapter) Status() (*model.SpotifyStatus, error) {
	if !a.settings.GetBool("spotify_connected", false) {
		return nil, nil
	}

	np, err := a.store.Latest()
	if err != nil {
		return nil, err
	}
	status := &model.SpotifyStatus{Connected: true}
	if np != nil {
		status.IsPlaying = np.IsPlaying
		status.Track = np.Track
		status.Artist = np.Artist
		status.Album = np.Album
		status.AlbumArt = np.AlbumArtURL
		status.ProgressMs = np.ProgressMs
		status.DurationMs = np.DurationMs
	}
	return status, nil
}

// controlRoutes maps an action name to its player endpoint and method.
var controlRoutes = map[string]struct {
	method string
	path   string
}{
	"play":     {http.MethodPut, "/me/player/play"},
	"pause":    {http.MethodPut, "/me/player/pause"},
	"next":     {http.MethodPost, "/me/player/next"},
	"previous": {http.MethodPost, "/me/player/previous"},
}

// ValidAction reports whether the action name is a supported playback
// control.
func ValidAction(action string) bool {
	_, ok := controlRoutes[action]
	return ok
}

// Control issues a playback command and immediately re-fetches the playing
// state so the cached row reflects the result.
func (a *Adapter) Control(ctx context.Context, action string) error {
	route, ok := controlRoutes[action]
	if !ok {
		return fmt.Errorf("unknown playback action %q", action)
	}

	token := a.tokens.EnsureFreshAccessToken(ctx, oauth.ProviderSpotify)
	if token == "" {
		return ErrNotConnected
	}

	req, err := http.NewRequestWithContext(ctx, route.method, a.apiBase+route.path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("playback %s: %w", action, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("playback %s returned %d", action, resp.StatusCode)
	}

	if err := a.Refresh(ctx); err != nil {
		a.logger.Warn("refresh after playback control failed", "action", action, "error", err)
	}
	return nil
}
