package oauth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alvslovescyber/dashingly/internal/database"
	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/vault"
)

func setupManager(t *testing.T) (*Manager, *vault.Vault, *store.SettingsStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settings := store.NewSettingsStore(db)
	v := vault.New(settings, "test-passphrase", logger)
	return NewManager(v, settings, logger), v, settings
}

func TestCredentialsEnvWinsOverVault(t *testing.T) {
	m, _, _ := setupManager(t)

	if err := m.SaveCredentials(ProviderStrava, Credentials{ClientID: "vault-id", ClientSecret: "vault-secret"}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}
	t.Setenv("STRAVA_CLIENT_ID", "env-id")
	t.Setenv("STRAVA_CLIENT_SECRET", "env-secret")

	creds, ok := m.Credentials(ProviderStrava)
	if !ok {
		t.Fatal("credentials should resolve")
	}
	if creds.ClientID != "env-id" || creds.ClientSecret != "env-secret" {
		t.Errorf("creds = %+v, want env values", creds)
	}
}

func TestCredentialsVaultFallback(t *testing.T) {
	m, _, _ := setupManager(t)
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	if _, ok := m.Credentials(ProviderSpotify); ok {
		t.Fatal("unconfigured provider should not resolve")
	}

	if err := m.SaveCredentials(ProviderSpotify, Credentials{ClientID: "id", ClientSecret: "sec"}); err != nil {
		t.Fatalf("save credentials: %v", err)
	}
	creds, ok := m.Credentials(ProviderSpotify)
	if !ok || creds.ClientID != "id" {
		t.Errorf("creds = %+v (ok=%v), want vault values", creds, ok)
	}
}

func TestExchangeCodeStrava(t *testing.T) {
	m, v, settings := setupManager(t)
	t.Setenv("STRAVA_CLIENT_ID", "cid")
	t.Setenv("STRAVA_CLIENT_SECRET", "csec")

	expiresAt := time.Now().Add(6 * time.Hour).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["client_id"] != "cid" || body["code"] != "the-code" {
			t.Errorf("request body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at",
			"refresh_token": "rt",
			"expires_at":    expiresAt,
			"athlete":       map[string]any{"id": 42, "firstname": "Alvaro"},
		})
	}))
	defer srv.Close()
	m.SetTokenURL(ProviderStrava, srv.URL)

	if err := m.ExchangeCode(context.Background(), ProviderStrava, "the-code", "http://192.168.1.10:3847/oauth/strava/callback"); err != nil {
		t.Fatalf("exchange: %v", err)
	}

	var tokens model.OAuthTokens
	found, err := v.Get("strava_tokens", &tokens)
	if err != nil || !found {
		t.Fatalf("tokens not stored: found=%v err=%v", found, err)
	}
	if tokens.AccessToken != "at" || tokens.RefreshToken != "rt" {
		t.Errorf("tokens = %+v", tokens)
	}
	if tokens.ExpiresAt != expiresAt*1000 {
		t.Errorf("expiresAt = %d, want absolute seconds scaled to ms (%d)", tokens.ExpiresAt, expiresAt*1000)
	}
	if !m.Connected(ProviderStrava) {
		t.Error("connected flag not set")
	}
	var athlete map[string]any
	if found, _ := settings.GetJSON("strava_athlete", &athlete); !found {
		t.Error("athlete profile not cached")
	}
}

func TestExchangeCodeSpotifyNormalizesRelativeExpiry(t *testing.T) {
	m, v, _ := setupManager(t)
	t.Setenv("SPOTIFY_CLIENT_ID", "cid")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "csec")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cid" || pass != "csec" {
			t.Errorf("basic auth = %q/%q (ok=%v)", user, pass, ok)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
			t.Errorf("content type = %q, want form", ct)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at",
			"refresh_token": "rt",
			"expires_in":    3600,
			"scope":         "user-read-currently-playing",
		})
	}))
	defer srv.Close()
	m.SetTokenURL(ProviderSpotify, srv.URL)

	before := time.Now().UnixMilli()
	if err := m.ExchangeCode(context.Background(), ProviderSpotify, "code", "http://192.168.1.10:3847/oauth/spotify/callback"); err != nil {
		t.Fatalf("exchange: %v", err)
	}
	after := time.Now().UnixMilli()

	var tokens model.OAuthTokens
	if found, err := v.Get("spotify_tokens", &tokens); err != nil || !found {
		t.Fatalf("tokens not stored: found=%v err=%v", found, err)
	}
	if tokens.ExpiresAt < before+3600*1000 || tokens.ExpiresAt > after+3600*1000 {
		t.Errorf("expiresAt = %d, want roughly now+1h in ms", tokens.ExpiresAt)
	}
}

func TestEnsureFreshSkipsRefreshWhenValid(t *testing.T) {
	m, v, _ := setupManager(t)

	err := v.Save("strava_tokens", model.OAuthTokens{
		AccessToken:  "fresh",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
	// Token endpoint unreachable on purpose; a refresh attempt would fail.
	m.SetTokenURL(ProviderStrava, "http://127.0.0.1:1/token")

	if got := m.EnsureFreshAccessToken(context.Background(), ProviderStrava); got != "fresh" {
		t.Errorf("token = %q, want stored token without refresh", got)
	}
}

func TestEnsureFreshMarginBoundary(t *testing.T) {
	m, v, _ := setupManager(t)

	now := time.UnixMilli(time.Now().UnixMilli())
	m.now = func() time.Time { return now }

	// Exactly the margin away is still fresh; a refresh attempt would hit
	// the unreachable endpoint and fail.
	err := v.Save("strava_tokens", model.OAuthTokens{
		AccessToken:  "edge",
		RefreshToken: "rt",
		ExpiresAt:    now.Add(refreshMargin).UnixMilli(),
	})
	if err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
	m.SetTokenURL(ProviderStrava, "http://127.0.0.1:1/token")

	if got := m.EnsureFreshAccessToken(context.Background(), ProviderStrava); got != "edge" {
		t.Errorf("token = %q, want stored token at the exact margin", got)
	}
}

func TestEnsureFreshRefreshesNearExpiry(t *testing.T) {
	m, v, _ := setupManager(t)
	t.Setenv("SPOTIFY_CLIENT_ID", "cid")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "csec")

	err := v.Save("spotify_tokens", model.OAuthTokens{
		AccessToken:  "stale",
		RefreshToken: "old-refresh",
		ExpiresAt:    time.Now().Add(10 * time.Second).UnixMilli(), // inside the 30s margin
	})
	if err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if gt := r.PostFormValue("grant_type"); gt != "refresh_token" {
			t.Errorf("grant_type = %q", gt)
		}
		if rt := r.PostFormValue("refresh_token"); rt != "old-refresh" {
			t.Errorf("refresh_token = %q", rt)
		}
		// Spotify omits refresh_token on refresh.
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "renewed",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()
	m.SetTokenURL(ProviderSpotify, srv.URL)

	if got := m.EnsureFreshAccessToken(context.Background(), ProviderSpotify); got != "renewed" {
		t.Fatalf("token = %q, want renewed", got)
	}

	// The old refresh token is carried forward.
	var tokens model.OAuthTokens
	if found, err := v.Get("spotify_tokens", &tokens); err != nil || !found {
		t.Fatalf("tokens not stored: found=%v err=%v", found, err)
	}
	if tokens.RefreshToken != "old-refresh" {
		t.Errorf("refresh token = %q, want carried forward", tokens.RefreshToken)
	}
}

func TestEnsureFreshFailedRefreshLeavesTokensUntouched(t *testing.T) {
	m, v, _ := setupManager(t)
	t.Setenv("STRAVA_CLIENT_ID", "cid")
	t.Setenv("STRAVA_CLIENT_SECRET", "csec")

	stored := model.OAuthTokens{
		AccessToken:  "stale",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(-time.Minute).UnixMilli(),
	}
	if err := v.Save("strava_tokens", stored); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad refresh"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()
	m.SetTokenURL(ProviderStrava, srv.URL)

	if got := m.EnsureFreshAccessToken(context.Background(), ProviderStrava); got != "" {
		t.Errorf("token = %q, want empty on failed refresh", got)
	}

	var after model.OAuthTokens
	if found, err := v.Get("strava_tokens", &after); err != nil || !found {
		t.Fatalf("tokens missing after failed refresh: found=%v err=%v", found, err)
	}
	if after != stored {
		t.Errorf("stored tokens changed by failed refresh: %+v", after)
	}
}

func TestEnsureFreshUnconfiguredProvider(t *testing.T) {
	m, _, _ := setupManager(t)
	if got := m.EnsureFreshAccessToken(context.Background(), ProviderStrava); got != "" {
		t.Errorf("token = %q, want empty when never connected", got)
	}
}

func TestDisconnect(t *testing.T) {
	m, v, settings := setupManager(t)

	if err := v.Save("strava_tokens", model.OAuthTokens{AccessToken: "at"}); err != nil {
		t.Fatalf("seed tokens: %v", err)
	}
	if err := settings.SetJSON("strava_athlete", map[string]any{"id": 42}); err != nil {
		t.Fatalf("seed athlete: %v", err)
	}
	if err := settings.SetJSON("strava_connected", true); err != nil {
		t.Fatalf("seed flag: %v", err)
	}
	if err := m.SaveCredentials(ProviderStrava, Credentials{ClientID: "id", ClientSecret: "sec"}); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}

	if err := m.Disconnect(ProviderStrava); err != nil {
		t.Fatalf("disconnect: %v", err)
	}

	if m.Connected(ProviderStrava) {
		t.Error("connected flag still set")
	}
	if v.Has("strava_tokens") {
		t.Error("tokens not cleared")
	}
	var athlete map[string]any
	if found, _ := settings.GetJSON("strava_athlete", &athlete); found {
		t.Error("athlete profile not cleared")
	}
	// Client credentials survive a disconnect.
	if !v.Has("strava_credentials") {
		t.Error("credentials should survive disconnect")
	}

	// A fresh-token request after disconnect must come back empty without
	// touching the network.
	m.SetTokenURL(ProviderStrava, "http://127.0.0.1:0")
	if got := m.EnsureFreshAccessToken(context.Background(), ProviderStrava); got != "" {
		t.Errorf("token after disconnect = %q, want empty", got)
	}
}

func TestAuthorizeURL(t *testing.T) {
	m, _, _ := setupManager(t)
	t.Setenv("STRAVA_CLIENT_ID", "cid")
	t.Setenv("STRAVA_CLIENT_SECRET", "csec")

	u, err := m.AuthorizeURL(ProviderStrava, "http://192.168.1.10:3847/oauth/strava/callback")
	if err != nil {
		t.Fatalf("authorize url: %v", err)
	}
	if !strings.HasPrefix(u, "https://www.strava.com/oauth/authorize?") {
		t.Errorf("url = %q", u)
	}
	for _, want := range []string{"client_id=cid", "response_type=code", "activity%3Aread_all"} {
		if !strings.Contains(u, want) {
			t.Errorf("url missing %q: %s", want, u)
		}
	}
}
