// Package oauth owns the token lifecycle for the Strava and Spotify
// integrations: authorization-code exchange, refresh with a freshness
// margin, and disconnect.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/vault"
)

// Tokens are refreshed when they expire within this margin, so a token
// handed to an adapter is never on the verge of dying mid-request.
const refreshMargin = 30 * time.Second

// Credentials is a provider client id/secret pair, stored in the vault or
// supplied through the environment.
type Credentials struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// Manager resolves credentials, exchanges authorization codes, and keeps
// access tokens fresh.
type Manager struct {
	vault     *vault.Vault
	settings  *store.SettingsStore
	client    *http.Client
	logger    *slog.Logger
	endpoints map[Provider]Endpoints
	now       func() time.Time
}

func NewManager(v *vault.Vault, settings *store.SettingsStore, logger *slog.Logger) *Manager {
	eps := make(map[Provider]Endpoints, len(defaultEndpoints))
	for p, e := range defaultEndpoints {
		eps[p] = e
	}
	return &Manager{
		vault:     v,
		settings:  settings,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger.With("component", "oauth"),
		endpoints: eps,
		now:       time.Now,
	}
}

// SetTokenURL overrides a provider's token endpoint. Test hook.
func (m *Manager) SetTokenURL(p Provider, tokenURL string) {
	e := m.endpoints[p]
	e.TokenURL = tokenURL
	m.endpoints[p] = e
}

// Credentials resolves the client id/secret for a provider. Environment
// variables win over vault-stored credentials so a deployment can rotate
// keys without touching the database.
func (m *Manager) Credentials(p Provider) (Credentials, bool) {
	prefix := strings.ToUpper(string(p))
	env := Credentials{
		ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
	}
	if env.ClientID != "" && env.ClientSecret != "" {
		return env, true
	}

	var stored Credentials
	found, err := m.vault.Get(string(p)+"_credentials", &stored)
	if err != nil || !found {
		return Credentials{}, false
	}
	// Partial env config overlays stored values field by field.
	if env.ClientID != "" {
		stored.ClientID = env.ClientID
	}
	if env.ClientSecret != "" {
		stored.ClientSecret = env.ClientSecret
	}
	return stored, stored.ClientID != "" && stored.ClientSecret != ""
}

// SaveCredentials stores a client id/secret pair in the vault.
func (m *Manager) SaveCredentials(p Provider, creds Credentials) error {
	return m.vault.Save(string(p)+"_credentials", creds)
}

// AuthorizeURL builds the provider's consent page URL for the
// authorization-code grant.
func (m *Manager) AuthorizeURL(p Provider, redirectURI string) (string, error) {
	creds, ok := m.Credentials(p)
	if !ok {
		return "", fmt.Errorf("no client credentials configured for %s", p)
	}
	ep := m.endpoints[p]

	q := url.Values{}
	q.Set("client_id", creds.ClientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("response_type", "code")
	q.Set("scope", ep.Scope)
	if p == ProviderStrava {
		q.Set("approval_prompt", "auto")
	}
	return ep.AuthorizeURL + "?" + q.Encode(), nil
}

// ExchangeCode trades an authorization code for tokens, persists them, and
// flips the provider's connected flag.
func (m *Manager) ExchangeCode(ctx context.Context, p Provider, code, redirectURI string) error {
	creds, ok := m.Credentials(p)
	if !ok {
		return fmt.Errorf("no client credentials configured for %s", p)
	}

	tokens, athlete, err := m.tokenRequest(ctx, p, creds, map[string]string{
		"grant_type":   "authorization_code",
		"code":         code,
		"redirect_uri": redirectURI,
	})
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}

	if err := m.vault.Save(string(p)+"_tokens", tokens); err != nil {
		return fmt.Errorf("store tokens: %w", err)
	}
	if p == ProviderStrava && athlete != nil {
		if err := m.settings.SetJSON("strava_athlete", athlete); err != nil {
			m.logger.Warn("failed to store athlete profile", "error", err)
		}
	}
	if err := m.settings.SetJSON(string(p)+"_connected", true); err != nil {
		return fmt.Errorf("set connected flag: %w", err)
	}
	m.logger.Info("provider connected", "provider", p)
	return nil
}

// EnsureFreshAccessToken returns a usable access token for the provider, or
// "" when the provider is not connected or the refresh fails. A failed
// refresh leaves the stored tokens untouched so a transient provider outage
// does not wipe the connection.
func (m *Manager) EnsureFreshAccessToken(ctx context.Context, p Provider) string {
	var tokens model.OAuthTokens
	found, err := m.vault.Get(string(p)+"_tokens", &tokens)
	if err != nil || !found {
		return ""
	}

	if time.UnixMilli(tokens.ExpiresAt).Sub(m.now()) >= refreshMargin {
		return tokens.AccessToken
	}

	creds, ok := m.Credentials(p)
	if !ok {
		m.logger.Warn("token expired and no credentials to refresh", "provider", p)
		return ""
	}

	refreshed, _, err := m.tokenRequest(ctx, p, creds, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": tokens.RefreshToken,
	})
	if err != nil {
		m.logger.Warn("token refresh failed", "provider", p, "error", err)
		return ""
	}
	// Some providers omit the refresh token on refresh; keep the old one.
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = tokens.RefreshToken
	}
	if refreshed.Scope == "" {
		refreshed.Scope = tokens.Scope
	}

	if err := m.vault.Save(string(p)+"_tokens", refreshed); err != nil {
		m.logger.Warn("failed to store refreshed tokens", "provider", p, "error", err)
		return ""
	}
	return refreshed.AccessToken
}

// Connected reports the provider's connected flag.
func (m *Manager) Connected(p Provider) bool {
	return m.settings.GetBool(string(p)+"_connected", false)
}

// Disconnect removes tokens and cached identity and flips the connected
// flag. Stored client credentials survive so reconnecting is one consent
// screen away.
func (m *Manager) Disconnect(p Provider) error {
	if err := m.vault.Clear(string(p) + "_tokens"); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	if p == ProviderStrava {
		if err := m.settings.Delete("strava_athlete"); err != nil {
			return fmt.Errorf("clear athlete: %w", err)
		}
	}
	if err := m.settings.SetJSON(string(p)+"_connected", false); err != nil {
		return fmt.Errorf("set connected flag: %w", err)
	}
	m.logger.Info("provider disconnected", "provider", p)
	return nil
}

// tokenResponse is the superset of what Strava and Spotify return from
// their token endpoints.
type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	ExpiresAt    int64           `json:"expires_at"`
	ExpiresIn    int64           `json:"expires_in"`
	Scope        string          `json:"scope"`
	Athlete      json.RawMessage `json:"athlete"`
}

// tokenRequest POSTs to the provider's token endpoint in its preferred
// style and normalizes the response into absolute millisecond expiry.
func (m *Manager) tokenRequest(ctx context.Context, p Provider, creds Credentials, params map[string]string) (model.OAuthTokens, json.RawMessage, error) {
	ep := m.endpoints[p]

	var req *http.Request
	var err error
	switch ep.style {
	case styleFormBasic:
		form := url.Values{}
		for k, v := range params {
			form.Set(k, v)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, ep.TokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return model.OAuthTokens{}, nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	default:
		body := map[string]string{
			"client_id":     creds.ClientID,
			"client_secret": creds.ClientSecret,
		}
		for k, v := range params {
			body[k] = v
		}
		payload, merr := json.Marshal(body)
		if merr != nil {
			return model.OAuthTokens{}, nil, fmt.Errorf("marshal request: %w", merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, ep.TokenURL, strings.NewReader(string(payload)))
		if err != nil {
			return model.OAuthTokens{}, nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return model.OAuthTokens{}, nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.OAuthTokens{}, nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return model.OAuthTokens{}, nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return model.OAuthTokens{}, nil, fmt.Errorf("token response missing access_token")
	}

	tokens := model.OAuthTokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		Scope:        tr.Scope,
	}
	// Strava reports absolute expires_at in unix seconds; Spotify reports
	// relative expires_in seconds. Both normalize to absolute milliseconds.
	switch {
	case tr.ExpiresAt > 0:
		tokens.ExpiresAt = tr.ExpiresAt * 1000
	case tr.ExpiresIn > 0:
		tokens.ExpiresAt = m.now().UnixMilli() + tr.ExpiresIn*1000
	}
	return tokens, tr.Athlete, nil
}
