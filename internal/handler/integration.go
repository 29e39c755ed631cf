package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alvslovescyber/dashingly/internal/ai"
	"github.com/alvslovescyber/dashingly/internal/oauth"
	"github.com/alvslovescyber/dashingly/internal/spotify"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/weather"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

type IntegrationHandler struct {
	oauth     *oauth.Manager
	generator *ai.Generator
	spotify   *spotify.Adapter
	weather   *weather.Adapter
	sync      *store.SyncStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewIntegrationHandler(mgr *oauth.Manager, generator *ai.Generator, spotifyAdapter *spotify.Adapter, weatherAdapter *weather.Adapter, sync *store.SyncStore, hub *websocket.Hub, logger *slog.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		oauth:     mgr,
		generator: generator,
		spotify:   spotifyAdapter,
		weather:   weatherAdapter,
		sync:      sync,
		hub:       hub,
		logger:    logger,
	}
}

// serviceStatus is one row of the integrations overview.
type serviceStatus struct {
	Connected       bool   `json:"connected"`
	LastSync        *int64 `json:"lastSync,omitempty"`
	HasClientID     bool   `json:"hasClientId"`
	HasClientSecret bool   `json:"hasClientSecret"`
	HasLocation     bool   `json:"hasLocation,omitempty"`
}

// Status reports per-service connection state for the settings screen.
func (h *IntegrationHandler) Status(w http.ResponseWriter, r *http.Request) {
	out := map[string]serviceStatus{}

	for _, p := range []oauth.Provider{oauth.ProviderStrava, oauth.ProviderSpotify} {
		creds, _ := h.oauth.Credentials(p)
		s := serviceStatus{
			Connected:       h.oauth.Connected(p),
			HasClientID:     creds.ClientID != "",
			HasClientSecret: creds.ClientSecret != "",
		}
		if ts, ok := h.sync.LastSync(string(p)); ok {
			s.LastSync = &ts
		}
		out[string(p)] = s
	}

	ws := h.weather.Settings()
	weatherStatus := serviceStatus{
		Connected:   true,
		HasLocation: ws.CityName != "" || ws.Latitude != 0 || ws.Longitude != 0,
	}
	if ts, ok := h.sync.LastSync(store.SyncWeather); ok {
		weatherStatus.LastSync = &ts
	}
	out["weather"] = weatherStatus

	healthStatus := serviceStatus{}
	if ts, ok := h.sync.LastSync(store.SyncHealth); ok {
		healthStatus.Connected = true
		healthStatus.LastSync = &ts
	}
	out["health"] = healthStatus

	openai := serviceStatus{Connected: h.generator.HasKey()}
	if ts, ok := h.sync.LastSync(store.SyncAI); ok {
		openai.LastSync = &ts
	}
	out["openai"] = openai

	writeJSON(w, http.StatusOK, out)
}

// PutCredentials stores a client id/secret pair for an OAuth provider.
func (h *IntegrationHandler) PutCredentials(w http.ResponseWriter, r *http.Request) {
	p := oauth.Provider(r.PathValue("service"))
	if !oauth.Known(p) {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}

	var creds oauth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	creds.ClientID = strings.TrimSpace(creds.ClientID)
	creds.ClientSecret = strings.TrimSpace(creds.ClientSecret)
	if creds.ClientID == "" || creds.ClientSecret == "" {
		writeError(w, http.StatusBadRequest, "clientId and clientSecret are required")
		return
	}

	if err := h.oauth.SaveCredentials(p, creds); err != nil {
		h.logger.Error("failed to save credentials", "service", p, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Disconnect drops a provider's tokens and connected flag.
func (h *IntegrationHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	p := oauth.Provider(r.PathValue("service"))
	if !oauth.Known(p) {
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}

	if err := h.oauth.Disconnect(p); err != nil {
		h.logger.Error("failed to disconnect", "service", p, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to disconnect")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(string(p), "disconnected", ""))
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Test exercises a service end to end and reports whether it works right
// now.
func (h *IntegrationHandler) Test(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")

	var ok bool
	var detail string
	switch service {
	case "strava", "spotify":
		token := h.oauth.EnsureFreshAccessToken(r.Context(), oauth.Provider(service))
		ok = token != ""
		if !ok {
			detail = "no usable access token"
		}
	case "weather":
		status, err := h.weather.Status(r.Context())
		ok = err == nil && status != nil
		if !ok {
			detail = "no weather data for the configured location"
		}
	case "openai":
		ok = h.generator.HasKey()
		if !ok {
			detail = "no API key configured"
		}
	default:
		writeError(w, http.StatusNotFound, "unknown service")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": ok, "detail": detail})
}

// GetOpenAIKey reports whether a suggestion provider key is configured. The
// key itself never leaves the vault.
func (h *IntegrationHandler) GetOpenAIKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"hasKey": h.generator.HasKey()})
}

// PutOpenAIKey stores the suggestion provider key in the vault.
func (h *IntegrationHandler) PutOpenAIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	body.Key = strings.TrimSpace(body.Key)
	if body.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := h.generator.SaveKey(body.Key); err != nil {
		h.logger.Error("failed to save openai key", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
