package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/weather"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

type SettingsHandler struct {
	settings *store.SettingsStore
	weather  *weather.Adapter
	hub      *websocket.Hub
	logger   *slog.Logger
}

func NewSettingsHandler(settings *store.SettingsStore, weatherAdapter *weather.Adapter, hub *websocket.Hub, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, weather: weatherAdapter, hub: hub, logger: logger}
}

// reservedPrefix guards vault entries from the generic settings endpoints.
const reservedPrefix = "secure:"

// Get returns a raw setting value by key.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if strings.HasPrefix(key, reservedPrefix) {
		writeError(w, http.StatusForbidden, "reserved key")
		return
	}

	var value json.RawMessage
	found, err := h.settings.GetJSON(key, &value)
	if err != nil {
		h.logger.Error("failed to read setting", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read setting")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "setting not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"key": key, "value": value})
}

// Put stores a raw JSON value under a key.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if strings.HasPrefix(key, reservedPrefix) {
		writeError(w, http.StatusForbidden, "reserved key")
		return
	}

	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Value) == 0 {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if err := h.settings.SetJSON(key, body.Value); err != nil {
		h.logger.Error("failed to write setting", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to write setting")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("settings", "updated", key))
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *SettingsHandler) GetWeather(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.weather.Settings())
}

func (h *SettingsHandler) PutWeather(w http.ResponseWriter, r *http.Request) {
	var ws model.WeatherSettings
	if err := json.NewDecoder(r.Body).Decode(&ws); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if ws.LocationMode != "city" && ws.LocationMode != "latlon" {
		writeError(w, http.StatusBadRequest, "locationMode must be city or latlon")
		return
	}
	if ws.Units != "metric" && ws.Units != "imperial" {
		writeError(w, http.StatusBadRequest, "units must be metric or imperial")
		return
	}

	if err := h.weather.SaveSettings(ws); err != nil {
		h.logger.Error("failed to save weather settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save weather settings")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("weather", "updated", ""))
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *SettingsHandler) SearchCities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	cities, err := h.weather.SearchCities(r.Context(), query)
	if err != nil {
		h.logger.Warn("city search failed", "error", err)
		writeError(w, http.StatusBadGateway, "city search failed")
		return
	}
	if cities == nil {
		cities = []weather.City{}
	}
	writeJSON(w, http.StatusOK, cities)
}
