package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alvslovescyber/dashingly/internal/spotify"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

type SpotifyHandler struct {
	spotify *spotify.Adapter
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewSpotifyHandler(adapter *spotify.Adapter, hub *websocket.Hub, logger *slog.Logger) *SpotifyHandler {
	return &SpotifyHandler{spotify: adapter, hub: hub, logger: logger}
}

// Control dispatches a playback action (play, pause, next, previous).
func (h *SpotifyHandler) Control(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	if !spotify.ValidAction(action) {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	err := h.spotify.Control(r.Context(), action)
	if errors.Is(err, spotify.ErrNotConnected) {
		writeError(w, http.StatusConflict, "spotify is not connected")
		return
	}
	if err != nil {
		h.logger.Error("playback control failed", "action", action, "error", err)
		writeError(w, http.StatusBadGateway, "playback control failed")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("spotify", "updated", ""))
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
