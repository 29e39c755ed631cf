package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alvslovescyber/dashingly/internal/ai"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

type SuggestionHandler struct {
	suggestions *store.SuggestionStore
	generator   *ai.Generator
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewSuggestionHandler(suggestions *store.SuggestionStore, generator *ai.Generator, hub *websocket.Hub, logger *slog.Logger) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions, generator: generator, hub: hub, logger: logger}
}

func (h *SuggestionHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Accept creates a one-off task from the suggestion. Unknown ids are a
// caller-visible 404 because accept produces a new side effect.
func (h *SuggestionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	task, err := h.suggestions.Accept(id)
	if errors.Is(err, store.ErrSuggestionNotFound) {
		writeError(w, http.StatusNotFound, "suggestion not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to accept suggestion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to accept suggestion")
		return
	}

	h.broadcast(websocket.NewMessage("suggestion", "accepted", id))
	h.broadcast(websocket.NewMessage("task", "created", task.ID))
	writeJSON(w, http.StatusOK, task)
}

// Dismiss marks the suggestion dismissed. Unknown ids succeed silently;
// dismiss is a monotonic status write with no side effect to lose.
func (h *SuggestionHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.suggestions.Dismiss(id); err != nil {
		h.logger.Error("failed to dismiss suggestion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to dismiss suggestion")
		return
	}

	h.broadcast(websocket.NewMessage("suggestion", "dismissed", id))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Generate triggers one AI run, honoring the throttle.
func (h *SuggestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if ok, reason := h.generator.CanRun(); !ok {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"allowed": false, "reason": reason})
		return
	}

	created, err := h.generator.Generate(r.Context())
	if err != nil {
		h.logger.Error("suggestion generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "suggestion generation failed")
		return
	}

	if len(created) > 0 {
		h.broadcast(websocket.NewMessage("suggestion", "created", ""))
	}
	writeJSON(w, http.StatusOK, created)
}
