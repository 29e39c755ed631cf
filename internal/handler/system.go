package handler

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alvslovescyber/dashingly/internal/database"
	"github.com/alvslovescyber/dashingly/internal/logicalday"
	"github.com/alvslovescyber/dashingly/internal/seed"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

// SystemHandler covers maintenance operations: database export, demo
// reset, and the daily bible completion toggle.
type SystemHandler struct {
	db     *sql.DB
	dbPath string
	bible  *store.BibleStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewSystemHandler(db *sql.DB, dbPath string, bible *store.BibleStore, hub *websocket.Hub, logger *slog.Logger) *SystemHandler {
	return &SystemHandler{db: db, dbPath: dbPath, bible: bible, hub: hub, logger: logger}
}

func (h *SystemHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// Export copies the database file to a caller-supplied path.
func (h *SystemHandler) Export(w http.ResponseWriter, r *http.Request) {
	dst := strings.TrimSpace(r.URL.Query().Get("path"))
	if dst == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if h.dbPath == ":memory:" {
		writeError(w, http.StatusBadRequest, "in-memory database cannot be exported")
		return
	}

	if err := database.Export(h.dbPath, dst); err != nil {
		h.logger.Error("export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "path": dst})
}

// Seed resets user data to the demo dataset.
func (h *SystemHandler) Seed(w http.ResponseWriter, r *http.Request) {
	if err := seed.Apply(h.db); err != nil {
		h.logger.Error("seed failed", "error", err)
		writeError(w, http.StatusInternalServerError, "seed failed")
		return
	}

	h.broadcast(websocket.NewMessage("snapshot", "invalidated", ""))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// BibleComplete toggles today's reading completion.
func (h *SystemHandler) BibleComplete(w http.ResponseWriter, r *http.Request) {
	completed, err := h.bible.ToggleCompletion(logicalday.Today())
	if err != nil {
		h.logger.Error("failed to toggle bible completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle completion")
		return
	}

	h.broadcast(websocket.NewMessage("bible", "completed", ""))
	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}
