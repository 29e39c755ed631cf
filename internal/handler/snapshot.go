package handler

import (
	"log/slog"
	"net/http"

	"github.com/alvslovescyber/dashingly/internal/snapshot"
)

type SnapshotHandler struct {
	builder *snapshot.Builder
	logger  *slog.Logger
}

func NewSnapshotHandler(builder *snapshot.Builder, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{builder: builder, logger: logger}
}

func (h *SnapshotHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.builder.Build(r.Context())
	if err != nil {
		h.logger.Error("failed to build snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
