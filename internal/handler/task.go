package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alvslovescyber/dashingly/internal/logicalday"
	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

type TaskHandler struct {
	tasks  *store.TaskStore
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTaskHandler(tasks *store.TaskStore, hub *websocket.Hub, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, hub: hub, logger: logger}
}

func (h *TaskHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type taskRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	taskType := model.TaskType(req.Type)
	if taskType == "" {
		taskType = model.TaskDaily
	}
	if taskType != model.TaskDaily && taskType != model.TaskOneoff {
		writeError(w, http.StatusBadRequest, "type must be daily or oneoff")
		return
	}

	task, err := h.tasks.Create(req.Title, taskType)
	if err != nil {
		h.logger.Error("failed to create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.broadcast(websocket.NewMessage("task", "created", task.ID))
	writeJSON(w, http.StatusCreated, task)
}

type taskUpdateRequest struct {
	Title    *string `json:"title"`
	Type     *string `json:"type"`
	IsActive *bool   `json:"isActive"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	upd := store.TaskUpdate{IsActive: req.IsActive}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		upd.Title = &title
	}
	if req.Type != nil {
		taskType := model.TaskType(*req.Type)
		if taskType != model.TaskDaily && taskType != model.TaskOneoff {
			writeError(w, http.StatusBadRequest, "type must be daily or oneoff")
			return
		}
		upd.Type = &taskType
	}

	task, err := h.tasks.Update(id, upd)
	if err != nil {
		h.logger.Error("failed to update task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	h.broadcast(websocket.NewMessage("task", "updated", task.ID))
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.tasks.Delete(id); err != nil {
		h.logger.Error("failed to delete task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.broadcast(websocket.NewMessage("task", "deleted", id))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	existing, err := h.tasks.GetByID(id)
	if err != nil {
		h.logger.Error("failed to get task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	completed, err := h.tasks.ToggleCompletion(id, logicalday.Today())
	if err != nil {
		h.logger.Error("failed to toggle completion", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to toggle completion")
		return
	}

	h.broadcast(websocket.NewMessage("task", "completed", id))
	writeJSON(w, http.StatusOK, map[string]bool{"completed": completed})
}
