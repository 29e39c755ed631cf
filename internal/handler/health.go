package handler

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

// HealthHandler receives health snapshots pushed from a phone automation.
// The shared secret comes from configuration, not the database, so a wiped
// database cannot silently open the endpoint.
type HealthHandler struct {
	health  *store.HealthStore
	sync    *store.SyncStore
	secret  string
	baseURL string
	hub     *websocket.Hub
	logger  *slog.Logger
}

func NewHealthHandler(health *store.HealthStore, sync *store.SyncStore, secret, baseURL string, hub *websocket.Hub, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{health: health, sync: sync, secret: secret, baseURL: baseURL, hub: hub, logger: logger}
}

// Push validates and stores one inbound snapshot.
func (h *HealthHandler) Push(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		writeError(w, http.StatusInternalServerError, "health sync is not configured")
		return
	}

	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var payload model.HealthPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if details := validateHealthPayload(payload); len(details) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload", "details": details})
		return
	}

	raw, _ := json.Marshal(payload)
	snap := model.HealthSnapshot{
		TS:           payload.Timestamp,
		Steps:        payload.Steps,
		ActiveCals:   payload.ActiveCalories,
		SleepMinutes: payload.SleepMinutes,
	}
	if err := h.health.Insert(snap, string(raw)); err != nil {
		h.logger.Error("failed to store health snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store snapshot")
		return
	}
	if err := h.sync.SetLastSync(store.SyncHealth, time.Now().UnixMilli(), "", ""); err != nil {
		h.logger.Warn("failed to record health sync", "error", err)
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage("health", "updated", ""))
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "timestamp": payload.Timestamp})
}

func validateHealthPayload(p model.HealthPayload) []string {
	var details []string
	if p.Steps < 0 {
		details = append(details, "steps must be >= 0")
	}
	if p.ActiveCalories < 0 {
		details = append(details, "activeCalories must be >= 0")
	}
	if p.SleepMinutes < 0 {
		details = append(details, "sleepMinutes must be >= 0")
	}
	if p.Timestamp <= 0 {
		details = append(details, "timestamp is required and must be a positive epoch-ms value")
	}
	return details
}

// Info serves setup instructions for the phone automation, with the
// LAN-resolved endpoint filled in.
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	endpoint := h.baseURL + "/health"
	fmt.Fprintf(w, `<!doctype html><html><head><title>Health Sync Setup</title></head>
<body style="font-family:sans-serif;max-width:40em;margin:4em auto">
<h1>Health Sync Setup</h1>
<p>Point your phone's health automation at:</p>
<pre>POST %s</pre>
<p>Headers:</p>
<pre>Authorization: Bearer &lt;your shared secret&gt;
Content-Type: application/json</pre>
<p>Body:</p>
<pre>{"steps": 7842, "activeCalories": 342, "sleepMinutes": 412, "timestamp": 1724800000000}</pre>
<p>All counts are for the current day; timestamp is required, in epoch milliseconds.</p>
</body></html>`, endpoint)
}
