package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alvslovescyber/dashingly/internal/store"
)

func healthMux(t *testing.T, secret string) (*http.ServeMux, *store.HealthStore) {
	t.Helper()
	db := testDB(t)
	health := store.NewHealthStore(db)
	h := NewHealthHandler(health, store.NewSyncStore(db), secret, "http://192.168.1.10:3847", nil, testLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /health", h.Push)
	mux.HandleFunc("GET /health-info", h.Info)
	return mux, health
}

func pushReq(body, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/health", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestHealthPush(t *testing.T) {
	mux, health := healthMux(t, "s3cret")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, pushReq(`{"steps":7842,"activeCalories":342,"sleepMinutes":412,"timestamp":1724800000000}`, "s3cret"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	json.Unmarshal(rec.Body.Bytes(), &out)
	if out["success"] != true {
		t.Errorf("body = %v", out)
	}

	snap, err := health.Latest()
	if err != nil || snap == nil {
		t.Fatalf("snapshot not stored: %v %v", snap, err)
	}
	if snap.Steps != 7842 || snap.SleepMinutes != 412 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHealthPushUnconfigured(t *testing.T) {
	mux, _ := healthMux(t, "")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, pushReq(`{"steps":1}`, "anything"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when no secret is configured", rec.Code)
	}
}

func TestHealthPushBadToken(t *testing.T) {
	mux, _ := healthMux(t, "s3cret")

	for _, token := range []string{"", "wrong"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, pushReq(`{"steps":1}`, token))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("token %q: status = %d, want 401", token, rec.Code)
		}
	}
}

func TestHealthPushValidation(t *testing.T) {
	mux, _ := healthMux(t, "s3cret")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, pushReq(`{"steps":-5,"activeCalories":-1,"timestamp":1724800000000}`, "s3cret"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var out map[string]any
	json.Unmarshal(rec.Body.Bytes(), &out)
	details, _ := out["details"].([]any)
	if len(details) != 2 {
		t.Errorf("details = %v, want two violations", out["details"])
	}
}

func TestHealthPushRequiresTimestamp(t *testing.T) {
	mux, health := healthMux(t, "s3cret")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, pushReq(`{"steps":7842,"activeCalories":342,"sleepMinutes":412}`, "s3cret"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 without timestamp", rec.Code)
	}
	var out map[string]any
	json.Unmarshal(rec.Body.Bytes(), &out)
	details, _ := out["details"].([]any)
	if len(details) != 1 {
		t.Errorf("details = %v, want one violation", out["details"])
	}

	if snap, err := health.Latest(); err != nil || snap != nil {
		t.Errorf("snapshot stored despite rejection: %v %v", snap, err)
	}
}

func TestHealthInfoPage(t *testing.T) {
	mux, _ := healthMux(t, "s3cret")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http://192.168.1.10:3847/health") {
		t.Error("page should include the resolved endpoint")
	}
}
