package handler

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alvslovescyber/dashingly/internal/database"
	"github.com/alvslovescyber/dashingly/internal/model"
	"github.com/alvslovescyber/dashingly/internal/store"
	"github.com/alvslovescyber/dashingly/internal/websocket"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func taskMux(t *testing.T) (*http.ServeMux, *store.TaskStore) {
	t.Helper()
	tasks := store.NewTaskStore(testDB(t))
	h := NewTaskHandler(tasks, websocket.NewHub(testLogger()), testLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/tasks", h.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", h.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.Delete)
	mux.HandleFunc("POST /api/tasks/{id}/complete", h.Complete)
	return mux, tasks
}

func TestCreateTask(t *testing.T) {
	mux, _ := taskMux(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"Morning Prayer","type":"daily"}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var task model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.ID == "" || task.Title != "Morning Prayer" || !task.IsActive {
		t.Errorf("task = %+v", task)
	}
}

func TestCreateTaskDefaultsToDaily(t *testing.T) {
	mux, _ := taskMux(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"title":"Morning Prayer"}`))
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var task model.Task
	json.Unmarshal(rec.Body.Bytes(), &task)
	if task.Type != model.TaskDaily {
		t.Errorf("type = %q, want %q when omitted", task.Type, model.TaskDaily)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	mux, _ := taskMux(t)

	for _, body := range []string{
		`{"title":"   "}`,
		`{"title":"x","type":"weekly"}`,
		`not json`,
	} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestCompleteTaskToggles(t *testing.T) {
	mux, tasks := taskMux(t)

	task, err := tasks.Create("Exercise", model.TaskDaily)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	toggle := func() bool {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID+"/complete", nil)
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var out map[string]bool
		json.Unmarshal(rec.Body.Bytes(), &out)
		return out["completed"]
	}

	if !toggle() {
		t.Error("first toggle should complete")
	}
	if toggle() {
		t.Error("second toggle should uncomplete")
	}
}

func TestCompleteUnknownTask(t *testing.T) {
	mux, _ := taskMux(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/tasks/ghost/complete", nil)
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	mux, tasks := taskMux(t)

	task, err := tasks.Create("Exercise", model.TaskDaily)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/tasks/"+task.ID, strings.NewReader(`{"isActive":false}`))
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var updated model.Task
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.IsActive {
		t.Error("task should be inactive")
	}
	if updated.Title != "Exercise" {
		t.Errorf("title changed: %q", updated.Title)
	}
}

func TestDeleteTask(t *testing.T) {
	mux, tasks := taskMux(t)

	task, err := tasks.Create("Call Mom", model.TaskOneoff)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/"+task.ID, nil)
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/api/tasks/"+task.ID, nil)
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
