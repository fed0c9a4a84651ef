package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Tasklist/internal/config"
	"Tasklist/internal/domain"
	"Tasklist/internal/tasks"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
)

func loadConfig(t *testing.T, env map[string]string) config.Config {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REDIS_URL", "")
	t.Setenv("REDIS_EVENTS_CHANNEL", "")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func request(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAppMemoryStore(t *testing.T) {
	a, err := New(loadConfig(t, map[string]string{"STORE_DRIVER": "memory"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())

	for _, path := range []string{"/", "/health", "/version", "/swagger-doc.json"} {
		if w := request(t, a.Router(), http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d", path, w.Code)
		}
	}

	w := request(t, a.Router(), http.MethodPost, "/api/v1/tasks", `{"label":"Feed the cat"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	if n := len(a.Manager().Tasks()); n != 1 {
		t.Errorf("tasks = %d, want 1", n)
	}
}

func TestAppRedisStorePersistsAcrossRestart(t *testing.T) {
	mr := miniredis.RunT(t)
	env := map[string]string{
		"STORE_DRIVER":         "redis",
		"REDIS_ADDR":           mr.Addr(),
		"REDIS_EVENTS_CHANNEL": "tasks:events",
	}

	a, err := New(loadConfig(t, env))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	created, err := a.Manager().AddTask("Feed the cat", "General", domain.PriorityLow)
	if err != nil {
		t.Fatal(err)
	}
	a.Manager().ToggleTask(created.ID)
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, err := mr.Get("tasks:snapshot")
	if err != nil {
		t.Fatalf("snapshot key: %v", err)
	}
	list, err := tasks.DecodeSnapshot([]byte(raw))
	if err != nil || len(list) != 1 || !list[0].Checked {
		t.Fatalf("snapshot = %s (%v)", raw, err)
	}

	b, err := New(loadConfig(t, env))
	if err != nil {
		t.Fatalf("New after restart: %v", err)
	}
	defer b.Close(context.Background())

	w := request(t, b.Router(), http.MethodGet, "/api/v1/tasks", "")
	var body struct {
		Items []struct {
			ID      int64 `json:"id"`
			Checked bool  `json:"checked"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Items) != 1 || body.Items[0].ID != created.ID || !body.Items[0].Checked {
		t.Errorf("after restart = %+v", body.Items)
	}
}

func TestAppRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	cfg := loadConfig(t, map[string]string{"STORE_DRIVER": "redis", "REDIS_ADDR": addr})
	start := time.Now()
	if _, err := New(cfg); err == nil {
		t.Fatal("expected redis ping error")
	}
	if time.Since(start) > 10*time.Second {
		t.Error("startup did not fail fast")
	}
}
