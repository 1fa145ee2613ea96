package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vovakirdan/termchat-server/internal/store"
)

func doJSON(t *testing.T, env *testEnv, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp := httptest.NewRecorder()
	env.ts.Config.Handler.ServeHTTP(resp, req)
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := doJSON(t, env, http.MethodPost, "/api/auth/register", "", `{"username":" alice ","password":"password123"}`)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var registered AuthResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &registered); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if registered.Token == "" || registered.Username != "alice" {
		t.Fatalf("unexpected register response: %+v", registered)
	}

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{name: "duplicate", path: "/api/auth/register", body: `{"username":"alice","password":"password123"}`, want: http.StatusConflict},
		{name: "dm separator", path: "/api/auth/register", body: `{"username":"al_ice","password":"password123"}`, want: http.StatusBadRequest},
		{name: "short password", path: "/api/auth/register", body: `{"username":"bob","password":"123"}`, want: http.StatusBadRequest},
		{name: "missing fields", path: "/api/auth/register", body: `{}`, want: http.StatusBadRequest},
		{name: "wrong password", path: "/api/auth/login", body: `{"username":"alice","password":"nope-nope"}`, want: http.StatusUnauthorized},
		{name: "login", path: "/api/auth/login", body: `{"username":"alice","password":"password123"}`, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, env, http.MethodPost, tt.path, "", tt.body)
			if resp.Code != tt.want {
				t.Fatalf("expected status %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestRoomHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "alice")
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, body := range []string{"one", "two", "three"} {
		if err := env.store.AppendMessage(ctx, &store.Message{Room: "ops", Author: "bob", Body: body, CreatedAt: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := env.store.AppendMessage(ctx, &store.Message{Room: "bob_carol", Author: "bob", Body: "private", CreatedAt: base}); err != nil {
		t.Fatalf("append: %v", err)
	}

	resp := doJSON(t, env, http.MethodGet, "/api/rooms/ops/history?limit=2", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var history HistoryResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &history); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if history.Room != "ops" || len(history.Messages) != 2 || history.Messages[0].Text != "two" || history.Messages[1].Text != "three" {
		t.Fatalf("unexpected history: %+v", history)
	}

	if resp := doJSON(t, env, http.MethodGet, "/api/rooms/ops/history?limit=zero", token, ""); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.Code)
	}
	if resp := doJSON(t, env, http.MethodGet, "/api/rooms/bob_carol/history", token, ""); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign DM history, got %d", resp.Code)
	}
	if resp := doJSON(t, env, http.MethodGet, "/api/rooms/ops/history", "", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.register(t, "alice")

	resp := doJSON(t, env, http.MethodGet, "/api/stats", token, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var stats StatsResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if stats.Online != 0 || len(stats.Rooms) != 0 {
		t.Fatalf("expected empty stats, got %+v", stats)
	}

	if resp := doJSON(t, env, http.MethodGet, "/api/stats", "not-a-token", ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.Code)
	}
}
