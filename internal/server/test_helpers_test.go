package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"truthordare/internal/config"
	"truthordare/internal/db"
	"truthordare/internal/store"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// testConfig advances turns synchronously so flows are deterministic.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.AdvanceDelayMillis = 0
	cfg.PollIntervalSeconds = 1
	return cfg
}

func seedTestPrompts(t *testing.T, st *store.Memory, truths, dares int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < truths; i++ {
		if err := st.CreatePrompt(ctx, &db.Prompt{Type: db.PromptTruth, Content: fmt.Sprintf("truth %d", i+1)}); err != nil {
			t.Fatalf("seed prompt: %v", err)
		}
	}
	for i := 0; i < dares; i++ {
		if err := st.CreatePrompt(ctx, &db.Prompt{Type: db.PromptDare, Content: fmt.Sprintf("dare %d", i+1)}); err != nil {
			t.Fatalf("seed prompt: %v", err)
		}
	}
}

// newClient returns an http client with its own cookie jar, standing in
// for one browser session.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doRequest(t *testing.T, ts *httptest.Server, client *http.Client, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader([]byte("{}"))
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func createRoom(t *testing.T, ts *httptest.Server, client *http.Client, nickname string) (code string, playerID string) {
	t.Helper()
	resp := doRequest(t, ts, client, http.MethodPost, "/api/rooms", map[string]string{"nickname": nickname})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	room := body["room"].(map[string]any)
	player := body["player"].(map[string]any)
	return room["code"].(string), player["id"].(string)
}

func joinRoom(t *testing.T, ts *httptest.Server, client *http.Client, code, nickname string) string {
	t.Helper()
	resp := doRequest(t, ts, client, http.MethodPost, "/api/rooms/"+code+"/join", map[string]string{"nickname": nickname})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	player := body["player"].(map[string]any)
	return player["id"].(string)
}

func fetchSnapshot(t *testing.T, ts *httptest.Server, client *http.Client, code string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, client, http.MethodGet, "/api/rooms/"+code+"/snapshot", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}
