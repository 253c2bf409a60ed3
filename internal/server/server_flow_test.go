package server

import (
	"net/http"
	"testing"

	"truthordare/internal/db"
	"truthordare/internal/game"
	"truthordare/internal/store"
)

// TestRoomLifecycleFlow walks two browsers through a full round: create,
// join, start, choose, respond, and the synchronous turn hand-off.
func TestRoomLifecycleFlow(t *testing.T) {
	st := store.NewMemory()
	seedTestPrompts(t, st, 3, 3)
	srv := New(st, testConfig())
	t.Cleanup(srv.Close)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	ada := newClient(t)
	ben := newClient(t)

	code, adaID := createRoom(t, ts, ada, "Ada")

	resp := doRequest(t, ts, ben, http.MethodGet, "/api/rooms/"+code, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected room lookup 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	room := body["room"].(map[string]any)
	if room["code"] != code || room["status"] != db.StatusWaiting {
		t.Fatalf("unexpected room payload: %+v", room)
	}

	resp = doRequest(t, ts, ben, http.MethodGet, "/api/rooms/000000", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown code, got %d", resp.StatusCode)
	}

	benID := joinRoom(t, ts, ben, code, "Ben")

	// Only the host may start.
	resp = doRequest(t, ts, ben, http.MethodPost, "/api/rooms/"+code+"/start", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected non-host start to 409, got %d", resp.StatusCode)
	}

	// A browser without a session gets rejected outright.
	stranger := newClient(t)
	resp = doRequest(t, ts, stranger, http.MethodPost, "/api/rooms/"+code+"/start", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected sessionless start to 401, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected start 200, got %d", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	state := body["game_state"].(map[string]any)
	if state["current_player_id"] != adaID {
		t.Fatalf("expected host to open the game, got %+v", state)
	}
	if state["current_prompt_id"] == nil {
		t.Fatalf("expected a pre-selected opening prompt")
	}

	// Joining a room that already started is refused.
	late := newClient(t)
	resp = doRequest(t, ts, late, http.MethodPost, "/api/rooms/"+code+"/join", map[string]string{"nickname": "Cleo"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected late join to 400, got %d", resp.StatusCode)
	}

	// Ben is not the current player yet.
	resp = doRequest(t, ts, ben, http.MethodPost, "/api/rooms/"+code+"/choose", map[string]string{"type": db.PromptDare})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected out-of-turn choose to 409, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/choose", map[string]string{"type": "poem"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected invalid type to 400, got %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/choose", map[string]string{"type": db.PromptDare})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected choose 200, got %d", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	prompt := body["prompt"].(map[string]any)
	if prompt["type"] != db.PromptDare {
		t.Fatalf("expected a dare prompt, got %+v", prompt)
	}

	resp = doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/responses", map[string]string{"response": "done it"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected response 201, got %d", resp.StatusCode)
	}

	// With a zero advance delay the turn has already moved on.
	snap := fetchSnapshot(t, ts, ben, code)
	snapState := snap["game_state"].(map[string]any)
	if snapState["current_player_id"] != benID {
		t.Fatalf("expected turn to pass to Ben, got %+v", snapState)
	}
	if snap["phase"] != game.PhaseAwaitingTypeChoice {
		t.Fatalf("expected phase %s, got %v", game.PhaseAwaitingTypeChoice, snap["phase"])
	}
	if snap["turn_epoch"].(float64) != 2 {
		t.Fatalf("expected turn epoch 2, got %v", snap["turn_epoch"])
	}

	resp = doRequest(t, ts, ben, http.MethodGet, "/api/rooms/"+code+"/responses", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected responses 200, got %d", resp.StatusCode)
	}
	body = decodeBody(t, resp)
	responses := body["responses"].([]any)
	if len(responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(responses))
	}
	entry := responses[0].(map[string]any)
	if entry["response"] != "done it" || entry["nickname"] != "Ada" {
		t.Fatalf("unexpected response entry: %+v", entry)
	}

	resp = doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/leave", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected leave 204, got %d", resp.StatusCode)
	}
	resp = doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/start", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected cleared session to 401, got %d", resp.StatusCode)
	}
}

func TestCreateRoomRequiresNickname(t *testing.T) {
	st := store.NewMemory()
	srv := New(st, testConfig())
	t.Cleanup(srv.Close)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, newClient(t), http.MethodPost, "/api/rooms", map[string]string{"nickname": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank nickname, got %d", resp.StatusCode)
	}
}

func TestSessionBoundToRoom(t *testing.T) {
	st := store.NewMemory()
	seedTestPrompts(t, st, 2, 2)
	srv := New(st, testConfig())
	t.Cleanup(srv.Close)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	ada := newClient(t)
	_, _ = createRoom(t, ts, ada, "Ada")
	otherCode, _ := createRoom(t, ts, newClient(t), "Eve")

	// Ada's session belongs to her own room, not Eve's.
	resp := doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+otherCode+"/start", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected cross-room action to 403, got %d", resp.StatusCode)
	}
}

func TestManualAdvanceIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	seedTestPrompts(t, st, 2, 2)
	cfg := testConfig()
	cfg.AdvanceDelayMillis = 60_000 // keep the automatic advance out of the way
	srv := New(st, cfg)
	t.Cleanup(srv.Close)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	ada := newClient(t)
	ben := newClient(t)
	code, adaID := createRoom(t, ts, ada, "Ada")
	benID := joinRoom(t, ts, ben, code, "Ben")

	resp := doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/start", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected start 200, got %d", resp.StatusCode)
	}
	resp = doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/responses", map[string]string{"response": "an answer"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected response 201, got %d", resp.StatusCode)
	}

	// Both clients race to advance the same turn; only the first applies.
	payload := map[string]string{"expected_player_id": adaID}
	resp = doRequest(t, ts, ada, http.MethodPost, "/api/rooms/"+code+"/advance", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected advance 200, got %d", resp.StatusCode)
	}
	if !decodeBody(t, resp)["advanced"].(bool) {
		t.Fatalf("expected first advance to apply")
	}
	resp = doRequest(t, ts, ben, http.MethodPost, "/api/rooms/"+code+"/advance", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected duplicate advance 200, got %d", resp.StatusCode)
	}
	if decodeBody(t, resp)["advanced"].(bool) {
		t.Fatalf("expected duplicate advance to be a no-op")
	}

	snap := fetchSnapshot(t, ts, ben, code)
	state := snap["game_state"].(map[string]any)
	if state["current_player_id"] != benID {
		t.Fatalf("expected single hand-off to Ben, got %+v", state)
	}
	if state["turn"].(float64) != 2 {
		t.Fatalf("expected turn 2 after one advance, got %v", state["turn"])
	}
}
