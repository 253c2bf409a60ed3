package game

import (
	"context"
	"fmt"
	"testing"

	"truthordare/internal/db"
	"truthordare/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return New(st), st
}

func seedPrompts(t *testing.T, st *store.Memory, truths, dares int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < truths; i++ {
		prompt := &db.Prompt{Type: db.PromptTruth, Content: fmt.Sprintf("truth prompt %d", i+1)}
		if err := st.CreatePrompt(ctx, prompt); err != nil {
			t.Fatalf("seed truth prompt: %v", err)
		}
	}
	for i := 0; i < dares; i++ {
		prompt := &db.Prompt{Type: db.PromptDare, Content: fmt.Sprintf("dare prompt %d", i+1)}
		if err := st.CreatePrompt(ctx, prompt); err != nil {
			t.Fatalf("seed dare prompt: %v", err)
		}
	}
}

func setupRoom(t *testing.T, svc *Service, nicknames ...string) (*db.Room, []db.Player) {
	t.Helper()
	ctx := context.Background()
	room, err := svc.CreateRoom(ctx)
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	players := make([]db.Player, 0, len(nicknames))
	for i, nickname := range nicknames {
		var player *db.Player
		if i == 0 {
			player, err = svc.RegisterHost(ctx, room.ID, nickname)
		} else {
			player, err = svc.JoinRoom(ctx, room.ID, nickname)
		}
		if err != nil {
			t.Fatalf("add player %s: %v", nickname, err)
		}
		players = append(players, *player)
	}
	return room, players
}

func sessionFor(room *db.Room, player db.Player) SessionContext {
	return SessionContext{
		RoomID:   room.ID,
		PlayerID: player.ID,
		Nickname: player.Nickname,
	}
}

func currentState(t *testing.T, svc *Service, roomID string) *db.GameState {
	t.Helper()
	state, err := svc.Store().GameStateByRoom(context.Background(), roomID)
	if err != nil {
		t.Fatalf("fetch game state: %v", err)
	}
	return state
}
