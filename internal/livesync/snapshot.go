package livesync

import (
	"context"
	"errors"

	"truthordare/internal/game"
	"truthordare/internal/store"
)

// Build derives a room snapshot from a fresh read of every tracked
// table. Used for websocket connects and snapshot requests; the Watcher
// keeps its own incrementally reconciled copy.
func Build(ctx context.Context, st store.Store, roomID string) (Snapshot, error) {
	room, err := st.RoomByID(ctx, roomID)
	if err != nil {
		return Snapshot{}, err
	}
	players, err := st.PlayersByRoom(ctx, roomID)
	if err != nil {
		return Snapshot{}, err
	}
	responses, err := st.ResponsesByRoom(ctx, roomID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Room:      *room,
		Players:   players,
		Responses: responses,
	}
	state, err := st.GameStateByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return snap, nil
		}
		return Snapshot{}, err
	}
	snap.GameState = state
	snap.Phase = game.Phase(state, respondedThisTurn(responses, state.Turn))
	snap.TurnEpoch = state.Turn
	return snap, nil
}
