package game

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"

	"truthordare/internal/db"
	"truthordare/internal/store"
)

const (
	PhaseAwaitingTypeChoice = "awaiting_type_choice"
	PhaseAwaitingResponse   = "awaiting_response"
)

// Phase derives the turn phase from authoritative state. The stored
// current_prompt_id goes stale across a turn advance; a prompt only
// counts when it was chosen for the current turn.
func Phase(state *db.GameState, responded bool) string {
	if state == nil {
		return ""
	}
	if state.CurrentPromptID != nil && state.PromptTurn == state.Turn && !responded {
		return PhaseAwaitingResponse
	}
	return PhaseAwaitingTypeChoice
}

// StartGame begins play. Host only, roster of at least two. The opening
// prompt is pre-selected uniformly from the full catalog, so the first
// player starts in the response phase rather than choosing a type.
func (s *Service) StartGame(ctx context.Context, sess SessionContext) (*db.GameState, error) {
	if _, err := s.store.GameStateByRoom(ctx, sess.RoomID); err == nil {
		return nil, ErrGameStarted
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	players, err := s.store.PlayersByRoom(ctx, sess.RoomID)
	if err != nil {
		return nil, err
	}
	host, ok := findPlayer(players, sess.PlayerID)
	if !ok || !host.IsHost {
		return nil, ErrNotHost
	}
	if len(players) < 2 {
		return nil, ErrNotEnoughPlayers
	}
	prompts, err := s.store.PromptsByType(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, ErrNoPromptsAvailable
	}
	opening := prompts[rand.IntN(len(prompts))]
	state := &db.GameState{
		RoomID:          sess.RoomID,
		CurrentPlayerID: players[0].ID,
		CurrentPromptID: &opening.ID,
		Status:          db.StatusActive,
		Turn:            1,
		PromptTurn:      1,
	}
	if err := s.store.CreateGameState(ctx, state); err != nil {
		return nil, err
	}
	if err := s.store.SetRoomStatus(ctx, sess.RoomID, db.StatusActive); err != nil {
		return nil, err
	}
	log.Printf("game started room_id=%s players=%d first_player=%s", sess.RoomID, len(players), players[0].ID)
	return state, nil
}

// ChooseType picks one prompt of the chosen type uniformly at random and
// writes it as the current prompt. Choosing is allowed until the current
// player responds, so the pre-selected opening prompt may be replaced by
// an explicit type choice. An empty catalog for that type is surfaced as
// ErrNoPromptsAvailable and leaves the stored prompt untouched.
func (s *Service) ChooseType(ctx context.Context, sess SessionContext, typ string) (*db.Prompt, error) {
	if typ != db.PromptTruth && typ != db.PromptDare {
		return nil, ErrInvalidType
	}
	state, err := s.store.GameStateByRoom(ctx, sess.RoomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGameNotStarted
		}
		return nil, err
	}
	if state.CurrentPlayerID != sess.PlayerID {
		return nil, ErrNotCurrentPlayer
	}
	responded, err := s.store.HasResponseForTurn(ctx, sess.RoomID, state.Turn)
	if err != nil {
		return nil, err
	}
	if responded {
		return nil, ErrAlreadyResponded
	}
	prompts, err := s.store.PromptsByType(ctx, typ)
	if err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, ErrNoPromptsAvailable
	}
	chosen := prompts[rand.IntN(len(prompts))]
	if err := s.store.SetCurrentPrompt(ctx, sess.RoomID, chosen.ID, state.Turn); err != nil {
		return nil, err
	}
	return &chosen, nil
}

// SubmitResponse appends the current player's answer for this turn.
// Advancing the turn is the caller's follow-up, via AdvanceTurn.
func (s *Service) SubmitResponse(ctx context.Context, sess SessionContext, text string) (*db.Response, error) {
	state, err := s.store.GameStateByRoom(ctx, sess.RoomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGameNotStarted
		}
		return nil, err
	}
	if state.CurrentPlayerID != sess.PlayerID {
		return nil, ErrNotCurrentPlayer
	}
	if state.CurrentPromptID == nil || state.PromptTurn != state.Turn {
		return nil, ErrNoPromptThisTurn
	}
	responded, err := s.store.HasResponseForTurn(ctx, sess.RoomID, state.Turn)
	if err != nil {
		return nil, err
	}
	if responded {
		return nil, ErrAlreadyResponded
	}
	return s.RecordResponse(ctx, sess.RoomID, sess.PlayerID, *state.CurrentPromptID, state.Turn, text)
}

// AdvanceTurn moves play to the next player in turn order, wrapping
// after the last. The write is a compare-and-swap on the current player,
// so concurrent duplicate triggers produce exactly one transition; the
// losing trigger reports false without error. A stale roster is
// tolerated: the next index is clamped to the roster fetched at write
// time.
func (s *Service) AdvanceTurn(ctx context.Context, roomID, expectedPlayerID string) (bool, error) {
	players, err := s.store.PlayersByRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	if len(players) == 0 {
		return false, nil
	}
	next := players[0]
	if idx, ok := playerIndex(players, expectedPlayerID); ok {
		next = players[(idx+1)%len(players)]
	}
	advanced, err := s.store.CompareAndSwapTurn(ctx, roomID, expectedPlayerID, next.ID)
	if err != nil {
		return false, err
	}
	if advanced {
		log.Printf("turn advanced room_id=%s from=%s to=%s", roomID, expectedPlayerID, next.ID)
	}
	return advanced, nil
}

func findPlayer(players []db.Player, id string) (*db.Player, bool) {
	for i := range players {
		if players[i].ID == id {
			return &players[i], true
		}
	}
	return nil, false
}

func playerIndex(players []db.Player, id string) (int, bool) {
	for i := range players {
		if players[i].ID == id {
			return i, true
		}
	}
	return 0, false
}
