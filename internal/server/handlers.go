package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"truthordare/internal/db"
	"truthordare/internal/game"
	"truthordare/internal/livesync"
	"truthordare/internal/store"
)

type createRoomRequest struct {
	Nickname string `json:"nickname"`
}

type joinRequest struct {
	Nickname string `json:"nickname"`
}

type chooseRequest struct {
	Type string `json:"type"`
}

type responseRequest struct {
	Response string `json:"response"`
}

type advanceRequest struct {
	ExpectedPlayerID string `json:"expected_player_id"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Nickname) == "" {
		writeError(w, http.StatusBadRequest, game.ErrNicknameRequired.Error())
		return
	}
	room, err := s.svc.CreateRoom(r.Context())
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	host, err := s.svc.RegisterHost(r.Context(), room.ID, req.Nickname)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	if err := s.sessions.Save(r.Context(), w, r, room.ID, host.ID, host.Nickname); err != nil {
		s.writeGameError(w, err)
		return
	}
	s.ensureWatcher(room.ID)
	log.Printf("room created room_id=%s code=%s host=%s", room.ID, room.Code, host.Nickname)
	writeJSON(w, http.StatusCreated, map[string]any{
		"room":   room,
		"player": host,
	})
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	code, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	room, err := s.svc.RoomByCode(r.Context(), code)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	if r.Method == http.MethodGet {
		switch action {
		case "":
			writeJSON(w, http.StatusOK, map[string]any{"room": room})
		case "players":
			s.handleListPlayers(w, r, room)
		case "responses":
			s.handleListResponses(w, r, room)
		case "snapshot":
			s.handleSnapshot(w, r, room)
		default:
			http.NotFound(w, r)
		}
		return
	}
	switch action {
	case "join":
		s.handleJoin(w, r, room)
	case "start":
		s.handleStart(w, r, room)
	case "choose":
		s.handleChoose(w, r, room)
	case "responses":
		s.handleSubmitResponse(w, r, room)
	case "advance":
		s.handleAdvance(w, r, room)
	case "leave":
		s.handleLeave(w, r, room)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request, room *db.Room) {
	var req joinRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	player, err := s.svc.JoinRoom(r.Context(), room.ID, req.Nickname)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	if err := s.sessions.Save(r.Context(), w, r, room.ID, player.ID, player.Nickname); err != nil {
		s.writeGameError(w, err)
		return
	}
	s.ensureWatcher(room.ID)
	log.Printf("player joined room_id=%s code=%s player=%s", room.ID, room.Code, player.Nickname)
	writeJSON(w, http.StatusCreated, map[string]any{
		"room":   room,
		"player": player,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, room *db.Room) {
	sess, ok := s.sessionFor(w, r, room.ID)
	if !ok {
		return
	}
	state, err := s.svc.StartGame(r.Context(), sess)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"game_state": state})
}

func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request, room *db.Room) {
	sess, ok := s.sessionFor(w, r, room.ID)
	if !ok {
		return
	}
	var req chooseRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prompt, err := s.svc.ChooseType(r.Context(), sess, req.Type)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prompt": prompt})
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request, room *db.Room) {
	sess, ok := s.sessionFor(w, r, room.ID)
	if !ok {
		return
	}
	var req responseRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	response, err := s.svc.SubmitResponse(r.Context(), sess, req.Response)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.scheduleAdvance(room.ID, sess.PlayerID)
	writeJSON(w, http.StatusCreated, map[string]any{"response": response})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request, room *db.Room) {
	var req advanceRequest
	if err := decodeRequest(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ExpectedPlayerID == "" {
		writeError(w, http.StatusBadRequest, "expected_player_id is required")
		return
	}
	advanced, err := s.svc.AdvanceTurn(r.Context(), room.ID, req.ExpectedPlayerID)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"advanced": advanced})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request, room *db.Room) {
	if err := s.sessions.Clear(r.Context(), w, r); err != nil {
		s.writeGameError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request, room *db.Room) {
	players, err := s.svc.ListPlayers(r.Context(), room.ID)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"players": players})
}

func (s *Server) handleListResponses(w http.ResponseWriter, r *http.Request, room *db.Room) {
	responses, err := s.svc.ListResponses(r.Context(), room.ID)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": responses})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, room *db.Room) {
	snap, err := livesync.Build(r.Context(), s.st, room.ID)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request, roomID string) (game.SessionContext, bool) {
	sess, err := s.sessions.Get(r.Context(), r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no active session")
		return game.SessionContext{}, false
	}
	if sess.RoomID != roomID {
		writeError(w, http.StatusForbidden, "session does not match room")
		return game.SessionContext{}, false
	}
	return game.SessionContext{
		RoomID:   sess.RoomID,
		PlayerID: sess.PlayerID,
		Nickname: sess.Nickname,
	}, true
}

// scheduleAdvance moves the turn forward after the submitter's
// user-facing delay. The compare-and-swap inside AdvanceTurn keeps
// duplicate triggers harmless.
func (s *Server) scheduleAdvance(roomID, playerID string) {
	delay := time.Duration(s.cfg.AdvanceDelayMillis) * time.Millisecond
	if delay <= 0 {
		s.advanceTurn(roomID, playerID)
		return
	}
	time.AfterFunc(delay, func() {
		s.advanceTurn(roomID, playerID)
	})
}

func (s *Server) advanceTurn(roomID, playerID string) {
	if _, err := s.svc.AdvanceTurn(context.Background(), roomID, playerID); err != nil {
		log.Printf("turn advance failed room_id=%s error=%v", roomID, err)
	}
}

func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	var vErr *game.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, game.ErrNoPromptsAvailable),
		errors.Is(err, game.ErrNotHost),
		errors.Is(err, game.ErrNotEnoughPlayers),
		errors.Is(err, game.ErrGameStarted),
		errors.Is(err, game.ErrGameNotStarted),
		errors.Is(err, game.ErrNotCurrentPlayer),
		errors.Is(err, game.ErrNoPromptThisTurn),
		errors.Is(err, game.ErrAlreadyResponded),
		errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("request failed error=%v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
