package server

import (
	"context"
	"net/http"

	"truthordare/internal/db"
	"truthordare/internal/store"

	"github.com/google/uuid"
)

const sessionCookie = "td_session"

// sessionStore keeps the browser-local identity bundle
// {playerId, roomId, nickname} behind an opaque cookie token. The bundle
// is created at join/create time and cleared on explicit leave.
type sessionStore struct {
	st store.Store
}

func newSessionStore(st store.Store) *sessionStore {
	return &sessionStore{st: st}
}

func (s *sessionStore) Save(ctx context.Context, w http.ResponseWriter, r *http.Request, roomID, playerID, nickname string) error {
	token := s.ensureToken(w, r)
	return s.st.SaveSession(ctx, &db.Session{
		Token:    token,
		RoomID:   roomID,
		PlayerID: playerID,
		Nickname: nickname,
	})
}

func (s *sessionStore) Get(ctx context.Context, r *http.Request) (*db.Session, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, store.ErrNotFound
	}
	return s.st.SessionByToken(ctx, cookie.Value)
}

func (s *sessionStore) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.st.DeleteSession(ctx, cookie.Value)
}

func (s *sessionStore) ensureToken(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(sessionCookie)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}
