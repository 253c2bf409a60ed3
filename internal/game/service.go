package game

import "truthordare/internal/store"

// SessionContext is the identity bundle created at join/create time and
// passed to every player-initiated operation.
type SessionContext struct {
	RoomID   string
	PlayerID string
	Nickname string
}

// Service is the room/turn synchronization core. All shared state lives
// in the store; the service holds no per-room state of its own, so any
// number of independently-connected clients may drive it concurrently.
type Service struct {
	store store.Store
}

func New(st store.Store) *Service {
	return &Service{store: st}
}

func (s *Service) Store() store.Store {
	return s.store
}
