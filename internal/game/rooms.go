package game

import (
	"context"
	"crypto/rand"
	"errors"
	"log"

	"truthordare/internal/db"
	"truthordare/internal/store"
)

// roomCodeAttempts bounds the retry loop for the rare case where a
// freshly generated code collides with a live room.
const roomCodeAttempts = 5

// CreateRoom inserts a new waiting room under a unique six-digit code,
// retrying with a fresh code when the uniqueness constraint rejects one.
func (s *Service) CreateRoom(ctx context.Context) (*db.Room, error) {
	var lastErr error
	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		room := &db.Room{
			Code:   newRoomCode(),
			Status: db.StatusWaiting,
		}
		err := s.store.CreateRoom(ctx, room)
		if errors.Is(err, store.ErrConflict) {
			log.Printf("room code collision code=%s attempt=%d", room.Code, attempt+1)
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}
		return room, nil
	}
	return nil, lastErr
}

// RoomByCode validates a join attempt or polls for room readiness.
func (s *Service) RoomByCode(ctx context.Context, code string) (*db.Room, error) {
	return s.store.RoomByCode(ctx, code)
}

func (s *Service) RoomByID(ctx context.Context, id string) (*db.Room, error) {
	return s.store.RoomByID(ctx, id)
}

func newRoomCode() string {
	buf := make([]byte, 6)
	for i := 0; i < len(buf); {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			return "000000"
		}
		// 250..255 would bias the draw toward low digits; redraw.
		if b[0] >= 250 {
			continue
		}
		buf[i] = '0' + b[0]%10
		i++
	}
	return string(buf)
}
