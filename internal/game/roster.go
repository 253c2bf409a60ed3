package game

import (
	"context"
	"strings"

	"truthordare/internal/db"
)

// RegisterHost creates the room creator's player row. Exactly one player
// per room carries is_host, and the host is always first in turn order.
func (s *Service) RegisterHost(ctx context.Context, roomID, nickname string) (*db.Player, error) {
	trimmed := strings.TrimSpace(nickname)
	if trimmed == "" {
		return nil, ErrNicknameRequired
	}
	player := &db.Player{
		RoomID:    roomID,
		Nickname:  trimmed,
		IsHost:    true,
		TurnOrder: 1,
	}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// JoinRoom registers a non-host player. Joining is rejected once the
// game has started. Turn order is assigned at join time so sequencing
// never depends on fetch order.
func (s *Service) JoinRoom(ctx context.Context, roomID, nickname string) (*db.Player, error) {
	trimmed := strings.TrimSpace(nickname)
	if trimmed == "" {
		return nil, ErrNicknameRequired
	}
	room, err := s.store.RoomByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != db.StatusWaiting {
		return nil, ErrRoomActive
	}
	players, err := s.store.PlayersByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	order := 0
	for _, existing := range players {
		if existing.TurnOrder > order {
			order = existing.TurnOrder
		}
	}
	player := &db.Player{
		RoomID:    roomID,
		Nickname:  trimmed,
		IsHost:    false,
		TurnOrder: order + 1,
	}
	if err := s.store.CreatePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// ListPlayers returns the roster ordered by turn_order, ties broken by
// join time.
func (s *Service) ListPlayers(ctx context.Context, roomID string) ([]db.Player, error) {
	return s.store.PlayersByRoom(ctx, roomID)
}
