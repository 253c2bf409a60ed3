package game

import (
	"context"
	"strings"

	"truthordare/internal/db"
	"truthordare/internal/store"
)

// RecordResponse appends one response row. The only validation is that
// the text survives trimming; everything else is the caller's concern.
func (s *Service) RecordResponse(ctx context.Context, roomID, playerID, promptID string, turn int, text string) (*db.Response, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrResponseRequired
	}
	response := &db.Response{
		RoomID:   roomID,
		PlayerID: playerID,
		PromptID: promptID,
		Turn:     turn,
		Text:     trimmed,
	}
	if err := s.store.CreateResponse(ctx, response); err != nil {
		return nil, err
	}
	return response, nil
}

// ListResponses returns the room's responses joined with player nickname
// and prompt content, newest first. The log grows without bound; there
// is no pagination.
func (s *Service) ListResponses(ctx context.Context, roomID string) ([]store.ResponseView, error) {
	return s.store.ResponsesByRoom(ctx, roomID)
}
