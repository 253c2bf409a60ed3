package store

import (
	"context"
	"time"

	"truthordare/internal/db"
)

// ResponseView is a response row joined with the identity needed for
// display: who said it and what they were asked.
type ResponseView struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room_id"`
	PlayerID      string    `json:"player_id"`
	Nickname      string    `json:"nickname"`
	PromptID      string    `json:"prompt_id"`
	PromptType    string    `json:"prompt_type"`
	PromptContent string    `json:"prompt_content"`
	Turn          int       `json:"turn"`
	Text          string    `json:"response"`
	CreatedAt     time.Time `json:"created_at"`
}

// Store is the contract the game core consumes: a durable table-like
// store with insert, update, point and filtered selects, and a
// change-notification feed filtered by room. Backed by Postgres in
// production and by an in-memory implementation in tests.
type Store interface {
	CreateRoom(ctx context.Context, room *db.Room) error
	RoomByID(ctx context.Context, id string) (*db.Room, error)
	RoomByCode(ctx context.Context, code string) (*db.Room, error)
	SetRoomStatus(ctx context.Context, roomID, status string) error

	CreatePlayer(ctx context.Context, player *db.Player) error
	PlayersByRoom(ctx context.Context, roomID string) ([]db.Player, error)

	CreatePrompt(ctx context.Context, prompt *db.Prompt) error
	PromptByID(ctx context.Context, id string) (*db.Prompt, error)
	// PromptsByType returns the catalog entries of one type, or the whole
	// catalog when typ is empty.
	PromptsByType(ctx context.Context, typ string) ([]db.Prompt, error)

	CreateGameState(ctx context.Context, state *db.GameState) error
	GameStateByRoom(ctx context.Context, roomID string) (*db.GameState, error)
	SetCurrentPrompt(ctx context.Context, roomID, promptID string, promptTurn int) error
	// CompareAndSwapTurn advances the current player only if the stored
	// current player still equals expected, incrementing the turn counter.
	// Returns false when the swap lost to a concurrent advance.
	CompareAndSwapTurn(ctx context.Context, roomID, expectedPlayerID, nextPlayerID string) (bool, error)

	CreateResponse(ctx context.Context, response *db.Response) error
	ResponsesByRoom(ctx context.Context, roomID string) ([]ResponseView, error)
	HasResponseForTurn(ctx context.Context, roomID string, turn int) (bool, error)

	SaveSession(ctx context.Context, session *db.Session) error
	SessionByToken(ctx context.Context, token string) (*db.Session, error)
	DeleteSession(ctx context.Context, token string) error

	Subscribe(table Table, roomID string) *Subscription
}
