package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"truthordare/internal/db"

	"github.com/google/uuid"
)

// Memory is the in-memory Store used by tests and db-less runs. Changes
// are published while the store lock is held, so feed delivery order
// matches commit order per table.
type Memory struct {
	mu        sync.Mutex
	seq       int64
	rooms     map[string]*db.Room
	codes     map[string]string
	players   map[string]*db.Player
	playerSeq map[string]int64
	prompts   map[string]*db.Prompt
	states    map[string]*db.GameState
	responses []*db.Response
	sessions  map[string]*db.Session
	feed      *Feed
}

func NewMemory() *Memory {
	return &Memory{
		rooms:     make(map[string]*db.Room),
		codes:     make(map[string]string),
		players:   make(map[string]*db.Player),
		playerSeq: make(map[string]int64),
		prompts:   make(map[string]*db.Prompt),
		states:    make(map[string]*db.GameState),
		sessions:  make(map[string]*db.Session),
		feed:      NewFeed(),
	}
}

func (m *Memory) next() int64 {
	m.seq++
	return m.seq
}

func (m *Memory) CreateRoom(ctx context.Context, room *db.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.codes[room.Code]; taken {
		return ErrConflict
	}
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now
	stored := *room
	m.rooms[room.ID] = &stored
	m.codes[room.Code] = room.ID
	m.feed.Publish(Change{Table: TableRooms, RoomID: room.ID, Type: ChangeInsert, New: *room})
	return nil
}

func (m *Memory) RoomByID(ctx context.Context, id string) (*db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *room
	return &copied, nil
}

func (m *Memory) RoomByCode(ctx context.Context, code string) (*db.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *m.rooms[id]
	return &copied, nil
}

func (m *Memory) SetRoomStatus(ctx context.Context, roomID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[roomID]
	if !ok {
		return ErrNotFound
	}
	room.Status = status
	room.UpdatedAt = time.Now().UTC()
	m.feed.Publish(Change{Table: TableRooms, RoomID: roomID, Type: ChangeUpdate, New: *room})
	return nil
}

func (m *Memory) CreatePlayer(ctx context.Context, player *db.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[player.RoomID]; !ok {
		return ErrNotFound
	}
	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	player.CreatedAt = now
	player.UpdatedAt = now
	stored := *player
	m.players[player.ID] = &stored
	m.playerSeq[player.ID] = m.next()
	m.feed.Publish(Change{Table: TablePlayers, RoomID: player.RoomID, Type: ChangeInsert, New: *player})
	return nil
}

func (m *Memory) PlayersByRoom(ctx context.Context, roomID string) ([]db.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	players := make([]db.Player, 0)
	for _, player := range m.players {
		if player.RoomID == roomID {
			players = append(players, *player)
		}
	}
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].TurnOrder != players[j].TurnOrder {
			return players[i].TurnOrder < players[j].TurnOrder
		}
		return m.playerSeq[players[i].ID] < m.playerSeq[players[j].ID]
	})
	return players, nil
}

func (m *Memory) CreatePrompt(ctx context.Context, prompt *db.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prompt.ID == "" {
		prompt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	prompt.CreatedAt = now
	prompt.UpdatedAt = now
	stored := *prompt
	m.prompts[prompt.ID] = &stored
	return nil
}

func (m *Memory) PromptByID(ctx context.Context, id string) (*db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prompt, ok := m.prompts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *prompt
	return &copied, nil
}

func (m *Memory) PromptsByType(ctx context.Context, typ string) ([]db.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prompts := make([]db.Prompt, 0)
	for _, prompt := range m.prompts {
		if typ == "" || prompt.Type == typ {
			prompts = append(prompts, *prompt)
		}
	}
	sort.Slice(prompts, func(i, j int) bool {
		return prompts[i].ID < prompts[j].ID
	})
	return prompts, nil
}

func (m *Memory) CreateGameState(ctx context.Context, state *db.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.states[state.RoomID]; exists {
		return ErrConflict
	}
	if state.ID == "" {
		state.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	state.CreatedAt = now
	state.UpdatedAt = now
	stored := *state
	m.states[state.RoomID] = &stored
	m.feed.Publish(Change{Table: TableGameStates, RoomID: state.RoomID, Type: ChangeInsert, New: *state})
	return nil
}

func (m *Memory) GameStateByRoom(ctx context.Context, roomID string) (*db.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *state
	return &copied, nil
}

func (m *Memory) SetCurrentPrompt(ctx context.Context, roomID, promptID string, promptTurn int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[roomID]
	if !ok {
		return ErrNotFound
	}
	id := promptID
	state.CurrentPromptID = &id
	state.PromptTurn = promptTurn
	state.UpdatedAt = time.Now().UTC()
	m.feed.Publish(Change{Table: TableGameStates, RoomID: roomID, Type: ChangeUpdate, New: *state})
	return nil
}

func (m *Memory) CompareAndSwapTurn(ctx context.Context, roomID, expectedPlayerID, nextPlayerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[roomID]
	if !ok {
		return false, ErrNotFound
	}
	if state.CurrentPlayerID != expectedPlayerID {
		return false, nil
	}
	state.CurrentPlayerID = nextPlayerID
	state.Turn++
	state.UpdatedAt = time.Now().UTC()
	m.feed.Publish(Change{Table: TableGameStates, RoomID: roomID, Type: ChangeUpdate, New: *state})
	return true, nil
}

func (m *Memory) CreateResponse(ctx context.Context, response *db.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if response.ID == "" {
		response.ID = uuid.NewString()
	}
	response.CreatedAt = time.Now().UTC()
	stored := *response
	m.responses = append(m.responses, &stored)
	m.feed.Publish(Change{Table: TableResponses, RoomID: response.RoomID, Type: ChangeInsert, New: *response})
	return nil
}

func (m *Memory) ResponsesByRoom(ctx context.Context, roomID string) ([]ResponseView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	views := make([]ResponseView, 0)
	for i := len(m.responses) - 1; i >= 0; i-- {
		response := m.responses[i]
		if response.RoomID != roomID {
			continue
		}
		view := ResponseView{
			ID:        response.ID,
			RoomID:    response.RoomID,
			PlayerID:  response.PlayerID,
			PromptID:  response.PromptID,
			Turn:      response.Turn,
			Text:      response.Text,
			CreatedAt: response.CreatedAt,
		}
		if player, ok := m.players[response.PlayerID]; ok {
			view.Nickname = player.Nickname
		}
		if prompt, ok := m.prompts[response.PromptID]; ok {
			view.PromptType = prompt.Type
			view.PromptContent = prompt.Content
		}
		views = append(views, view)
	}
	return views, nil
}

func (m *Memory) HasResponseForTurn(ctx context.Context, roomID string, turn int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, response := range m.responses {
		if response.RoomID == roomID && response.Turn == turn {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) SaveSession(ctx context.Context, session *db.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.sessions[session.Token]; ok {
		session.CreatedAt = existing.CreatedAt
	} else {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	stored := *session
	m.sessions[session.Token] = &stored
	return nil
}

func (m *Memory) SessionByToken(ctx context.Context, token string) (*db.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (m *Memory) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *Memory) Subscribe(table Table, roomID string) *Subscription {
	return m.feed.Subscribe(table, roomID)
}
