package store

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"truthordare/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Postgres backs the Store contract with gorm. Every committed write is
// published to the in-process feed and mirrored to the change_events
// audit table. Publish happens after commit without a shared lock, so
// two concurrent writers may deliver out of commit order; subscribers
// re-fetch rows on every event, which absorbs that.
type Postgres struct {
	conn *gorm.DB
	feed *Feed
}

func NewPostgres(conn *gorm.DB) *Postgres {
	return &Postgres{
		conn: conn,
		feed: NewFeed(),
	}
}

func (p *Postgres) publish(change Change) {
	payload, err := json.Marshal(change.New)
	if err == nil {
		event := db.ChangeEvent{
			RoomID:  change.RoomID,
			Table:   string(change.Table),
			Type:    change.Type,
			Payload: datatypes.JSON(payload),
		}
		if err := p.conn.Create(&event).Error; err != nil {
			log.Printf("change audit write failed table=%s room_id=%s error=%v", change.Table, change.RoomID, err)
		}
	}
	p.feed.Publish(change)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return wrapStoreErr(err)
}

func (p *Postgres) CreateRoom(ctx context.Context, room *db.Room) error {
	if err := p.conn.WithContext(ctx).Create(room).Error; err != nil {
		return translate(err)
	}
	p.publish(Change{Table: TableRooms, RoomID: room.ID, Type: ChangeInsert, New: *room})
	return nil
}

func (p *Postgres) RoomByID(ctx context.Context, id string) (*db.Room, error) {
	var room db.Room
	if err := p.conn.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (p *Postgres) RoomByCode(ctx context.Context, code string) (*db.Room, error) {
	var room db.Room
	if err := p.conn.WithContext(ctx).Where("code = ?", code).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (p *Postgres) SetRoomStatus(ctx context.Context, roomID, status string) error {
	result := p.conn.WithContext(ctx).Model(&db.Room{}).Where("id = ?", roomID).Update("status", status)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	room, err := p.RoomByID(ctx, roomID)
	if err != nil {
		return err
	}
	p.publish(Change{Table: TableRooms, RoomID: roomID, Type: ChangeUpdate, New: *room})
	return nil
}

func (p *Postgres) CreatePlayer(ctx context.Context, player *db.Player) error {
	if err := p.conn.WithContext(ctx).Create(player).Error; err != nil {
		return translate(err)
	}
	p.publish(Change{Table: TablePlayers, RoomID: player.RoomID, Type: ChangeInsert, New: *player})
	return nil
}

func (p *Postgres) PlayersByRoom(ctx context.Context, roomID string) ([]db.Player, error) {
	var players []db.Player
	err := p.conn.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("turn_order ASC, created_at ASC").
		Find(&players).Error
	if err != nil {
		return nil, translate(err)
	}
	return players, nil
}

func (p *Postgres) CreatePrompt(ctx context.Context, prompt *db.Prompt) error {
	if err := p.conn.WithContext(ctx).Create(prompt).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (p *Postgres) PromptByID(ctx context.Context, id string) (*db.Prompt, error) {
	var prompt db.Prompt
	if err := p.conn.WithContext(ctx).Where("id = ?", id).First(&prompt).Error; err != nil {
		return nil, translate(err)
	}
	return &prompt, nil
}

func (p *Postgres) PromptsByType(ctx context.Context, typ string) ([]db.Prompt, error) {
	var prompts []db.Prompt
	query := p.conn.WithContext(ctx)
	if typ != "" {
		query = query.Where("type = ?", typ)
	}
	if err := query.Order("id ASC").Find(&prompts).Error; err != nil {
		return nil, translate(err)
	}
	return prompts, nil
}

func (p *Postgres) CreateGameState(ctx context.Context, state *db.GameState) error {
	if err := p.conn.WithContext(ctx).Create(state).Error; err != nil {
		return translate(err)
	}
	p.publish(Change{Table: TableGameStates, RoomID: state.RoomID, Type: ChangeInsert, New: *state})
	return nil
}

func (p *Postgres) GameStateByRoom(ctx context.Context, roomID string) (*db.GameState, error) {
	var state db.GameState
	if err := p.conn.WithContext(ctx).Where("room_id = ?", roomID).First(&state).Error; err != nil {
		return nil, translate(err)
	}
	return &state, nil
}

func (p *Postgres) SetCurrentPrompt(ctx context.Context, roomID, promptID string, promptTurn int) error {
	result := p.conn.WithContext(ctx).Model(&db.GameState{}).
		Where("room_id = ?", roomID).
		Updates(map[string]any{
			"current_prompt_id": promptID,
			"prompt_turn":       promptTurn,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	state, err := p.GameStateByRoom(ctx, roomID)
	if err != nil {
		return err
	}
	p.publish(Change{Table: TableGameStates, RoomID: roomID, Type: ChangeUpdate, New: *state})
	return nil
}

// CompareAndSwapTurn is a single conditional UPDATE so concurrent
// duplicate advance triggers resolve to exactly one transition.
func (p *Postgres) CompareAndSwapTurn(ctx context.Context, roomID, expectedPlayerID, nextPlayerID string) (bool, error) {
	result := p.conn.WithContext(ctx).Model(&db.GameState{}).
		Where("room_id = ? AND current_player_id = ?", roomID, expectedPlayerID).
		Updates(map[string]any{
			"current_player_id": nextPlayerID,
			"turn":              gorm.Expr("turn + 1"),
		})
	if result.Error != nil {
		return false, translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	state, err := p.GameStateByRoom(ctx, roomID)
	if err != nil {
		return true, err
	}
	p.publish(Change{Table: TableGameStates, RoomID: roomID, Type: ChangeUpdate, New: *state})
	return true, nil
}

func (p *Postgres) CreateResponse(ctx context.Context, response *db.Response) error {
	if err := p.conn.WithContext(ctx).Create(response).Error; err != nil {
		return translate(err)
	}
	p.publish(Change{Table: TableResponses, RoomID: response.RoomID, Type: ChangeInsert, New: *response})
	return nil
}

func (p *Postgres) ResponsesByRoom(ctx context.Context, roomID string) ([]ResponseView, error) {
	var views []ResponseView
	err := p.conn.WithContext(ctx).
		Table("responses").
		Select("responses.id, responses.room_id, responses.player_id, players.nickname, responses.prompt_id, prompts.type AS prompt_type, prompts.content AS prompt_content, responses.turn, responses.text, responses.created_at").
		Joins("JOIN players ON players.id = responses.player_id").
		Joins("JOIN prompts ON prompts.id = responses.prompt_id").
		Where("responses.room_id = ?", roomID).
		Order("responses.created_at DESC").
		Scan(&views).Error
	if err != nil {
		return nil, translate(err)
	}
	return views, nil
}

func (p *Postgres) HasResponseForTurn(ctx context.Context, roomID string, turn int) (bool, error) {
	var count int64
	err := p.conn.WithContext(ctx).Model(&db.Response{}).
		Where("room_id = ? AND turn = ?", roomID, turn).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (p *Postgres) SaveSession(ctx context.Context, session *db.Session) error {
	if err := p.conn.WithContext(ctx).Save(session).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (p *Postgres) SessionByToken(ctx context.Context, token string) (*db.Session, error) {
	var session db.Session
	if err := p.conn.WithContext(ctx).Where("token = ?", token).First(&session).Error; err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, token string) error {
	if err := p.conn.WithContext(ctx).Delete(&db.Session{}, "token = ?", token).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (p *Postgres) Subscribe(table Table, roomID string) *Subscription {
	return p.feed.Subscribe(table, roomID)
}
