package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusWaiting = "waiting"
	StatusActive  = "active"
	StatusEnded   = "ended"
)

const (
	PromptTruth = "truth"
	PromptDare  = "dare"
)

type Room struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Code      string    `gorm:"size:6;uniqueIndex;not null" json:"code"`
	Status    string    `gorm:"size:16;not null" json:"status"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	Players   []Player  `gorm:"constraint:OnDelete:CASCADE" json:"players,omitempty"`
}

type Player struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID    string    `gorm:"size:36;index;not null" json:"room_id"`
	Nickname  string    `gorm:"size:64;not null" json:"nickname"`
	IsHost    bool      `gorm:"not null;default:false" json:"is_host"`
	TurnOrder int       `gorm:"not null;default:0" json:"turn_order"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

type Prompt struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Type      string    `gorm:"size:16;not null;index" json:"type"`
	Content   string    `gorm:"size:280;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

type GameState struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID          string    `gorm:"size:36;uniqueIndex;not null" json:"room_id"`
	CurrentPlayerID string    `gorm:"size:36;not null" json:"current_player_id"`
	CurrentPromptID *string   `gorm:"size:36" json:"current_prompt_id"`
	Status          string    `gorm:"size:16;not null" json:"status"`
	Turn            int       `gorm:"not null;default:1" json:"turn"`
	PromptTurn      int       `gorm:"not null;default:0" json:"prompt_turn"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

type Response struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	RoomID    string    `gorm:"size:36;index;not null" json:"room_id"`
	PlayerID  string    `gorm:"size:36;not null" json:"player_id"`
	PromptID  string    `gorm:"size:36;not null" json:"prompt_id"`
	Turn      int       `gorm:"not null" json:"turn"`
	Text      string    `gorm:"size:500;not null" json:"response"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

type ChangeEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	RoomID    string         `gorm:"size:36;index;not null" json:"room_id"`
	Table     string         `gorm:"column:table_name;size:32;not null" json:"table"`
	Type      string         `gorm:"size:16;not null" json:"type"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

type Session struct {
	Token     string    `gorm:"primaryKey;size:36" json:"token"`
	RoomID    string    `gorm:"size:36;index;not null" json:"room_id"`
	PlayerID  string    `gorm:"size:36;not null" json:"player_id"`
	Nickname  string    `gorm:"size:64;not null" json:"nickname"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (r *Room) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (p *Player) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Prompt) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (g *GameState) BeforeCreate(*gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

func (r *Response) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
