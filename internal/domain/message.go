package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MessageTypeUser = "user"
	MessageTypeAI   = "ai"
)

// AIDisplayName labels machine-generated messages at every boundary.
const AIDisplayName = "AI Assistant"

// Message rows are immutable once created. Ordering is by created_at with id
// as the tiebreak; a room's history is an append-only sequence.
type Message struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoomID  uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_room_created,priority:1" json:"room_id"`
	Content string    `gorm:"type:text;not null" json:"content"`

	// Nil for machine-generated messages.
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`

	MessageType string `gorm:"size:20;not null;default:'user';index" json:"message_type"`

	CreatedAt time.Time `gorm:"not null;index:idx_messages_room_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MessageView is the boundary shape of a message with the author name resolved.
type MessageView struct {
	ID          uuid.UUID  `json:"id"`
	RoomID      uuid.UUID  `json:"room_id"`
	Content     string     `json:"content"`
	UserID      *uuid.UUID `json:"user_id,omitempty"`
	MessageType string     `json:"message_type"`
	Username    string     `json:"username"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RoomView is the boundary shape of a room with its message count.
type RoomView struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int64     `json:"message_count"`
}
