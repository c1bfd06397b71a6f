package entities

import (
	"time"

	"github.com/google/uuid"
)

type ChatChannel struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ChannelKey      string    `gorm:"uniqueIndex" json:"channel_key"` // sorted participant ids + request id
	RequestID       uuid.UUID `json:"request_id"`
	ParticipantAID  uuid.UUID `json:"participant_a_id"`
	ParticipantBID  uuid.UUID `json:"participant_b_id"`
	LastMessageTime time.Time `json:"last_message_time"`

	Request      *BloodRequest  `gorm:"foreignKey:RequestID"`
	ParticipantA *User          `gorm:"foreignKey:ParticipantAID"`
	ParticipantB *User          `gorm:"foreignKey:ParticipantBID"`
	Messages     []*ChatMessage `gorm:"foreignKey:ChannelID"`
	Timestamp
}

type ChatMessage struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key;default:uuid_generate_v4()" json:"id"`
	ChannelID uuid.UUID  `json:"channel_id"`
	SenderID  *uuid.UUID `json:"sender_id,omitempty"` // nil for system messages
	IsSystem  bool       `json:"is_system"`
	Content   string     `json:"content"`
	IsRead    bool       `json:"is_read"`

	Channel *ChatChannel `gorm:"foreignKey:ChannelID"`
	Sender  *User        `gorm:"foreignKey:SenderID"`
	Timestamp
}
