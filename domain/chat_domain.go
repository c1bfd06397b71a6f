package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetChats    = "chats retrieved successfully"
	MessageSuccessSendMessage = "message sent successfully"
	MessageFailedGetChats     = "failed to retrieve chats"
	MessageFailedSendMessage  = "failed to send message"

	ErrChatChannelNotFound    = errors.New("chat channel not found")
	ErrNotChannelParticipant  = errors.New("user is not a participant of this channel")
	ErrEmptyMessage           = errors.New("message content is empty")
)

type (
	ChatChannel struct {
		ID              string    `json:"id"`
		RequestID       string    `json:"request_id"`
		ParticipantAID  string    `json:"participant_a_id"`
		ParticipantBID  string    `json:"participant_b_id"`
		LastMessageTime time.Time `json:"last_message_time"`
	}

	ChatMessage struct {
		ID        string    `json:"id"`
		ChannelID string    `json:"channel_id"`
		SenderID  string    `json:"sender_id,omitempty"`
		IsSystem  bool      `json:"is_system"`
		Content   string    `json:"content"`
		IsRead    bool      `json:"is_read"`
		CreatedAt time.Time `json:"created_at"`
	}

	SendMessageRequest struct {
		ChannelID string `json:"channel_id" validate:"required,uuid"`
		Content   string `json:"content" validate:"required,min=1,max=2000"`
	}
)
