package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

type (
	ChatService interface {
		EnsureChannel(ctx context.Context, participantIDs [2]string, requestID string) (*domain.ChatChannel, error)
		PostSystemMessage(ctx context.Context, channelID string, text string) error
		SendMessage(ctx context.Context, req domain.SendMessageRequest, userID string) (*domain.ChatMessage, error)
		GetUserChannels(ctx context.Context, userID string) ([]*domain.ChatChannel, error)
		GetChannelMessages(ctx context.Context, channelID string, userID string, page, limit int) ([]*domain.ChatMessage, int64, error)
	}

	chatService struct {
		chatRepository ChatRepository
	}
)

func NewChatService(chatRepository ChatRepository) ChatService {
	return &chatService{chatRepository: chatRepository}
}

// ChannelKey derives the deterministic channel identity for a request and
// its two participants: the sorted participant ids joined with the request id.
func ChannelKey(participantIDs [2]string, requestID string) string {
	ids := []string{participantIDs[0], participantIDs[1]}
	sort.Strings(ids)
	return fmt.Sprintf("%s_%s_%s", ids[0], ids[1], requestID)
}

func (s *chatService) EnsureChannel(ctx context.Context, participantIDs [2]string, requestID string) (*domain.ChatChannel, error) {
	aUUID, err := uuid.Parse(participantIDs[0])
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	bUUID, err := uuid.Parse(participantIDs[1])
	if err != nil {
		return nil, domain.ErrParseUUID
	}
	requestUUID, err := uuid.Parse(requestID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	channel, err := s.chatRepository.UpsertChannel(ctx, &entities.ChatChannel{
		ID:              uuid.New(),
		ChannelKey:      ChannelKey(participantIDs, requestID),
		RequestID:       requestUUID,
		ParticipantAID:  aUUID,
		ParticipantBID:  bUUID,
		LastMessageTime: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return toDomainChannel(channel), nil
}

func (s *chatService) PostSystemMessage(ctx context.Context, channelID string, text string) error {
	channelUUID, err := uuid.Parse(channelID)
	if err != nil {
		return domain.ErrParseUUID
	}

	message := &entities.ChatMessage{
		ID:        uuid.New(),
		ChannelID: channelUUID,
		IsSystem:  true,
		Content:   text,
	}
	if err := s.chatRepository.CreateMessage(ctx, message); err != nil {
		return err
	}

	return s.chatRepository.UpdateLastMessageTime(ctx, channelID, time.Now())
}

func (s *chatService) SendMessage(ctx context.Context, req domain.SendMessageRequest, userID string) (*domain.ChatMessage, error) {
	channel, err := s.chatRepository.GetChannelByID(ctx, req.ChannelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrChatChannelNotFound
		}
		return nil, err
	}

	if channel.ParticipantAID.String() != userID && channel.ParticipantBID.String() != userID {
		return nil, domain.ErrNotChannelParticipant
	}

	senderUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrParseUUID
	}

	message := &entities.ChatMessage{
		ID:        uuid.New(),
		ChannelID: channel.ID,
		SenderID:  &senderUUID,
		Content:   req.Content,
	}
	if err := s.chatRepository.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if err := s.chatRepository.UpdateLastMessageTime(ctx, req.ChannelID, time.Now()); err != nil {
		return nil, err
	}

	return toDomainMessage(message), nil
}

func (s *chatService) GetUserChannels(ctx context.Context, userID string) ([]*domain.ChatChannel, error) {
	channels, err := s.chatRepository.GetUserChannels(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]*domain.ChatChannel, 0, len(channels))
	for _, channel := range channels {
		result = append(result, toDomainChannel(channel))
	}
	return result, nil
}

func (s *chatService) GetChannelMessages(ctx context.Context, channelID string, userID string, page, limit int) ([]*domain.ChatMessage, int64, error) {
	channel, err := s.chatRepository.GetChannelByID(ctx, channelID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, domain.ErrChatChannelNotFound
		}
		return nil, 0, err
	}

	if channel.ParticipantAID.String() != userID && channel.ParticipantBID.String() != userID {
		return nil, 0, domain.ErrNotChannelParticipant
	}

	messages, count, err := s.chatRepository.GetChannelMessages(ctx, channelID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.ChatMessage, 0, len(messages))
	for _, message := range messages {
		result = append(result, toDomainMessage(message))
	}
	return result, count, nil
}

func toDomainChannel(channel *entities.ChatChannel) *domain.ChatChannel {
	return &domain.ChatChannel{
		ID:              channel.ID.String(),
		RequestID:       channel.RequestID.String(),
		ParticipantAID:  channel.ParticipantAID.String(),
		ParticipantBID:  channel.ParticipantBID.String(),
		LastMessageTime: channel.LastMessageTime,
	}
}

func toDomainMessage(message *entities.ChatMessage) *domain.ChatMessage {
	result := &domain.ChatMessage{
		ID:        message.ID.String(),
		ChannelID: message.ChannelID.String(),
		IsSystem:  message.IsSystem,
		Content:   message.Content,
		IsRead:    message.IsRead,
		CreatedAt: message.CreatedAt,
	}
	if message.SenderID != nil {
		result.SenderID = message.SenderID.String()
	}
	return result
}
