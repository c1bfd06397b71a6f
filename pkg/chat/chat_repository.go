package chat

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ahmedEssyad/travel-connect-sub001/entities"
)

type (
	ChatRepository interface {
		UpsertChannel(ctx context.Context, channel *entities.ChatChannel) (*entities.ChatChannel, error)
		GetChannelByID(ctx context.Context, id string) (*entities.ChatChannel, error)
		GetUserChannels(ctx context.Context, userID string) ([]*entities.ChatChannel, error)
		CreateMessage(ctx context.Context, message *entities.ChatMessage) error
		GetChannelMessages(ctx context.Context, channelID string, page, limit int) ([]*entities.ChatMessage, int64, error)
		UpdateLastMessageTime(ctx context.Context, channelID string, t time.Time) error
	}

	chatRepository struct {
		db *gorm.DB
	}
)

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) UpsertChannel(ctx context.Context, channel *entities.ChatChannel) (*entities.ChatChannel, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_key"}},
			DoNothing: true,
		}).
		Create(channel).Error; err != nil {
		return nil, err
	}

	// Re-read so a concurrent creator's row wins consistently
	var existing entities.ChatChannel
	if err := r.db.WithContext(ctx).
		Where("channel_key = ?", channel.ChannelKey).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *chatRepository) GetChannelByID(ctx context.Context, id string) (*entities.ChatChannel, error) {
	var channel entities.ChatChannel
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&channel).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *chatRepository) GetUserChannels(ctx context.Context, userID string) ([]*entities.ChatChannel, error) {
	var channels []*entities.ChatChannel
	if err := r.db.WithContext(ctx).
		Where("participant_a_id = ? OR participant_b_id = ?", userID, userID).
		Order("last_message_time DESC").
		Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

func (r *chatRepository) CreateMessage(ctx context.Context, message *entities.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *chatRepository) GetChannelMessages(ctx context.Context, channelID string, page, limit int) ([]*entities.ChatMessage, int64, error) {
	var messages []*entities.ChatMessage
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.ChatMessage{}).
		Where("channel_id = ?", channelID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	return messages, count, nil
}

func (r *chatRepository) UpdateLastMessageTime(ctx context.Context, channelID string, t time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entities.ChatChannel{}).
		Where("id = ?", channelID).
		Update("last_message_time", t).Error
}
