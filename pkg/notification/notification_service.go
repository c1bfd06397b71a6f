package notification

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ahmedEssyad/travel-connect-sub001/domain"
)

type (
	NotificationService interface {
		GetUserNotifications(ctx context.Context, userID string, page, limit int) ([]*domain.Notification, int64, error)
		MarkRead(ctx context.Context, id string, userID string) error
		CountUnread(ctx context.Context, userID string) (int64, error)
	}

	notificationService struct {
		notificationRepository NotificationRepository
	}
)

func NewNotificationService(notificationRepository NotificationRepository) NotificationService {
	return &notificationService{notificationRepository: notificationRepository}
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID string, page, limit int) ([]*domain.Notification, int64, error) {
	notifications, count, err := s.notificationRepository.GetUserNotifications(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*domain.Notification, 0, len(notifications))
	for _, n := range notifications {
		result = append(result, &domain.Notification{
			ID:        n.ID.String(),
			Title:     n.Title,
			Message:   n.Message,
			Data:      n.Data,
			IsUrgent:  n.IsUrgent,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}

	return result, count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string, userID string) error {
	if err := s.notificationRepository.MarkNotificationRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepository.CountUnread(ctx, userID)
}
