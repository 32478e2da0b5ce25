package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"quizadmin/config"
	"quizadmin/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const unreadCountTTL = 5 * time.Minute

type NotificationService struct {
	db    *gorm.DB
	redis *redis.Client // nil disables caching
	hub   *Hub          // nil disables the live feed
}

func NewNotificationService(db *gorm.DB, redisClient *redis.Client, hub *Hub) *NotificationService {
	return &NotificationService{db: db, redis: redisClient, hub: hub}
}

func unreadCountKey(userID string) string {
	return "notifications:unread:" + userID
}

// Create appends an unread notification for the recipient and pushes it onto
// the live feed. The recipient id is an identity-provider subject, so rows
// can exist before the user's first full sync.
func (s *NotificationService) Create(userID, title, message, notificationType string, quizID *string) (*models.Notification, error) {
	notification := models.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notificationType,
		Read:      false,
		QuizID:    quizID,
		CreatedAt: time.Now(),
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return nil, err
	}

	s.onUnreadChanged(userID)
	if s.hub != nil {
		s.hub.NotifyUser(userID, "notification", &notification)
	}
	return &notification, nil
}

func (s *NotificationService) ListForUser(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	return notifications, err
}

// UnreadCount serves from redis when possible, falling back to a composite
// index scan. Writes invalidate the cached value.
func (s *NotificationService) UnreadCount(userID string) (int64, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(context.Background(), unreadCountKey(userID)).Result()
		if err == nil {
			if n, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				return n, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			config.Logger().WithError(err).Warn("Redis unread-count lookup failed")
		}
	}

	var count int64
	if err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}

	if s.redis != nil {
		if err := s.redis.Set(context.Background(), unreadCountKey(userID),
			strconv.FormatInt(count, 10), unreadCountTTL).Err(); err != nil {
			config.Logger().WithError(err).Warn("Failed to cache unread count")
		}
	}
	return count, nil
}

// MarkRead transitions a notification to read. Idempotent, and the caller
// must own the notification.
func (s *NotificationService) MarkRead(id uint, callerID string) error {
	notification, err := s.getOwned(id, callerID)
	if err != nil {
		return err
	}
	if notification.Read {
		return nil
	}

	if err := s.db.Model(notification).Update("read", true).Error; err != nil {
		return err
	}
	s.onUnreadChanged(callerID)
	return nil
}

// MarkAllRead transitions every unread notification of the caller and returns
// how many flipped; a repeat call returns 0.
func (s *NotificationService) MarkAllRead(callerID string) (int64, error) {
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", callerID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		s.onUnreadChanged(callerID)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) Delete(id uint, callerID string) error {
	notification, err := s.getOwned(id, callerID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(notification).Error; err != nil {
		return err
	}
	s.onUnreadChanged(callerID)
	return nil
}

func (s *NotificationService) getOwned(id uint, callerID string) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOwned
		}
		return nil, err
	}
	if notification.UserID != callerID {
		return nil, ErrNotOwned
	}
	return &notification, nil
}

// Broadcast inserts one notification per recipient. Inserts are independent:
// one failure is logged and skipped, the rest proceed. Returns the number of
// rows written.
func (s *NotificationService) Broadcast(userIDs []string, title, message, notificationType string, quizID *string) (int, error) {
	log := config.Logger()
	count := 0
	for _, userID := range userIDs {
		if _, err := s.Create(userID, title, message, notificationType, quizID); err != nil {
			log.WithField("user_id", userID).WithError(err).Warn("Broadcast notification insert failed")
			continue
		}
		count++
	}
	return count, nil
}

// onUnreadChanged drops the cached count and nudges the recipient's open feed
// connections to re-fetch it.
func (s *NotificationService) onUnreadChanged(userID string) {
	s.invalidateUnreadCount(userID)
	if s.hub != nil {
		s.hub.NotifyUser(userID, "unread_count", nil)
	}
}

func (s *NotificationService) invalidateUnreadCount(userID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(context.Background(), unreadCountKey(userID)).Err(); err != nil {
		config.Logger().WithError(err).
			WithField("user_id", userID).Warn("Failed to invalidate unread count")
	}
}
