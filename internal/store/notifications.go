package store

import (
	"context"
	"time"

	"homecare-app-server/internal/models"
)

// CreateNotification appends a notification.
func (s *Store) CreateNotification(ctx context.Context, n *models.InAppNotification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

// GetNotification loads one notification.
func (s *Store) GetNotification(ctx context.Context, id string) (*models.InAppNotification, error) {
	var n models.InAppNotification
	if err := s.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

// ListNotifications pages a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.InAppNotification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []models.InAppNotification
	err := q.Order("created_at desc").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

// ListNotificationsSince returns notifications created after since.
func (s *Store) ListNotificationsSince(ctx context.Context, userID string, since time.Time) ([]models.InAppNotification, error) {
	var out []models.InAppNotification
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", userID, since).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountUnreadNotifications counts a user's unread notifications.
func (s *Store) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.InAppNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

// MarkNotificationRead stamps one notification read.
func (s *Store) MarkNotificationRead(ctx context.Context, id string, at time.Time) error {
	return s.db.WithContext(ctx).Model(&models.InAppNotification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
}

// MarkAllNotificationsRead stamps every unread notification of a user.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.InAppNotification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}
