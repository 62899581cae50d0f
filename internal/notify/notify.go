// Package notify appends in-app notifications and serves the bell/list views.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"homecare-app-server/internal/models"
	"homecare-app-server/internal/store"
)

// Store is the persistence the notification service needs.
type Store interface {
	CreateNotification(ctx context.Context, n *models.InAppNotification) error
	GetNotification(ctx context.Context, id string) (*models.InAppNotification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]models.InAppNotification, error)
	ListNotificationsSince(ctx context.Context, userID string, since time.Time) ([]models.InAppNotification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int64, error)
	MarkNotificationRead(ctx context.Context, id string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

// Message is what a workflow passes to Emit.
type Message struct {
	UserID           string
	Type             models.NotificationType
	Title            string
	Body             string
	ActionURL        string
	ActionLabel      string
	ServiceRequestID string
	ScheduleID       string
	Priority         models.NotificationPriority
}

// Service appends notifications and reads them back for the recipient.
type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

// New creates a Service.
func New(st Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: st, log: log, now: time.Now}
}

// Emit inserts one notification. There is no retry.
func (s *Service) Emit(ctx context.Context, m Message) error {
	if m.UserID == "" {
		return fmt.Errorf("emit %s: empty recipient", m.Type)
	}
	n := &models.InAppNotification{
		UserID:      m.UserID,
		Type:        m.Type,
		Title:       m.Title,
		Message:     m.Body,
		ActionURL:   m.ActionURL,
		ActionLabel: m.ActionLabel,
		Priority:    m.Priority,
	}
	if n.Priority == "" {
		n.Priority = models.NotificationPriorityNormal
	}
	if m.ServiceRequestID != "" {
		id := m.ServiceRequestID
		n.ServiceRequestID = &id
	}
	if m.ScheduleID != "" {
		id := m.ScheduleID
		n.ScheduleID = &id
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	s.log.Debug("notification emitted",
		zap.String("user_id", m.UserID),
		zap.String("type", string(m.Type)),
	)
	return nil
}

// List returns a page of the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, unreadOnly bool, page, perPage int) ([]models.InAppNotification, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	list, err := s.store.ListNotifications(ctx, userID, unreadOnly, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// Since returns notifications created after t. The bell polls this.
func (s *Service) Since(ctx context.Context, userID string, t time.Time) ([]models.InAppNotification, error) {
	list, err := s.store.ListNotificationsSince(ctx, userID, t)
	if err != nil {
		return nil, fmt.Errorf("list notifications since: %w", err)
	}
	return list, nil
}

// UnreadCount returns the badge number.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead marks one notification read. Only the recipient may do this.
func (s *Service) MarkRead(ctx context.Context, id, userID string) (*models.InAppNotification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if n.UserID != userID {
		return nil, ErrUnauthorized
	}
	if n.IsRead {
		return n, nil
	}
	now := s.now()
	if err := s.store.MarkNotificationRead(ctx, id, now); err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.IsRead = true
	n.ReadAt = &now
	return n, nil
}

// MarkAllRead marks every unread notification of the user read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}
