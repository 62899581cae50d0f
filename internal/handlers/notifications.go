package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homecare-app-server/internal/models"
	"homecare-app-server/internal/utils"
)

// NotificationService serves the bell and the notification list.
type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool, page, perPage int) ([]models.InAppNotification, error)
	Since(ctx context.Context, userID string, t time.Time) ([]models.InAppNotification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, id, userID string) (*models.InAppNotification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// NotificationHandler serves /notifications for the signed-in user.
type NotificationHandler struct {
	Svc NotificationService
	Log *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(svc NotificationService, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{Svc: svc, Log: loggerOrNop(log)}
}

// GetNotifications handles GET /notifications?page=&perPage=&unreadOnly=.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))
	unreadOnly := c.Query("unreadOnly") == "true"

	list, err := h.Svc.List(c.Request.Context(), p.ID, unreadOnly, page, perPage)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	if page < 1 {
		page = 1
	}
	utils.Paged(c, "Notifications fetched successfully", list, utils.Meta{Page: page, PerPage: perPage})
}

// GetUnreadCount handles GET /notifications/unread-count.
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	n, err := h.Svc.UnreadCount(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Unread count fetched successfully", gin.H{"count": n})
}

// GetNewNotifications handles GET /notifications/new?since=RFC3339. The bell
// polls it.
func (h *NotificationHandler) GetNewNotifications(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	raw := c.Query("since")
	if raw == "" {
		utils.BadRequest(c, "since is required")
		return
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		utils.BadRequest(c, "since must be an RFC3339 timestamp")
		return
	}
	list, err := h.Svc.Since(c.Request.Context(), p.ID, since)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "New notifications fetched successfully", list)
}

// MarkRead handles PATCH /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	n, err := h.Svc.MarkRead(c.Request.Context(), c.Param("id"), p.ID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Notification marked as read", n)
}

// MarkAllRead handles PATCH /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	n, err := h.Svc.MarkAllRead(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	utils.Success(c, "Notifications marked as read", gin.H{"updated": n})
}
