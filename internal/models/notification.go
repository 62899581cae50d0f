package models

import (
	"time"
)

// NotificationType tags an in-app notification with the event that caused it.
type NotificationType string

const (
	NotifyNewServiceRequest       NotificationType = "NEW_SERVICE_REQUEST"
	NotifyServiceRequestReview    NotificationType = "SERVICE_REQUEST_PENDING_REVIEW"
	NotifyServiceRequestApproved  NotificationType = "SERVICE_REQUEST_APPROVED"
	NotifyServiceRequestAssigned  NotificationType = "SERVICE_REQUEST_ASSIGNED"
	NotifyServiceRequestRejected  NotificationType = "SERVICE_REQUEST_REJECTED"
	NotifyServiceRequestScheduled NotificationType = "SERVICE_REQUEST_SCHEDULED"
	NotifyServiceRequestCompleted NotificationType = "SERVICE_REQUEST_COMPLETED"
	NotifyServiceRequestCancelled NotificationType = "SERVICE_REQUEST_CANCELLED"
	NotifyScheduleCreated         NotificationType = "SCHEDULE_CREATED"
	NotifySchedulePendingApproval NotificationType = "SCHEDULE_PENDING_APPROVAL"
	NotifyScheduleApproved        NotificationType = "SCHEDULE_APPROVED"
	NotifyScheduleCompleted       NotificationType = "SCHEDULE_COMPLETED"
	NotifyScheduleCancelled       NotificationType = "SCHEDULE_CANCELLED"
	NotifyVisitCancelled          NotificationType = "VISIT_CANCELLED"
)

// NotificationPriority orders notifications in the bell.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityNormal NotificationPriority = "NORMAL"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

// InAppNotification is an append-only message for one user.
type InAppNotification struct {
	BaseModel
	UserID           string               `gorm:"size:36;index;not null" json:"userId"`
	Type             NotificationType     `gorm:"size:50;not null" json:"type"`
	Title            string               `gorm:"size:255;not null" json:"title"`
	Message          string               `gorm:"type:text" json:"message"`
	ActionURL        string               `gorm:"size:255" json:"actionUrl,omitempty"`
	ActionLabel      string               `gorm:"size:100" json:"actionLabel,omitempty"`
	ServiceRequestID *string              `gorm:"size:36;index" json:"serviceRequestId,omitempty"`
	ScheduleID       *string              `gorm:"size:36;index" json:"scheduleId,omitempty"`
	Priority         NotificationPriority `gorm:"size:20;default:'NORMAL'" json:"priority"`
	IsRead           bool                 `gorm:"default:false;index" json:"isRead"`
	ReadAt           *time.Time           `json:"readAt,omitempty"`
}
