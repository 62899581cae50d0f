package models

import (
	"fmt"
	"strings"
	"time"
)

// ScheduleStatus is the lifecycle state of a caregiver schedule.
type ScheduleStatus string

const (
	SchedulePendingApproval ScheduleStatus = "PENDING_APPROVAL"
	ScheduleScheduled       ScheduleStatus = "SCHEDULED"
	ScheduleCompleted       ScheduleStatus = "COMPLETED"
	ScheduleCancelled       ScheduleStatus = "CANCELLED"
)

// ParseScheduleStatus accepts any casing of a known status.
func ParseScheduleStatus(s string) (ScheduleStatus, error) {
	st := ScheduleStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case SchedulePendingApproval, ScheduleScheduled, ScheduleCompleted, ScheduleCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown schedule status %q", s)
}

// Terminal reports whether the schedule is finished.
func (s ScheduleStatus) Terminal() bool {
	switch s {
	case ScheduleCompleted, ScheduleCancelled:
		return true
	case SchedulePendingApproval, ScheduleScheduled:
		return false
	}
	return false
}

// ScheduleType classifies a visit.
type ScheduleType string

const (
	ScheduleTypeVisit      ScheduleType = "VISIT"
	ScheduleTypeCheckup    ScheduleType = "CHECKUP"
	ScheduleTypeMedication ScheduleType = "MEDICATION"
	ScheduleTypeTherapy    ScheduleType = "THERAPY"
	ScheduleTypeService    ScheduleType = "SERVICE_REQUEST"
)

// ParseScheduleType accepts any casing; empty input yields VISIT.
func ParseScheduleType(s string) (ScheduleType, error) {
	if strings.TrimSpace(s) == "" {
		return ScheduleTypeVisit, nil
	}
	t := ScheduleType(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case ScheduleTypeVisit, ScheduleTypeCheckup, ScheduleTypeMedication, ScheduleTypeTherapy, ScheduleTypeService:
		return t, nil
	}
	return "", fmt.Errorf("unknown schedule type %q", s)
}

// CaregiverSchedule is a planned visit owned by a caregiver for one patient.
type CaregiverSchedule struct {
	BaseModel
	PatientID         string         `gorm:"size:36;index;not null" json:"patientId"`
	CaregiverID       string         `gorm:"size:36;index;not null" json:"caregiverId"`
	ApprovedByID      *string        `gorm:"size:36" json:"approvedById,omitempty"`
	ServiceRequestID  *string        `gorm:"size:36;index" json:"serviceRequestId,omitempty"`
	ScheduleType      ScheduleType   `gorm:"size:30;default:'VISIT'" json:"scheduleType"`
	Title             string         `gorm:"size:255;not null" json:"title"`
	Description       string         `gorm:"type:text" json:"description,omitempty"`
	ScheduledDate     time.Time      `gorm:"index" json:"scheduledDate"`
	EstimatedDuration int            `json:"estimatedDuration"` // minutes
	Priority          Priority       `gorm:"size:20;default:'MEDIUM'" json:"priority"`
	IsRecurring       bool           `gorm:"default:false" json:"isRecurring"`
	RecurrencePattern string         `gorm:"size:100" json:"recurrencePattern,omitempty"`
	RequiresApproval  bool           `gorm:"default:false" json:"requiresApproval"`
	Status            ScheduleStatus `gorm:"size:20;default:'SCHEDULED';index" json:"status"`
	Notes             string         `gorm:"type:text" json:"notes,omitempty"`
	CompletionNotes   string         `gorm:"type:text" json:"completionNotes,omitempty"`
	Outcome           string         `gorm:"type:text" json:"outcome,omitempty"`
	CompletedDate     *time.Time     `json:"completedDate,omitempty"`
	CancelledReason   string         `gorm:"type:text" json:"cancelledReason,omitempty"`

	Patient   Patient `gorm:"foreignKey:PatientID" json:"patient"`
	Caregiver *User   `gorm:"foreignKey:CaregiverID" json:"caregiver,omitempty"`
}
