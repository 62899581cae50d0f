package models

import (
	"fmt"
	"strings"
	"time"
)

// ServiceRequestStatus is the lifecycle state of a service request.
type ServiceRequestStatus string

const (
	RequestPending    ServiceRequestStatus = "PENDING"
	RequestApproved   ServiceRequestStatus = "APPROVED"
	RequestScheduled  ServiceRequestStatus = "SCHEDULED"
	RequestInProgress ServiceRequestStatus = "IN_PROGRESS"
	RequestCompleted  ServiceRequestStatus = "COMPLETED"
	RequestCancelled  ServiceRequestStatus = "CANCELLED"
	RequestRejected   ServiceRequestStatus = "REJECTED"
)

// ParseServiceRequestStatus accepts any casing of a known status.
func ParseServiceRequestStatus(s string) (ServiceRequestStatus, error) {
	st := ServiceRequestStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown service request status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s ServiceRequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestScheduled, RequestInProgress,
		RequestCompleted, RequestCancelled, RequestRejected:
		return true
	}
	return false
}

// Terminal reports whether no further status change is permitted.
func (s ServiceRequestStatus) Terminal() bool {
	switch s {
	case RequestCompleted, RequestCancelled, RequestRejected:
		return true
	case RequestPending, RequestApproved, RequestScheduled, RequestInProgress:
		return false
	}
	return false
}

// PatientEditable reports whether the owning patient may still edit the request.
func (s ServiceRequestStatus) PatientEditable() bool {
	return s == RequestPending || s == RequestApproved
}

// Priority is shared by service requests and schedules.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// ParsePriority accepts any casing; empty input yields MEDIUM.
func ParsePriority(s string) (Priority, error) {
	if strings.TrimSpace(s) == "" {
		return PriorityMedium, nil
	}
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return p, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// ServiceType is a catalogue entry a request can reference.
type ServiceType struct {
	BaseModel
	Name        string `gorm:"size:120;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`
}

// ServiceRequest is a patient-initiated ask for a discrete service.
type ServiceRequest struct {
	BaseModel
	PatientID         string               `gorm:"size:36;index;not null" json:"patientId"`
	CaregiverID       string               `gorm:"size:36;index" json:"caregiverId"`
	ServiceTypeID     *string              `gorm:"size:36" json:"serviceTypeId,omitempty"`
	Title             string               `gorm:"size:255;not null" json:"title"`
	Description       string               `gorm:"type:text" json:"description"`
	CustomDescription string               `gorm:"type:text" json:"customDescription,omitempty"`
	Priority          Priority             `gorm:"size:20;default:'MEDIUM'" json:"priority"`
	Status            ServiceRequestStatus `gorm:"size:20;default:'PENDING';index" json:"status"`
	RequestedDate     time.Time            `json:"requestedDate"`
	PreferredDate     *time.Time           `json:"preferredDate,omitempty"`
	ScheduledDate     *time.Time           `json:"scheduledDate,omitempty"`
	CompletedDate     *time.Time           `json:"completedDate,omitempty"`
	Notes             string               `gorm:"type:text" json:"notes,omitempty"`
	CaregiverNotes    string               `gorm:"type:text" json:"caregiverNotes,omitempty"`
	ReviewerNotes     string               `gorm:"type:text" json:"reviewerNotes,omitempty"`
	RejectionReason   string               `gorm:"type:text" json:"rejectionReason,omitempty"`
	Outcome           string               `gorm:"type:text" json:"outcome,omitempty"`
	ApprovedByID      *string              `gorm:"size:36" json:"approvedById,omitempty"`
	ApprovedDate      *time.Time           `json:"approvedDate,omitempty"`

	Patient     Patient      `gorm:"foreignKey:PatientID" json:"patient"`
	Caregiver   *User        `gorm:"foreignKey:CaregiverID" json:"caregiver,omitempty"`
	ServiceType *ServiceType `gorm:"foreignKey:ServiceTypeID" json:"serviceType,omitempty"`
}
