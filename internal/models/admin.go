package models

import (
	"time"
)

// AdminSetting is a key/value configuration row edited from the admin portal.
type AdminSetting struct {
	BaseModel
	Key         string `gorm:"size:100;uniqueIndex;not null" json:"key"`
	Value       string `gorm:"type:text" json:"value"`
	Description string `gorm:"size:255" json:"description,omitempty"`
	UpdatedByID string `gorm:"size:36" json:"updatedById,omitempty"`
}

// CareNote is a structured clinical note, usually generated when a visit or a
// service request is completed.
type CareNote struct {
	BaseModel
	PatientID        string    `gorm:"size:36;index;not null" json:"patientId"`
	AuthorID         string    `gorm:"size:36;index" json:"authorId"`
	Category         string    `gorm:"size:50" json:"category"`
	Title            string    `gorm:"size:255;not null" json:"title"`
	Content          string    `gorm:"type:text" json:"content"`
	ServiceRequestID *string   `gorm:"size:36" json:"serviceRequestId,omitempty"`
	ScheduleID       *string   `gorm:"size:36" json:"scheduleId,omitempty"`
	NoteDate         time.Time `json:"noteDate"`

	Author User `gorm:"foreignKey:AuthorID" json:"author"`
}

// ApplicationStatus is the review state of a caregiver job application.
type ApplicationStatus string

const (
	ApplicationSubmitted   ApplicationStatus = "SUBMITTED"
	ApplicationReviewing   ApplicationStatus = "REVIEWING"
	ApplicationAccepted    ApplicationStatus = "ACCEPTED"
	ApplicationRejected    ApplicationStatus = "REJECTED"
	ApplicationWithdrawn   ApplicationStatus = "WITHDRAWN"
	ApplicationInterviewed ApplicationStatus = "INTERVIEWED"
)

// Valid reports whether s is a known application status.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationSubmitted, ApplicationReviewing, ApplicationInterviewed,
		ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn:
		return true
	}
	return false
}

// CaregiverApplication is a job application sent from the public site.
type CaregiverApplication struct {
	BaseModel
	FirstName       string            `gorm:"size:100;not null" json:"firstName"`
	LastName        string            `gorm:"size:100;not null" json:"lastName"`
	Email           string            `gorm:"size:255;index;not null" json:"email"`
	PhoneNumber     string            `gorm:"size:50" json:"phoneNumber"`
	YearsExperience int               `json:"yearsExperience"`
	Certifications  string            `gorm:"type:text" json:"certifications,omitempty"`
	CoverLetter     string            `gorm:"type:text" json:"coverLetter,omitempty"`
	Status          ApplicationStatus `gorm:"size:20;default:'SUBMITTED';index" json:"status"`
	AdminNotes      string            `gorm:"type:text" json:"adminNotes,omitempty"`
	ReviewedByID    *string           `gorm:"size:36" json:"reviewedById,omitempty"`
}

// Review is a customer testimonial shown publicly once approved.
type Review struct {
	BaseModel
	AuthorID   string `gorm:"size:36;index" json:"authorId"`
	AuthorName string `gorm:"size:200" json:"authorName"`
	Rating     int    `gorm:"not null" json:"rating"`
	Comment    string `gorm:"type:text" json:"comment"`
	IsApproved bool   `gorm:"default:false;index" json:"isApproved"`
}
