package models

import (
	"time"
)

// Patient is the care profile attached to a patient user.
type Patient struct {
	BaseModel
	UserID           string     `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	DateOfBirth      *time.Time `json:"dateOfBirth,omitempty"`
	Address          string     `gorm:"size:255" json:"address,omitempty"`
	EmergencyContact string     `gorm:"size:255" json:"emergencyContact,omitempty"`
	CareNeeds        string     `gorm:"type:text" json:"careNeeds,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user"`
}

// CaregiverAssignment links a caregiver user to a patient. Only rows with
// IsActive set grant access.
type CaregiverAssignment struct {
	BaseModel
	PatientID   string     `gorm:"size:36;index:idx_cg_assignment" json:"patientId"`
	CaregiverID string     `gorm:"size:36;index:idx_cg_assignment" json:"caregiverId"`
	IsActive    bool       `gorm:"default:true;index" json:"isActive"`
	EndedAt     *time.Time `json:"endedAt,omitempty"`

	Patient   Patient `gorm:"foreignKey:PatientID" json:"-"`
	Caregiver User    `gorm:"foreignKey:CaregiverID" json:"caregiver"`
}

// ReviewerAssignment links a reviewer user to a patient.
type ReviewerAssignment struct {
	BaseModel
	PatientID  string     `gorm:"size:36;index:idx_rv_assignment" json:"patientId"`
	ReviewerID string     `gorm:"size:36;index:idx_rv_assignment" json:"reviewerId"`
	IsActive   bool       `gorm:"default:true;index" json:"isActive"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`

	Patient  Patient `gorm:"foreignKey:PatientID" json:"-"`
	Reviewer User    `gorm:"foreignKey:ReviewerID" json:"reviewer"`
}
