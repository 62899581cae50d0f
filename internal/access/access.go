// Package access decides whether a principal may read or write a service
// request or caregiver schedule.
package access

import (
	"context"

	"homecare-app-server/internal/models"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role models.Role
}

// ReviewerLookup reports whether a reviewer holds an active assignment to a patient.
type ReviewerLookup interface {
	HasActiveReviewerAssignment(ctx context.Context, reviewerID, patientID string) (bool, error)
}

// Checker evaluates the per-role predicates. It has no side effects.
type Checker struct {
	reviewers ReviewerLookup
}

// NewChecker creates a Checker.
func NewChecker(reviewers ReviewerLookup) *Checker {
	return &Checker{reviewers: reviewers}
}

// CanAccessServiceRequest reports whether p may read or write sr. sr.Patient
// must be loaded for the patient check.
func (c *Checker) CanAccessServiceRequest(ctx context.Context, p Principal, sr *models.ServiceRequest) (bool, error) {
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true, nil
	case models.RolePatient:
		return sr.Patient.UserID != "" && sr.Patient.UserID == p.ID, nil
	case models.RoleCaregiver:
		return sr.CaregiverID == p.ID, nil
	case models.RoleReviewer:
		return c.reviewers.HasActiveReviewerAssignment(ctx, p.ID, sr.PatientID)
	}
	return false, nil
}

// CanAccessSchedule reports whether p may read or write s. Patients never pass.
func (c *Checker) CanAccessSchedule(ctx context.Context, p Principal, s *models.CaregiverSchedule) (bool, error) {
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true, nil
	case models.RoleCaregiver:
		return s.CaregiverID == p.ID, nil
	case models.RoleReviewer:
		return c.reviewers.HasActiveReviewerAssignment(ctx, p.ID, s.PatientID)
	case models.RolePatient:
		return false, nil
	}
	return false, nil
}
