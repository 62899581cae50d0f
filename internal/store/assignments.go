package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"homecare-app-server/internal/models"
)

// HasActiveReviewerAssignment reports whether reviewerID is actively assigned to patientID.
func (s *Store) HasActiveReviewerAssignment(ctx context.Context, reviewerID, patientID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ReviewerAssignment{}).
		Where("reviewer_id = ? AND patient_id = ? AND is_active = ?", reviewerID, patientID, true).
		Count(&n).Error
	return n > 0, err
}

// HasActiveCaregiverAssignment reports whether caregiverID is actively assigned to patientID.
func (s *Store) HasActiveCaregiverAssignment(ctx context.Context, caregiverID, patientID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CaregiverAssignment{}).
		Where("caregiver_id = ? AND patient_id = ? AND is_active = ?", caregiverID, patientID, true).
		Count(&n).Error
	return n > 0, err
}

// ActiveCaregiverForPatient returns the earliest active caregiver assignment.
func (s *Store) ActiveCaregiverForPatient(ctx context.Context, patientID string) (*models.CaregiverAssignment, error) {
	var a models.CaregiverAssignment
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND is_active = ?", patientID, true).
		Order("created_at asc").
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ActiveReviewerForPatient returns the earliest active reviewer assignment.
func (s *Store) ActiveReviewerForPatient(ctx context.Context, patientID string) (*models.ReviewerAssignment, error) {
	var a models.ReviewerAssignment
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND is_active = ?", patientID, true).
		Order("created_at asc").
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// PatientIDsForReviewer lists patients the reviewer is actively assigned to.
func (s *Store) PatientIDsForReviewer(ctx context.Context, reviewerID string) ([]string, error) {
	ids := []string{}
	err := s.db.WithContext(ctx).Model(&models.ReviewerAssignment{}).
		Where("reviewer_id = ? AND is_active = ?", reviewerID, true).
		Pluck("patient_id", &ids).Error
	return ids, err
}

// AssignCaregiver makes caregiverID the only active caregiver of patientID.
func (s *Store) AssignCaregiver(ctx context.Context, patientID, caregiverID string) (*models.CaregiverAssignment, error) {
	a := &models.CaregiverAssignment{PatientID: patientID, CaregiverID: caregiverID, IsActive: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.CaregiverAssignment{}).
			Where("patient_id = ? AND is_active = ?", patientID, true).
			Updates(map[string]interface{}{"is_active": false, "ended_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("deactivate caregiver assignments: %w", err)
		}
		return tx.Omit("Patient", "Caregiver").Create(a).Error
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AssignReviewer makes reviewerID the only active reviewer of patientID.
func (s *Store) AssignReviewer(ctx context.Context, patientID, reviewerID string) (*models.ReviewerAssignment, error) {
	a := &models.ReviewerAssignment{PatientID: patientID, ReviewerID: reviewerID, IsActive: true}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ReviewerAssignment{}).
			Where("patient_id = ? AND is_active = ?", patientID, true).
			Updates(map[string]interface{}{"is_active": false, "ended_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("deactivate reviewer assignments: %w", err)
		}
		return tx.Omit("Patient", "Reviewer").Create(a).Error
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
