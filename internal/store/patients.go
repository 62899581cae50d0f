package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"homecare-app-server/internal/models"
)

// GetPatient loads a patient profile with its user.
func (s *Store) GetPatient(ctx context.Context, id string) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).Preload("User").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// GetPatientByUserID loads the profile owned by userID.
func (s *Store) GetPatientByUserID(ctx context.Context, userID string) (*models.Patient, error) {
	var p models.Patient
	if err := s.db.WithContext(ctx).Preload("User").First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// CreatePatientWithUser inserts the user and its patient profile in one
// transaction. Neither row exists if either insert fails.
func (s *Store) CreatePatientWithUser(ctx context.Context, user *models.User, patient *models.Patient) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		patient.UserID = user.ID
		if err := tx.Omit("User").Create(patient).Error; err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		patient.User = *user
		return nil
	})
}

// ListPatients returns every patient profile.
func (s *Store) ListPatients(ctx context.Context) ([]models.Patient, error) {
	var out []models.Patient
	err := s.db.WithContext(ctx).Preload("User").Order("created_at desc").Find(&out).Error
	return out, err
}
