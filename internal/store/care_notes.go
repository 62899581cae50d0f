package store

import (
	"context"

	"homecare-app-server/internal/models"
)

// CreateCareNote inserts a care note.
func (s *Store) CreateCareNote(ctx context.Context, n *models.CareNote) error {
	return s.db.WithContext(ctx).Omit("Author").Create(n).Error
}

// ListCareNotes returns a patient's notes, newest first.
func (s *Store) ListCareNotes(ctx context.Context, patientID string) ([]models.CareNote, error) {
	var out []models.CareNote
	err := s.db.WithContext(ctx).Preload("Author").
		Where("patient_id = ?", patientID).
		Order("note_date desc").
		Find(&out).Error
	return out, err
}
