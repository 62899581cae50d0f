package store

import (
	"context"

	"gorm.io/gorm/clause"

	"homecare-app-server/internal/models"
)

// GetSchedule loads one visit with its patient and caregiver.
func (s *Store) GetSchedule(ctx context.Context, id string) (*models.CaregiverSchedule, error) {
	var cs models.CaregiverSchedule
	err := s.db.WithContext(ctx).Preload("Patient").Preload("Patient.User").Preload("Caregiver").
		First(&cs, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &cs, nil
}

// CreateSchedule inserts cs without touching its associations.
func (s *Store) CreateSchedule(ctx context.Context, cs *models.CaregiverSchedule) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(cs).Error
}

// SaveSchedule writes every column of cs.
func (s *Store) SaveSchedule(ctx context.Context, cs *models.CaregiverSchedule) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(cs).Error
}

// DeleteSchedule removes the visit with the given id.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.CaregiverSchedule{}, "id = ?", id).Error
}

// ListSchedules returns matching visits, earliest first.
func (s *Store) ListSchedules(ctx context.Context, f ListFilter) ([]models.CaregiverSchedule, error) {
	if f.PatientIDs != nil && len(f.PatientIDs) == 0 {
		return []models.CaregiverSchedule{}, nil
	}
	q := s.db.WithContext(ctx).Preload("Patient").Preload("Patient.User").Preload("Caregiver").
		Order("scheduled_date asc")
	if len(f.PatientIDs) > 0 {
		q = q.Where("patient_id IN ?", f.PatientIDs)
	}
	if f.CaregiverID != "" {
		q = q.Where("caregiver_id = ?", f.CaregiverID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var out []models.CaregiverSchedule
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
