package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"homecare-app-server/internal/models"
)

// ListFilter narrows list queries. Empty fields are ignored; a non-nil but
// empty PatientIDs matches nothing.
type ListFilter struct {
	PatientIDs  []string
	CaregiverID string
	Status      string
	Limit       int
	Offset      int
}

// GetServiceRequest loads one request with its patient, caregiver and service type.
func (s *Store) GetServiceRequest(ctx context.Context, id string) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	err := s.db.WithContext(ctx).
		Preload("Patient").Preload("Patient.User").Preload("Caregiver").Preload("ServiceType").
		First(&sr, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sr, nil
}

// CreateServiceRequest inserts sr without touching its associations.
func (s *Store) CreateServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(sr).Error
}

// SaveServiceRequest writes every column. There is no version check, so the
// last writer wins.
func (s *Store) SaveServiceRequest(ctx context.Context, sr *models.ServiceRequest) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(sr).Error
}

// DeleteServiceRequest removes the request with the given id.
func (s *Store) DeleteServiceRequest(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.ServiceRequest{}, "id = ?", id).Error
}

// ListServiceRequests returns matching requests, newest first.
func (s *Store) ListServiceRequests(ctx context.Context, f ListFilter) ([]models.ServiceRequest, error) {
	if f.PatientIDs != nil && len(f.PatientIDs) == 0 {
		return []models.ServiceRequest{}, nil
	}
	q := s.db.WithContext(ctx).Preload("Patient").Preload("Patient.User").Preload("Caregiver").
		Order("created_at desc")
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
	var out []models.ServiceRequest
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CompleteSchedulesForRequest flips SCHEDULED schedules belonging to sr to
// COMPLETED. Schedules linked by service_request_id always match; unlinked
// rows match on caregiver, patient, title and scheduled date.
func (s *Store) CompleteSchedulesForRequest(ctx context.Context, sr *models.ServiceRequest, at time.Time) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.CaregiverSchedule{}).
		Where("status = ?", models.ScheduleScheduled)
	if sr.ScheduledDate != nil {
		q = q.Where("(service_request_id = ? OR (service_request_id IS NULL AND caregiver_id = ? AND patient_id = ? AND title = ? AND scheduled_date = ?))",
			sr.ID, sr.CaregiverID, sr.PatientID, sr.Title, *sr.ScheduledDate)
	} else {
		q = q.Where("service_request_id = ?", sr.ID)
	}
	res := q.Updates(map[string]interface{}{
		"status":         models.ScheduleCompleted,
		"completed_date": at,
		"outcome":        sr.Outcome,
	})
	return res.RowsAffected, res.Error
}

// HasScheduleForRequest reports whether any schedule is linked to the request.
func (s *Store) HasScheduleForRequest(ctx context.Context, requestID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CaregiverSchedule{}).
		Where("service_request_id = ?", requestID).Count(&n).Error
	return n > 0, err
}

// openScheduleStatuses are the visit states a request change may still move.
var openScheduleStatuses = []models.ScheduleStatus{models.ScheduleScheduled, models.SchedulePendingApproval}

// RescheduleLinkedSchedules moves open visits linked to requestID to at.
func (s *Store) RescheduleLinkedSchedules(ctx context.Context, requestID string, at time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.CaregiverSchedule{}).
		Where("service_request_id = ? AND status IN ?", requestID, openScheduleStatuses).
		Update("scheduled_date", at)
	return res.RowsAffected, res.Error
}

// CancelSchedulesForRequest cancels open visits linked to requestID.
func (s *Store) CancelSchedulesForRequest(ctx context.Context, requestID, reason string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.CaregiverSchedule{}).
		Where("service_request_id = ? AND status IN ?", requestID, openScheduleStatuses).
		Updates(map[string]interface{}{
			"status":           models.ScheduleCancelled,
			"cancelled_reason": reason,
		})
	return res.RowsAffected, res.Error
}
