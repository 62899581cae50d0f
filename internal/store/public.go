package store

import (
	"context"

	"homecare-app-server/internal/models"
)

// CreateApplication inserts a caregiver application.
func (s *Store) CreateApplication(ctx context.Context, a *models.CaregiverApplication) error {
	return s.db.WithContext(ctx).Create(a).Error
}

// GetApplication loads one application.
func (s *Store) GetApplication(ctx context.Context, id string) (*models.CaregiverApplication, error) {
	var a models.CaregiverApplication
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListApplications returns applications newest first, optionally by status.
func (s *Store) ListApplications(ctx context.Context, status models.ApplicationStatus) ([]models.CaregiverApplication, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.CaregiverApplication
	err := q.Find(&out).Error
	return out, err
}

// SaveApplication writes every column of a.
func (s *Store) SaveApplication(ctx context.Context, a *models.CaregiverApplication) error {
	return s.db.WithContext(ctx).Save(a).Error
}

// CreateReview inserts a review.
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// GetReview loads one review.
func (s *Store) GetReview(ctx context.Context, id string) (*models.Review, error) {
	var r models.Review
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

// ListReviews returns reviews newest first. approvedOnly limits the result to
// the public testimonials.
func (s *Store) ListReviews(ctx context.Context, approvedOnly bool) ([]models.Review, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if approvedOnly {
		q = q.Where("is_approved = ?", true)
	}
	var out []models.Review
	err := q.Find(&out).Error
	return out, err
}

// SaveReview writes every column of r.
func (s *Store) SaveReview(ctx context.Context, r *models.Review) error {
	return s.db.WithContext(ctx).Save(r).Error
}
