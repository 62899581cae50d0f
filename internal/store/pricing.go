package store

import (
	"context"

	"gorm.io/gorm"

	"homecare-app-server/internal/models"
)

// ListOfferings returns the active pricing tree ordered for display.
func (s *Store) ListOfferings(ctx context.Context) ([]models.ServiceOffering, error) {
	var out []models.ServiceOffering
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Preload("Plans", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("sort_order asc")
		}).
		Preload("Plans.Features", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order asc") }).
		Preload("Plans.AddOns").
		Order("sort_order asc").
		Find(&out).Error
	return out, err
}

// GetPlan loads a plan with its features and add-ons.
func (s *Store) GetPlan(ctx context.Context, id string) (*models.ServicePlan, error) {
	var p models.ServicePlan
	if err := s.db.WithContext(ctx).Preload("Features").Preload("AddOns").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}
