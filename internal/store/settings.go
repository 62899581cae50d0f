package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"homecare-app-server/internal/models"
)

// GetSetting returns the value for key and whether a row exists.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var row models.AdminSetting
	err := s.db.WithContext(ctx).Where("`key` = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

// ListSettings returns every stored setting row.
func (s *Store) ListSettings(ctx context.Context) ([]models.AdminSetting, error) {
	var out []models.AdminSetting
	err := s.db.WithContext(ctx).Order("`key` asc").Find(&out).Error
	return out, err
}

// UpsertSetting inserts or replaces the value of key.
func (s *Store) UpsertSetting(ctx context.Context, row *models.AdminSetting) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by_id", "updated_at"}),
	}).Create(row).Error
}
