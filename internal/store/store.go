// Package store is the GORM-backed persistence layer.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"homecare-app-server/internal/models"
	"homecare-app-server/internal/settings"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps a *gorm.DB.
type Store struct {
	db *gorm.DB
}

// New wraps an existing connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open connects to MySQL.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table and seeds missing default settings.
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, d := range settings.Keys {
		row := models.AdminSetting{Key: string(d.Key), Value: d.Default, Description: d.Description}
		res := db.WithContext(ctx).Where(models.AdminSetting{Key: string(d.Key)}).FirstOrCreate(&row)
		if res.Error != nil {
			return fmt.Errorf("seed setting %s: %w", d.Key, res.Error)
		}
		if res.RowsAffected > 0 {
			log.Info("seeded admin setting", zap.String("key", string(d.Key)), zap.String("value", d.Default))
		}
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
