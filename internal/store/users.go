package store

import (
	"context"
	"time"

	"homecare-app-server/internal/models"
)

// GetUser loads a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// GetUserByEmail loads a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// ListUsers returns users, optionally of a single role.
func (s *Store) ListUsers(ctx context.Context, role models.Role) ([]models.User, error) {
	q := s.db.WithContext(ctx).Order("created_at desc")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var out []models.User
	err := q.Find(&out).Error
	return out, err
}

// CreateUser inserts u.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

// SaveUser writes every column of u.
func (s *Store) SaveUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Omit("RefreshTokens").Save(u).Error
}

// DeleteUser removes the user with the given id.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateRefreshToken stores an issued refresh token.
func (s *Store) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return s.db.WithContext(ctx).Omit("User").Create(t).Error
}

// FindActiveRefreshToken returns the stored token if it is neither revoked nor expired.
func (s *Store) FindActiveRefreshToken(ctx context.Context, token, userID string, now time.Time) (*models.RefreshToken, error) {
	var t models.RefreshToken
	q := s.db.WithContext(ctx).Where("token = ? AND is_revoked = ? AND expires_at > ?", token, false, now)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if err := q.First(&t).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// RevokeRefreshToken marks a refresh token revoked.
func (s *Store) RevokeRefreshToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Update("is_revoked", true).Error
}
