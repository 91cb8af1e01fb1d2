// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
)

// GetUser fetches a user profile by ID or returns ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser inserts a user row when none exists yet (first authenticated
// request after sign-up) and otherwise leaves the existing row untouched.
func UpsertUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return db.WithContext(ctx).
		Where("id = ?", u.ID).
		FirstOrCreate(u).Error
}

// UpdateUserProfile applies a partial profile update. Only the provided
// columns are written; the caller validates field values beforehand.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (*domain.User, error) {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetUser(ctx, db, id)
}
