// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the read-only
// Figure catalog.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
)

// ListActiveFigures returns the active figure catalog, most popular first.
func ListActiveFigures(ctx context.Context, db *gorm.DB) ([]domain.Figure, error) {
	var out []domain.Figure
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("popularity_score DESC").
		Find(&out).Error
	return out, err
}

// GetActiveFigure fetches a figure by ID, returning ErrNotFound when the row
// is missing or the figure has been deactivated.
func GetActiveFigure(ctx context.Context, db *gorm.DB, id int) (*domain.Figure, error) {
	var f domain.Figure
	err := db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFigureBySlug fetches an active figure by its catalog slug.
func GetFigureBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Figure, error) {
	var f domain.Figure
	err := db.WithContext(ctx).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}
