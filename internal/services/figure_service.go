// Package services – FigureService
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/repo"
)

// FigureService exposes the catalog of conversational figures.
type FigureService struct {
	DB *gorm.DB
}

// NewFigureService constructs a FigureService.
func NewFigureService(db *gorm.DB) *FigureService {
	return &FigureService{DB: db}
}

// List returns all active figures, most popular first.
func (s *FigureService) List(ctx context.Context) ([]domain.Figure, error) {
	return repo.ListActiveFigures(ctx, s.DB)
}

// Get fetches one active figure by ID.
func (s *FigureService) Get(ctx context.Context, id int) (*domain.Figure, error) {
	f, err := repo.GetActiveFigure(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFigureNotFound
		}
		return nil, err
	}
	return f, nil
}

// GetBySlug fetches one active figure by its URL slug.
func (s *FigureService) GetBySlug(ctx context.Context, slug string) (*domain.Figure, error) {
	f, err := repo.GetFigureBySlug(ctx, s.DB, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFigureNotFound
		}
		return nil, err
	}
	return f, nil
}
