// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a conversation is not found (including soft-deleted rows and rows
//     owned by another user), functions return gorm.ErrRecordNotFound (also
//     exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateConversation inserts a new Conversation row owned by userID and bound
// to figureID. The ID is a randomly generated UUID and CreatedAt is UTC.
func CreateConversation(ctx context.Context, db *gorm.DB, userID string, figureID int, title *string) (*domain.Conversation, error) {
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		FigureID:  figureID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListConversations returns all live (non-deleted) conversations belonging to
// userID with their figure preloaded, ordered by most recent activity first.
// Conversations that never received a message sort by creation time.
func ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Preload("Figure").
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&out).Error
	return out, err
}

// CountConversations returns the number of live conversations owned by userID.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&total).Error
	return total, err
}

// ListConversationsPage returns a paginated slice of live conversations for
// userID, ordered by most recent activity first. Use CountConversations to
// obtain the total for pagination metadata.
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Preload("Figure").
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("COALESCE(last_message_at, created_at) DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetConversation fetches a single live conversation by ID and owner. If the
// record does not exist, is soft-deleted, or belongs to another user, it
// returns ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Preload("Figure").
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateConversationTitle updates the title of a live conversation owned by
// userID. Returns ErrNotFound when no row was affected.
func UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Update("title", title)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetConversationTitleIfEmpty sets the title only when none exists yet. Used
// by asynchronous title generation so a manual rename issued mid-generation
// is never clobbered. Returns the number of rows affected.
func SetConversationTitleIfEmpty(ctx context.Context, db *gorm.DB, id, title string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND (title IS NULL OR title = '')", id).
		Update("title", title)
	return res.RowsAffected, res.Error
}

// SoftDeleteConversation flips the is_deleted flag. The row and its messages
// are retained. Returns ErrNotFound when the conversation is missing, already
// deleted, or not owned by userID.
func SoftDeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ToggleBookmark flips the is_bookmarked flag and returns the new value.
func ToggleBookmark(ctx context.Context, db *gorm.DB, id, userID string) (bool, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&c).Error
	if err != nil {
		return false, err
	}
	next := !c.IsBookmarked
	err = db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", c.ID).
		Update("is_bookmarked", next).Error
	return next, err
}

// BumpConversationActivity advances the denormalized message counters. The
// caller is expected to run this inside the same transaction as the message
// insert so the counters stay consistent with the messages table.
func BumpConversationActivity(ctx context.Context, db *gorm.DB, id string, at time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"message_count":   gorm.Expr("message_count + 1"),
			"last_message_at": at,
		}).Error
}
