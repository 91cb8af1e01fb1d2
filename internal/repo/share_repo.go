// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// ConversationShare model.
//
// Shares are opaque read-only tokens; at most one active share exists per
// conversation, which the service layer enforces by checking
// GetActiveShareForConversation before CreateShare.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
)

// GetActiveShareForConversation returns the active share for a conversation,
// or ErrNotFound when none exists.
func GetActiveShareForConversation(ctx context.Context, db *gorm.DB, conversationID string) (*domain.ConversationShare, error) {
	var s domain.ConversationShare
	err := db.WithContext(ctx).
		Where("conversation_id = ? AND is_active = ?", conversationID, true).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateShare inserts a new active share with a freshly minted token.
func CreateShare(ctx context.Context, db *gorm.DB, conversationID string) (*domain.ConversationShare, error) {
	s := &domain.ConversationShare{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		ShareToken:     uuid.NewString(),
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetShareByToken resolves an active share token to its share row with the
// conversation and figure preloaded. Returns ErrNotFound for unknown or
// deactivated tokens.
func GetShareByToken(ctx context.Context, db *gorm.DB, token string) (*domain.ConversationShare, error) {
	var s domain.ConversationShare
	err := db.WithContext(ctx).
		Preload("Conversation").
		Preload("Conversation.Figure").
		Where("share_token = ? AND is_active = ?", token, true).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeactivateShare revokes the active share of a conversation. Revocation has
// no granularity below the whole share. Returns ErrNotFound when no active
// share exists.
func DeactivateShare(ctx context.Context, db *gorm.DB, conversationID string) error {
	res := db.WithContext(ctx).
		Model(&domain.ConversationShare{}).
		Where("conversation_id = ? AND is_active = ?", conversationID, true).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
