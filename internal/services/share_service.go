// Package services – ShareService
//
// This file implements ShareService, which manages read-only public links to
// conversations. Creating a share is idempotent per conversation: repeated
// requests return the existing active token instead of minting a new one.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/repo"
)

// PublicConversation is the read-only view served for a share token.
type PublicConversation struct {
	Title        *string          `json:"title"`
	FigureName   string           `json:"figure_name"`
	FigureSlug   string           `json:"figure_slug"`
	Messages     []domain.Message `json:"messages"`
	SharedAt     time.Time        `json:"shared_at"`
	MessageTotal int64            `json:"message_total"`
}

// ShareService manages public conversation shares.
type ShareService struct {
	DB *gorm.DB
}

// NewShareService constructs a ShareService.
func NewShareService(db *gorm.DB) *ShareService {
	return &ShareService{DB: db}
}

// Create returns a share for the conversation, minting one if no active
// share exists. Ownership is enforced before any share is touched.
func (s *ShareService) Create(ctx context.Context, userID, conversationID string) (*domain.ConversationShare, error) {
	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	if existing, err := repo.GetActiveShareForConversation(ctx, s.DB, conversationID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return repo.CreateShare(ctx, s.DB, conversationID)
}

// Revoke deactivates the conversation's share. Revoking a conversation with
// no active share is a no-op.
func (s *ShareService) Revoke(ctx context.Context, userID, conversationID string) error {
	if _, err := repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	if err := repo.DeactivateShare(ctx, s.DB, conversationID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// Resolve returns the public view behind a share token. Tokens pointing at
// deactivated shares or deleted conversations resolve to ErrShareNotFound.
func (s *ShareService) Resolve(ctx context.Context, token string) (*PublicConversation, error) {
	share, err := repo.GetShareByToken(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareNotFound
		}
		return nil, err
	}
	if share.Conversation.ID == "" || share.Conversation.IsDeleted {
		return nil, ErrShareNotFound
	}

	msgs, err := repo.ListMessages(s.DB.WithContext(ctx), share.ConversationID, 0)
	if err != nil {
		return nil, err
	}

	view := &PublicConversation{
		Title:        share.Conversation.Title,
		Messages:     msgs,
		SharedAt:     share.CreatedAt.UTC(),
		MessageTotal: share.Conversation.MessageCount,
	}
	if f := share.Conversation.Figure; f != nil {
		view.FigureName = f.DisplayName
		view.FigureSlug = f.Slug
	}
	return view, nil
}
