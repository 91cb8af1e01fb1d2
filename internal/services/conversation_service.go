// Package services – ConversationService
//
// This file implements ConversationService, which manages conversation
// metadata and listings. It enforces ownership rules, validates the chosen
// figure on creation, and normalizes titles on rename. Automatic titling of
// new conversations is handled by TitleService after the first exchange.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/repo"
)

// ConversationRepo defines the repository contract required by
// ConversationService. Implementations own persistence of conversation rows.
type ConversationRepo interface {
	// CreateConversation inserts a new conversation for the given user.
	CreateConversation(ctx context.Context, db *gorm.DB, userID string, figureID int, title *string) (*domain.Conversation, error)

	// ListConversations returns all live conversations belonging to the user.
	ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error)

	// GetConversation fetches a conversation ensuring it belongs to the user.
	GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error)

	// UpdateConversationTitle renames a conversation owned by the user.
	UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error

	// CountConversations returns the total number of live conversations.
	CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListConversationsPage returns one page of the user's conversations.
	ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error)

	// SoftDeleteConversation hides a conversation without destroying data.
	SoftDeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error

	// ToggleBookmark flips the bookmark flag and returns the new state.
	ToggleBookmark(ctx context.Context, db *gorm.DB, id, userID string) (bool, error)
}

// ConversationService provides conversation-level operations such as
// creating, listing, renaming, bookmarking, and deleting conversations.
type ConversationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the conversation repository used by this service.
	Repo ConversationRepo

	// TitleMaxLen caps stored titles by rune length.
	TitleMaxLen int
}

// NewConversationService constructs a ConversationService with sane defaults.
func NewConversationService(db *gorm.DB, r ConversationRepo) *ConversationService {
	return &ConversationService{
		DB:          db,
		Repo:        r,
		TitleMaxLen: 50,
	}
}

// Create starts a new conversation with the given figure. The figure must
// exist and be active; the title stays empty until the first exchange.
func (s *ConversationService) Create(ctx context.Context, userID string, figureID int) (*domain.Conversation, error) {
	if _, err := repo.GetActiveFigure(ctx, s.DB, figureID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFigureNotFound
		}
		return nil, err
	}
	return s.Repo.CreateConversation(ctx, s.DB, userID, figureID, nil)
}

// List returns all live conversations for a user (non-paginated), newest
// activity first. Prefer ListPage for large histories.
func (s *ConversationService) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return s.Repo.ListConversations(ctx, s.DB, userID)
}

// ListPage returns a page of the user's conversations together with the
// total count. Invalid page/pageSize values fall back to defaults.
func (s *ConversationService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}

	items, err := s.Repo.ListConversationsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get fetches one conversation owned by the user.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*domain.Conversation, error) {
	c, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return c, nil
}

// Rename updates a conversation's title, ensuring ownership. Blank titles
// fall back to "Untitled".
func (s *ConversationService) Rename(ctx context.Context, userID, conversationID, title string) error {
	title = normalizeTitle(title)
	if title == "" {
		title = "Untitled"
	}
	if _, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return s.Repo.UpdateConversationTitle(ctx, s.DB, conversationID, userID, s.clip(title))
}

// Delete soft-deletes a conversation owned by the user. Messages are kept;
// the conversation simply stops appearing in listings and lookups.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	if err := s.Repo.SoftDeleteConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// ToggleBookmark flips the bookmark flag and reports the new state.
func (s *ConversationService) ToggleBookmark(ctx context.Context, userID, conversationID string) (bool, error) {
	v, err := s.Repo.ToggleBookmark(ctx, s.DB, conversationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrConversationNotFound
		}
		return false, err
	}
	return v, nil
}

// MessagesPage returns paginated messages for a conversation owned by the
// user, oldest first.
func (s *ConversationService) MessagesPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	if _, err := s.Repo.GetConversation(ctx, s.DB, conversationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrConversationNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(s.DB.WithContext(ctx), conversationID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(s.DB.WithContext(ctx), conversationID, offset, pageSize)
	return items, total, err
}

// clip truncates a title to the configured maximum rune length.
func (s *ConversationService) clip(title string) string {
	if s.TitleMaxLen > 0 && utf8.RuneCountInString(title) > s.TitleMaxLen {
		return string([]rune(title)[:s.TitleMaxLen])
	}
	return title
}

// normalizeTitle trims whitespace and collapses multiple spaces to one.
func normalizeTitle(s string) string {
	return whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
