package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/repo"
)

// gormConversationRepo adapts the repo free functions to ConversationRepo.
type gormConversationRepo struct{}

func (gormConversationRepo) CreateConversation(ctx context.Context, db *gorm.DB, userID string, figureID int, title *string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID, figureID, title)
}

func (gormConversationRepo) ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, db, userID)
}

func (gormConversationRepo) GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id, userID)
}

func (gormConversationRepo) UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateConversationTitle(ctx, db, id, userID, title)
}

func (gormConversationRepo) CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountConversations(ctx, db, userID)
}

func (gormConversationRepo) ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	return repo.ListConversationsPage(ctx, db, userID, offset, limit)
}

func (gormConversationRepo) SoftDeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.SoftDeleteConversation(ctx, db, id, userID)
}

func (gormConversationRepo) ToggleBookmark(ctx context.Context, db *gorm.DB, id, userID string) (bool, error) {
	return repo.ToggleBookmark(ctx, db, id, userID)
}

func newConvService(t *testing.T) (*ConversationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Figure{}, &domain.Conversation{}, &domain.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return NewConversationService(db, gormConversationRepo{}), db
}

func seedActiveFigure(t *testing.T, db *gorm.DB) domain.Figure {
	t.Helper()
	f := domain.Figure{Slug: "moses", DisplayName: "Moses", IsActive: true}
	if err := db.Create(&f).Error; err != nil {
		t.Fatalf("seed figure: %v", err)
	}
	return f
}

func TestConversationCreate_RequiresActiveFigure(t *testing.T) {
	svc, db := newConvService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", 999); !errors.Is(err, ErrFigureNotFound) {
		t.Fatalf("expected ErrFigureNotFound for unknown figure, got %v", err)
	}

	inactive := domain.Figure{Slug: "retired", DisplayName: "Retired", IsActive: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("seed inactive: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", inactive.ID); !errors.Is(err, ErrFigureNotFound) {
		t.Fatalf("expected ErrFigureNotFound for inactive figure, got %v", err)
	}

	fig := seedActiveFigure(t, db)
	c, err := svc.Create(ctx, "u1", fig.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" || c.UserID != "u1" || c.FigureID != fig.ID || c.Title != nil {
		t.Fatalf("unexpected conversation: %+v", c)
	}
}

func TestConversationListPage_DefaultsAndTotal(t *testing.T) {
	svc, db := newConvService(t)
	ctx := context.Background()
	fig := seedActiveFigure(t, db)

	// Empty listing short-circuits with an empty page.
	items, total, err := svc.ListPage(ctx, "u1", 0, 0)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty page: items=%v total=%d err=%v", items, total, err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "u1", fig.ID); err != nil {
			t.Fatalf("seed conversation %d: %v", i, err)
		}
	}

	items, total, err = svc.ListPage(ctx, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if total != 3 || len(items) != 2 {
		t.Fatalf("expected total 3 page of 2, got total=%d len=%d", total, len(items))
	}

	items, total, err = svc.ListPage(ctx, "u1", 2, 2)
	if err != nil || total != 3 || len(items) != 1 {
		t.Fatalf("second page: len=%d total=%d err=%v", len(items), total, err)
	}
}

func TestConversationRename_NormalizesAndClips(t *testing.T) {
	svc, db := newConvService(t)
	ctx := context.Background()
	fig := seedActiveFigure(t, db)

	c, err := svc.Create(ctx, "u1", fig.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Rename(ctx, "u1", c.ID, "  A   walk \t through  Exodus "); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	got, err := svc.Get(ctx, "u1", c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title == nil || *got.Title != "A walk through Exodus" {
		t.Fatalf("title not normalized: %v", got.Title)
	}

	// Blank falls back, long input is clipped to the rune cap.
	if err := svc.Rename(ctx, "u1", c.ID, "   "); err != nil {
		t.Fatalf("Rename blank: %v", err)
	}
	got, _ = svc.Get(ctx, "u1", c.ID)
	if got.Title == nil || *got.Title != "Untitled" {
		t.Fatalf("blank title fallback: %v", got.Title)
	}

	if err := svc.Rename(ctx, "u1", c.ID, strings.Repeat("y", 80)); err != nil {
		t.Fatalf("Rename long: %v", err)
	}
	got, _ = svc.Get(ctx, "u1", c.ID)
	if got.Title == nil || len([]rune(*got.Title)) != 50 {
		t.Fatalf("long title not clipped: %v", got.Title)
	}

	if err := svc.Rename(ctx, "u1", "missing", "x"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestConversationDeleteAndOwnership(t *testing.T) {
	svc, db := newConvService(t)
	ctx := context.Background()
	fig := seedActiveFigure(t, db)

	c, err := svc.Create(ctx, "u1", fig.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Another user cannot see or delete it.
	if _, err := svc.Get(ctx, "u2", c.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound for non-owner, got %v", err)
	}
	if err := svc.Delete(ctx, "u2", c.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound for non-owner delete, got %v", err)
	}

	if err := svc.Delete(ctx, "u1", c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u1", c.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("deleted conversation still visible")
	}
	if err := svc.Delete(ctx, "u1", c.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected not found on double delete, got %v", err)
	}
}

func TestConversationToggleBookmark(t *testing.T) {
	svc, db := newConvService(t)
	ctx := context.Background()
	fig := seedActiveFigure(t, db)

	c, err := svc.Create(ctx, "u1", fig.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	on, err := svc.ToggleBookmark(ctx, "u1", c.ID)
	if err != nil || !on {
		t.Fatalf("first toggle: %v %v", on, err)
	}
	off, err := svc.ToggleBookmark(ctx, "u1", c.ID)
	if err != nil || off {
		t.Fatalf("second toggle: %v %v", off, err)
	}
	if _, err := svc.ToggleBookmark(ctx, "u1", "missing"); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestConversationMessagesPage(t *testing.T) {
	svc, db := newConvService(t)
	ctx := context.Background()
	fig := seedActiveFigure(t, db)

	c, err := svc.Create(ctx, "u1", fig.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Ownership is checked before any message query.
	if _, _, err := svc.MessagesPage(ctx, "u2", c.ID, 1, 10); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound for non-owner, got %v", err)
	}

	items, total, err := svc.MessagesPage(ctx, "u1", c.ID, 1, 10)
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("empty page: len=%d total=%d err=%v", len(items), total, err)
	}

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m := domain.Message{
			ID:             fmt.Sprintf("m%d", i),
			ConversationID: c.ID,
			UserID:         "u1",
			Role:           domain.RoleUser,
			Content:        fmt.Sprintf("msg %d", i),
			Timestamp:      base.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed message %d: %v", i, err)
		}
	}

	items, total, err = svc.MessagesPage(ctx, "u1", c.ID, 2, 2)
	if err != nil {
		t.Fatalf("MessagesPage: %v", err)
	}
	if total != 5 || len(items) != 2 || items[0].ID != "m2" || items[1].ID != "m3" {
		t.Fatalf("unexpected page: total=%d items=%+v", total, items)
	}
}
