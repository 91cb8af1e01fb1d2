package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/christianai/chat-backend/internal/domain"
)

func newConvRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("conv_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateConversation_Error_NoTable(t *testing.T) {
	db := newConvRepoDB(t /* no migrations */)
	c, err := CreateConversation(context.Background(), db, "u1", 1, nil)
	if err == nil || c != nil {
		t.Fatalf("expected error creating without table, got conv=%v err=%v", c, err)
	}
}

func TestCreateConversation_Success_PersistsAndSetsFields(t *testing.T) {
	db := newConvRepoDB(t, &domain.Figure{}, &domain.Conversation{})

	start := time.Now().UTC().Add(-time.Minute)
	title := "My Conversation"
	c, err := CreateConversation(context.Background(), db, "u1", 7, &title)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	if c.ID == "" || c.UserID != "u1" || c.FigureID != 7 {
		t.Fatalf("unexpected Conversation fields: %+v", c)
	}
	if c.Title == nil || *c.Title != "My Conversation" {
		t.Fatalf("title not stored: %+v", c.Title)
	}
	if c.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", c.CreatedAt)
	}
	// round-trip
	var got domain.Conversation
	if err := db.First(&got, "id = ?", c.ID).Error; err != nil {
		t.Fatalf("load created conversation: %v", err)
	}
	if got.UserID != "u1" || got.FigureID != 7 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestListConversations_ActivityOrderAndFilters(t *testing.T) {
	db := newConvRepoDB(t, &domain.Figure{}, &domain.Conversation{})

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }
	lastAt := at(5)

	// c1 never got a message, so it sorts by CreatedAt; c2 has recent activity.
	c1 := domain.Conversation{ID: "c1", UserID: "u1", FigureID: 1, CreatedAt: at(3)}
	c2 := domain.Conversation{ID: "c2", UserID: "u1", FigureID: 1, CreatedAt: at(1), LastMessageAt: &lastAt}
	c3 := domain.Conversation{ID: "c3", UserID: "u1", FigureID: 1, CreatedAt: at(2)}
	deleted := domain.Conversation{ID: "cd", UserID: "u1", FigureID: 1, IsDeleted: true, CreatedAt: at(4)}
	other := domain.Conversation{ID: "cx", UserID: "u2", FigureID: 1, CreatedAt: at(4)}

	for _, c := range []domain.Conversation{c1, c2, c3, deleted, other} {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	list, err := ListConversations(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 conversations for u1, got %d", len(list))
	}
	// Activity order: c2 (last message 15:00), c1 (created 13:00), c3 (created 12:00)
	if list[0].ID != "c2" || list[1].ID != "c1" || list[2].ID != "c3" {
		t.Fatalf("unexpected order: %s %s %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestCountConversations_ExcludesDeleted(t *testing.T) {
	db := newConvRepoDB(t, &domain.Conversation{})

	for _, c := range []domain.Conversation{
		{ID: "a", UserID: "u1", FigureID: 1},
		{ID: "b", UserID: "u1", FigureID: 1, IsDeleted: true},
		{ID: "x", UserID: "u2", FigureID: 1},
	} {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	total, err := CountConversations(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("CountConversations: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1, got %d", total)
	}
}

func TestListConversationsPage_PaginationAndOrder(t *testing.T) {
	db := newConvRepoDB(t, &domain.Figure{}, &domain.Conversation{})

	// Seed 5 conversations with increasing CreatedAt; desc order is e,d,c,b,a.
	base := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		c := domain.Conversation{
			ID:        string(rune('a' + i - 1)),
			UserID:    "u1",
			FigureID:  1,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	// Offset 1, limit 2 => 2nd and 3rd newest => 'd','c'
	page, err := ListConversationsPage(context.Background(), db, "u1", 1, 2)
	if err != nil {
		t.Fatalf("ListConversationsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "d" || page[1].ID != "c" {
		t.Fatalf("unexpected page slice: %+v", page)
	}
}

func TestGetConversation_FoundNotFoundAndDeleted(t *testing.T) {
	db := newConvRepoDB(t, &domain.Figure{}, &domain.Conversation{})

	if _, err := GetConversation(context.Background(), db, "nope", "u1"); err == nil {
		t.Fatalf("expected ErrRecordNotFound for missing conversation")
	}

	fig := domain.Figure{Slug: "moses", DisplayName: "Moses", IsActive: true}
	if err := db.Create(&fig).Error; err != nil {
		t.Fatalf("seed figure: %v", err)
	}
	c := &domain.Conversation{ID: "cid", UserID: "owner", FigureID: fig.ID}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	got, err := GetConversation(context.Background(), db, "cid", "owner")
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if got.ID != "cid" || got.UserID != "owner" {
		t.Fatalf("unexpected conversation: %+v", got)
	}
	if got.Figure == nil || got.Figure.Slug != "moses" {
		t.Fatalf("figure not preloaded: %+v", got.Figure)
	}

	// Owner mismatch and soft-deleted rows are both invisible.
	if _, err := GetConversation(context.Background(), db, "cid", "other"); err == nil {
		t.Fatalf("expected not found for non-owner")
	}
	if err := db.Model(&domain.Conversation{}).Where("id = ?", "cid").Update("is_deleted", true).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := GetConversation(context.Background(), db, "cid", "owner"); err == nil {
		t.Fatalf("expected not found after soft delete")
	}
}

func TestUpdateConversationTitle_SuccessAndNotFound(t *testing.T) {
	db := newConvRepoDB(t, &domain.Conversation{})

	old := "old"
	c := &domain.Conversation{ID: "c1", UserID: "u1", FigureID: 1, Title: &old}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := UpdateConversationTitle(context.Background(), db, "c1", "u1", "new"); err != nil {
		t.Fatalf("UpdateConversationTitle: %v", err)
	}
	var got domain.Conversation
	if err := db.First(&got, "id = ?", "c1").Error; err != nil {
		t.Fatalf("load updated: %v", err)
	}
	if got.Title == nil || *got.Title != "new" {
		t.Fatalf("expected title 'new', got %v", got.Title)
	}

	if err := UpdateConversationTitle(context.Background(), db, "c1", "other", "x"); err == nil {
		t.Fatalf("expected ErrRecordNotFound when user mismatches")
	}
	if err := UpdateConversationTitle(context.Background(), db, "missing", "u1", "x"); err == nil {
		t.Fatalf("expected ErrRecordNotFound when id missing")
	}
}

func TestSetConversationTitleIfEmpty_OnlyFillsBlanks(t *testing.T) {
	db := newConvRepoDB(t, &domain.Conversation{})

	named := "Kept"
	for _, c := range []domain.Conversation{
		{ID: "blank", UserID: "u1", FigureID: 1},
		{ID: "named", UserID: "u1", FigureID: 1, Title: &named},
	} {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	n, err := SetConversationTitleIfEmpty(context.Background(), db, "blank", "Generated")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 row affected, got n=%d err=%v", n, err)
	}
	n, err = SetConversationTitleIfEmpty(context.Background(), db, "named", "Generated")
	if err != nil || n != 0 {
		t.Fatalf("expected 0 rows affected for titled row, got n=%d err=%v", n, err)
	}

	var got domain.Conversation
	if err := db.First(&got, "id = ?", "named").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Title == nil || *got.Title != "Kept" {
		t.Fatalf("manual title clobbered: %v", got.Title)
	}
}

func TestSoftDeleteConversation_FlagFlipAndNotFound(t *testing.T) {
	db := newConvRepoDB(t, &domain.Conversation{})

	c := &domain.Conversation{ID: "c1", UserID: "u1", FigureID: 1}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := SoftDeleteConversation(context.Background(), db, "c1", "u1"); err != nil {
		t.Fatalf("SoftDeleteConversation: %v", err)
	}
	var got domain.Conversation
	if err := db.First(&got, "id = ?", "c1").Error; err != nil {
		t.Fatalf("row should survive deletion: %v", err)
	}
	if !got.IsDeleted {
		t.Fatalf("is_deleted not set")
	}

	// Double delete and wrong owner both report not found.
	if err := SoftDeleteConversation(context.Background(), db, "c1", "u1"); err == nil {
		t.Fatalf("expected not found on second delete")
	}
	if err := SoftDeleteConversation(context.Background(), db, "missing", "u1"); err == nil {
		t.Fatalf("expected not found for missing id")
	}
}

func TestToggleBookmark_FlipsBothWays(t *testing.T) {
	db := newConvRepoDB(t, &domain.Conversation{})

	c := &domain.Conversation{ID: "c1", UserID: "u1", FigureID: 1}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	on, err := ToggleBookmark(context.Background(), db, "c1", "u1")
	if err != nil || !on {
		t.Fatalf("first toggle: on=%v err=%v", on, err)
	}
	off, err := ToggleBookmark(context.Background(), db, "c1", "u1")
	if err != nil || off {
		t.Fatalf("second toggle: on=%v err=%v", off, err)
	}

	if _, err := ToggleBookmark(context.Background(), db, "c1", "other"); err == nil {
		t.Fatalf("expected not found for non-owner")
	}
}

func TestBumpConversationActivity_AdvancesCounters(t *testing.T) {
	db := newConvRepoDB(t, &domain.Conversation{})

	c := &domain.Conversation{ID: "c1", UserID: "u1", FigureID: 1}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := BumpConversationActivity(context.Background(), db, "c1", at); err != nil {
		t.Fatalf("bump 1: %v", err)
	}
	if err := BumpConversationActivity(context.Background(), db, "c1", at.Add(time.Minute)); err != nil {
		t.Fatalf("bump 2: %v", err)
	}

	var got domain.Conversation
	if err := db.First(&got, "id = ?", "c1").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MessageCount != 2 {
		t.Fatalf("expected message_count 2, got %d", got.MessageCount)
	}
	if got.LastMessageAt == nil || !got.LastMessageAt.Equal(at.Add(time.Minute)) {
		t.Fatalf("last_message_at not advanced: %v", got.LastMessageAt)
	}
}
