package repo

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/christianai/chat-backend/internal/domain"
)

func newUserDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestGetUser_FoundAndNotFound(t *testing.T) {
	db := newUserDB(t)

	u := &domain.User{ID: "u1", Email: "u1@example.com"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	got, err := GetUser(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "u1@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}

	if _, err := GetUser(context.Background(), db, "missing"); err == nil {
		t.Fatalf("expected ErrRecordNotFound for missing user")
	}
}

func TestUpsertUser_CreatesOnceThenNoop(t *testing.T) {
	db := newUserDB(t)

	u := &domain.User{ID: "u1", Email: "u1@example.com"}
	if err := UpsertUser(context.Background(), db, u); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Second call with different display fields must not overwrite the row.
	name := "Changed"
	again := &domain.User{ID: "u1", Email: "other@example.com", FirstName: &name}
	if err := UpsertUser(context.Background(), db, again); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := GetUser(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Email != "u1@example.com" || got.FirstName != nil {
		t.Fatalf("existing row was modified: %+v", got)
	}

	var count int64
	if err := db.Model(&domain.User{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 user row, got %d", count)
	}
}

func TestUpdateUserProfile_PartialUpdateAndNotFound(t *testing.T) {
	db := newUserDB(t)

	username := "original"
	u := &domain.User{ID: "u1", Email: "u1@example.com", Username: &username}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	prefs := domain.Preferences{Pronouns: "she/her", Tone: "warm"}
	updated, err := UpdateUserProfile(context.Background(), db, "u1", map[string]any{
		"username":    "renamed",
		"preferences": datatypes.NewJSONType(prefs),
	})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if updated.Username == nil || *updated.Username != "renamed" {
		t.Fatalf("username not updated: %+v", updated)
	}
	if updated.Email != "u1@example.com" {
		t.Fatalf("untouched column changed: %+v", updated)
	}
	if got := updated.Preferences.Data(); got.Pronouns != "she/her" || got.Tone != "warm" {
		t.Fatalf("preferences not stored: %+v", got)
	}

	if _, err := UpdateUserProfile(context.Background(), db, "missing", map[string]any{"username": "x"}); err == nil {
		t.Fatalf("expected ErrRecordNotFound for missing user")
	}
}
