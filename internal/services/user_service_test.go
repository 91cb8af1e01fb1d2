package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/christianai/chat-backend/internal/domain"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
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
	return NewUserService(db), db
}

func strRef(s string) *string { return &s }

func TestUserGet(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := db.Create(&domain.User{ID: "u1", Email: "u1@example.com"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	u, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if u.Email != "u1@example.com" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestUserUpdate_ProfileFields(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	if err := db.Create(&domain.User{ID: "u1", Email: "u1@example.com"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	u, err := svc.Update(ctx, "u1", ProfileUpdate{
		Username:  strRef("  pilgrim  "),
		FirstName: strRef("Ada"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Username == nil || *u.Username != "pilgrim" {
		t.Fatalf("username not trimmed/stored: %v", u.Username)
	}
	if u.FirstName == nil || *u.FirstName != "Ada" {
		t.Fatalf("first name not stored: %v", u.FirstName)
	}

	// Empty patch is a no-op returning the current row.
	same, err := svc.Update(ctx, "u1", ProfileUpdate{})
	if err != nil {
		t.Fatalf("empty Update: %v", err)
	}
	if same.Username == nil || *same.Username != "pilgrim" {
		t.Fatalf("no-op patch changed the row: %+v", same)
	}

	// Blank or oversized usernames are rejected.
	if _, err := svc.Update(ctx, "u1", ProfileUpdate{Username: strRef("   ")}); !errors.Is(err, ErrInvalidPreference) {
		t.Fatalf("expected ErrInvalidPreference for blank username, got %v", err)
	}
	if _, err := svc.Update(ctx, "u1", ProfileUpdate{Username: strRef(strings.Repeat("x", 51))}); !errors.Is(err, ErrInvalidPreference) {
		t.Fatalf("expected ErrInvalidPreference for long username, got %v", err)
	}

	if _, err := svc.Update(ctx, "missing", ProfileUpdate{Username: strRef("x")}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserUpdate_PreferencesMergePerDimension(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	seedPrefs := domain.Preferences{Pronouns: "she/her", Tone: "warm", BibleTranslation: "KJV"}
	if err := db.Create(&domain.User{
		ID:          "u1",
		Email:       "u1@example.com",
		Preferences: datatypes.NewJSONType(seedPrefs),
	}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	// Patch one dimension; the others survive.
	u, err := svc.Update(ctx, "u1", ProfileUpdate{Preferences: &domain.Preferences{Tone: "formal"}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got := u.Preferences.Data()
	if got.Tone != "formal" || got.Pronouns != "she/her" || got.BibleTranslation != "KJV" {
		t.Fatalf("merge lost dimensions: %+v", got)
	}

	// Multiple dimensions at once.
	u, err = svc.Update(ctx, "u1", ProfileUpdate{Preferences: &domain.Preferences{AgeGroup: "teen", Theme: "dark"}})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	got = u.Preferences.Data()
	if got.AgeGroup != "teen" || got.Theme != "dark" || got.Tone != "formal" {
		t.Fatalf("second merge wrong: %+v", got)
	}
}

func TestUserUpdate_RejectsUnknownPreferenceValues(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	if err := db.Create(&domain.User{ID: "u1", Email: "u1@example.com"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cases := []domain.Preferences{
		{Pronouns: "xe/xem"},
		{AgeGroup: "elder"},
		{Tone: "sarcastic"},
		{BibleTranslation: "KLINGON"},
		{Theme: "sepia"},
		{BibleTranslation: "niv"}, // case-sensitive set
	}
	for i, p := range cases {
		patch := p
		if _, err := svc.Update(ctx, "u1", ProfileUpdate{Preferences: &patch}); !errors.Is(err, ErrInvalidPreference) {
			t.Fatalf("case %d (%+v): expected ErrInvalidPreference, got %v", i, p, err)
		}
	}

	// Nothing was written along the way.
	u, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !u.Preferences.Data().IsZero() {
		t.Fatalf("rejected patch leaked into storage: %+v", u.Preferences.Data())
	}
}

func TestUserGetOrProvision(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	// No row and no email claim: stays a 404, nothing is created.
	if _, err := svc.GetOrProvision(ctx, "u-new", ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	// First contact with an email claim creates the profile row.
	u, err := svc.GetOrProvision(ctx, "u-new", "new@example.com")
	if err != nil {
		t.Fatalf("GetOrProvision: %v", err)
	}
	if u.ID != "u-new" || u.Email != "new@example.com" {
		t.Fatalf("provisioned user = %+v", u)
	}
	var count int64
	if err := db.Model(&domain.User{}).Where("id = ?", "u-new").Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("row count = %d, err %v", count, err)
	}

	// Subsequent calls return the stored row untouched, even if the token
	// later carries a different email.
	again, err := svc.GetOrProvision(ctx, "u-new", "changed@example.com")
	if err != nil {
		t.Fatalf("GetOrProvision again: %v", err)
	}
	if again.Email != "new@example.com" {
		t.Fatalf("existing profile must not be overwritten: %+v", again)
	}
}
