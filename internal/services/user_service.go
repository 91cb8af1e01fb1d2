// Package services – UserService
//
// This file implements UserService, which owns user profiles and the
// preference dimensions that feed personalized prompt assembly. Preference
// values are validated against closed sets; unknown values are rejected
// rather than stored and silently ignored downstream.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/repo"
)

// Allowed preference values per dimension.
var (
	allowedPronouns     = map[string]struct{}{"he/him": {}, "she/her": {}, "they/them": {}}
	allowedAgeGroups    = map[string]struct{}{"child": {}, "teen": {}, "adult": {}, "senior": {}}
	allowedTones        = map[string]struct{}{"formal": {}, "conversational": {}, "warm": {}}
	allowedTranslations = map[string]struct{}{"NIV": {}, "ESV": {}, "KJV": {}, "NLT": {}, "MSG": {}}
	allowedThemes       = map[string]struct{}{"light": {}, "dark": {}, "system": {}}
)

const maxUsernameRunes = 50

// ProfileUpdate carries the mutable fields of a profile patch. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Username    *string
	FirstName   *string
	Preferences *domain.Preferences
}

// UserService manages user profiles and preferences.
type UserService struct {
	DB *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// Get fetches the profile of the authenticated subject.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetOrProvision fetches the profile, creating the row on first contact when
// the token carried an email claim. Sign-up happens at the identity provider,
// so the first authenticated request is where the profile materializes.
func (s *UserService) GetOrProvision(ctx context.Context, userID, email string) (*domain.User, error) {
	u, err := s.Get(ctx, userID)
	if err == nil || !errors.Is(err, ErrUserNotFound) || email == "" {
		return u, err
	}
	fresh := domain.User{ID: userID, Email: email}
	if uerr := repo.UpsertUser(ctx, s.DB, &fresh); uerr != nil {
		return nil, uerr
	}
	return &fresh, nil
}

// Update applies a profile patch. Preference dimensions merge field by field:
// only the dimensions present in the patch change, and each supplied value
// must belong to its allowed set.
func (s *UserService) Update(ctx context.Context, userID string, patch ProfileUpdate) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	updates := map[string]any{}
	if patch.Username != nil {
		name := strings.TrimSpace(*patch.Username)
		if name == "" || utf8.RuneCountInString(name) > maxUsernameRunes {
			return nil, ErrInvalidPreference
		}
		updates["username"] = name
	}
	if patch.FirstName != nil {
		first := strings.TrimSpace(*patch.FirstName)
		updates["first_name"] = first
	}
	if patch.Preferences != nil {
		merged, verr := mergePreferences(u.Preferences.Data(), *patch.Preferences)
		if verr != nil {
			return nil, verr
		}
		updates["preferences"] = datatypes.NewJSONType(merged)
	}
	if len(updates) == 0 {
		return u, nil
	}

	return repo.UpdateUserProfile(ctx, s.DB, userID, updates)
}

// mergePreferences overlays the supplied dimensions onto the current ones,
// validating each supplied value.
func mergePreferences(cur, patch domain.Preferences) (domain.Preferences, error) {
	if patch.Pronouns != "" {
		if _, ok := allowedPronouns[patch.Pronouns]; !ok {
			return cur, ErrInvalidPreference
		}
		cur.Pronouns = patch.Pronouns
	}
	if patch.AgeGroup != "" {
		if _, ok := allowedAgeGroups[patch.AgeGroup]; !ok {
			return cur, ErrInvalidPreference
		}
		cur.AgeGroup = patch.AgeGroup
	}
	if patch.Tone != "" {
		if _, ok := allowedTones[patch.Tone]; !ok {
			return cur, ErrInvalidPreference
		}
		cur.Tone = patch.Tone
	}
	if patch.BibleTranslation != "" {
		if _, ok := allowedTranslations[patch.BibleTranslation]; !ok {
			return cur, ErrInvalidPreference
		}
		cur.BibleTranslation = patch.BibleTranslation
	}
	if patch.Theme != "" {
		if _, ok := allowedThemes[patch.Theme]; !ok {
			return cur, ErrInvalidPreference
		}
		cur.Theme = patch.Theme
	}
	return cur, nil
}
