// Package domain defines the persistence models for users, figures,
// conversations, messages, and conversation shares. These types are mapped
// with GORM and form the core data layer of the chat backend.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Message roles. System messages are assembled at generation time and are
// only persisted when written explicitly.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Preferences is the per-user preference bag embedded in the User row.
// Every field is optional; absent values degrade to documented defaults
// (pronouns "they/them", age group "adult", tone "conversational") at the
// point of use, never in storage.
type Preferences struct {
	Pronouns         string `json:"pronouns,omitempty"`
	AgeGroup         string `json:"age_group,omitempty"`
	Tone             string `json:"tone,omitempty"`
	BibleTranslation string `json:"bible_translation,omitempty"`
	Theme            string `json:"theme,omitempty"`
}

// IsZero reports whether no preference dimension is set.
func (p Preferences) IsZero() bool {
	return p == Preferences{}
}

// User represents an account profile. Identity is established at sign-up;
// rows are never hard-deleted by application code.
//
// Fields:
//   - ID: stable UUID primary key (matches the auth subject claim).
//   - Email: unique login address.
//   - Username / FirstName: optional display fields.
//   - Preferences: JSON preference bag (pronouns, age group, tone,
//     bible translation, theme).
type User struct {
	ID          string                          `json:"id"          gorm:"type:char(36);primaryKey"`
	Email       string                          `json:"email"       gorm:"type:varchar(255);not null;uniqueIndex"`
	Username    *string                         `json:"username,omitempty"   gorm:"type:varchar(64)"`
	FirstName   *string                         `json:"first_name,omitempty" gorm:"type:varchar(64)"`
	Preferences datatypes.JSONType[Preferences] `json:"preferences" gorm:"type:jsonb"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Figure is a static catalog entry representing a simulated biblical persona
// available for conversation. The catalog is read-only from the application's
// perspective; rows are seeded at deploy time.
type Figure struct {
	ID              int       `json:"id"               gorm:"primaryKey;autoIncrement"`
	Slug            string    `json:"slug"             gorm:"type:varchar(64);not null;uniqueIndex"`
	DisplayName     string    `json:"display_name"     gorm:"type:varchar(128);not null"`
	Description     string    `json:"description"      gorm:"type:text"`
	AvatarURL       *string   `json:"avatar_url,omitempty" gorm:"type:varchar(512)"`
	Category        *string   `json:"category,omitempty"   gorm:"type:varchar(64)"`
	// No column default: GORM skips zero-valued fields on insert, so a
	// default of true would silently resurrect figures seeded inactive.
	IsActive        bool      `json:"is_active"        gorm:"not null;index"`
	RequiresPro     bool      `json:"requires_pro"     gorm:"not null;default:false"`
	PopularityScore int       `json:"popularity_score" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at"`
}

// TableName returns the database table name for Figure.
func (Figure) TableName() string { return "figures" }

// Conversation belongs to exactly one user and one figure. Deletion is a flag
// flip, never row removal. MessageCount and LastMessageAt are denormalized
// counters maintained by the application inside the same transaction as the
// message insert.
type Conversation struct {
	ID            string     `json:"id"            gorm:"type:char(36);primaryKey"`
	UserID        string     `json:"user_id"       gorm:"type:char(36);not null;index:idx_user_convs"`
	FigureID      int        `json:"figure_id"     gorm:"not null;index"`
	Title         *string    `json:"title,omitempty" gorm:"type:varchar(255)"`
	IsDeleted     bool       `json:"is_deleted"    gorm:"not null;default:false;index"`
	IsBookmarked  bool       `json:"is_bookmarked" gorm:"not null;default:false"`
	MessageCount  int64      `json:"message_count" gorm:"not null;default:0"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Figure is the persona this conversation is bound to.
	Figure *Figure `json:"figure,omitempty" gorm:"foreignKey:FigureID;references:ID"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }

// Message is a single utterance within a conversation. Messages are immutable
// once written and totally ordered by (timestamp, id); insertion order is
// never rearranged.
//
// Fields:
//   - Role: one of "user", "assistant", "system" (enforced by DB constraint).
//   - TokenCount: optional usage metadata reported by the model provider.
//   - Feedback: optional free-form reaction metadata.
type Message struct {
	ID             string            `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string            `json:"conversation_id" gorm:"type:char(36);not null;index:idx_conv_msgs,priority:1"`
	UserID         string            `json:"user_id"         gorm:"type:char(36);not null;index"`
	Role           string            `json:"role"            gorm:"type:varchar(16);not null;check:role IN ('user','assistant','system')"`
	Content        string            `json:"content"         gorm:"type:text;not null"`
	Timestamp      time.Time         `json:"timestamp"       gorm:"not null;index:idx_conv_msgs,priority:2"`
	TokenCount     *int              `json:"token_count,omitempty"`
	Feedback       datatypes.JSONMap `json:"feedback,omitempty" gorm:"type:jsonb"`

	// Conversation is the parent thread. Messages are cascade-deleted if
	// their conversation row is ever removed out-of-band.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// ConversationShare is a public read-only token granting anonymous access to
// one conversation's messages. At most one active share exists per
// conversation; creation is idempotent and returns the existing token.
// Revocation granularity is the entire share (is_active flip).
type ConversationShare struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"conversation_id" gorm:"type:char(36);not null;index"`
	ShareToken     string    `json:"share_token"     gorm:"type:char(36);not null;uniqueIndex"`
	IsActive       bool      `json:"is_active"       gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`

	// Conversation is the shared thread.
	Conversation Conversation `json:"-" gorm:"foreignKey:ConversationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ConversationShare.
func (ConversationShare) TableName() string { return "conversation_shares" }
