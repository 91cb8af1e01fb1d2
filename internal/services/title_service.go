// Package services – TitleService
//
// This file implements TitleService, which derives a short human-readable
// conversation title from the first exchange of a conversation. Titles are
// generated by a small non-streaming model call and sanitized before storage;
// when the model is unavailable or returns nothing usable, a deterministic
// fallback is derived from the user's opening message so conversations are
// never left untitled.
package services

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/llm"
	"github.com/christianai/chat-backend/internal/repo"
)

const (
	titleSystemPrompt = "You generate short, descriptive titles for conversations. " +
		"Respond with the title only. No quotes, no punctuation at the end, at most six words."

	titleTemperature = 0.3
	titleMaxTokens   = 20
)

// surroundingQuotesRE strips matching quote characters wrapping a title.
var surroundingQuotesRE = regexp.MustCompile(`^["'\x60]+|["'\x60]+$`)

// TitleService generates and stores conversation titles.
type TitleService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Provider performs the model call.
	Provider llm.Provider
	// Model is the model identifier used for title generation.
	Model string
	// MaxLen caps stored titles by rune length.
	MaxLen int
	// Locale selects the casing rules for fallback titles.
	Locale language.Tag
}

// NewTitleService constructs a TitleService with sane defaults.
func NewTitleService(db *gorm.DB, provider llm.Provider, model string) *TitleService {
	return &TitleService{DB: db, Provider: provider, Model: model, MaxLen: 50}
}

// Generate produces a clean title for a first exchange. It never returns an
// empty string: when the model call fails or yields nothing, the title is
// derived from the user's message instead.
func (s *TitleService) Generate(ctx context.Context, userMessage, assistantReply string) string {
	tr := otel.Tracer("services/TitleService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(attribute.String("llm.model", s.Model)),
	)
	defer span.End()

	if s.Provider == nil {
		return s.Fallback(userMessage)
	}

	resp, err := s.Provider.CreateChatCompletion(ctx, llm.ChatCompletionRequest{
		Model:       s.Model,
		Temperature: titleTemperature,
		MaxTokens:   titleMaxTokens,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: titleSystemPrompt},
			{Role: llm.RoleUser, Content: "Conversation so far:\n\nUser: " + userMessage + "\n\nAssistant: " + assistantReply},
		},
	})
	if err != nil || resp == nil || len(resp.Choices) == 0 {
		return s.Fallback(userMessage)
	}

	title := s.clean(resp.Choices[0].Message.Content)
	if title == "" {
		return s.Fallback(userMessage)
	}
	return title
}

// GenerateAndStore generates a title and persists it, but only when the
// conversation is still untitled. Concurrent turns racing on the same
// conversation therefore keep the first stored title.
func (s *TitleService) GenerateAndStore(ctx context.Context, conversationID, userMessage, assistantReply string) (string, error) {
	title := s.Generate(ctx, userMessage, assistantReply)
	if _, err := repo.SetConversationTitleIfEmpty(ctx, s.DB, conversationID, title); err != nil {
		return "", err
	}
	return title, nil
}

// Fallback derives a title from the opening message without a model call.
// Words are title-cased under the configured locale.
func (s *TitleService) Fallback(userMessage string) string {
	t := strings.Join(strings.Fields(userMessage), " ")
	if t == "" {
		return "New Conversation"
	}
	t = cases.Title(s.localeOrDefault()).String(t)
	max := s.maxLen()
	if utf8.RuneCountInString(t) <= max {
		return t
	}
	return string([]rune(t)[:max-3]) + "..."
}

// localeOrDefault returns the configured casing locale or English if unset.
func (s *TitleService) localeOrDefault() language.Tag {
	if s.Locale == language.Und {
		return language.English
	}
	return s.Locale
}

// clean trims whitespace, strips wrapping quotes, and clips to MaxLen runes.
func (s *TitleService) clean(raw string) string {
	t := strings.TrimSpace(raw)
	t = surroundingQuotesRE.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	// Models occasionally return multi-line output; keep the first line only.
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	if max := s.maxLen(); utf8.RuneCountInString(t) > max {
		t = strings.TrimSpace(string([]rune(t)[:max]))
	}
	return t
}

func (s *TitleService) maxLen() int {
	if s.MaxLen > 0 {
		return s.MaxLen
	}
	return 50
}
