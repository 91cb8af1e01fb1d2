// Package prompt assembles the layered system prompt for a conversational
// turn: a figure-specific persona block, a global tone/safety block, and an
// optional user-preference block.
//
// Static prompt text lives on disk (<dir>/global.md and
// <dir>/figures/<slug>.md) and is cached in-process after the first read.
// Content is static per deployment, so the cache has no invalidation. Absent
// files degrade to built-in fallbacks; assembly never fails.
package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/christianai/chat-backend/internal/domain"
)

// Fallback blocks used when the prompt files are missing.
const (
	fallbackGlobal = "Speak with wisdom, compassion, and biblical accuracy."
)

// Preference defaults applied when a dimension is unset.
const (
	DefaultPronouns = "they/them"
	DefaultAgeGroup = "adult"
	DefaultTone     = "conversational"
)

// ageDirectives maps an age group to its single directive sentence.
var ageDirectives = map[string]string{
	"child": "The user is a child. Use simple vocabulary, short clear explanations, focus on God's love and basic biblical truths. Avoid complex theology and mature themes.",
	"teen":  "The user is a teenager. Use age-appropriate language with relatable examples and encourage spiritual growth.",
	"adult": "The user is an adult. Use mature language and explore deeper theological concepts when appropriate.",
	"senior": "The user is a senior. Use thoughtful, respectful language with patience and wisdom from experience.",
}

// toneDirectives maps a tone to its single directive sentence.
var toneDirectives = map[string]string{
	"formal":         "Maintain a formal, reverent tone in all responses.",
	"conversational": "Use a conversational, approachable tone while maintaining respect.",
	"warm":           "Use a warm, nurturing tone that shows care and compassion.",
}

// Builder is the read-through prompt cache. Construct one at process start
// with New and share it across requests; it is safe for concurrent use.
type Builder struct {
	dir string

	mu      sync.RWMutex
	global  string            // cached global.md content ("" = not yet loaded)
	figures map[string]string // slug -> cached figure prompt
}

// New constructs a Builder rooted at the given prompts directory.
func New(dir string) *Builder {
	return &Builder{
		dir:     dir,
		figures: make(map[string]string),
	}
}

// GlobalPrompt returns the global tone/safety block, reading and caching the
// file on first use. A missing file yields the built-in fallback (uncached,
// so a later deploy of the file takes effect on restart only by convention).
func (b *Builder) GlobalPrompt() string {
	b.mu.RLock()
	cached := b.global
	b.mu.RUnlock()
	if cached != "" {
		return cached
	}

	data, err := os.ReadFile(filepath.Join(b.dir, "global.md"))
	if err != nil {
		return fallbackGlobal
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return fallbackGlobal
	}

	b.mu.Lock()
	b.global = content
	b.mu.Unlock()
	return content
}

// FigurePrompt returns the persona block for a figure, reading and caching
// figures/<slug>.md on first use. A missing file yields a generic persona
// built from the catalog entry.
func (b *Builder) FigurePrompt(slug, displayName, description string) string {
	b.mu.RLock()
	cached, ok := b.figures[slug]
	b.mu.RUnlock()
	if ok {
		return cached
	}

	data, err := os.ReadFile(filepath.Join(b.dir, "figures", slug+".md"))
	if err != nil {
		return fallbackFigure(displayName, description)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return fallbackFigure(displayName, description)
	}

	b.mu.Lock()
	b.figures[slug] = content
	b.mu.Unlock()
	return content
}

func fallbackFigure(displayName, description string) string {
	var sb strings.Builder
	sb.WriteString("You are ")
	sb.WriteString(displayName)
	sb.WriteString(". ")
	if description != "" {
		sb.WriteString(description)
		sb.WriteString(" ")
	}
	sb.WriteString("Speak with wisdom and compassion.")
	return sb.String()
}

// PreferencesPrompt builds the user-preference block: exactly one directive
// sentence per dimension, with documented defaults for pronouns, age group,
// and tone, plus a translation line only when a translation is set.
func PreferencesPrompt(prefs domain.Preferences) string {
	parts := make([]string, 0, 4)

	pronouns := prefs.Pronouns
	if pronouns == "" {
		pronouns = DefaultPronouns
	}
	parts = append(parts, "The user prefers "+pronouns+" pronouns. Address them accordingly.")

	age := prefs.AgeGroup
	if _, ok := ageDirectives[age]; !ok {
		age = DefaultAgeGroup
	}
	parts = append(parts, ageDirectives[age])

	tone := prefs.Tone
	if _, ok := toneDirectives[tone]; !ok {
		tone = DefaultTone
	}
	parts = append(parts, toneDirectives[tone])

	if prefs.BibleTranslation != "" {
		parts = append(parts, "When referencing Scripture, prefer the "+prefs.BibleTranslation+" translation when appropriate.")
	}

	return strings.Join(parts, "\n")
}

// BuildSystemPrompt assembles the complete system prompt for a turn. The
// preference block is included only when at least one preference is set.
func (b *Builder) BuildSystemPrompt(figure *domain.Figure, prefs domain.Preferences) string {
	parts := []string{
		b.FigurePrompt(figure.Slug, figure.DisplayName, figure.Description),
		"\n---\n",
		b.GlobalPrompt(),
	}

	if !prefs.IsZero() {
		parts = append(parts, "\n---\n", "## User Preferences", PreferencesPrompt(prefs))
	}

	return strings.Join(parts, "\n")
}
