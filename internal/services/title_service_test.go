package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"golang.org/x/text/language"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/llm"
)

// fakeTitleProvider scripts the non-streaming completion call.
type fakeTitleProvider struct {
	reply   string
	err     error
	lastReq llm.ChatCompletionRequest
}

func (f *fakeTitleProvider) CreateChatCompletion(_ context.Context, req llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: llm.Message{Role: llm.RoleAssistant, Content: f.reply}}},
	}, nil
}

func (f *fakeTitleProvider) CreateChatCompletionStream(context.Context, llm.ChatCompletionRequest) (llm.Stream, error) {
	return nil, errors.New("not scripted")
}

func newTitleDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Conversation{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestGenerate_CleansModelOutput(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  string
	}{
		{"plain", "Crossing the Red Sea", "Crossing the Red Sea"},
		{"quoted", `"Crossing the Red Sea"`, "Crossing the Red Sea"},
		{"backticked", "`Wisdom of Solomon`", "Wisdom of Solomon"},
		{"multiline", "First Line\nSecond Line", "First Line"},
		{"padded", "   Psalms of Comfort   ", "Psalms of Comfort"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewTitleService(nil, &fakeTitleProvider{reply: tc.reply}, "test-model")
			got := svc.Generate(context.Background(), "question", "answer")
			if got != tc.want {
				t.Fatalf("Generate = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestGenerate_ClipsToMaxLenRunes(t *testing.T) {
	long := strings.Repeat("Faith ", 20) // well past 50 runes
	svc := NewTitleService(nil, &fakeTitleProvider{reply: long}, "test-model")
	got := svc.Generate(context.Background(), "q", "a")
	if n := len([]rune(got)); n > 50 {
		t.Fatalf("title length %d exceeds cap: %q", n, got)
	}
}

func TestGenerate_SendsLowTemperatureAndTranscript(t *testing.T) {
	p := &fakeTitleProvider{reply: "T"}
	svc := NewTitleService(nil, p, "test-model")
	svc.Generate(context.Background(), "who was Moses?", "Moses led Israel out of Egypt.")

	if p.lastReq.Model != "test-model" || p.lastReq.Temperature != 0.3 || p.lastReq.MaxTokens != 20 {
		t.Fatalf("unexpected request knobs: %+v", p.lastReq)
	}
	if len(p.lastReq.Messages) != 2 || p.lastReq.Messages[0].Role != llm.RoleSystem {
		t.Fatalf("unexpected messages: %+v", p.lastReq.Messages)
	}
	if u := p.lastReq.Messages[1].Content; !strings.Contains(u, "who was Moses?") || !strings.Contains(u, "led Israel") {
		t.Fatalf("transcript missing from user turn: %q", u)
	}
}

func TestGenerate_FallsBackOnFailure(t *testing.T) {
	// Provider error
	svc := NewTitleService(nil, &fakeTitleProvider{err: errors.New("down")}, "m")
	if got := svc.Generate(context.Background(), "what does Psalm 23 mean?", "a"); got != "What Does Psalm 23 Mean?" {
		t.Fatalf("expected fallback to user message, got %q", got)
	}
	// Empty model reply
	svc = NewTitleService(nil, &fakeTitleProvider{reply: "   "}, "m")
	if got := svc.Generate(context.Background(), "short question", "a"); got != "Short Question" {
		t.Fatalf("expected fallback for blank reply, got %q", got)
	}
	// No provider at all
	svc = NewTitleService(nil, nil, "m")
	if got := svc.Generate(context.Background(), "short question", "a"); got != "Short Question" {
		t.Fatalf("expected fallback without provider, got %q", got)
	}
}

func TestFallback_Shapes(t *testing.T) {
	svc := NewTitleService(nil, nil, "m")

	if got := svc.Fallback("  \n\t "); got != "New Conversation" {
		t.Fatalf("blank fallback = %q", got)
	}
	if got := svc.Fallback("tabs\tand\nnewlines   collapse"); got != "Tabs And Newlines Collapse" {
		t.Fatalf("whitespace collapse = %q", got)
	}

	long := "x" + strings.Repeat("y", 79)
	got := svc.Fallback(long)
	if len([]rune(got)) != 50 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long fallback = %q (len %d)", got, len([]rune(got)))
	}
	if got[:47] != "X"+long[1:47] {
		t.Fatalf("truncation dropped wrong part: %q", got)
	}
}

func TestFallback_CasesUnderConfiguredLocale(t *testing.T) {
	svc := NewTitleService(nil, nil, "m")
	if got := svc.Fallback("walking through istanbul"); got != "Walking Through Istanbul" {
		t.Fatalf("default locale fallback = %q", got)
	}

	// Turkish casing rules dot the capital I.
	svc.Locale = language.Turkish
	if got := svc.Fallback("istanbul"); got != "İstanbul" {
		t.Fatalf("turkish fallback = %q", got)
	}
}

func TestGenerateAndStore_OnlyFillsUntitledConversations(t *testing.T) {
	db := newTitleDB(t)
	ctx := context.Background()

	manual := "Chosen by hand"
	for _, c := range []domain.Conversation{
		{ID: "blank", UserID: "u1", FigureID: 1},
		{ID: "named", UserID: "u1", FigureID: 1, Title: &manual},
	} {
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed %s: %v", c.ID, err)
		}
	}

	svc := NewTitleService(db, &fakeTitleProvider{reply: "Generated Title"}, "m")

	got, err := svc.GenerateAndStore(ctx, "blank", "q", "a")
	if err != nil || got != "Generated Title" {
		t.Fatalf("GenerateAndStore: (%q, %v)", got, err)
	}
	var blank domain.Conversation
	if err := db.First(&blank, "id = ?", "blank").Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if blank.Title == nil || *blank.Title != "Generated Title" {
		t.Fatalf("title not stored: %v", blank.Title)
	}

	// An existing title survives a racing generation.
	if _, err := svc.GenerateAndStore(ctx, "named", "q", "a"); err != nil {
		t.Fatalf("GenerateAndStore named: %v", err)
	}
	var named domain.Conversation
	if err := db.First(&named, "id = ?", "named").Error; err != nil {
		t.Fatalf("load named: %v", err)
	}
	if named.Title == nil || *named.Title != manual {
		t.Fatalf("manual title clobbered: %v", named.Title)
	}
}
