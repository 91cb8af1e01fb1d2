// Package services – ChatService
//
// This file implements ChatService, the application-level component that owns
// a conversational turn end to end. It validates the inbound request, loads
// the conversation, figure persona, and user preferences, assembles the system
// prompt, streams the model reply (resolving scripture tool calls along the
// way), and persists both sides of the exchange. The first completed exchange
// of a conversation also schedules asynchronous title generation.
//
// Observability: public methods are OpenTelemetry-instrumented; spans include
// conversation/user identifiers and per-stage events.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/llm"
	"github.com/christianai/chat-backend/internal/prompt"
	"github.com/christianai/chat-backend/internal/repo"
)

// greetingPrompt stands in for the user message on assistant-initiated turns.
const greetingPrompt = "Please greet me warmly and invite me to begin our conversation."

const (
	persistAttempts = 3
	persistBackoff  = 500 * time.Millisecond
)

// ToolExecutor resolves a model-initiated tool call into a JSON-serializable
// result. The translation argument is the caller's preferred bible
// translation, empty for the default. Failures are reported inside the
// result payload, never as errors.
type ToolExecutor interface {
	Execute(ctx context.Context, name, arguments, translation string) any
}

// TurnRequest is one inbound conversational turn.
type TurnRequest struct {
	ConversationID string
	Message        string
	// IsGreeting marks an assistant-initiated opening turn: no user message
	// is persisted and the reply is capped to a shorter token budget.
	IsGreeting bool
	// IdempotencyKey, when set, records the completed turn so a retried
	// request with the same key replays the stored reply.
	IdempotencyKey string
}

// TurnResult summarizes a completed turn for the finish event.
type TurnResult struct {
	MessageID string
	Content   string
	Usage     *llm.Usage
	// Persisted is false when all attempts to store the assistant reply
	// failed; the client received the full text regardless.
	Persisted bool
	ToolSteps int
}

// ChatService orchestrates conversational turns.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Provider performs chat-completion calls.
	Provider llm.Provider
	// Prompts assembles layered system prompts.
	Prompts *prompt.Builder
	// Tools resolves scripture tool calls. Nil disables tool use.
	Tools ToolExecutor
	// ToolDefs is the tool schema advertised to the model.
	ToolDefs []llm.Tool
	// Titles generates conversation titles after the first exchange.
	Titles *TitleService

	// Model and sampling configuration.
	Model           string
	Temperature     float64
	MaxOutputTokens int
	GreetingTokens  int
	MaxToolSteps    int

	// Guards.
	HistoryLimit    int
	MaxMessageRunes int

	// IdempotencyTTL bounds how long a completed turn stays replayable.
	// Zero disables recording.
	IdempotencyTTL time.Duration

	sleep   func(time.Duration)
	titleWG sync.WaitGroup
}

// NewChatService constructs a ChatService with sane defaults.
func NewChatService(db *gorm.DB, provider llm.Provider, prompts *prompt.Builder, tools ToolExecutor, titles *TitleService) *ChatService {
	return &ChatService{
		DB:              db,
		Provider:        provider,
		Prompts:         prompts,
		Tools:           tools,
		ToolDefs:        nil,
		Titles:          titles,
		Temperature:     0.7,
		MaxOutputTokens: 1500,
		GreetingTokens:  300,
		MaxToolSteps:    3,
		HistoryLimit:    20,
		MaxMessageRunes: 4000,
		sleep:           time.Sleep,
	}
}

// Converse runs one turn. Streamed text fragments are delivered through
// onDelta as they arrive; the returned TurnResult describes the completed
// turn. An onDelta error (client gone) aborts generation.
func (s *ChatService) Converse(ctx context.Context, userID string, req TurnRequest, onDelta func(string) error) (*TurnResult, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Converse",
		trace.WithAttributes(
			attribute.String("conversation.id", req.ConversationID),
			attribute.String("user.id", userID),
			attribute.Bool("turn.greeting", req.IsGreeting),
		),
	)
	defer span.End()

	if _, err := uuid.Parse(req.ConversationID); err != nil {
		return nil, ErrInvalidConversationID
	}
	msg := strings.TrimSpace(req.Message)
	if !req.IsGreeting {
		if msg == "" {
			return nil, ErrEmptyMessage
		}
		if s.MaxMessageRunes > 0 && utf8.RuneCountInString(msg) > s.MaxMessageRunes {
			return nil, ErrMessageTooLong
		}
	}

	conv, err := repo.GetConversation(ctx, s.DB, req.ConversationID, userID)
	if err != nil {
		return nil, ErrConversationNotFound
	}
	figure, err := repo.GetActiveFigure(ctx, s.DB, conv.FigureID)
	if err != nil {
		return nil, ErrFigureNotFound
	}

	var prefs domain.Preferences
	if u, uerr := repo.GetUser(ctx, s.DB, userID); uerr == nil {
		prefs = u.Preferences.Data()
	}

	history, err := repo.ListRecentMessages(s.DB.WithContext(ctx), conv.ID, s.historyLimit())
	if err != nil {
		return nil, err
	}
	firstExchange := len(history) == 0 && (conv.Title == nil || *conv.Title == "")

	// The inbound message is stored before generation starts so a generation
	// failure never loses what the user wrote.
	if !req.IsGreeting {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			m, cerr := repo.CreateMessage(tx, conv.ID, userID, domain.RoleUser, msg, nil)
			if cerr != nil {
				return cerr
			}
			return repo.BumpConversationActivity(ctx, tx, conv.ID, m.Timestamp)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUserMessageNotSaved, err)
		}
	}
	span.AddEvent("user message persisted")

	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: s.Prompts.BuildSystemPrompt(figure, prefs)})
	for _, h := range history {
		msgs = append(msgs, llm.Message{Role: h.Role, Content: h.Content})
	}
	if req.IsGreeting {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: greetingPrompt})
	} else {
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: msg})
	}

	maxTokens := s.MaxOutputTokens
	if req.IsGreeting && s.GreetingTokens > 0 {
		maxTokens = s.GreetingTokens
	}

	reply, usage, toolSteps, err := s.generate(ctx, msgs, maxTokens, prefs.BibleTranslation, onDelta)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reply) == "" {
		return nil, errors.New("model returned an empty reply")
	}
	span.AddEvent("generation complete", trace.WithAttributes(attribute.Int("turn.tool_steps", toolSteps)))

	var tokenCount *int
	if usage != nil && usage.CompletionTokens > 0 {
		n := usage.CompletionTokens
		tokenCount = &n
	}

	saved, persisted := s.persistReply(ctx, conv.ID, userID, reply, tokenCount)

	result := &TurnResult{Content: reply, Usage: usage, Persisted: persisted, ToolSteps: toolSteps}
	if saved != nil {
		result.MessageID = saved.ID
		if req.IdempotencyKey != "" && s.IdempotencyTTL > 0 {
			// Best effort: a lost record only costs one regeneration on retry.
			if _, ierr := repo.CreateIdempotency(ctx, s.DB, userID, conv.ID, req.IdempotencyKey, saved.ID, http.StatusOK, s.IdempotencyTTL); ierr != nil && !errors.Is(ierr, repo.ErrDuplicate) {
				span.AddEvent("idempotency record not saved")
			}
		}
	}

	if firstExchange && !req.IsGreeting && s.Titles != nil {
		s.scheduleTitle(ctx, conv.ID, msg, reply)
	}
	return result, nil
}

// ReplayTurn resolves a previously completed turn by its idempotency key and
// returns the stored reply, or (nil, false) when no live record exists.
func (s *ChatService) ReplayTurn(ctx context.Context, userID, conversationID, key string) (*TurnResult, bool) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, conversationID, key, time.Now().UTC())
	if err != nil {
		return nil, false
	}
	m, err := repo.GetMessage(s.DB.WithContext(ctx), rec.MessageID)
	if err != nil {
		return nil, false
	}
	res := &TurnResult{MessageID: m.ID, Content: m.Content, Persisted: true}
	if m.TokenCount != nil {
		res.Usage = &llm.Usage{CompletionTokens: *m.TokenCount}
	}
	return res, true
}

// generate runs the streaming completion, resolving up to MaxToolSteps rounds
// of tool calls before the final answer. Scripture lookups honor the user's
// translation preference.
func (s *ChatService) generate(ctx context.Context, msgs []llm.Message, maxTokens int, translation string, onDelta func(string) error) (string, *llm.Usage, int, error) {
	var (
		content   strings.Builder
		usage     *llm.Usage
		toolSteps int
	)

	creq := llm.ChatCompletionRequest{
		Model:       s.Model,
		Temperature: s.Temperature,
		MaxTokens:   maxTokens,
		Stream:      true,
		Messages:    msgs,
	}
	if s.Tools != nil {
		creq.Tools = s.ToolDefs
	}

	for {
		stream, err := s.Provider.CreateChatCompletionStream(ctx, creq)
		if err != nil {
			if content.Len() > 0 {
				// Partial answer already streamed; settle for it.
				log.Warn().Err(err).Msg("completion stream lost mid-turn")
				return content.String(), usage, toolSteps, nil
			}
			return "", nil, toolSteps, fmt.Errorf("chat completion: %w", err)
		}

		calls := map[int]*llm.ToolCall{}
		var order []int
		finish := ""

		for {
			delta, rerr := stream.Recv()
			if rerr == io.EOF {
				break
			}
			if rerr != nil {
				log.Warn().Err(rerr).Msg("completion stream read failed")
				break
			}
			if delta.Usage != nil {
				usage = delta.Usage
			}
			if len(delta.Choices) == 0 {
				continue
			}
			ch := delta.Choices[0]
			if ch.Delta.Content != "" {
				content.WriteString(ch.Delta.Content)
				if onDelta != nil {
					if werr := onDelta(ch.Delta.Content); werr != nil {
						stream.Close()
						return "", usage, toolSteps, fmt.Errorf("client write: %w", werr)
					}
				}
			}
			for _, tc := range ch.Delta.ToolCalls {
				idx := 0
				if tc.Index != nil {
					idx = *tc.Index
				}
				cur, ok := calls[idx]
				if !ok {
					cur = &llm.ToolCall{Type: "function"}
					calls[idx] = cur
					order = append(order, idx)
				}
				if tc.ID != "" {
					cur.ID = tc.ID
				}
				if tc.Function.Name != "" {
					cur.Function.Name = tc.Function.Name
				}
				cur.Function.Arguments += tc.Function.Arguments
			}
			if ch.FinishReason != "" {
				// Keep reading: a trailing chunk may still carry usage.
				finish = ch.FinishReason
			}
		}
		stream.Close()

		if finish == "tool_calls" && len(order) > 0 && s.Tools != nil && toolSteps < s.maxToolSteps() {
			toolSteps++
			assembled := make([]llm.ToolCall, 0, len(order))
			for _, idx := range order {
				assembled = append(assembled, *calls[idx])
			}
			creq.Messages = append(creq.Messages, llm.Message{Role: llm.RoleAssistant, ToolCalls: assembled})
			for _, tc := range assembled {
				result := s.Tools.Execute(ctx, tc.Function.Name, tc.Function.Arguments, translation)
				payload, merr := json.Marshal(result)
				if merr != nil {
					payload = []byte(`{"error":true,"message":"tool result could not be encoded"}`)
				}
				creq.Messages = append(creq.Messages, llm.Message{
					Role:       llm.RoleTool,
					ToolCallID: tc.ID,
					Name:       tc.Function.Name,
					Content:    string(payload),
				})
			}
			continue
		}
		break
	}

	return content.String(), usage, toolSteps, nil
}

// persistReply stores the assistant message with bounded retries. The client
// already holds the full text, so exhausting the retries degrades to a
// critical log instead of failing the turn.
func (s *ChatService) persistReply(ctx context.Context, conversationID, userID, reply string, tokenCount *int) (*domain.Message, bool) {
	var (
		saved *domain.Message
		perr  error
	)
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		perr = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			m, cerr := repo.CreateMessage(tx, conversationID, userID, domain.RoleAssistant, reply, tokenCount)
			if cerr != nil {
				return cerr
			}
			saved = m
			return repo.BumpConversationActivity(ctx, tx, conversationID, m.Timestamp)
		})
		if perr == nil {
			return saved, true
		}
		if attempt < persistAttempts {
			s.sleepFn()(time.Duration(attempt) * persistBackoff)
		}
	}
	log.Error().
		Err(perr).
		Str("conversation_id", conversationID).
		Str("user_id", userID).
		Msg("assistant reply lost: all persistence attempts failed")
	return nil, false
}

// scheduleTitle generates the conversation title off the request path. The
// turn response never waits on it.
func (s *ChatService) scheduleTitle(ctx context.Context, conversationID, userMessage, reply string) {
	s.titleWG.Add(1)
	go func() {
		defer s.titleWG.Done()
		tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if _, err := s.Titles.GenerateAndStore(tctx, conversationID, userMessage, reply); err != nil {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("title generation failed")
		}
	}()
}

// Drain blocks until background title generation settles. Called on shutdown.
func (s *ChatService) Drain() { s.titleWG.Wait() }

func (s *ChatService) historyLimit() int {
	if s.HistoryLimit > 0 {
		return s.HistoryLimit
	}
	return 20
}

func (s *ChatService) maxToolSteps() int {
	if s.MaxToolSteps > 0 {
		return s.MaxToolSteps
	}
	return 3
}

func (s *ChatService) sleepFn() func(time.Duration) {
	if s.sleep != nil {
		return s.sleep
	}
	return time.Sleep
}
