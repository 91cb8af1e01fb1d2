// Conversational turn HTTP handler.
//
// This file exposes the streaming turn endpoint:
//   - POST /chats/converse  (server-sent events)
//
// The handler is transport-thin: it validates the payload, delegates the turn
// to the chat service, and relays streamed text fragments to the client as
// SSE `delta` events, terminated by a single `finish` event carrying usage
// and persistence status. Failures before the first byte is streamed are
// returned as regular JSON envelopes; failures after that point are reported
// in-band as an SSE `error` event, since the HTTP status is already written.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/http/middleware"
	"github.com/christianai/chat-backend/internal/llm"
	"github.com/christianai/chat-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// TurnService runs one conversational turn, streaming text fragments through
// the supplied callback.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type TurnService interface {
	Converse(ctx context.Context, userID string, req services.TurnRequest, onDelta func(string) error) (*services.TurnResult, error)
}

// ConversationService defines conversation lifecycle operations consumed by
// HTTP handlers.
type ConversationService interface {
	// Create starts a conversation with the given figure.
	Create(ctx context.Context, userID string, figureID int) (*domain.Conversation, error)
	// ListPage returns a page of conversations for a user and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	// Get fetches one conversation owned by the user.
	Get(ctx context.Context, userID, conversationID string) (*domain.Conversation, error)
	// Rename updates a conversation's title.
	Rename(ctx context.Context, userID, conversationID, title string) error
	// Delete soft-deletes a conversation.
	Delete(ctx context.Context, userID, conversationID string) error
	// ToggleBookmark flips the bookmark flag and returns the new state.
	ToggleBookmark(ctx context.Context, userID, conversationID string) (bool, error)
	// MessagesPage returns a page of messages within a conversation.
	MessagesPage(ctx context.Context, userID, conversationID string, page, pageSize int) ([]domain.Message, int64, error)
}

// FigureService exposes the figure catalog.
type FigureService interface {
	List(ctx context.Context) ([]domain.Figure, error)
	Get(ctx context.Context, id int) (*domain.Figure, error)
}

// UserService manages the authenticated user's profile.
type UserService interface {
	GetOrProvision(ctx context.Context, userID, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, patch services.ProfileUpdate) (*domain.User, error)
}

// ShareService manages public conversation shares.
type ShareService interface {
	Create(ctx context.Context, userID, conversationID string) (*domain.ConversationShare, error)
	Revoke(ctx context.Context, userID, conversationID string) error
	Resolve(ctx context.Context, token string) (*services.PublicConversation, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for turns, conversations, figures, profiles,
// and shares. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	turnSvc  TurnService
	convSvc  ConversationService
	figSvc   FigureService
	userSvc  UserService
	shareSvc ShareService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(turnSvc TurnService, convSvc ConversationService, figSvc FigureService, userSvc UserService, shareSvc ShareService) *Handlers {
	return &Handlers{turnSvc: turnSvc, convSvc: convSvc, figSvc: figSvc, userSvc: userSvc, shareSvc: shareSvc}
}

// userID extracts the authenticated user id from Gin context (set by the auth
// middleware). If absent, it falls back to "X-User-ID" header (tests use it).
// It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return ""
}

// userEmail returns the token's email claim when the auth middleware stashed
// one, empty otherwise.
func userEmail(c *gin.Context) string {
	if v, ok := c.Get("userEmail"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

//
// DTOs
//

// ConverseRequest is the JSON payload for a conversational turn.
type ConverseRequest struct {
	// ConversationID identifies the target conversation (UUID).
	ConversationID string `json:"conversation_id" binding:"required" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// Message is the user's utterance (1-4000 runes; empty for greetings).
	Message string `json:"message" example:"What did the parting of the sea feel like?"`
	// IsGreeting requests an assistant-initiated opening turn.
	IsGreeting bool `json:"is_greeting"`
}

// deltaEvent is the payload of one SSE `delta` event.
type deltaEvent struct {
	Content string `json:"content"`
}

// finishEvent is the payload of the terminal SSE `finish` event.
type finishEvent struct {
	MessageID string     `json:"message_id,omitempty"`
	Usage     *llm.Usage `json:"usage,omitempty"`
	Persisted bool       `json:"persisted"`
	ToolSteps int        `json:"tool_steps,omitempty"`
}

// sseErrorEvent is the payload of an in-band SSE `error` event.
type sseErrorEvent struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeSSE emits one named SSE event with a JSON payload and flushes.
func writeSSE(c *gin.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("event: " + event + "\ndata: " + string(data) + "\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// Converse godoc
// @ID          converse
// @Summary     Run a conversational turn (SSE)
// @Description Streams the assistant reply as server-sent events: zero or more `delta` events followed by one `finish` event. Validation failures are returned as JSON envelopes before streaming begins.
// @Tags        Turns
// @Accept      json
// @Produce     text/event-stream
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       body           body    handlers.ConverseRequest  true  "Turn payload"
//
// @Success     200  {string} string "SSE stream"
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Conversation or figure not found"
// @Failure     500  {object} handlers.Envelope "User message could not be saved"
// @Failure     502  {object} handlers.Envelope "Model call failed"
// @Router      /chats/converse [post]
func (h *Handlers) Converse(c *gin.Context) {
	var req ConverseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	streamed := false
	onDelta := func(chunk string) error {
		if !streamed {
			streamed = true
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Writer.WriteHeader(http.StatusOK)
		}
		return writeSSE(c, "delta", deltaEvent{Content: chunk})
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)

	// A retried request with a known key replays the stored reply as one
	// delta plus finish instead of generating again.
	if idemKey != "" {
		if svc, okSvc := h.turnSvc.(*services.ChatService); okSvc {
			if prior, found := svc.ReplayTurn(c.Request.Context(), userID(c), req.ConversationID, idemKey); found {
				if err := onDelta(prior.Content); err != nil {
					return
				}
				_ = writeSSE(c, "finish", finishEvent{
					MessageID: prior.MessageID,
					Usage:     prior.Usage,
					Persisted: prior.Persisted,
				})
				return
			}
		}
	}

	result, err := h.turnSvc.Converse(c.Request.Context(), userID(c), services.TurnRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		IsGreeting:     req.IsGreeting,
		IdempotencyKey: idemKey,
	}, onDelta)
	if err != nil {
		if streamed {
			// Status already on the wire; report in-band and end the stream.
			_ = writeSSE(c, "error", sseErrorEvent{Error: ErrCodeConverseFailed, Message: "turn aborted"})
			return
		}
		switch {
		case errors.Is(err, services.ErrInvalidConversationID),
			errors.Is(err, services.ErrEmptyMessage),
			errors.Is(err, services.ErrMessageTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrConversationNotFound),
			errors.Is(err, services.ErrFigureNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
		case errors.Is(err, services.ErrUserMessageNotSaved):
			fail(c, http.StatusInternalServerError, ErrCodeInternal, services.ErrUserMessageNotSaved.Error())
		default:
			fail(c, http.StatusBadGateway, ErrCodeConverseFailed, "assistant is unavailable right now")
		}
		return
	}

	if !streamed {
		// Entire reply arrived in one chunkless completion; open the stream
		// and deliver it as a single delta before finishing.
		if err := onDelta(result.Content); err != nil {
			return
		}
	}
	_ = writeSSE(c, "finish", finishEvent{
		MessageID: result.MessageID,
		Usage:     result.Usage,
		Persisted: result.Persisted,
		ToolSteps: result.ToolSteps,
	})
}
