// Conversation HTTP handlers.
//
// This file exposes REST endpoints for conversation resources:
//   - POST   /conversations                  (create)
//   - GET    /conversations                  (list, paginated, ETag support)
//   - GET    /conversations/{id}             (fetch)
//   - PUT    /conversations/{id}/title       (rename)
//   - DELETE /conversations/{id}             (soft delete)
//   - POST   /conversations/{id}/bookmark    (toggle)
//   - GET    /conversations/{id}/messages    (transcript, paginated, ETag support)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/repo"
	"github.com/christianai/chat-backend/internal/services"
	"github.com/christianai/chat-backend/internal/utils"
)

//
// DTOs
//

// CreateConversationRequest is the JSON payload for creating a conversation.
type CreateConversationRequest struct {
	// FigureID selects the conversational figure.
	FigureID int `json:"figure_id" binding:"required" example:"3"`
}

// RenameConversationRequest is the JSON payload for renaming a conversation.
type RenameConversationRequest struct {
	// Title is the new conversation name (1-255 chars).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Crossing the Red Sea"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListConversationsResponse wraps a page of conversations and pagination info.
type ListConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations"`
	Pagination    Pagination            `json:"pagination"`
}

// ListMessagesResponse wraps a page of messages and pagination info.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// BookmarkResponse reports the bookmark state after a toggle.
type BookmarkResponse struct {
	IsBookmarked bool `json:"is_bookmarked"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// paginationFor derives page metadata from a fetched page.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// pathConversationID validates the :id path parameter as a UUID.
func pathConversationID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "conversation id must be a UUID")
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateConversation godoc
// @ID          createConversation
// @Summary     Start a new conversation
// @Description Creates a conversation with the selected figure. The title stays empty until the first exchange generates one.
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       body           body    handlers.CreateConversationRequest  true  "Create payload"
//
// @Success     201  {object}  handlers.Envelope{data=domain.Conversation}
// @Failure     400  {object}  handlers.Envelope "Bad request"
// @Failure     404  {object}  handlers.Envelope "Figure not found"
// @Failure     500  {object}  handlers.Envelope "Internal error"
// @Router      /conversations [post]
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FigureID <= 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "figure_id required")
		return
	}

	conv, err := h.convSvc.Create(c.Request.Context(), userID(c), req.FigureID)
	if err != nil {
		if errors.Is(err, services.ErrFigureNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "figure not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, conv)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     List conversations (paginated)
// @Description Returns a page of the user's conversations, most recent activity first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.Envelope{data=handlers.ListConversationsResponse}
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.Envelope "Internal error"
// @Router      /conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okc := h.convSvc.(*services.ConversationService); okc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ConversationsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"conversations:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.convSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListConversationsResponse{
		Conversations: items,
		Pagination:    paginationFor(page, pageSize, total),
	})
}

// GetConversation godoc
// @ID          getConversation
// @Summary     Fetch one conversation
// @Tags        Conversations
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    string  true "Conversation ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.Envelope{data=domain.Conversation}
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Conversation not found"
// @Router      /conversations/{id} [get]
func (h *Handlers) GetConversation(c *gin.Context) {
	id, okID := pathConversationID(c)
	if !okID {
		return
	}
	conv, err := h.convSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	ok(c, http.StatusOK, conv)
}

// RenameConversation godoc
// @ID          renameConversation
// @Summary     Rename a conversation
// @Tags        Conversations
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    string  true "Conversation ID (UUID)" format(uuid)
// @Param       body           body    handlers.RenameConversationRequest true "New title"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Conversation not found"
// @Router      /conversations/{id}/title [put]
func (h *Handlers) RenameConversation(c *gin.Context) {
	id, okID := pathConversationID(c)
	if !okID {
		return
	}

	var req RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1-255 chars)")
		return
	}

	if err := h.convSvc.Rename(c.Request.Context(), userID(c), id, req.Title); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	noContent(c)
}

// DeleteConversation godoc
// @ID          deleteConversation
// @Summary     Delete a conversation
// @Description Soft-deletes the conversation; it disappears from listings but messages are retained.
// @Tags        Conversations
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    string  true "Conversation ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Conversation not found"
// @Router      /conversations/{id} [delete]
func (h *Handlers) DeleteConversation(c *gin.Context) {
	id, okID := pathConversationID(c)
	if !okID {
		return
	}
	if err := h.convSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	noContent(c)
}

// ToggleBookmark godoc
// @ID          toggleBookmark
// @Summary     Toggle the bookmark flag
// @Tags        Conversations
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    string  true "Conversation ID (UUID)" format(uuid)
//
// @Success     200  {object} handlers.Envelope{data=handlers.BookmarkResponse}
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Conversation not found"
// @Router      /conversations/{id}/bookmark [post]
func (h *Handlers) ToggleBookmark(c *gin.Context) {
	id, okID := pathConversationID(c)
	if !okID {
		return
	}
	v, err := h.convSvc.ToggleBookmark(c.Request.Context(), userID(c), id)
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
		return
	}
	ok(c, http.StatusOK, BookmarkResponse{IsBookmarked: v})
}

// ListConversationMessages godoc
// @ID          listConversationMessages
// @Summary     List messages in a conversation (paginated)
// @Description Returns the transcript oldest-first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Conversations
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       id             path    string  true  "Conversation ID (UUID)" format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"    minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page" minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.Envelope{data=handlers.ListMessagesResponse}
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Conversation not found"
// @Router      /conversations/{id}/messages [get]
func (h *Handlers) ListConversationMessages(c *gin.Context) {
	ctx := c.Request.Context()
	id, okID := pathConversationID(c)
	if !okID {
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okc := h.convSvc.(*services.ConversationService); okc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.MessagesStats(ctx, db, id)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, id, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.convSvc.MessagesPage(ctx, userID(c), id, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: paginationFor(page, pageSize, total),
	})
}
