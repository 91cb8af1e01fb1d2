// Share HTTP handlers.
//
// This file exposes endpoints for public conversation shares:
//   - POST   /conversations/{id}/share   (create or return existing share)
//   - DELETE /conversations/{id}/share   (revoke)
//   - GET    /public/shares/{token}      (anonymous read-only view)
//
// Share creation is idempotent per conversation. The public resolve endpoint
// is the only unauthenticated route besides health checks.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/christianai/chat-backend/internal/services"
)

// CreateShare godoc
// @ID          createShare
// @Summary     Share a conversation
// @Description Mints a public read-only token for the conversation, or returns the existing active one.
// @Tags        Shares
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    string  true "Conversation ID (UUID)" format(uuid)
//
// @Success     201  {object} handlers.Envelope{data=domain.ConversationShare}
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Conversation not found"
// @Router      /conversations/{id}/share [post]
func (h *Handlers) CreateShare(c *gin.Context) {
	id, okID := pathConversationID(c)
	if !okID {
		return
	}
	share, err := h.shareSvc.Create(c.Request.Context(), userID(c), id)
	if err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, share)
}

// RevokeShare godoc
// @ID          revokeShare
// @Summary     Revoke a conversation share
// @Description Deactivates the conversation's public token. Revoking an unshared conversation is a no-op.
// @Tags        Shares
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    string  true "Conversation ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Conversation not found"
// @Router      /conversations/{id}/share [delete]
func (h *Handlers) RevokeShare(c *gin.Context) {
	id, okID := pathConversationID(c)
	if !okID {
		return
	}
	if err := h.shareSvc.Revoke(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, services.ErrConversationNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "conversation not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// ResolveShare godoc
// @ID          resolveShare
// @Summary     View a shared conversation
// @Description Anonymous read-only view of a shared conversation's transcript.
// @Tags        Shares
// @Produce     json
//
// @Param       token  path  string  true "Share token (UUID)" format(uuid)
//
// @Success     200  {object} handlers.Envelope{data=services.PublicConversation}
// @Failure     400  {object} handlers.Envelope "Bad request"
// @Failure     404  {object} handlers.Envelope "Share not found"
// @Router      /public/shares/{token} [get]
func (h *Handlers) ResolveShare(c *gin.Context) {
	token := c.Param("token")
	if _, err := uuid.Parse(token); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "share token must be a UUID")
		return
	}
	view, err := h.shareSvc.Resolve(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrShareNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "share not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, view)
}
