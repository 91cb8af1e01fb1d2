// Package middleware – bearer token authentication.
//
// This file implements the JWT guard applied to all non-public routes. It
// validates the Authorization header, verifies the HS256 signature and expiry,
// and stashes the token subject under "userID" (plus the email claim under
// "userEmail" when present) where handlers and downstream middleware read it.
//
// Responses use the same compact inline error shape as the other middleware
// in this package; handler-level envelopes are not available this early in
// the chain.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/christianai/chat-backend/internal/auth"
)

// Context keys for the authenticated identity.
const (
	ctxKeyUserID    = "userID"
	ctxKeyUserEmail = "userEmail"
)

// Auth returns a middleware enforcing a valid bearer token signed with secret.
// Requests without a well-formed, unexpired token are rejected with 401.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const prefix = "Bearer "
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, prefix) {
			unauthorized(c, "missing bearer token")
			return
		}
		claims, err := auth.ValidateToken(secret, strings.TrimSpace(strings.TrimPrefix(header, prefix)))
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ctxKeyUserID, claims.UserID)
		if claims.Email != "" {
			c.Set(ctxKeyUserEmail, claims.Email)
		}
		c.Next()
	}
}

// unauthorized aborts with a uniform 401 body. The shape deliberately never
// distinguishes missing, malformed, and expired tokens beyond the message.
func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "unauthorized",
		"message": msg,
	})
}
