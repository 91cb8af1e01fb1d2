// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints.
// Every JSON response, success or failure, is wrapped in the same Envelope so
// clients can branch on a single `success` flag and rely on a stable `error`
// code taxonomy for programmatic handling.
//
// Conventions:
//   - All error responses carry a stable `error` code (see errors.go).
//   - `fail()` centralizes error logging and formatting, ensuring 5xx
//     responses are logged with request context for observability.
//   - `ok()` and `noContent()` simplify writing success responses in a
//     consistent shape across handlers.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "error": "not_found",
//	  "message": "conversation not found",
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "timestamp": "2026-01-12T09:30:00Z"
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": { "id": "abc123" }, "timestamp": "2026-01-12T09:30:00Z" }
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/christianai/chat-backend/internal/http/middleware"
)

// Envelope is the uniform JSON wrapper returned by all endpoints.
//
// Fields:
//   - Success: true for 2xx responses, false otherwise.
//   - Data: the payload of a successful response; omitted on failure.
//   - Error: a stable, machine-readable code (see errors.go constants).
//   - Message: a human-readable description, safe for display to users.
//   - RequestID: optional correlation ID echoed from X-Request-ID, used to
//     correlate server logs with client-side errors.
//   - Timestamp: server time at which the response was produced (UTC).
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type Envelope struct {
	Success bool `json:"success"`
	// Payload of a successful response
	Data any `json:"data,omitempty"`
	// Stable, machine-readable code (see errors.go constants)
	Error string `json:"error,omitempty" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message,omitempty" example:"conversation not found"`
	// Correlates server logs and client errors
	RequestID string    `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	Timestamp time.Time `json:"timestamp"`
}

// fail aborts the request with a structured error envelope.
//
// Server errors (>=500) are logged using the request-scoped logger from
// middleware before the envelope is written.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := Envelope{
		Success:   false,
		Error:     code,
		Message:   msg,
		RequestID: reqID,
		Timestamp: time.Now().UTC(),
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success envelope wrapping body as the data payload.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, Envelope{
		Success:   true,
		Data:      body,
		Timestamp: time.Now().UTC(),
	})
}

// noContent writes an HTTP 204 No Content response.
//
// Used when the operation succeeds but there is no response body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
