// Idempotency-Key handling for unsafe methods. The middleware validates the
// header and stashes the key in the request context; handlers that support
// retries read it back through GetIdempotencyKey and decide themselves
// whether a stored result can be served. Only transport concerns live here:
// the middleware runs before authentication, so it never touches storage.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's dedupe
// key. Clients reuse the same value when retrying a semantically identical
// request.
const HeaderIdempotencyKey = "Idempotency-Key"

// ctxKeyIdemKey is where the validated key is stashed for handlers.
const ctxKeyIdemKey = "idem.key"

// GetIdempotencyKey returns the validated key stashed by IdempotencyValidator
// and whether one was present. Handlers read the key from here, never from
// the raw header.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IdempotencyOptions tunes header validation. TTL enforcement belongs to the
// storage layer, not the middleware.
type IdempotencyOptions struct {
	// MaxLen caps accepted key length; values <= 0 mean 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil means a token-style pattern,
	// ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyValidator checks the Idempotency-Key header when present.
// Missing header: pass through untouched. Malformed key: 400 with a compact
// error body. Valid key: stash it for the handler.
func IdempotencyValidator(opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)
		c.Next()
	}
}
