package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestGetIdempotencyKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("unset key: got %q, %v", k, ok)
	}

	// A wrong type in the context degrades to absent, never panics.
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key should read as absent")
	}

	c.Set(ctxKeyIdemKey, "key-1")
	if k, ok := GetIdempotencyKey(c); k != "key-1" || !ok {
		t.Fatalf("got %q, %v; want key-1, true", k, ok)
	}
}

func TestIdempotencyValidator_NoHeaderPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.Use(IdempotencyValidator(IdempotencyOptions{}))
	r.GET("/ping", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("no header, so no key should be stashed")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", w.Code)
	}
}

func TestIdempotencyValidator_RejectsMalformedKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"over max length", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"over default max length", IdempotencyOptions{}, strings.Repeat("a", 201)},
		{"pattern mismatch", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern rejects spaces", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(IdempotencyValidator(tc.opts))
			r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d; want 400", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("body not json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" {
				t.Fatalf("unexpected error body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_StashesValidKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Zero options exercise the defaults (MaxLen 200, token pattern).
	r.Use(IdempotencyValidator(IdempotencyOptions{}))
	r.POST("/x", func(c *gin.Context) {
		key, ok := GetIdempotencyKey(c)
		if !ok || key != "turn-key_1.2~3:b" {
			t.Fatalf("stashed key = %q, %v", key, ok)
		}
		c.Status(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set(HeaderIdempotencyKey, "turn-key_1.2~3:b")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d; want 202", w.Code)
	}
}
