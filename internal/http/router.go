// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/christianai/chat-backend/internal/bible"
	"github.com/christianai/chat-backend/internal/config"
	"github.com/christianai/chat-backend/internal/domain"
	"github.com/christianai/chat-backend/internal/http/handlers"
	"github.com/christianai/chat-backend/internal/http/middleware"
	"github.com/christianai/chat-backend/internal/llm"
	"github.com/christianai/chat-backend/internal/prompt"
	"github.com/christianai/chat-backend/internal/repo"
	"github.com/christianai/chat-backend/internal/services"
)

// conversationRepoShim adapts the repository free functions to the
// services.ConversationRepo interface expected by ConversationService. This
// keeps services decoupled from the concrete repo package while reusing
// existing functions.
type conversationRepoShim struct{}

// CreateConversation proxies repo.CreateConversation.
func (conversationRepoShim) CreateConversation(ctx context.Context, db *gorm.DB, userID string, figureID int, title *string) (*domain.Conversation, error) {
	return repo.CreateConversation(ctx, db, userID, figureID, title)
}

// ListConversations proxies repo.ListConversations.
func (conversationRepoShim) ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	return repo.ListConversations(ctx, db, userID)
}

// GetConversation proxies repo.GetConversation.
func (conversationRepoShim) GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	return repo.GetConversation(ctx, db, id, userID)
}

// UpdateConversationTitle proxies repo.UpdateConversationTitle.
func (conversationRepoShim) UpdateConversationTitle(ctx context.Context, db *gorm.DB, id, userID, title string) error {
	return repo.UpdateConversationTitle(ctx, db, id, userID, title)
}

// CountConversations proxies repo.CountConversations (pagination support).
func (conversationRepoShim) CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return repo.CountConversations(ctx, db, userID)
}

// ListConversationsPage proxies repo.ListConversationsPage (pagination support).
func (conversationRepoShim) ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	return repo.ListConversationsPage(ctx, db, userID, offset, limit)
}

// SoftDeleteConversation proxies repo.SoftDeleteConversation.
func (conversationRepoShim) SoftDeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.SoftDeleteConversation(ctx, db, id, userID)
}

// ToggleBookmark proxies repo.ToggleBookmark.
func (conversationRepoShim) ToggleBookmark(ctx context.Context, db *gorm.DB, id, userID string) (bool, error) {
	return repo.ToggleBookmark(ctx, db, id, userID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (SSE and metrics excluded; streams must not be buffered)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and Security headers
//
// The returned ChatService is exposed so main can drain background title
// generation on shutdown.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, provider llm.Provider, cfg config.Config) *services.ChatService {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key", // project-specific sensitive header example
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compression. The SSE turn endpoint is excluded: proxies and clients
	// need each event flushed immediately, not sitting in a gzip window.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		cfg.APIBasePath + "/chats/converse",
		"/metrics",
	})))

	// 8) Idempotency-Key format validation. Replay of stored turns happens in
	// the converse handler, after auth has established the subject.
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{
		MaxLen: 200,
	}))

	// 9) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/provider
	prompts := prompt.New(cfg.PromptsDir)
	// Default translation; each turn overrides it with the user's preference.
	scripture := bible.NewClient(cfg.Bible.VerseBaseURL, cfg.Bible.SearchBaseURL, cfg.Bible.Timeout, "")

	titleSvc := services.NewTitleService(db, provider, cfg.LLM.TitleModel)
	titleSvc.MaxLen = cfg.TitleMaxLen

	turnSvc := services.NewChatService(db, provider, prompts, scripture, titleSvc)
	turnSvc.Model = cfg.LLM.ChatModel
	turnSvc.Temperature = cfg.LLM.Temperature
	turnSvc.MaxOutputTokens = cfg.LLM.MaxOutputTokens
	turnSvc.GreetingTokens = cfg.LLM.GreetingTokens
	turnSvc.MaxToolSteps = cfg.LLM.MaxToolSteps
	turnSvc.HistoryLimit = cfg.HistoryLimit
	turnSvc.MaxMessageRunes = cfg.MaxMessageRunes
	turnSvc.IdempotencyTTL = cfg.IdempotencyTTL
	turnSvc.ToolDefs = bible.Tools()

	convSvc := services.NewConversationService(db, conversationRepoShim{})
	convSvc.TitleMaxLen = cfg.TitleMaxLen

	h := handlers.New(
		turnSvc,
		convSvc,
		services.NewFigureService(db),
		services.NewUserService(db),
		services.NewShareService(db),
	)

	// Public routes (no bearer token)
	public := groupWithPrefix(r, cfg.APIBasePath)
	public.GET("/public/shares/:token", h.ResolveShare)

	// Authenticated API
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		// Turns
		api.POST("/chats/converse", h.Converse)

		// Conversations
		api.POST("/conversations", h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/:id", h.GetConversation)
		api.PUT("/conversations/:id/title", h.RenameConversation)
		api.DELETE("/conversations/:id", h.DeleteConversation)
		api.POST("/conversations/:id/bookmark", h.ToggleBookmark)
		api.GET("/conversations/:id/messages", h.ListConversationMessages)

		// Shares
		api.POST("/conversations/:id/share", h.CreateShare)
		api.DELETE("/conversations/:id/share", h.RevokeShare)

		// Figures
		api.GET("/figures", h.ListFigures)
		api.GET("/figures/:id", h.GetFigure)

		// Profile
		api.GET("/users/me", h.GetProfile)
		api.PATCH("/users/me", h.UpdateProfile)
	}

	return turnSvc
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
