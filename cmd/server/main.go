// Command server runs the conversational API.
//
// Startup order:
//  1. Load .env (best effort) and typed configuration from the environment.
//  2. Configure zerolog (level, optional pretty console output).
//  3. Open the database (Postgres when DATABASE_URL is set, SQLite otherwise),
//     run migrations, and seed the figure catalog when empty.
//  4. Initialize OpenTelemetry tracing (no-op unless OTEL_ENABLED).
//  5. Build the Gin engine, register routes, and serve with hard timeouts.
//
// Shutdown is graceful: SIGINT/SIGTERM drains in-flight requests and pending
// background title generation before exit.
//
// @title        ChristianAI Chat API
// @version      1.0
// @description  Conversations with AI-simulated biblical figures: streaming turns, scripture lookup, shareable transcripts.
// @BasePath     /api/v1
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	_ "github.com/christianai/chat-backend/docs"
	"github.com/christianai/chat-backend/internal/config"
	httpapi "github.com/christianai/chat-backend/internal/http"
	"github.com/christianai/chat-backend/internal/llm"
	"github.com/christianai/chat-backend/internal/observability"
	"github.com/christianai/chat-backend/internal/repo"
	"github.com/christianai/chat-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	db := mustOpenDB(cfg)
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	if err := repo.SeedFigures(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("figure seed failed")
	}

	ctx := context.Background()
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	provider := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey)

	engine := gin.New()
	turnSvc := httpapi.RegisterRoutes(engine, db, provider, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	turnSvc.Drain()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown failed")
	}
	log.Info().Msg("bye")
}

// mustOpenDB selects Postgres when a DSN is configured and falls back to the
// embedded SQLite driver for dev and test deployments.
func mustOpenDB(cfg config.Config) *gorm.DB {
	var (
		db  *gorm.DB
		err error
	)
	if cfg.DatabaseURL != "" {
		db, err = repo.OpenPostgres(cfg.DatabaseURL)
	} else {
		db, err = repo.OpenSQLite(cfg.DBPath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("database open failed")
	}
	return db
}
