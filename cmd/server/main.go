package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-grading/internal/ai"
	"github.com/stemsi/exstem-grading/internal/config"
	"github.com/stemsi/exstem-grading/internal/database"
	"github.com/stemsi/exstem-grading/internal/grading"
	"github.com/stemsi/exstem-grading/internal/handler"
	"github.com/stemsi/exstem-grading/internal/logger"
	"github.com/stemsi/exstem-grading/internal/middleware"
	"github.com/stemsi/exstem-grading/internal/repository"
	"github.com/stemsi/exstem-grading/internal/router"
	"github.com/stemsi/exstem-grading/internal/service"
	"github.com/stemsi/exstem-grading/internal/validator"
	"github.com/stemsi/exstem-grading/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("ai_model", cfg.AI.Model).
		Msg("Starting ExStem Grading")

	if cfg.AI.APIKey == "" {
		log.Warn().Msg("AI_API_KEY is empty, text answers will fail to grade")
	}

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	sessionRepo := repository.NewExamSessionRepository(pool)
	answerRepo := repository.NewAnswerRecordRepository(pool)
	rankingRepo := repository.NewRankingRepository(pool)
	paperRepo := repository.NewPaperRepository(pool)
	paperCatalog := repository.NewCachedPaperCatalog(paperRepo, rdb, cfg.PaperCacheTTL, log)
	rankingCache := repository.NewRankingCache(rdb, cfg.RankingCacheTTL)

	// ─── Background Pool ───────────────────────────────────────────────
	background := worker.NewPool(cfg.BackgroundWorkers, cfg.BackgroundTaskTimeout, log)

	// ─── Initialize Services ──────────────────────────────────────────
	aiClient := ai.New(cfg.AI, log)
	engine := grading.NewEngine(paperRepo, sessionRepo, answerRepo, aiClient, cfg.Grading.SummaryStrict, log)
	sessionService := service.NewExamSessionService(
		sessionRepo, answerRepo, paperCatalog, paperRepo, engine, background, rankingCache, cfg.Grading.Timeout, log,
	)
	rankingService := service.NewRankingService(rankingRepo, rankingCache, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Exam:       handler.NewExamHandler(sessionService, log),
		ExamRecord: handler.NewExamRecordHandler(sessionService, rankingService, log),
		System: handler.NewSystemHandler(map[string]handler.HealthCheck{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, log),
	}

	// ─── Rate Limiter ──────────────────────────────────────────────────
	var submitLimiter *middleware.RateLimiter
	limiterDone := make(chan struct{})
	if cfg.SubmitRatePerMinute > 0 {
		submitLimiter = middleware.NewRateLimiter(cfg.SubmitRatePerMinute, time.Minute)
		go submitLimiter.Run(limiterDone, time.Minute)
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, submitLimiter)

	// ─── Create HTTP Server ────────────────────────────────────────────
	// WriteTimeout stays above the grading timeout: submit answers after grading.
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Grading.Timeout + 30*time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. In-flight submissions keep grading.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the limiter sweeper and drain background tasks.
	close(limiterDone)
	if err := background.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Background tasks did not finish before shutdown")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
