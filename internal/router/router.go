package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stemsi/exstem-grading/internal/config"
	"github.com/stemsi/exstem-grading/internal/handler"
	"github.com/stemsi/exstem-grading/internal/middleware"
	"github.com/stemsi/exstem-grading/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Exam       *handler.ExamHandler
	ExamRecord *handler.ExamRecordHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// submitLimiter may be nil to leave submissions unlimited.
func SetupRouter(handlers *Handlers, cfg *config.Config, submitLimiter *middleware.RateLimiter) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", response.HeaderRequestID}
	corsConfig.ExposeHeaders = []string{response.HeaderRequestID}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())

	// promhttp negotiates its own compression.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		SkipPaths: []string{"/metrics"},
	}))

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	// ─── 1. Exam taking ────────────────────────────────────────────────
	exams := api.Group("/exams")
	exams.Use(middleware.NoStore())
	{
		exams.POST("/start", handlers.Exam.StartExam)
		exams.GET("/:id", handlers.Exam.GetExam)
		exams.DELETE("/:id", handlers.Exam.DeleteExam)

		submit := []gin.HandlerFunc{}
		if submitLimiter != nil {
			submit = append(submit, submitLimiter.Middleware())
		}
		submit = append(submit, handlers.Exam.SubmitExam)
		exams.POST("/:id/submit", submit...)
	}

	// ─── 2. Exam records ───────────────────────────────────────────────
	records := api.Group("/exam-records")
	{
		records.GET("/ranking", middleware.CacheControl(cfg.RankingCacheTTL), handlers.ExamRecord.Ranking)
		records.GET("/list", middleware.NoStore(), handlers.ExamRecord.ListRecords)
		records.GET("/:id", middleware.NoStore(), handlers.Exam.GetExam)
	}

	// ─── 3. System ─────────────────────────────────────────────────────
	api.GET("/system/status", handlers.System.Status)

	return router
}
