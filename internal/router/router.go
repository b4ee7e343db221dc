package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"ocrbridge/internal/config"
	"ocrbridge/internal/handler"
	"ocrbridge/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	log zerolog.Logger,
	processH *handler.ProcessHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Liveness
	r.GET("/ping", healthH.Ping)
	r.GET("/healthz", healthH.Ping)

	process := r.Group("")
	if cfg.RateLimit.Enabled {
		process.Use(middleware.RateLimit(
			middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		))
	}
	if cfg.Server.MaxConcurrent > 0 {
		process.Use(middleware.ConcurrencyLimit(cfg.Server.MaxConcurrent))
	}
	process.POST("/process", processH.Process)

	return r
}
