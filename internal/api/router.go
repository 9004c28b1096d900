package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/researchbot/internal/api/handler"
	"github.com/timmy/researchbot/internal/api/middleware"
	"github.com/timmy/researchbot/internal/logger"
	"github.com/timmy/researchbot/internal/repository"
	"github.com/timmy/researchbot/internal/service"
)

// SetupRouter configures the Gin router with the read-only ops routes.
// Parameters:
//   - research: research lifecycle service.
//   - repo: job repository for aggregate stats.
//   - log: base logger for request logging.
//   - mode: gin mode (debug, release, test).
// Returns:
//   - *gin.Engine: configured router.
func SetupRouter(
	research *service.ResearchService,
	repo *repository.ResearchRepository,
	log *logger.Logger,
	mode string,
) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowAllOrigins: true}))

	healthHandler := handler.NewHealthHandler()
	researchHandler := handler.NewResearchHandler(research, repo)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/jobs/:chat_id", researchHandler.GetJob)
		v1.GET("/stats", researchHandler.GetStats)
	}

	return r
}
