package routes

import (
	"github.com/gin-gonic/gin"

	"cardioscan-server/internal/config"
	"cardioscan-server/internal/handlers"
	"cardioscan-server/internal/middleware"
	"cardioscan-server/internal/service"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, svc *service.RecordService, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc, cfg)
	recordHandler := handlers.NewRecordHandler(svc)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		recordRoutes := private.Group("/records")
		{
			recordRoutes.POST("", recordHandler.Upload)
			recordRoutes.GET("", recordHandler.ListHistory)

			// Per-record access: ownership and role rules are enforced by
			// the authorizer inside the service, not at the route level.
			recordRoutes.GET("/:id", recordHandler.GetRecord)
			recordRoutes.PATCH("/:id/notes", recordHandler.UpdateNotes)
			recordRoutes.DELETE("/:id", recordHandler.DeleteRecord)
			recordRoutes.GET("/:id/audio", recordHandler.GetAudio)
			recordRoutes.GET("/:id/image", recordHandler.GetImage)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
