package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"cardioscan-server/internal/auth"
	"cardioscan-server/internal/config"
	"cardioscan-server/internal/inference"
	"cardioscan-server/internal/models"
	"cardioscan-server/internal/routes"
	"cardioscan-server/internal/service"
	"cardioscan-server/internal/storage"
	"cardioscan-server/internal/store"
)

func main() {
	// Load environment variables; a missing .env is fine in deployment
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}

	// Initialize artifact storage
	artifacts, err := storage.NewArtifactManager(cfg.StorageRoot)
	if err != nil {
		log.Fatalf("Error initializing storage root: %v", err)
	}

	// Wire the core components
	credentials := store.NewCredentialStore(db)
	records := store.NewRecordStore(db)
	authorizer := auth.NewAuthorizer(credentials)
	classifier := inference.NewHTTPClassifier(cfg.Model.URL, time.Duration(cfg.Model.TimeoutSeconds)*time.Second)
	svc := service.NewRecordService(authorizer, credentials, records, artifacts, classifier, logger)

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes
	routes.SetupRoutes(router, svc, cfg)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server starting", "port", cfg.Port, "storageRoot", artifacts.Root())
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
