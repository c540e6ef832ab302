package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"people-search-platform/internal/ai"
	"people-search-platform/internal/config"
	"people-search-platform/internal/graph"
	"people-search-platform/internal/logger"
	"people-search-platform/internal/retrieval"
	"people-search-platform/internal/search"
	"people-search-platform/internal/telemetry"
	"people-search-platform/internal/webhook"
	"people-search-platform/middleware"
	"people-search-platform/routes"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Initialize tracing
	shutdownTracer, err := telemetry.InitTracer("people-search-api")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer shutdownTracer()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Neo4j driver provider; the first query connects lazily
	provider := config.NewNeo4jProvider(cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		provider.Close(ctx)
	}()

	// Periodic liveness check drops the cached driver when the database
	// goes away, so the next query reconnects through the fallback chain
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.Every(1).Minute().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.CheckLiveness(ctx); err != nil {
			logger.Warn("neo4j liveness check failed", "error", err.Error())
		}
	})
	scheduler.StartAsync()
	defer scheduler.Stop()

	aiClient := ai.NewClient(cfg)
	store := graph.NewStore(provider, cfg)
	engine := retrieval.NewEngine(store)
	assembler := search.NewAssembler(aiClient)
	dispatcher := webhook.NewDispatcher(cfg)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(otelgin.Middleware("people-search-api"))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.FullPath() == "/search" {
			metrics.RecordSearch(strconv.Itoa(c.Writer.Status()), time.Since(start).Seconds())
		}
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := provider.CheckLiveness(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "timestamp": time.Now()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupSearchRoutes(router, cfg, aiClient, engine, assembler)
	routes.SetupLookupRoutes(router, store)
	routes.SetupIngestRoutes(router, cfg, dispatcher)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
