package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"people-search-platform/internal/ai"
	"people-search-platform/internal/config"
	"people-search-platform/internal/graph"
	"people-search-platform/internal/logger"
	"people-search-platform/internal/queue"
	"people-search-platform/internal/telemetry"
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

	shutdownTracer, err := telemetry.InitTracer("people-search-worker")
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	} else {
		defer shutdownTracer()
	}

	provider := config.NewNeo4jProvider(cfg)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		provider.Close(ctx)
	}()

	store := graph.NewStore(provider, cfg)

	// The vector index must exist before any chunk is written
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureVectorIndex(ctx); err != nil {
		cancel()
		log.Fatal("Failed to ensure vector index:", err)
	}
	cancel()

	aiClient := ai.NewClient(cfg)

	// Asynq client enqueues verified webhook jobs, the server drains them
	redisOpt := config.AsynqRedisOpt(cfg)
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err.Error())
			}),
		},
	)

	processor := queue.NewTaskProcessor(store, aiClient, cfg)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskProcessIngest, processor.ProcessIngest)

	go func() {
		log.Println("Starting ingestion task worker...")
		if err := server.Run(mux); err != nil {
			log.Fatal("Failed to start worker:", err)
		}
	}()

	// Signed webhook receiver
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	routes.SetupWorkerRoutes(router, cfg, asynqClient)

	srv := &http.Server{
		Addr:    ":" + cfg.WorkerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Webhook receiver starting on port %s", cfg.WorkerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start receiver: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Receiver forced to shutdown:", err)
	}
	server.Shutdown()

	log.Println("Worker exited")
}
