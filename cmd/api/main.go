package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moderntrail/trail-engine/internal/config"
	"github.com/moderntrail/trail-engine/internal/handlers"
	"github.com/moderntrail/trail-engine/internal/logger"
	"github.com/moderntrail/trail-engine/internal/middleware"
	"github.com/moderntrail/trail-engine/internal/services"
	"github.com/moderntrail/trail-engine/pkg/game"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Modern American Trail API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"default_model", cfg.DefaultModel)

	if cfg.OpenRouterAPIKey == "" {
		log.Warn("OPENROUTER_API_KEY not set; every event will come from the fallback pool")
	}
	llmService := services.NewOpenRouterService(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.SiteURL)

	var storage services.Storage = services.NewRedisService(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storage.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	reducer := game.NewReducer(log)
	generator := game.NewEventGenerator(llmService, log).WithTimeout(cfg.LLMTimeout)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(storage, log)
	mux.Handle("/health", healthHandler)

	chatHandler := handlers.NewChatHandler(llmService, cfg.DefaultModel, log)
	mux.Handle("/api/chat", chatHandler)

	modelsHandler := handlers.NewModelsHandler(llmService, log)
	mux.Handle("/api/models", modelsHandler)

	gameHandler := handlers.NewGameHandler(storage, llmService, reducer, generator, cfg.DefaultModel, log)
	mux.Handle("/v1/game", gameHandler)
	mux.Handle("/v1/game/", gameHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := storage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
