package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cs-simulator/internal/api"
	"cs-simulator/internal/config"
	"cs-simulator/internal/handlers"
	"cs-simulator/internal/services"
	"cs-simulator/internal/store/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	log.Println("Starting CS Simulator Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Database Connection Pool
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Unable to create database connection pool: %v\n", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(dbCtx); err != nil {
		log.Fatalf("FATAL: Unable to ping database: %v\n", err)
	}
	log.Println("Database connection pool established and pinged successfully.")

	// 3. Initialize Dependencies (Store, Services, Handlers)
	pgStore := postgres.NewPostgresStore(dbpool)
	log.Println("Postgres store initialized.")

	authService := services.NewAuthService(pgStore, cfg)
	log.Println("AuthService initialized.")
	aiService := services.NewAIService(cfg.AIServiceURL)
	log.Println("AIService initialized.")
	projectService := services.NewProjectService(pgStore, aiService)
	log.Println("ProjectService initialized.")
	conversationService := services.NewConversationService(pgStore)
	log.Println("ConversationService initialized.")
	messageService := services.NewMessageService(pgStore)
	log.Println("MessageService initialized.")
	fileService := services.NewFileService(pgStore)
	log.Println("FileService initialized.")

	routerDeps := api.RouterDependencies{
		AuthHandler:         handlers.NewAuthHandler(authService),
		ProjectHandler:      handlers.NewProjectHandler(projectService),
		ConversationHandler: handlers.NewConversationHandler(conversationService),
		MessageHandler:      handlers.NewMessageHandler(messageService),
		FileHandler:         handlers.NewFileHandler(fileService),
		AIHandler:           handlers.NewAIHandler(aiService),
		Config:              cfg,
	}
	router := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 4. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// WriteTimeout must exceed the AI proxy's upstream budget.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: services.AIRequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}
