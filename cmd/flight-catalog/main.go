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

	"flight_catalog/internal/config"
	"flight_catalog/internal/database"
	"flight_catalog/internal/handlers"
	"flight_catalog/internal/services"
)

func main() {
	log.Println("Starting Flight Catalog Service...")

	if err := config.LoadEnvFile(getEnvFile()); err != nil {
		log.Fatalf("Failed to read environment file: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize the document store
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store, err)
	}
	defer closeStore()

	// Initialize services
	catalogService := services.NewCatalogService(store)

	if cfg.LoadOnStart && catalogService.HasStore() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		count, err := catalogService.Reload(ctx)
		cancel()
		switch {
		case errors.Is(err, database.ErrDocumentNotFound):
			log.Printf("No stored catalog found, starting empty")
		case err != nil:
			log.Fatalf("Failed to load catalog: %v", err)
		default:
			log.Printf("Loaded %d flights from %s store", count, cfg.Store)
		}
	}

	// Initialize handlers
	catalogHandlers := handlers.NewCatalogHandlers(catalogService)

	mux := http.NewServeMux()
	catalogHandlers.Register(mux)

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"flight-catalog"}`))
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Flight Catalog Service listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Flight Catalog Service...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Flight Catalog Service exited")
}

// openStore returns the configured document store and a func releasing its
// connections. The memory store is a nil DocumentStore.
func openStore(cfg config.Config) (services.DocumentStore, func(), error) {
	switch cfg.Store {
	case config.StoreFile:
		log.Printf("Using catalog file %s", cfg.CatalogFile)
		return database.NewFileStore(cfg.CatalogFile), func() {}, nil

	case config.StoreRedis:
		cache, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return database.NewRedisStore(cache, cfg.CatalogName), func() { cache.Close() }, nil

	case config.StorePostgres:
		db, err := database.NewPostgresDB(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := database.NewPostgresStore(db, cfg.CatalogName)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	default:
		log.Println("Running without a document store")
		return nil, func() {}, nil
	}
}

func getEnvFile() string {
	if path := os.Getenv("ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}
