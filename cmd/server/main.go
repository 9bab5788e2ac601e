// Package main is the entry point for the Chart Normalizer.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fidde/chart_normalizer/internal/api"
	"github.com/fidde/chart_normalizer/internal/config"
	"github.com/fidde/chart_normalizer/internal/dataset"
	"github.com/fidde/chart_normalizer/internal/normalizer"
	"github.com/fidde/chart_normalizer/internal/storage"
)

func main() {
	log.Println("Starting Chart Normalizer...")

	// Load the dataset schema
	schemaPath := getEnv("SCHEMA_PATH", "")
	var schema *config.Schema
	if schemaPath != "" {
		var err error
		schema, err = config.Load(schemaPath)
		if err != nil {
			log.Fatalf("Loading schema: %v", err)
		}
		log.Printf("Loaded dataset schema from %s", schemaPath)
	} else {
		schema = config.Default()
		log.Println("Using default Billboard dataset schema")
	}

	// Configure storage from environment
	storageCfg := storage.DefaultConfig()
	storageCfg.Backend = getEnv("STORAGE_BACKEND", storageCfg.Backend)
	storageCfg.SQLitePath = getEnv("SQLITE_PATH", storageCfg.SQLitePath)
	storageCfg.ClickHouseAddr = getEnv("CLICKHOUSE_ADDR", storageCfg.ClickHouseAddr)

	store, err := storage.NewStorage(storageCfg)
	if err != nil {
		log.Fatalf("Creating storage: %v", err)
	}

	// Normalize the dataset and load storage
	datasetPath := getEnv("DATASET_PATH", "data/billboard.csv")
	reload := func(ctx context.Context) error {
		wide, weeks, err := dataset.Load(datasetPath, schema)
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}
		d, err := normalizer.New(schema).Normalize(wide, weeks)
		if err != nil {
			return fmt.Errorf("normalizing dataset: %w", err)
		}
		if err := store.ReplaceDecomposition(ctx, d); err != nil {
			return fmt.Errorf("storing decomposition: %w", err)
		}
		return nil
	}

	log.Printf("Normalizing dataset: %s", datasetPath)
	if err := reload(context.Background()); err != nil {
		store.Close()
		log.Fatalf("Initial load failed: %v", err)
	}

	// Create REST API server
	apiAddr := getEnv("API_ADDR", "0.0.0.0:8080")
	apiServer := api.NewServer(apiAddr, store, reload)

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting REST API server on %s", apiAddr)
		if err := apiServer.Start(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	log.Println("API endpoints:")
	log.Printf("  - Songs: http://%s/api/v1/songs", apiAddr)
	log.Printf("  - Entries: http://%s/api/v1/entries?week=1", apiAddr)
	log.Printf("  - Stats: http://%s/api/v1/stats", apiAddr)
	log.Printf("  - Health: http://%s/health", apiAddr)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatalf("Server error: %v", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v, shutting down...", sig)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Println("Shutting down server...")
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down API server: %v", err)
	}

	log.Println("Closing storage...")
	if err := store.Close(); err != nil {
		log.Printf("Error closing storage: %v", err)
	}

	log.Println("Shutdown complete")
}

// getEnv gets an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
