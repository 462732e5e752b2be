package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/andresuchdata/pharma-inventory/backend-go/internal/config"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/ingest"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/repository"
	"github.com/andresuchdata/pharma-inventory/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/pharma-inventory/backend-go/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	// Initialize Google Drive client
	driveClient, err := ingest.NewDriveClient(context.Background(), cfg.Ingest.DriveCredentialsJSON)
	if err != nil {
		log.Fatalf("Failed to initialize Google Drive client: %v", err)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ingestRepo := repository.NewIngestRepository(db.DB.DB)
	ingestService := ingest.NewService(driveClient, ingestRepo)

	r := mux.NewRouter()
	handler := ingest.NewHandler(driveClient, ingestService)
	handler.RegisterRoutes(r)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Ingest server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
