package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jukalemanmath/mydrive-backend/internal/api"
	"github.com/jukalemanmath/mydrive-backend/internal/config"
	"github.com/jukalemanmath/mydrive-backend/internal/repositories"
	"github.com/jukalemanmath/mydrive-backend/internal/storage"
)

// @title MyDrive API
// @version 1.0
// @description Personal cloud storage backend: files, folders, versions and sharing.
// @BasePath /api/v1
func main() {
	// Connect to database
	repositories.ConnectDatabase()

	if err := repositories.EnsureDefaultAdmin(repositories.DB); err != nil {
		log.Fatal("Failed to create default admin:", err)
	}

	blobs := storage.NewS3Store(storage.S3Options{
		AccessKeyID:     config.Envs.S3.AccessKeyID,
		SecretAccessKey: config.Envs.S3.SecretAccessKey,
		Region:          config.Envs.S3.Region,
		Bucket:          config.Envs.S3.BucketName,
		Endpoint:        config.Envs.S3.Endpoint,
	})

	mux := api.SetupRouter(repositories.DB, blobs)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", config.Envs.Port),
		Handler: mux,
		// Timeouts prevent resource exhaustion from slow clients
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Starting MyDrive server on port: %s", config.Envs.Port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on port %s: %v", config.Envs.Port, err)
	}
}
