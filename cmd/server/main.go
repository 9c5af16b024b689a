package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "docproc/docs"
	"docproc/internal/config"
	"docproc/internal/extractor"
	"docproc/internal/handler"
	"docproc/internal/matcher"
	"docproc/internal/port"
	"docproc/internal/repository/postgres"
	"docproc/internal/router"
	"docproc/internal/service"
	"docproc/internal/storage/noop"
	s3storage "docproc/internal/storage/s3"
)

// @title docproc API
// @version 1.0
// @description Document line item extraction, catalog matching, and persistence.
// @BasePath /
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Server.Environment == "production" || cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	docRepo := postgres.NewDocumentRepo(db)
	itemRepo := postgres.NewLineItemRepo(db)

	// Initialize storage
	var objectStorage port.ObjectStorage
	if cfg.Storage.Provider == "s3" {
		objectStorage, err = s3storage.NewS3Client(&cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	} else {
		log.Println("object storage disabled; uploaded originals are not kept")
		objectStorage = noop.NewNoopStorage()
	}

	// Remote capabilities
	extractClient := extractor.NewClient(&cfg.Extraction)
	matchClient := matcher.NewClient(&cfg.Matching)

	// Initialize services
	ingestionSvc := service.NewIngestionService(
		docRepo, itemRepo, extractClient, matchClient, objectStorage, &cfg.Storage, &cfg.Ingest,
	)

	// Initialize handlers
	docH := handler.NewDocumentHandler(ingestionSvc)
	pipelineH := handler.NewPipelineHandler(ingestionSvc)
	healthH := handler.NewHealthHandler(docRepo)

	// Setup router
	r := router.Setup(router.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		LogFormat:      cfg.Log.Format,
	}, docH, pipelineH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Printf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}
