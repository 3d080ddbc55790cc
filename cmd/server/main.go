package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"motion-curator/api/rest/routes"
	"motion-curator/config"
	"motion-curator/core/exporter"
	"motion-curator/core/lifecycle"
	"motion-curator/core/monitoring"
	"motion-curator/core/repository"
	"motion-curator/notify"
	"motion-curator/storage"

	"github.com/gorilla/mux"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Println("Database connected successfully")

	ctx := context.Background()

	// Initialize artifact storage. Without a bucket the service keeps
	// artifacts in memory, which is enough for local development.
	var artifacts storage.Store
	if cfg.StorageBucket != "" {
		s3Store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
			Bucket:   cfg.StorageBucket,
			Region:   cfg.StorageRegion,
			Endpoint: cfg.StorageEndpoint,
			Prefix:   cfg.StoragePrefix,
		})
		if err != nil {
			log.Fatalf("Failed to initialize artifact storage: %v", err)
		}
		artifacts = s3Store
		log.Printf("Artifact storage: s3 bucket %s", cfg.StorageBucket)
	} else {
		artifacts = storage.NewMemoryStore()
		log.Println("Artifact storage: in-memory (no bucket configured)")
	}

	// Initialize notifications
	var notifier notify.Notifier = notify.LogNotifier{}
	if cfg.ResendAPIKey != "" {
		notifier = notify.NewMailer(notify.MailerConfig{
			APIKey:  cfg.ResendAPIKey,
			From:    cfg.EmailFrom,
			AdminTo: cfg.AdminEmail,
			ReplyTo: cfg.ReplyTo,
		})
		log.Println("Notifications: resend mailer")
	}
	dispatcher := notify.NewDispatcher(notifier)
	go dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// Initialize repositories
	episodeRepo := repository.NewEpisodeRepository(db)
	jobRepo := repository.NewJobRepository(db)

	// Initialize lifecycle manager and exporter
	manager := lifecycle.NewManager(episodeRepo, jobRepo, artifacts, dispatcher)
	datasetExporter := exporter.NewExporter(episodeRepo, jobRepo, artifacts)

	// Initialize queue monitor
	queueMonitor := monitoring.NewQueueMonitor(jobRepo, 24*time.Hour)
	go queueMonitor.Start(ctx)

	// Setup routes
	r := mux.NewRouter()
	routes.SetupRoutes(r, db, manager, datasetExporter, artifacts, dispatcher)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
