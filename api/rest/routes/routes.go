package routes

import (
	"motion-curator/api/rest/handlers"
	"motion-curator/core/exporter"
	"motion-curator/core/lifecycle"
	"motion-curator/core/repository"
	"motion-curator/storage"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	r *mux.Router,
	db *repository.DB,
	manager *lifecycle.Manager,
	datasetExporter *exporter.Exporter,
	artifacts storage.Store,
	events lifecycle.Emitter,
) {
	episodeRepo := repository.NewEpisodeRepository(db)
	jobRepo := repository.NewJobRepository(db)
	eventRepo := repository.NewEventRepository(db)
	labRepo := repository.NewLabRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)

	episodeHandler := handlers.NewEpisodeHandler(manager, episodeRepo, labRepo, artifacts)
	jobHandler := handlers.NewJobHandler(manager, jobRepo, episodeRepo, eventRepo, labRepo, artifacts)
	exportHandler := handlers.NewExportHandler(datasetExporter, episodeRepo, jobRepo)
	labHandler := handlers.NewLabHandler(labRepo, episodeRepo, jobRepo)
	waitlistHandler := handlers.NewWaitlistHandler(waitlistRepo, events)

	api := r.PathPrefix("/api").Subrouter()

	// Episode endpoints
	api.HandleFunc("/episodes/upload", episodeHandler.UploadEpisode).Methods("POST")
	api.HandleFunc("/episodes/{id}", episodeHandler.GetEpisode).Methods("GET")

	// Job endpoints
	api.HandleFunc("/jobs", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/claim", jobHandler.ClaimJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/submit_fix", jobHandler.SubmitFix).Methods("POST")
	api.HandleFunc("/jobs/{id}/approve", jobHandler.ApproveJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/reject", jobHandler.RejectJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/events", jobHandler.GetJobEvents).Methods("GET")

	// Export and statistics endpoints
	api.HandleFunc("/export", exportHandler.ExportDataset).Methods("GET")
	api.HandleFunc("/dataset/stats", exportHandler.DatasetStats).Methods("GET")

	// Lab, task, project and worker endpoints
	api.HandleFunc("/labs", labHandler.ListLabs).Methods("GET")
	api.HandleFunc("/labs", labHandler.CreateLab).Methods("POST")
	api.HandleFunc("/labs/{id}/summary", labHandler.LabSummary).Methods("GET")
	api.HandleFunc("/labs/{id}/episodes", labHandler.LabEpisodes).Methods("GET")
	api.HandleFunc("/tasks", labHandler.ListTasks).Methods("GET")
	api.HandleFunc("/tasks", labHandler.CreateTask).Methods("POST")
	api.HandleFunc("/projects", labHandler.ListProjects).Methods("GET")
	api.HandleFunc("/projects", labHandler.CreateProject).Methods("POST")
	api.HandleFunc("/workers", labHandler.CreateWorker).Methods("POST")

	// Signup endpoints
	api.HandleFunc("/waitlist", waitlistHandler.JoinWaitlist).Methods("POST")
	api.HandleFunc("/lab_requests", waitlistHandler.RequestLab).Methods("POST")
}
