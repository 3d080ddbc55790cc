package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"motion-curator/core/lifecycle"
	"motion-curator/core/models"
	"motion-curator/core/repository"
	"motion-curator/storage"

	"github.com/gorilla/mux"
)

const (
	signedURLTTL    = time.Hour
	maxVideoBytes   = 512 << 20 // 512 MiB upload cap
	defaultLabID    = "00000000-0000-0000-0000-000000000001"
	defaultUploader = "00000000-0000-0000-0000-000000000000"
)

// EpisodeHandler handles episode upload and retrieval
type EpisodeHandler struct {
	manager     *lifecycle.Manager
	episodeRepo *repository.EpisodeRepository
	labRepo     *repository.LabRepository
	artifacts   storage.Store
}

// NewEpisodeHandler creates a new episode handler
func NewEpisodeHandler(
	manager *lifecycle.Manager,
	episodeRepo *repository.EpisodeRepository,
	labRepo *repository.LabRepository,
	artifacts storage.Store,
) *EpisodeHandler {
	return &EpisodeHandler{
		manager:     manager,
		episodeRepo: episodeRepo,
		labRepo:     labRepo,
		artifacts:   artifacts,
	}
}

// episodeResponse is the JSON shape of an episode
type episodeResponse struct {
	ID             string   `json:"id"`
	TaskID         string   `json:"task_id"`
	LabID          string   `json:"lab_id,omitempty"`
	StoragePath    string   `json:"storage_path"`
	VideoPath      *string  `json:"video_path,omitempty"`
	Success        bool     `json:"success"`
	FailureReason  *string  `json:"failure_reason,omitempty"`
	FailureTimeSec *float64 `json:"failure_time_sec,omitempty"`
	Hz             int      `json:"hz"`
	Steps          int      `json:"steps"`
	DurationSec    float64  `json:"duration_sec"`
	EdgeCase       bool     `json:"edge_case"`
	QualityScore   int      `json:"quality_score"`
	Accepted       bool     `json:"accepted"`
	CreatedAt      string   `json:"created_at"`
	VideoURL       string   `json:"video_url,omitempty"`
}

func episodeToResponse(e *models.Episode, videoURL string) episodeResponse {
	return episodeResponse{
		ID:             e.ID,
		TaskID:         e.TaskID,
		LabID:          e.LabID,
		StoragePath:    e.StoragePath,
		VideoPath:      e.VideoPath,
		Success:        e.Success,
		FailureReason:  e.FailureReason,
		FailureTimeSec: e.FailureTimeSec,
		Hz:             e.Hz,
		Steps:          e.Steps,
		DurationSec:    e.DurationSec,
		EdgeCase:       e.EdgeCase,
		QualityScore:   e.QualityScore,
		Accepted:       e.Accepted,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		VideoURL:       videoURL,
	}
}

// parseEpisodeForm extracts the meta_json field and optional video file
// from a multipart upload.
func parseEpisodeForm(r *http.Request) (*models.EpisodeMeta, []byte, error) {
	if err := r.ParseMultipartForm(maxVideoBytes); err != nil {
		return nil, nil, err
	}

	var meta models.EpisodeMeta
	if err := json.Unmarshal([]byte(r.FormValue("meta_json")), &meta); err != nil {
		return nil, nil, err
	}

	var video []byte
	file, _, err := r.FormFile("video")
	if err == nil {
		defer file.Close()
		video, err = io.ReadAll(file)
		if err != nil {
			return nil, nil, err
		}
	} else if err != http.ErrMissingFile {
		return nil, nil, err
	}

	return &meta, video, nil
}

// UploadEpisode handles POST /api/episodes/upload
func (h *EpisodeHandler) UploadEpisode(w http.ResponseWriter, r *http.Request) {
	meta, video, err := parseEpisodeForm(r)
	if err != nil {
		writeValidationError(w, "invalid upload: "+err.Error())
		return
	}

	labID := r.FormValue("lab_id")
	if labID == "" {
		labID = defaultLabID
	}
	// The task's lab wins over the caller-supplied one.
	if task, err := h.labRepo.GetTask(r.Context(), meta.TaskID); err == nil && task.LabID != "" {
		labID = task.LabID
	}

	episode, job, err := h.manager.IngestEpisode(r.Context(), meta, video, labID, defaultUploader)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]interface{}{
		"episode": episodeToResponse(episode, ""),
		"job_id":  nil,
	}
	if job != nil {
		resp["job_id"] = job.ID
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GetEpisode handles GET /api/episodes/{id}
func (h *EpisodeHandler) GetEpisode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	episode, err := h.episodeRepo.GetEpisode(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	videoURL := h.signedVideoURL(r, episode)
	writeJSON(w, http.StatusOK, episodeToResponse(episode, videoURL))
}

// signedVideoURL issues a read URL for the episode's video, or empty
// when there is no video or signing fails. Signing failures are not
// request failures.
func (h *EpisodeHandler) signedVideoURL(r *http.Request, e *models.Episode) string {
	if e.VideoPath == nil {
		return ""
	}
	url, err := h.artifacts.SignedURL(r.Context(), *e.VideoPath, signedURLTTL)
	if err != nil {
		return ""
	}
	return url
}
