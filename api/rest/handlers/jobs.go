package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"motion-curator/core/lifecycle"
	"motion-curator/core/models"
	"motion-curator/core/repository"
	"motion-curator/storage"

	"github.com/gorilla/mux"
)

// JobHandler handles remediation-job HTTP requests
type JobHandler struct {
	manager     *lifecycle.Manager
	jobRepo     *repository.JobRepository
	episodeRepo *repository.EpisodeRepository
	eventRepo   *repository.EventRepository
	labRepo     *repository.LabRepository
	artifacts   storage.Store
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	manager *lifecycle.Manager,
	jobRepo *repository.JobRepository,
	episodeRepo *repository.EpisodeRepository,
	eventRepo *repository.EventRepository,
	labRepo *repository.LabRepository,
	artifacts storage.Store,
) *JobHandler {
	return &JobHandler{
		manager:     manager,
		jobRepo:     jobRepo,
		episodeRepo: episodeRepo,
		eventRepo:   eventRepo,
		labRepo:     labRepo,
		artifacts:   artifacts,
	}
}

// jobResponse is the JSON shape of a job
type jobResponse struct {
	ID                string   `json:"id"`
	TaskID            string   `json:"task_id"`
	LabID             string   `json:"lab_id,omitempty"`
	EpisodeID         string   `json:"episode_id"`
	Status            string   `json:"status"`
	ClaimedByWorkerID *string  `json:"claimed_by_worker_id,omitempty"`
	FixEpisodeID      *string  `json:"fix_episode_id,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
	FailureReason     *string  `json:"failure_reason,omitempty"`
	FailureTimeSec    *float64 `json:"failure_time_sec,omitempty"`
	VideoURL          string   `json:"video_url,omitempty"`
}

func jobToResponse(job *models.Job) jobResponse {
	return jobResponse{
		ID:                job.ID,
		TaskID:            job.TaskID,
		LabID:             job.LabID,
		EpisodeID:         job.EpisodeID,
		Status:            string(job.Status),
		ClaimedByWorkerID: job.ClaimedByWorkerID,
		FixEpisodeID:      job.FixEpisodeID,
		CreatedAt:         job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         job.UpdatedAt.Format(time.RFC3339),
	}
}

// enrich fills the triggering episode's failure details and a signed
// video URL into a job response. Lookup failures leave the fields empty.
func (h *JobHandler) enrich(r *http.Request, resp *jobResponse) {
	episode, err := h.episodeRepo.GetEpisode(r.Context(), resp.EpisodeID)
	if err != nil {
		return
	}
	resp.FailureReason = episode.FailureReason
	resp.FailureTimeSec = episode.FailureTimeSec
	if episode.VideoPath != nil {
		if url, err := h.artifacts.SignedURL(r.Context(), *episode.VideoPath, signedURLTTL); err == nil {
			resp.VideoURL = url
		}
	}
}

// ListJobs handles GET /api/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.JobFilter{
		Status: q.Get("status"),
		LabID:  q.Get("lab_id"),
		TaskID: q.Get("task_id"),
	}
	failureReason := q.Get("failure_reason")

	jobs, err := h.jobRepo.ListJobs(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]jobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp := jobToResponse(job)
		h.enrich(r, &resp)
		if failureReason != "" && (resp.FailureReason == nil || *resp.FailureReason != failureReason) {
			continue
		}
		items = append(items, resp)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": items})
}

// GetJob handles GET /api/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.jobRepo.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	episode, err := h.episodeRepo.GetEpisode(r.Context(), job.EpisodeID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := jobToResponse(job)
	h.enrich(r, &resp)

	videoURL := ""
	if episode.VideoPath != nil {
		if url, err := h.artifacts.SignedURL(r.Context(), *episode.VideoPath, signedURLTTL); err == nil {
			videoURL = url
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":       resp,
		"episode":   episodeToResponse(episode, videoURL),
		"video_url": videoURL,
	})
}

// ClaimJob handles POST /api/jobs/{id}/claim. When no worker_id is
// supplied the service falls back to an arbitrary registered worker;
// that fallback is service policy, not part of the lifecycle engine.
func (h *JobHandler) ClaimJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	workerID := r.URL.Query().Get("worker_id")
	if workerID == "" {
		fallback, err := h.labRepo.AnyWorkerID(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		workerID = fallback
	}

	job, err := h.manager.Claim(r.Context(), id, workerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"job": jobToResponse(job)})
}

// SubmitFix handles POST /api/jobs/{id}/submit_fix
func (h *JobHandler) SubmitFix(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	meta, video, err := parseEpisodeForm(r)
	if err != nil {
		writeValidationError(w, "invalid fix upload: "+err.Error())
		return
	}

	job, fix, err := h.manager.SubmitFix(r.Context(), id, meta, video, defaultUploader)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":         jobToResponse(job),
		"fix_episode": episodeToResponse(fix, ""),
	})
}

// ApproveJob handles POST /api/jobs/{id}/approve
func (h *JobHandler) ApproveJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	job, err := h.manager.Approve(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job": jobToResponse(job)})
}

// rejectJobRequest is the body for POST /api/jobs/{id}/reject
type rejectJobRequest struct {
	Reason string `json:"reason"`
}

// RejectJob handles POST /api/jobs/{id}/reject
func (h *JobHandler) RejectJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req rejectJobRequest
	if r.Body != nil {
		// An empty body means no reason; decode errors on an optional
		// body are ignored.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	job, err := h.manager.Reject(r.Context(), id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"job": jobToResponse(job)})
}

// GetJobEvents handles GET /api/jobs/{id}/events
func (h *JobHandler) GetJobEvents(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.jobRepo.GetJob(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	events, err := h.eventRepo.GetJobEvents(r.Context(), id, 100)
	if err != nil {
		writeError(w, err)
		return
	}

	type eventResponse struct {
		At         string  `json:"at"`
		FromStatus *string `json:"from_status,omitempty"`
		ToStatus   string  `json:"to_status"`
		Reason     string  `json:"reason"`
	}
	items := make([]eventResponse, 0, len(events))
	for _, e := range events {
		var from *string
		if e.FromStatus != nil {
			s := string(*e.FromStatus)
			from = &s
		}
		items = append(items, eventResponse{
			At:         e.At.Format(time.RFC3339),
			FromStatus: from,
			ToStatus:   string(e.ToStatus),
			Reason:     e.Reason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": items})
}
