package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"motion-curator/core/models"
	"motion-curator/core/repository"

	"github.com/gorilla/mux"
)

// LabHandler handles lab, task, project and worker endpoints
type LabHandler struct {
	labRepo     *repository.LabRepository
	episodeRepo *repository.EpisodeRepository
	jobRepo     *repository.JobRepository
}

// NewLabHandler creates a new lab handler
func NewLabHandler(labRepo *repository.LabRepository, episodeRepo *repository.EpisodeRepository, jobRepo *repository.JobRepository) *LabHandler {
	return &LabHandler{labRepo: labRepo, episodeRepo: episodeRepo, jobRepo: jobRepo}
}

// ListLabs handles GET /api/labs
func (h *LabHandler) ListLabs(w http.ResponseWriter, r *http.Request) {
	labs, err := h.labRepo.ListLabs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"labs": labs})
}

type createLabRequest struct {
	Name    string  `json:"name"`
	UseCase *string `json:"use_case,omitempty"`
}

// CreateLab handles POST /api/labs
func (h *LabHandler) CreateLab(w http.ResponseWriter, r *http.Request) {
	var req createLabRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeValidationError(w, "name is required")
		return
	}

	lab, err := h.labRepo.CreateLab(r.Context(), req.Name, req.UseCase)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"lab": lab})
}

// LabSummary handles GET /api/labs/{id}/summary
func (h *LabHandler) LabSummary(w http.ResponseWriter, r *http.Request) {
	labID := mux.Vars(r)["id"]

	episodes, err := h.episodeRepo.ListEpisodes(r.Context(), repository.EpisodeFilter{LabID: labID})
	if err != nil {
		writeError(w, err)
		return
	}
	jobs, err := h.jobRepo.ListJobs(r.Context(), repository.JobFilter{LabID: labID})
	if err != nil {
		writeError(w, err)
		return
	}

	total := len(episodes)
	accepted, edgeCases := 0, 0
	for _, e := range episodes {
		if e.Accepted {
			accepted++
		}
		if e.EdgeCase {
			edgeCases++
		}
	}
	fixesSubmitted, fixesAccepted := 0, 0
	for _, j := range jobs {
		if j.FixEpisodeID != nil {
			fixesSubmitted++
		}
		if j.Status == models.JobStatusAccepted {
			fixesAccepted++
		}
	}
	acceptanceRate := 0.0
	if total > 0 {
		acceptanceRate = round1(float64(accepted) / float64(total) * 100)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"lab_id":            labID,
		"total_episodes":    total,
		"accepted_episodes": accepted,
		"edge_cases":        edgeCases,
		"fixes_submitted":   fixesSubmitted,
		"fixes_accepted":    fixesAccepted,
		"acceptance_rate":   acceptanceRate,
	})
}

// LabEpisodes handles GET /api/labs/{id}/episodes
func (h *LabHandler) LabEpisodes(w http.ResponseWriter, r *http.Request) {
	labID := mux.Vars(r)["id"]
	q := r.URL.Query()

	filter := repository.EpisodeFilter{LabID: labID, TaskID: q.Get("task_id")}
	if v := q.Get("accepted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeValidationError(w, "accepted must be a boolean")
			return
		}
		filter.Accepted = &b
	}
	if v := q.Get("edge_case"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeValidationError(w, "edge_case must be a boolean")
			return
		}
		filter.EdgeCase = &b
	}

	episodes, err := h.episodeRepo.ListEpisodes(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]episodeResponse, 0, len(episodes))
	for _, e := range episodes {
		items = append(items, episodeToResponse(e, ""))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"episodes": items})
}

// ListTasks handles GET /api/tasks
func (h *LabHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.labRepo.ListTasks(r.Context(), r.URL.Query().Get("lab_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

type createTaskRequest struct {
	LabID string `json:"lab_id"`
	Name  string `json:"name"`
}

// CreateTask handles POST /api/tasks
func (h *LabHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeValidationError(w, "name is required")
		return
	}

	task := &models.Task{LabID: req.LabID, Name: req.Name}
	if err := h.labRepo.CreateTask(r.Context(), task); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"task": task})
}

type createProjectRequest struct {
	LabID       string  `json:"lab_id"`
	Name        string  `json:"name"`
	RobotType   *string `json:"robot_type,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ListProjects handles GET /api/projects
func (h *LabHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.labRepo.ListProjects(r.Context(), r.URL.Query().Get("lab_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

// CreateProject handles POST /api/projects
func (h *LabHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LabID == "" || req.Name == "" {
		writeValidationError(w, "lab_id and name are required")
		return
	}

	project := &models.Project{
		LabID:       req.LabID,
		Name:        req.Name,
		RobotType:   req.RobotType,
		Description: req.Description,
	}
	if err := h.labRepo.CreateProject(r.Context(), project); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"project": project})
}

type createWorkerRequest struct {
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Country *string `json:"country,omitempty"`
}

// CreateWorker handles POST /api/workers
func (h *LabHandler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req createWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeValidationError(w, "email is required")
		return
	}

	name := req.Name
	if name == "" {
		name = strings.SplitN(req.Email, "@", 2)[0]
	}

	worker := &models.Worker{Email: req.Email, Name: name, Country: req.Country}
	if err := h.labRepo.CreateWorker(r.Context(), worker); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"worker": worker})
}
