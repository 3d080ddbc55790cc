package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"motion-curator/core/exporter"
	"motion-curator/core/models"
	"motion-curator/core/repository"
)

// ExportHandler handles dataset export and statistics
type ExportHandler struct {
	exporter    *exporter.Exporter
	episodeRepo *repository.EpisodeRepository
	jobRepo     *repository.JobRepository
}

// NewExportHandler creates a new export handler
func NewExportHandler(x *exporter.Exporter, episodeRepo *repository.EpisodeRepository, jobRepo *repository.JobRepository) *ExportHandler {
	return &ExportHandler{exporter: x, episodeRepo: episodeRepo, jobRepo: jobRepo}
}

// ExportDataset handles GET /api/export?task_id=
func (h *ExportHandler) ExportDataset(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		writeValidationError(w, "task_id is required")
		return
	}

	bundle, err := h.exporter.Export(r.Context(), taskID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", bundle.Filename))
	w.Header().Set("X-Export-Warnings", fmt.Sprintf("%d", len(bundle.Warnings)))
	w.WriteHeader(http.StatusOK)
	w.Write(bundle.Data)
}

// DatasetStats handles GET /api/dataset/stats?task_id=&lab_id=
func (h *ExportHandler) DatasetStats(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task_id")
	if taskID == "" {
		writeValidationError(w, "task_id is required")
		return
	}
	labID := r.URL.Query().Get("lab_id")

	episodes, err := h.episodeRepo.ListEpisodes(r.Context(), repository.EpisodeFilter{TaskID: taskID, LabID: labID})
	if err != nil {
		writeError(w, err)
		return
	}
	jobs, err := h.jobRepo.ListJobs(r.Context(), repository.JobFilter{TaskID: taskID, LabID: labID})
	if err != nil {
		writeError(w, err)
		return
	}

	stats := computeDatasetStats(taskID, episodes, jobs)
	writeJSON(w, http.StatusOK, stats)
}

type failureReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

type datasetStats struct {
	TaskID              string               `json:"task_id"`
	TotalEpisodes       int                  `json:"total_episodes"`
	EdgeCases           int                  `json:"edge_cases"`
	AcceptedEpisodes    int                  `json:"accepted_episodes"`
	FixesSubmitted      int                  `json:"fixes_submitted"`
	FixesAccepted       int                  `json:"fixes_accepted"`
	AcceptanceRate      float64              `json:"acceptance_rate"`
	AverageQualityScore float64              `json:"average_quality_score"`
	TopFailureReasons   []failureReasonCount `json:"top_failure_reasons"`
}

func computeDatasetStats(taskID string, episodes []*models.Episode, jobs []*models.Job) datasetStats {
	stats := datasetStats{TaskID: taskID, TopFailureReasons: []failureReasonCount{}}
	stats.TotalEpisodes = len(episodes)

	scoreSum := 0
	reasons := make(map[string]int)
	for _, e := range episodes {
		if e.EdgeCase {
			stats.EdgeCases++
		}
		if e.Accepted {
			stats.AcceptedEpisodes++
		}
		scoreSum += e.QualityScore
		if e.FailureReason != nil && *e.FailureReason != "" {
			reasons[*e.FailureReason]++
		}
	}

	for _, j := range jobs {
		if j.FixEpisodeID != nil {
			stats.FixesSubmitted++
		}
		if j.Status == models.JobStatusAccepted {
			stats.FixesAccepted++
		}
	}

	if stats.TotalEpisodes > 0 {
		stats.AcceptanceRate = round1(float64(stats.AcceptedEpisodes) / float64(stats.TotalEpisodes) * 100)
		stats.AverageQualityScore = round1(float64(scoreSum) / float64(stats.TotalEpisodes))
	}

	for reason, count := range reasons {
		stats.TopFailureReasons = append(stats.TopFailureReasons, failureReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(stats.TopFailureReasons, func(i, j int) bool {
		a, b := stats.TopFailureReasons[i], stats.TopFailureReasons[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Reason < b.Reason
	})
	if len(stats.TopFailureReasons) > 5 {
		stats.TopFailureReasons = stats.TopFailureReasons[:5]
	}

	return stats
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
