// Package lifecycle owns the remediation-job state machine: job
// creation from edge-case episodes, atomic claim, fix submission, and
// admin approve/reject.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"motion-curator/core/errs"
	"motion-curator/core/models"
	"motion-curator/core/qc"
	"motion-curator/notify"
	"motion-curator/storage"

	"github.com/google/uuid"
)

// EpisodeStore is the episode persistence the manager needs.
type EpisodeStore interface {
	InsertEpisode(ctx context.Context, e *models.Episode) error
	GetEpisode(ctx context.Context, id string) (*models.Episode, error)
}

// JobStore is the job persistence the manager needs. ClaimJob and
// FinalizeJob must be conditional updates: they fail with ErrConflict /
// ErrInvalidState when the job is not in an eligible source state.
type JobStore interface {
	InsertJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ClaimJob(ctx context.Context, jobID, workerID string) (*models.Job, error)
	FinalizeJob(ctx context.Context, jobID, fixEpisodeID string, status models.JobStatus) (*models.Job, error)
	SetJobStatus(ctx context.Context, jobID string, status models.JobStatus, reason string) (*models.Job, error)
}

// Emitter receives post-commit lifecycle events.
type Emitter interface {
	Emit(event notify.Event)
}

// Manager coordinates the quality-control and fix-job lifecycle.
type Manager struct {
	episodes  EpisodeStore
	jobs      JobStore
	artifacts storage.Store
	events    Emitter
}

// NewManager wires the manager to its collaborators.
func NewManager(episodes EpisodeStore, jobs JobStore, artifacts storage.Store, events Emitter) *Manager {
	return &Manager{
		episodes:  episodes,
		jobs:      jobs,
		artifacts: artifacts,
		events:    events,
	}
}

// IngestEpisode validates and persists a newly uploaded trial: artifacts
// first, then the episode record with its QC fields computed, then a
// remediation job when the trial is an edge case. The returned job is
// nil for clean episodes.
func (m *Manager) IngestEpisode(ctx context.Context, meta *models.EpisodeMeta, video []byte, labID, uploaderID string) (*models.Episode, *models.Job, error) {
	if err := meta.Validate(); err != nil {
		return nil, nil, errs.Validationf("%v", err)
	}

	episodeID := uuid.New().String()
	episode := &models.Episode{
		ID:             episodeID,
		TaskID:         meta.TaskID,
		LabID:          labID,
		UploaderUserID: uploaderID,
		StoragePath:    "episodes/" + episodeID,
		Success:        meta.Success,
		FailureReason:  meta.FailureReason,
		FailureTimeSec: meta.FailureTimeSec,
		Hz:             meta.Hz,
		Steps:          meta.Steps,
		DurationSec:    meta.DurationSec,
		CreatedAt:      time.Now().UTC(),
	}
	if video != nil {
		videoPath := episode.StoragePath + "/video.mp4"
		episode.VideoPath = &videoPath
	}

	episode.EdgeCase = qc.IsEdgeCase(episode)
	episode.Accepted = qc.IsAccepted(episode)
	episode.QualityScore = qc.Score(episode)

	if err := m.putArtifacts(ctx, episode, meta, video); err != nil {
		return nil, nil, err
	}

	if err := m.episodes.InsertEpisode(ctx, episode); err != nil {
		return nil, nil, fmt.Errorf("failed to persist episode: %w", err)
	}

	job, err := m.CreateJobIfEdgeCase(ctx, episode)
	if err != nil {
		return nil, nil, err
	}

	return episode, job, nil
}

// CreateJobIfEdgeCase opens a remediation job for an edge-case episode.
// Returns nil for episodes that pass QC. Called exactly once per newly
// scored episode; the one-job-per-episode guarantee is held by the
// unique episode constraint in the store.
func (m *Manager) CreateJobIfEdgeCase(ctx context.Context, episode *models.Episode) (*models.Job, error) {
	if !qc.IsEdgeCase(episode) {
		return nil, nil
	}

	job := &models.Job{
		ID:        uuid.New().String(),
		TaskID:    episode.TaskID,
		LabID:     episode.LabID,
		EpisodeID: episode.ID,
		Status:    models.JobStatusOpen,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := m.jobs.InsertJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	m.events.Emit(notify.Event{
		Type: notify.EventJobCreated,
		Payload: map[string]string{
			"job_id":     job.ID,
			"task_id":    job.TaskID,
			"episode_id": job.EpisodeID,
		},
	})
	return job, nil
}

// Claim assigns an open job to a worker. Exactly one of any set of
// concurrent claimants wins; the rest get ErrConflict.
func (m *Manager) Claim(ctx context.Context, jobID, workerID string) (*models.Job, error) {
	if workerID == "" {
		return nil, errs.Validationf("worker_id is required")
	}

	job, err := m.jobs.ClaimJob(ctx, jobID, workerID)
	if err != nil {
		return nil, err
	}

	m.events.Emit(notify.Event{
		Type:    notify.EventJobClaimed,
		Payload: map[string]string{"job_id": job.ID, "worker_id": workerID},
	})
	return job, nil
}

// SubmitFix records a replacement trial against a job and finalizes the
// job: accepted when the fix passes the strict fix rule, rejected
// otherwise. Only legal while the job is open or claimed.
func (m *Manager) SubmitFix(ctx context.Context, jobID string, meta *models.EpisodeMeta, video []byte, uploaderID string) (*models.Job, *models.Episode, error) {
	job, err := m.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, nil, err
	}
	if job.Status.Terminal() {
		return nil, nil, errs.InvalidStatef("job %s is already %s", jobID, job.Status)
	}

	if err := meta.Validate(); err != nil {
		return nil, nil, errs.Validationf("%v", err)
	}

	fixID := uuid.New().String()
	fix := &models.Episode{
		ID:             fixID,
		TaskID:         meta.TaskID,
		LabID:          job.LabID,
		UploaderUserID: uploaderID,
		StoragePath:    "episodes/" + fixID,
		Success:        meta.Success,
		FailureReason:  meta.FailureReason,
		FailureTimeSec: meta.FailureTimeSec,
		Hz:             meta.Hz,
		Steps:          meta.Steps,
		DurationSec:    meta.DurationSec,
		CreatedAt:      time.Now().UTC(),
	}
	if video != nil {
		videoPath := fix.StoragePath + "/video.mp4"
		fix.VideoPath = &videoPath
	}

	// Fixes are classified by the strict fix rule, not the general
	// acceptance rule.
	fix.EdgeCase = qc.IsEdgeCase(fix)
	fix.Accepted = qc.IsFixAccepted(fix)
	fix.QualityScore = qc.Score(fix)

	if err := m.putArtifacts(ctx, fix, meta, video); err != nil {
		return nil, nil, err
	}

	if err := m.episodes.InsertEpisode(ctx, fix); err != nil {
		return nil, nil, fmt.Errorf("failed to persist fix episode: %w", err)
	}

	status := models.JobStatusRejected
	eventType := notify.EventFixRejected
	if fix.Accepted {
		status = models.JobStatusAccepted
		eventType = notify.EventFixAccepted
	}

	// The conditional finalize is authoritative: if another submission
	// or an admin override landed since the pre-check, this fails with
	// ErrInvalidState and the job is left unchanged.
	job, err = m.jobs.FinalizeJob(ctx, jobID, fixID, status)
	if err != nil {
		return nil, nil, err
	}

	m.events.Emit(notify.Event{
		Type:    eventType,
		Payload: map[string]string{"job_id": job.ID, "fix_episode_id": fixID},
	})
	return job, fix, nil
}

// Approve forces a job to accepted. Admin override: legal from any
// state and idempotent when the job is already accepted.
func (m *Manager) Approve(ctx context.Context, jobID string) (*models.Job, error) {
	job, err := m.jobs.SetJobStatus(ctx, jobID, models.JobStatusAccepted, "admin_approved")
	if err != nil {
		return nil, err
	}
	m.events.Emit(notify.Event{
		Type:    notify.EventJobApproved,
		Payload: map[string]string{"job_id": job.ID},
	})
	return job, nil
}

// Reject forces a job to rejected. Admin override, same semantics as
// Approve.
func (m *Manager) Reject(ctx context.Context, jobID, reason string) (*models.Job, error) {
	if reason == "" {
		reason = "admin_rejected"
	}
	job, err := m.jobs.SetJobStatus(ctx, jobID, models.JobStatusRejected, reason)
	if err != nil {
		return nil, err
	}
	m.events.Emit(notify.Event{
		Type:    notify.EventJobRejected,
		Payload: map[string]string{"job_id": job.ID, "reason": reason},
	})
	return job, nil
}

func (m *Manager) putArtifacts(ctx context.Context, episode *models.Episode, meta *models.EpisodeMeta, video []byte) error {
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode episode meta: %w", err)
	}

	if err := m.artifacts.PutBytes(ctx, episode.StoragePath+"/meta.json", metaBytes, "application/json"); err != nil {
		return fmt.Errorf("%w: meta for episode %s: %v", errs.ErrArtifactUnavailable, episode.ID, err)
	}

	if video != nil {
		if err := m.artifacts.PutBytes(ctx, *episode.VideoPath, video, "video/mp4"); err != nil {
			return fmt.Errorf("%w: video for episode %s: %v", errs.ErrArtifactUnavailable, episode.ID, err)
		}
	}
	return nil
}
