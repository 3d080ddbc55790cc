package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"motion-curator/core/errs"
	"motion-curator/core/models"
	"motion-curator/notify"
	"motion-curator/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memEpisodeStore and memJobStore mimic the Postgres repositories,
// including the conditional-update semantics of claim and finalize.

type memEpisodeStore struct {
	mu       sync.Mutex
	episodes map[string]*models.Episode
}

func newMemEpisodeStore() *memEpisodeStore {
	return &memEpisodeStore{episodes: make(map[string]*models.Episode)}
}

func (s *memEpisodeStore) InsertEpisode(_ context.Context, e *models.Episode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *e
	s.episodes[e.ID] = &cp
	return nil
}

func (s *memEpisodeStore) GetEpisode(_ context.Context, id string) (*models.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.episodes[id]
	if !ok {
		return nil, errs.NotFoundf("episode %s", id)
	}
	cp := *e
	return &cp, nil
}

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*models.Job)}
}

func (s *memJobStore) InsertJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memJobStore) GetJob(_ context.Context, id string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, errs.NotFoundf("job %s", id)
	}
	cp := *job
	return &cp, nil
}

func (s *memJobStore) ClaimJob(_ context.Context, jobID, workerID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errs.NotFoundf("job %s", jobID)
	}
	if job.Status != models.JobStatusOpen {
		return nil, errs.Conflictf("job %s is not open", jobID)
	}
	job.Status = models.JobStatusClaimed
	job.ClaimedByWorkerID = &workerID
	cp := *job
	return &cp, nil
}

func (s *memJobStore) FinalizeJob(_ context.Context, jobID, fixEpisodeID string, status models.JobStatus) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errs.NotFoundf("job %s", jobID)
	}
	if job.Status != models.JobStatusOpen && job.Status != models.JobStatusClaimed {
		return nil, errs.InvalidStatef("job %s cannot accept fixes", jobID)
	}
	job.Status = status
	job.FixEpisodeID = &fixEpisodeID
	cp := *job
	return &cp, nil
}

func (s *memJobStore) SetJobStatus(_ context.Context, jobID string, status models.JobStatus, _ string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errs.NotFoundf("job %s", jobID)
	}
	job.Status = status
	cp := *job
	return &cp, nil
}

type captureEmitter struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureEmitter) Emit(event notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureEmitter) types() []notify.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]notify.EventType, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}

func newTestManager() (*Manager, *memEpisodeStore, *memJobStore, *storage.MemoryStore, *captureEmitter) {
	episodes := newMemEpisodeStore()
	jobs := newMemJobStore()
	artifacts := storage.NewMemoryStore()
	emitter := &captureEmitter{}
	return NewManager(episodes, jobs, artifacts, emitter), episodes, jobs, artifacts, emitter
}

func strPtr(s string) *string { return &s }

func TestIngestCleanEpisode(t *testing.T) {
	m, _, _, artifacts, emitter := newTestManager()
	ctx := context.Background()

	meta := &models.EpisodeMeta{TaskID: "task-1", Hz: 30, Steps: 240, DurationSec: 8, Success: true}
	episode, job, err := m.IngestEpisode(ctx, meta, nil, "lab-1", "user-1")
	require.NoError(t, err)

	assert.Nil(t, job)
	assert.True(t, episode.Accepted)
	assert.False(t, episode.EdgeCase)
	assert.Equal(t, 80, episode.QualityScore)
	assert.Nil(t, episode.VideoPath)
	assert.Empty(t, emitter.types())

	// meta.json landed in the artifact store
	_, err = artifacts.GetBytes(ctx, episode.StoragePath+"/meta.json")
	assert.NoError(t, err)
}

func TestIngestRejectsInvalidMeta(t *testing.T) {
	m, _, _, _, _ := newTestManager()
	ctx := context.Background()

	cases := []models.EpisodeMeta{
		{Hz: 30, Steps: 10, DurationSec: 5, Success: true},                                                 // no task
		{TaskID: "t", Hz: 0, Steps: 10, DurationSec: 5, Success: true},                                     // bad hz
		{TaskID: "t", Hz: 30, Steps: 10, DurationSec: -1, Success: false},                                  // bad duration
		{TaskID: "t", Hz: 30, Steps: 10, DurationSec: 5, Success: true, FailureReason: strPtr("x")},        // reason on success
		{TaskID: "t", Hz: 30, Steps: 10, DurationSec: 5, Success: false, FailureTimeSec: floatPtr(9)},      // failure time past end
	}
	for i, meta := range cases {
		metaCopy := meta
		_, _, err := m.IngestEpisode(ctx, &metaCopy, nil, "lab-1", "user-1")
		assert.ErrorIs(t, err, errs.ErrValidation, "case %d", i)
	}
}

func floatPtr(f float64) *float64 { return &f }

func TestIngestEdgeCaseOpensJob(t *testing.T) {
	m, _, jobs, _, emitter := newTestManager()
	ctx := context.Background()

	meta := &models.EpisodeMeta{
		TaskID: "task-1", Hz: 30, Steps: 100, DurationSec: 9,
		Success: false, FailureReason: strPtr("missed_grasp"),
	}
	episode, job, err := m.IngestEpisode(ctx, meta, []byte("video-bytes"), "lab-1", "user-1")
	require.NoError(t, err)

	assert.True(t, episode.EdgeCase)
	assert.False(t, episode.Accepted)
	assert.Equal(t, 40, episode.QualityScore)
	require.NotNil(t, episode.VideoPath)

	require.NotNil(t, job)
	assert.Equal(t, models.JobStatusOpen, job.Status)
	assert.Equal(t, episode.ID, job.EpisodeID)
	assert.Nil(t, job.ClaimedByWorkerID)
	assert.Nil(t, job.FixEpisodeID)

	stored, err := jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusOpen, stored.Status)
	assert.Equal(t, []notify.EventType{notify.EventJobCreated}, emitter.types())
}

func TestClaimRaceSingleWinner(t *testing.T) {
	m, _, jobs, _, _ := newTestManager()
	ctx := context.Background()

	job := &models.Job{ID: "job-1", TaskID: "task-1", EpisodeID: "ep-1", Status: models.JobStatusOpen}
	require.NoError(t, jobs.InsertJob(ctx, job))

	const n = 16
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = m.Claim(ctx, "job-1", fmt.Sprintf("worker-%d", i))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, errs.ErrConflict)
		}
	}
	assert.Equal(t, 1, winners)

	final, err := jobs.GetJob(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusClaimed, final.Status)
	require.NotNil(t, final.ClaimedByWorkerID)
}

func TestClaimRequiresWorker(t *testing.T) {
	m, _, _, _, _ := newTestManager()
	_, err := m.Claim(context.Background(), "job-1", "")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSubmitFixAccepted(t *testing.T) {
	m, episodes, jobs, _, emitter := newTestManager()
	ctx := context.Background()

	require.NoError(t, jobs.InsertJob(ctx, &models.Job{
		ID: "job-1", TaskID: "task-1", EpisodeID: "ep-1", Status: models.JobStatusClaimed,
	}))

	meta := &models.EpisodeMeta{TaskID: "task-1", Hz: 30, Steps: 210, DurationSec: 7, Success: true}
	job, fix, err := m.SubmitFix(ctx, "job-1", meta, nil, "worker-1")
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusAccepted, job.Status)
	require.NotNil(t, job.FixEpisodeID)
	assert.Equal(t, fix.ID, *job.FixEpisodeID)
	assert.True(t, fix.Accepted)

	stored, err := episodes.GetEpisode(ctx, fix.ID)
	require.NoError(t, err)
	assert.True(t, stored.Accepted)
	assert.Equal(t, []notify.EventType{notify.EventFixAccepted}, emitter.types())
}

func TestSubmitFixRejectedBySlowDuration(t *testing.T) {
	m, _, jobs, _, _ := newTestManager()
	ctx := context.Background()

	require.NoError(t, jobs.InsertJob(ctx, &models.Job{
		ID: "job-1", TaskID: "task-1", EpisodeID: "ep-1", Status: models.JobStatusOpen,
	}))

	// 15s passes the general acceptance rule but not the fix rule.
	meta := &models.EpisodeMeta{TaskID: "task-1", Hz: 30, Steps: 450, DurationSec: 15, Success: true}
	job, fix, err := m.SubmitFix(ctx, "job-1", meta, nil, "worker-1")
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusRejected, job.Status)
	assert.False(t, fix.Accepted)
}

func TestSubmitFixOnTerminalJob(t *testing.T) {
	m, _, jobs, _, _ := newTestManager()
	ctx := context.Background()

	fixID := "fix-old"
	require.NoError(t, jobs.InsertJob(ctx, &models.Job{
		ID: "job-1", TaskID: "task-1", EpisodeID: "ep-1",
		Status: models.JobStatusAccepted, FixEpisodeID: &fixID,
	}))

	meta := &models.EpisodeMeta{TaskID: "task-1", Hz: 30, Steps: 100, DurationSec: 5, Success: true}
	_, _, err := m.SubmitFix(ctx, "job-1", meta, nil, "worker-1")
	assert.ErrorIs(t, err, errs.ErrInvalidState)

	// The job and its fix link are untouched.
	job, err := jobs.GetJob(ctx, "job-1")
	require.NoError(t, err)
	require.NotNil(t, job.FixEpisodeID)
	assert.Equal(t, fixID, *job.FixEpisodeID)
}

func TestAdminOverrides(t *testing.T) {
	m, _, jobs, _, emitter := newTestManager()
	ctx := context.Background()

	require.NoError(t, jobs.InsertJob(ctx, &models.Job{
		ID: "job-1", TaskID: "task-1", EpisodeID: "ep-1", Status: models.JobStatusClaimed,
	}))

	job, err := m.Approve(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, job.Status)

	// Idempotent on the terminal state.
	job, err = m.Approve(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, job.Status)

	job, err = m.Reject(ctx, "job-1", "bad_trajectory")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusRejected, job.Status)

	assert.Equal(t, []notify.EventType{
		notify.EventJobApproved, notify.EventJobApproved, notify.EventJobRejected,
	}, emitter.types())

	_, err = m.Approve(ctx, "missing")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestEndToEndLifecycle(t *testing.T) {
	m, _, jobs, _, _ := newTestManager()
	ctx := context.Background()

	// Failed grasp comes in: edge case, score 40, job opened.
	meta := &models.EpisodeMeta{
		TaskID: "task-1", Hz: 30, Steps: 270, DurationSec: 9,
		Success: false, FailureReason: strPtr("missed_grasp"),
	}
	episode, job, err := m.IngestEpisode(ctx, meta, nil, "lab-1", "user-1")
	require.NoError(t, err)
	assert.True(t, episode.EdgeCase)
	assert.False(t, episode.Accepted)
	assert.Equal(t, 40, episode.QualityScore)
	require.NotNil(t, job)

	// Worker A claims it.
	job, err = m.Claim(ctx, job.ID, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusClaimed, job.Status)

	// Worker A submits a 7s successful fix: accepted under the fix rule.
	fixMeta := &models.EpisodeMeta{TaskID: "task-1", Hz: 30, Steps: 210, DurationSec: 7, Success: true}
	job, fix, err := m.SubmitFix(ctx, job.ID, fixMeta, nil, "worker-a")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, job.Status)
	require.NotNil(t, job.FixEpisodeID)
	assert.Equal(t, fix.ID, *job.FixEpisodeID)

	final, err := jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, final.Status)
}

func TestIngestArtifactFailureAbortsBeforePersist(t *testing.T) {
	episodes := newMemEpisodeStore()
	jobs := newMemJobStore()
	emitter := &captureEmitter{}
	m := NewManager(episodes, jobs, failingStore{}, emitter)

	meta := &models.EpisodeMeta{TaskID: "task-1", Hz: 30, Steps: 100, DurationSec: 5, Success: true}
	_, _, err := m.IngestEpisode(context.Background(), meta, nil, "lab-1", "user-1")
	assert.ErrorIs(t, err, errs.ErrArtifactUnavailable)
	assert.Empty(t, episodes.episodes)
}

type failingStore struct{}

func (failingStore) PutBytes(context.Context, string, []byte, string) error {
	return errors.New("bucket unreachable")
}
func (failingStore) GetBytes(context.Context, string) ([]byte, error) {
	return nil, errors.New("bucket unreachable")
}
func (failingStore) SignedURL(context.Context, string, time.Duration) (string, error) {
	return "", errors.New("bucket unreachable")
}
