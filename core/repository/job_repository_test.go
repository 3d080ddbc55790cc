package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"motion-curator/core/errs"
	"motion-curator/core/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*JobRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewJobRepository(&DB{DB: db}), mock
}

func jobRows(id, status string, claimedBy interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "task_id", "lab_id", "episode_id", "status",
		"claimed_by_worker_id", "fix_episode_id", "created_at", "updated_at",
	}).AddRow(id, "task-1", "lab-1", "ep-1", status, claimedBy, nil, now, now)
}

func TestClaimJobWinner(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs")).
		WithArgs(models.JobStatusClaimed, "worker-1", "job-1", models.JobStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO job_events")).
		WithArgs("job-1", sqlmock.AnyArg(), models.JobStatusClaimed, "claimed_by_worker-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .+ FROM jobs WHERE id").
		WithArgs("job-1").
		WillReturnRows(jobRows("job-1", "claimed", "worker-1"))

	job, err := repo.ClaimJob(ctx, "job-1", "worker-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusClaimed, job.Status)
	require.NotNil(t, job.ClaimedByWorkerID)
	assert.Equal(t, "worker-1", *job.ClaimedByWorkerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimJobLoserGetsConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	// The conditional update matches nothing because the job is already
	// claimed; the follow-up read distinguishes conflict from not-found.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs")).
		WithArgs(models.JobStatusClaimed, "worker-2", "job-1", models.JobStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM jobs WHERE id").
		WithArgs("job-1").
		WillReturnRows(jobRows("job-1", "claimed", "worker-1"))
	mock.ExpectRollback()

	_, err := repo.ClaimJob(ctx, "job-1", "worker-2")
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimJobMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs")).
		WithArgs(models.JobStatusClaimed, "worker-1", "job-gone", models.JobStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM jobs WHERE id").
		WithArgs("job-gone").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "task_id", "lab_id", "episode_id", "status",
			"claimed_by_worker_id", "fix_episode_id", "created_at", "updated_at",
		}))
	mock.ExpectRollback()

	_, err := repo.ClaimJob(ctx, "job-gone", "worker-1")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeJobFromClaimed(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs")).
		WithArgs(models.JobStatusAccepted, "fix-1", "job-1", models.JobStatusOpen, models.JobStatusClaimed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO job_events")).
		WithArgs("job-1", nil, models.JobStatusAccepted, "fix_submitted").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT .+ FROM jobs WHERE id").
		WithArgs("job-1").
		WillReturnRows(jobRows("job-1", "accepted", "worker-1"))

	job, err := repo.FinalizeJob(ctx, "job-1", "fix-1", models.JobStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusAccepted, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalizeJobAlreadyTerminal(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs")).
		WithArgs(models.JobStatusRejected, "fix-2", "job-1", models.JobStatusOpen, models.JobStatusClaimed).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT .+ FROM jobs WHERE id").
		WithArgs("job-1").
		WillReturnRows(jobRows("job-1", "accepted", "worker-1"))
	mock.ExpectRollback()

	_, err := repo.FinalizeJob(ctx, "job-1", "fix-2", models.JobStatusRejected)
	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetJobStatusMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE jobs SET status")).
		WithArgs(models.JobStatusAccepted, "job-gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.SetJobStatus(ctx, "job-gone", models.JobStatusAccepted, "admin_approved")
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
