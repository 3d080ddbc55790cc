package repository

import (
	"context"
	"database/sql"
	"fmt"

	"motion-curator/core/errs"
	"motion-curator/core/models"
)

// JobRepository handles database operations for remediation jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, task_id, lab_id, episode_id, status, claimed_by_worker_id,
	fix_episode_id, created_at, updated_at`

// InsertJob persists a new job and its creation event
func (r *JobRepository) InsertJob(ctx context.Context, job *models.Job) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO jobs (id, task_id, lab_id, episode_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err = tx.ExecContext(ctx, query, job.ID, job.TaskID, nullableStr(job.LabID), job.EpisodeID, job.Status)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	if err := insertJobEventTx(ctx, tx, job.ID, nil, job.Status, "job_created"); err != nil {
		return err
	}

	return tx.Commit()
}

// GetJob retrieves a job by ID
func (r *JobRepository) GetJob(ctx context.Context, id string) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("job %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// JobFilter narrows job listings
type JobFilter struct {
	Status string
	LabID  string
	TaskID string
}

// ListJobs lists jobs matching the filter, newest first
func (r *JobRepository) ListJobs(ctx context.Context, f JobFilter) ([]*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, f.Status)
		argIndex++
	}
	if f.LabID != "" {
		query += fmt.Sprintf(" AND lab_id = $%d", argIndex)
		args = append(args, f.LabID)
		argIndex++
	}
	if f.TaskID != "" {
		query += fmt.Sprintf(" AND task_id = $%d", argIndex)
		args = append(args, f.TaskID)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimJob atomically transitions a job from open to claimed. The status
// guard in the WHERE clause is the test-and-set that keeps concurrent
// claims safe across processes: exactly one UPDATE matches, losers see
// zero rows and get ErrConflict (or ErrNotFound if the job is gone).
func (r *JobRepository) ClaimJob(ctx context.Context, jobID, workerID string) (*models.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE jobs
		SET status = $1, claimed_by_worker_id = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`
	res, err := tx.ExecContext(ctx, query, models.JobStatusClaimed, workerID, jobID, models.JobStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read claim result: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetJob(ctx, jobID); getErr != nil {
			return nil, getErr
		}
		return nil, errs.Conflictf("job %s is not open", jobID)
	}

	from := models.JobStatusOpen
	if err := insertJobEventTx(ctx, tx, jobID, &from, models.JobStatusClaimed, "claimed_by_"+workerID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	return r.GetJob(ctx, jobID)
}

// FinalizeJob records a submitted fix and moves the job to its terminal
// status, guarded on the job still being open or claimed. A zero-row
// update means the job was finalized concurrently.
func (r *JobRepository) FinalizeJob(ctx context.Context, jobID, fixEpisodeID string, status models.JobStatus) (*models.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE jobs
		SET status = $1, fix_episode_id = $2, updated_at = NOW()
		WHERE id = $3 AND status IN ($4, $5)
	`
	res, err := tx.ExecContext(ctx, query, status, fixEpisodeID, jobID, models.JobStatusOpen, models.JobStatusClaimed)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read finalize result: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetJob(ctx, jobID); getErr != nil {
			return nil, getErr
		}
		return nil, errs.InvalidStatef("job %s cannot accept fixes", jobID)
	}

	if err := insertJobEventTx(ctx, tx, jobID, nil, status, "fix_submitted"); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit finalize: %w", err)
	}

	return r.GetJob(ctx, jobID)
}

// SetJobStatus forces a job into the given status regardless of its
// current state. Admin override path only.
func (r *JobRepository) SetJobStatus(ctx context.Context, jobID string, status models.JobStatus, reason string) (*models.Job, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE jobs SET status = $1, updated_at = NOW() WHERE id = $2`
	res, err := tx.ExecContext(ctx, query, status, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to update job status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return nil, errs.NotFoundf("job %s", jobID)
	}

	if err := insertJobEventTx(ctx, tx, jobID, nil, status, reason); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	return r.GetJob(ctx, jobID)
}

// AcceptedFixEpisodeIDs returns the fix episode IDs of all accepted
// jobs for a task.
func (r *JobRepository) AcceptedFixEpisodeIDs(ctx context.Context, taskID string) ([]string, error) {
	query := `
		SELECT fix_episode_id FROM jobs
		WHERE task_id = $1 AND status = $2 AND fix_episode_id IS NOT NULL
	`
	rows, err := r.db.QueryContext(ctx, query, taskID, models.JobStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted fixes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan fix episode id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertJobEventTx(ctx context.Context, tx *sql.Tx, jobID string, from *models.JobStatus, to models.JobStatus, reason string) error {
	query := `
		INSERT INTO job_events (job_id, from_status, to_status, reason)
		VALUES ($1, $2, $3, $4)
	`

	var fromStr *string
	if from != nil {
		s := string(*from)
		fromStr = &s
	}

	if _, err := tx.ExecContext(ctx, query, jobID, fromStr, to, reason); err != nil {
		return fmt.Errorf("failed to insert job event: %w", err)
	}
	return nil
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var labID, claimedBy, fixEpisodeID sql.NullString

	err := row.Scan(
		&job.ID,
		&job.TaskID,
		&labID,
		&job.EpisodeID,
		&job.Status,
		&claimedBy,
		&fixEpisodeID,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if labID.Valid {
		job.LabID = labID.String
	}
	if claimedBy.Valid {
		job.ClaimedByWorkerID = &claimedBy.String
	}
	if fixEpisodeID.Valid {
		job.FixEpisodeID = &fixEpisodeID.String
	}
	return &job, nil
}
