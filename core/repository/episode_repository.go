package repository

import (
	"context"
	"database/sql"
	"fmt"

	"motion-curator/core/errs"
	"motion-curator/core/models"

	"github.com/lib/pq"
)

// EpisodeRepository handles database operations for episodes
type EpisodeRepository struct {
	db *DB
}

// NewEpisodeRepository creates a new episode repository
func NewEpisodeRepository(db *DB) *EpisodeRepository {
	return &EpisodeRepository{db: db}
}

// InsertEpisode persists a new episode with its derived QC fields
func (r *EpisodeRepository) InsertEpisode(ctx context.Context, e *models.Episode) error {
	query := `
		INSERT INTO episodes (
			id, task_id, lab_id, uploader_user_id, storage_path, video_path,
			success, failure_reason, failure_time_sec, hz, steps, duration_sec,
			edge_case, quality_score, accepted, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.TaskID,
		nullableStr(e.LabID),
		nullableStr(e.UploaderUserID),
		e.StoragePath,
		e.VideoPath,
		e.Success,
		e.FailureReason,
		e.FailureTimeSec,
		e.Hz,
		e.Steps,
		e.DurationSec,
		e.EdgeCase,
		e.QualityScore,
		e.Accepted,
	)
	if err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}
	return nil
}

const episodeColumns = `id, task_id, lab_id, uploader_user_id, storage_path, video_path,
	success, failure_reason, failure_time_sec, hz, steps, duration_sec,
	edge_case, quality_score, accepted, created_at`

// GetEpisode retrieves an episode by ID
func (r *EpisodeRepository) GetEpisode(ctx context.Context, id string) (*models.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	e, err := scanEpisode(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("episode %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get episode: %w", err)
	}
	return e, nil
}

// EpisodeFilter narrows episode listings
type EpisodeFilter struct {
	TaskID   string
	LabID    string
	Accepted *bool
	EdgeCase *bool
}

// ListEpisodes lists episodes matching the filter, newest first
func (r *EpisodeRepository) ListEpisodes(ctx context.Context, f EpisodeFilter) ([]*models.Episode, error) {
	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE 1=1`
	args := []interface{}{}
	argIndex := 1

	if f.TaskID != "" {
		query += fmt.Sprintf(" AND task_id = $%d", argIndex)
		args = append(args, f.TaskID)
		argIndex++
	}
	if f.LabID != "" {
		query += fmt.Sprintf(" AND lab_id = $%d", argIndex)
		args = append(args, f.LabID)
		argIndex++
	}
	if f.Accepted != nil {
		query += fmt.Sprintf(" AND accepted = $%d", argIndex)
		args = append(args, *f.Accepted)
		argIndex++
	}
	if f.EdgeCase != nil {
		query += fmt.Sprintf(" AND edge_case = $%d", argIndex)
		args = append(args, *f.EdgeCase)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*models.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

// AcceptedEpisodes lists the accepted episodes for a task.
func (r *EpisodeRepository) AcceptedEpisodes(ctx context.Context, taskID string) ([]*models.Episode, error) {
	accepted := true
	return r.ListEpisodes(ctx, EpisodeFilter{TaskID: taskID, Accepted: &accepted})
}

// GetEpisodesByIDs retrieves episodes for a set of IDs, preserving no
// particular order. Missing IDs are silently omitted.
func (r *EpisodeRepository) GetEpisodesByIDs(ctx context.Context, ids []string) ([]*models.Episode, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + episodeColumns + ` FROM episodes WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get episodes by ids: %w", err)
	}
	defer rows.Close()

	var episodes []*models.Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row rowScanner) (*models.Episode, error) {
	var e models.Episode
	var labID, uploaderID, videoPath, failureReason sql.NullString
	var failureTime sql.NullFloat64

	err := row.Scan(
		&e.ID,
		&e.TaskID,
		&labID,
		&uploaderID,
		&e.StoragePath,
		&videoPath,
		&e.Success,
		&failureReason,
		&failureTime,
		&e.Hz,
		&e.Steps,
		&e.DurationSec,
		&e.EdgeCase,
		&e.QualityScore,
		&e.Accepted,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if labID.Valid {
		e.LabID = labID.String
	}
	if uploaderID.Valid {
		e.UploaderUserID = uploaderID.String
	}
	if videoPath.Valid {
		e.VideoPath = &videoPath.String
	}
	if failureReason.Valid {
		e.FailureReason = &failureReason.String
	}
	if failureTime.Valid {
		e.FailureTimeSec = &failureTime.Float64
	}
	return &e, nil
}

func nullableStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
