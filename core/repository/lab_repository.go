package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"motion-curator/core/errs"
	"motion-curator/core/models"

	"github.com/google/uuid"
)

// LabRepository handles database operations for labs, tasks, projects
// and workers
type LabRepository struct {
	db *DB
}

// NewLabRepository creates a new lab repository
func NewLabRepository(db *DB) *LabRepository {
	return &LabRepository{db: db}
}

// CreateLab inserts a new lab
func (r *LabRepository) CreateLab(ctx context.Context, name string, useCase *string) (*models.Lab, error) {
	lab := &models.Lab{
		ID:        uuid.New().String(),
		Name:      name,
		UseCase:   useCase,
		CreatedAt: time.Now().UTC(),
	}
	query := `INSERT INTO labs (id, name, use_case, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, lab.ID, lab.Name, lab.UseCase, lab.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create lab: %w", err)
	}
	return lab, nil
}

// ListLabs lists all labs, newest first
func (r *LabRepository) ListLabs(ctx context.Context) ([]*models.Lab, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, use_case, created_at FROM labs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list labs: %w", err)
	}
	defer rows.Close()

	var labs []*models.Lab
	for rows.Next() {
		var lab models.Lab
		var useCase sql.NullString
		if err := rows.Scan(&lab.ID, &lab.Name, &useCase, &lab.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lab: %w", err)
		}
		if useCase.Valid {
			lab.UseCase = &useCase.String
		}
		labs = append(labs, &lab)
	}
	return labs, rows.Err()
}

// CreateTask inserts a new task
func (r *LabRepository) CreateTask(ctx context.Context, t *models.Task) error {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	query := `INSERT INTO tasks (id, lab_id, name, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, query, t.ID, nullableID(t.LabID), t.Name, t.CreatedAt); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID
func (r *LabRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	var labID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, lab_id, name, created_at FROM tasks WHERE id = $1`, id).
		Scan(&task.ID, &labID, &task.Name, &task.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("task %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if labID.Valid {
		task.LabID = labID.String
	}
	return &task, nil
}

// ListTasks lists tasks, optionally restricted to one lab
func (r *LabRepository) ListTasks(ctx context.Context, labID string) ([]*models.Task, error) {
	query := `SELECT id, lab_id, name, created_at FROM tasks`
	args := []interface{}{}
	if labID != "" {
		query += ` WHERE lab_id = $1`
		args = append(args, labID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var task models.Task
		var taskLabID sql.NullString
		if err := rows.Scan(&task.ID, &taskLabID, &task.Name, &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if taskLabID.Valid {
			task.LabID = taskLabID.String
		}
		tasks = append(tasks, &task)
	}
	return tasks, rows.Err()
}

// CreateProject inserts a new project
func (r *LabRepository) CreateProject(ctx context.Context, p *models.Project) error {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO projects (id, lab_id, name, robot_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, p.ID, p.LabID, p.Name, p.RobotType, p.Description, p.CreatedAt); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// ListProjects lists projects, optionally restricted to one lab
func (r *LabRepository) ListProjects(ctx context.Context, labID string) ([]*models.Project, error) {
	query := `SELECT id, lab_id, name, robot_type, description, created_at FROM projects`
	args := []interface{}{}
	if labID != "" {
		query += ` WHERE lab_id = $1`
		args = append(args, labID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		var robotType, description sql.NullString
		if err := rows.Scan(&p.ID, &p.LabID, &p.Name, &robotType, &description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if robotType.Valid {
			p.RobotType = &robotType.String
		}
		if description.Valid {
			p.Description = &description.String
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// CreateWorker inserts a new worker
func (r *LabRepository) CreateWorker(ctx context.Context, w *models.Worker) error {
	w.ID = uuid.New().String()
	w.CreatedAt = time.Now().UTC()
	query := `INSERT INTO workers (id, email, name, country, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, w.ID, w.Email, w.Name, w.Country, w.CreatedAt); err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}
	return nil
}

// GetWorker retrieves a worker by ID
func (r *LabRepository) GetWorker(ctx context.Context, id string) (*models.Worker, error) {
	var w models.Worker
	var country sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, country, created_at FROM workers WHERE id = $1`, id).
		Scan(&w.ID, &w.Email, &w.Name, &country, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("worker %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get worker: %w", err)
	}
	if country.Valid {
		w.Country = &country.String
	}
	return &w, nil
}

// nullableID maps an empty ID string to NULL
func nullableID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// AnyWorkerID returns the ID of an arbitrary worker, used as the claim
// fallback when the caller supplies none.
func (r *LabRepository) AnyWorkerID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM workers ORDER BY created_at LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", errs.NotFoundf("no workers registered")
	}
	if err != nil {
		return "", fmt.Errorf("failed to pick worker: %w", err)
	}
	return id, nil
}
