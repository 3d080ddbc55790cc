package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"motion-curator/core/models"

	"github.com/google/uuid"
)

// WaitlistRepository handles database operations for waitlist signups
// and lab integration requests
type WaitlistRepository struct {
	db *DB
}

// NewWaitlistRepository creates a new waitlist repository
func NewWaitlistRepository(db *DB) *WaitlistRepository {
	return &WaitlistRepository{db: db}
}

// UpsertWaitlistEntry inserts a signup or refreshes an existing one.
// The email_sent flag is never cleared by an update.
func (r *WaitlistRepository) UpsertWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) (*models.WaitlistEntry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `
		INSERT INTO waitlist (id, email, name, role, note, email_sent, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			note = EXCLUDED.note
		RETURNING id, email, name, role, note, email_sent, created_at
	`
	return r.scanEntry(r.db.QueryRowContext(ctx, query, e.ID, e.Email, e.Name, e.Role, e.Note, time.Now().UTC()))
}

// MarkWelcomeSent flags a waitlist entry as having received its welcome email
func (r *WaitlistRepository) MarkWelcomeSent(ctx context.Context, email string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE waitlist SET email_sent = TRUE WHERE email = $1`, email); err != nil {
		return fmt.Errorf("failed to mark welcome sent: %w", err)
	}
	return nil
}

// CreateLabRequest inserts a lab integration request
func (r *WaitlistRepository) CreateLabRequest(ctx context.Context, req *models.LabRequest) error {
	req.ID = uuid.New().String()
	req.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO lab_requests (id, name, email, org, use_case, confirmation_sent, admin_notified, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6)
	`
	if _, err := r.db.ExecContext(ctx, query, req.ID, req.Name, req.Email, req.Org, req.UseCase, req.CreatedAt); err != nil {
		return fmt.Errorf("failed to create lab request: %w", err)
	}
	return nil
}

// MarkLabRequestNotified records which notifications went out for a request
func (r *WaitlistRepository) MarkLabRequestNotified(ctx context.Context, id string, confirmation, admin bool) error {
	query := `
		UPDATE lab_requests
		SET confirmation_sent = confirmation_sent OR $2,
		    admin_notified = admin_notified OR $3
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, confirmation, admin); err != nil {
		return fmt.Errorf("failed to mark lab request notified: %w", err)
	}
	return nil
}

func (r *WaitlistRepository) scanEntry(row *sql.Row) (*models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	var name, note sql.NullString
	err := row.Scan(&e.ID, &e.Email, &name, &e.Role, &note, &e.EmailSent, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan waitlist entry: %w", err)
	}
	if name.Valid {
		e.Name = &name.String
	}
	if note.Valid {
		e.Note = &note.String
	}
	return &e, nil
}
