package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Recurring Job Methods
// -----------------------------------------------------------------------------

const recurringJobColumns = `id, user_id, client_id, title, description, frequency, start_date, end_date,
	scheduled_time, duration_hours, is_active, created_at, updated_at`

func scanRecurringJob(row pgx.Row) (*RecurringJob, error) {
	var r RecurringJob
	err := row.Scan(&r.ID, &r.UserID, &r.ClientID, &r.Title, &r.Description, &r.Frequency,
		&r.StartDate, &r.EndDate, &r.ScheduledTime, &r.DurationHours, &r.IsActive,
		&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// CreateRecurringJob inserts a definition and fills in id and timestamps
func (db *DB) CreateRecurringJob(ctx context.Context, r *RecurringJob) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO recurring_jobs (user_id, client_id, title, description, frequency,
		                             start_date, end_date, scheduled_time, duration_hours, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		r.UserID, r.ClientID, r.Title, r.Description, r.Frequency,
		r.StartDate, r.EndDate, r.ScheduledTime, r.DurationHours, r.IsActive,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recurring job: %w", err)
	}
	return nil
}

// GetRecurringJob retrieves a definition owned by userID
func (db *DB) GetRecurringJob(ctx context.Context, userID, id uuid.UUID) (*RecurringJob, error) {
	r, err := scanRecurringJob(db.pool.QueryRow(ctx,
		`SELECT `+recurringJobColumns+` FROM recurring_jobs WHERE id = $1 AND user_id = $2`,
		id, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring job: %w", err)
	}
	return r, nil
}

// ListRecurringJobs returns the user's definitions ordered by start date
func (db *DB) ListRecurringJobs(ctx context.Context, userID uuid.UUID) ([]RecurringJob, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+recurringJobColumns+` FROM recurring_jobs
		 WHERE user_id = $1 ORDER BY start_date, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring jobs: %w", err)
	}
	defer rows.Close()

	var defs []RecurringJob
	for rows.Next() {
		r, err := scanRecurringJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring job: %w", err)
		}
		defs = append(defs, *r)
	}
	return defs, rows.Err()
}

// UpdateRecurringJob persists every mutable field of r. Returns false when no
// definition matched.
func (db *DB) UpdateRecurringJob(ctx context.Context, r *RecurringJob) (bool, error) {
	err := db.pool.QueryRow(ctx,
		`UPDATE recurring_jobs
		 SET client_id = $3, title = $4, description = $5, frequency = $6, start_date = $7,
		     end_date = $8, scheduled_time = $9, duration_hours = $10, is_active = $11,
		     updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at`,
		r.ID, r.UserID, r.ClientID, r.Title, r.Description, r.Frequency, r.StartDate,
		r.EndDate, r.ScheduledTime, r.DurationHours, r.IsActive,
	).Scan(&r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update recurring job: %w", err)
	}
	return true, nil
}

// SetRecurringJobActive toggles is_active. Returns false when no definition matched.
func (db *DB) SetRecurringJobActive(ctx context.Context, userID, id uuid.UUID, active bool) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE recurring_jobs SET is_active = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		id, userID, active,
	)
	if err != nil {
		return false, fmt.Errorf("failed to set recurring job active: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteRecurringJob removes a definition. Instances still referencing it have their
// recurring_job_id cleared by the foreign key.
func (db *DB) DeleteRecurringJob(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM recurring_jobs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete recurring job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
