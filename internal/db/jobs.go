package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

const jobColumns = `id, user_id, client_id, recurring_job_id, title, description, scheduled_date,
	scheduled_time, end_time, status, agreed_hours, actual_hours, hourly_rate, total_cost,
	timer_started_at, total_time_seconds, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.UserID, &j.ClientID, &j.RecurringJobID, &j.Title, &j.Description,
		&j.ScheduledDate, &j.ScheduledTime, &j.EndTime, &j.Status, &j.AgreedHours,
		&j.ActualHours, &j.HourlyRate, &j.TotalCost, &j.TimerStartedAt, &j.TotalTimeSeconds,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]Job, error) {
	defer rows.Close()
	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// CreateJob inserts a job instance and fills in id and timestamps. An empty status
// defaults to scheduled.
func (db *DB) CreateJob(ctx context.Context, j *Job) error {
	if j.Status == "" {
		j.Status = StatusScheduled
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (user_id, client_id, recurring_job_id, title, description, scheduled_date,
		                   scheduled_time, end_time, status, agreed_hours, actual_hours, hourly_rate,
		                   total_cost)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		j.UserID, j.ClientID, j.RecurringJobID, j.Title, j.Description, j.ScheduledDate,
		j.ScheduledTime, j.EndTime, j.Status, j.AgreedHours, j.ActualHours, j.HourlyRate,
		j.TotalCost,
	).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// GetJob retrieves a job owned by userID
func (db *DB) GetJob(ctx context.Context, userID, id uuid.UUID) (*Job, error) {
	j, err := scanJob(db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// ListJobs returns the user's jobs matching filters, ordered by date and time
func (db *DB) ListJobs(ctx context.Context, userID uuid.UUID, filters JobFilters) ([]Job, error) {
	conditions := []string{"user_id = $1"}
	args := []any{userID}
	argNum := 2

	if filters.From != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date >= $%d", argNum))
		args = append(args, *filters.From)
		argNum++
	}
	if filters.To != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date <= $%d", argNum))
		args = append(args, *filters.To)
		argNum++
	}
	if filters.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argNum))
		args = append(args, *filters.ClientID)
		argNum++
	}
	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, filters.Status)
		argNum++
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 500
	}

	query := fmt.Sprintf(
		`SELECT %s FROM jobs WHERE %s ORDER BY scheduled_date, scheduled_time, id LIMIT $%d`,
		jobColumns, strings.Join(conditions, " AND "), argNum)
	args = append(args, limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return collectJobs(rows)
}

// UpdateJob persists every mutable field of j, including status, hours, cost and
// timer state. Returns false when no job matched.
func (db *DB) UpdateJob(ctx context.Context, j *Job) (bool, error) {
	err := db.pool.QueryRow(ctx,
		`UPDATE jobs
		 SET client_id = $3, title = $4, description = $5, scheduled_date = $6,
		     scheduled_time = $7, end_time = $8, status = $9, agreed_hours = $10,
		     actual_hours = $11, hourly_rate = $12, total_cost = $13,
		     timer_started_at = $14, total_time_seconds = $15, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING updated_at`,
		j.ID, j.UserID, j.ClientID, j.Title, j.Description, j.ScheduledDate,
		j.ScheduledTime, j.EndTime, j.Status, j.AgreedHours,
		j.ActualHours, j.HourlyRate, j.TotalCost,
		j.TimerStartedAt, j.TotalTimeSeconds,
	).Scan(&j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update job: %w", err)
	}
	return true, nil
}

// DeleteJob removes a job and its children. Returns false when no job matched.
func (db *DB) DeleteJob(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// -----------------------------------------------------------------------------
// Recurring Instance Methods
// -----------------------------------------------------------------------------

// ListInstances returns every job generated from a definition, ordered by
// scheduled_date then id.
func (db *DB) ListInstances(ctx context.Context, userID, recurringJobID uuid.UUID) ([]Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE recurring_job_id = $1 AND user_id = $2
		 ORDER BY scheduled_date, id`,
		recurringJobID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return collectJobs(rows)
}

// LatestInstanceDate returns the greatest scheduled_date among a definition's
// instances, or nil when none exist.
func (db *DB) LatestInstanceDate(ctx context.Context, userID, recurringJobID uuid.UUID) (*Date, error) {
	var latest *Date
	err := db.pool.QueryRow(ctx,
		`SELECT MAX(scheduled_date) FROM jobs WHERE recurring_job_id = $1 AND user_id = $2`,
		recurringJobID, userID,
	).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest instance date: %w", err)
	}
	return latest, nil
}

// InstanceExists reports whether a definition already has an instance on date
func (db *DB) InstanceExists(ctx context.Context, userID, recurringJobID uuid.UUID, date Date) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM jobs
		               WHERE recurring_job_id = $1 AND user_id = $2 AND scheduled_date = $3)`,
		recurringJobID, userID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check instance existence: %w", err)
	}
	return exists, nil
}

// DeleteInstancesFrom deletes a definition's instances dated on or after from and
// returns how many were removed.
func (db *DB) DeleteInstancesFrom(ctx context.Context, userID, recurringJobID uuid.UUID, from Date) (int, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM jobs WHERE recurring_job_id = $1 AND user_id = $2 AND scheduled_date >= $3`,
		recurringJobID, userID, from)
	if err != nil {
		return 0, fmt.Errorf("failed to delete instances: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteInstances deletes every instance of a definition and returns the count.
func (db *DB) DeleteInstances(ctx context.Context, userID, recurringJobID uuid.UUID) (int, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM jobs WHERE recurring_job_id = $1 AND user_id = $2`,
		recurringJobID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete instances: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
