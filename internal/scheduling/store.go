// Package scheduling expands recurring job definitions into job instances, applies
// scoped edits and deletes, and enforces the job status state machine.
package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
)

// Store is the persistence the scheduler needs. *db.DB implements it. Single-row
// reads return (nil, nil) when the row is absent or owned by another user; updates
// and deletes report whether a row matched.
type Store interface {
	CreateRecurringJob(ctx context.Context, r *db.RecurringJob) error
	GetRecurringJob(ctx context.Context, userID, id uuid.UUID) (*db.RecurringJob, error)
	ListRecurringJobs(ctx context.Context, userID uuid.UUID) ([]db.RecurringJob, error)
	UpdateRecurringJob(ctx context.Context, r *db.RecurringJob) (bool, error)
	SetRecurringJobActive(ctx context.Context, userID, id uuid.UUID, active bool) (bool, error)
	DeleteRecurringJob(ctx context.Context, userID, id uuid.UUID) (bool, error)

	GetClient(ctx context.Context, userID, id uuid.UUID) (*db.Client, error)

	CreateJob(ctx context.Context, j *db.Job) error
	GetJob(ctx context.Context, userID, id uuid.UUID) (*db.Job, error)
	UpdateJob(ctx context.Context, j *db.Job) (bool, error)
	DeleteJob(ctx context.Context, userID, id uuid.UUID) (bool, error)

	ListInstances(ctx context.Context, userID, recurringJobID uuid.UUID) ([]db.Job, error)
	LatestInstanceDate(ctx context.Context, userID, recurringJobID uuid.UUID) (*db.Date, error)
	InstanceExists(ctx context.Context, userID, recurringJobID uuid.UUID, date db.Date) (bool, error)
	DeleteInstancesFrom(ctx context.Context, userID, recurringJobID uuid.UUID, from db.Date) (int, error)
	DeleteInstances(ctx context.Context, userID, recurringJobID uuid.UUID) (int, error)
}

var _ Store = (*db.DB)(nil)
