// Package timetrack runs the per-job work timer. Timer state is stored on the job
// row so it survives restarts and is shared across server instances.
package timetrack

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/logging"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Store is the job persistence the timer needs.
type Store interface {
	GetJob(ctx context.Context, userID, id uuid.UUID) (*db.Job, error)
	UpdateJob(ctx context.Context, j *db.Job) (bool, error)
}

var _ Store = (*db.DB)(nil)

// Tracker starts and stops job timers.
type Tracker struct {
	store  Store
	now    func() time.Time
	logger *zap.SugaredLogger
}

// NewTracker creates a Tracker. A nil clock uses time.Now.
func NewTracker(store Store, now func() time.Time, logger *zap.SugaredLogger) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, now: now, logger: logging.OrNop(logger)}
}

// Start begins timing a job. A scheduled job moves to in_progress.
func (t *Tracker) Start(ctx context.Context, userID, jobID uuid.UUID) (*db.Job, error) {
	job, err := t.load(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	switch {
	case job.Status.IsTerminal():
		return nil, apperr.Validation("status", "job is %s", job.Status)
	case job.Status == db.StatusEnquiry:
		return nil, apperr.Validation("status", "job must be scheduled before timing")
	case job.TimerStartedAt != nil:
		return nil, apperr.Validation("timer", "already running since %s", job.TimerStartedAt.UTC().Format(time.RFC3339))
	}

	started := t.now().UTC()
	job.TimerStartedAt = &started
	if job.Status == db.StatusScheduled {
		job.Status = db.StatusInProgress
	}
	if err := t.save(ctx, job); err != nil {
		return nil, err
	}

	t.logger.Infow("Timer started", "job_id", jobID, "started_at", started)
	return job, nil
}

// Stop ends the running timer, adds the elapsed seconds to the job total and sets
// actual_hours from the total.
func (t *Tracker) Stop(ctx context.Context, userID, jobID uuid.UUID) (*db.Job, error) {
	job, err := t.load(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if job.TimerStartedAt == nil {
		return nil, apperr.Validation("timer", "not running")
	}

	session := sessionSeconds(*job.TimerStartedAt, t.now())
	job.TotalTimeSeconds += session
	job.TimerStartedAt = nil
	job.ActualHours = decimal.NewNullDecimal(Hours(job.TotalTimeSeconds))
	if err := t.save(ctx, job); err != nil {
		return nil, err
	}

	t.logger.Infow("Timer stopped",
		"job_id", jobID,
		"session_seconds", session,
		"total_seconds", job.TotalTimeSeconds,
	)
	return job, nil
}

func (t *Tracker) load(ctx context.Context, userID, jobID uuid.UUID) (*db.Job, error) {
	job, err := t.store.GetJob(ctx, userID, jobID)
	if err != nil {
		return nil, apperr.Storage("get job", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", jobID)
	}
	return job, nil
}

func (t *Tracker) save(ctx context.Context, job *db.Job) error {
	ok, err := t.store.UpdateJob(ctx, job)
	if err != nil {
		return apperr.Storage("update job timer", err)
	}
	if !ok {
		return apperr.NotFound("job", job.ID)
	}
	return nil
}

// Elapsed returns the accumulated seconds plus the running session, if any, as of now.
func Elapsed(job *db.Job, now time.Time) int64 {
	total := job.TotalTimeSeconds
	if job.TimerStartedAt != nil {
		total += sessionSeconds(*job.TimerStartedAt, now)
	}
	return total
}

func sessionSeconds(started, now time.Time) int64 {
	d := now.Sub(started)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Hours converts seconds to hours rounded to two places.
func Hours(seconds int64) decimal.Decimal {
	return decimal.NewFromInt(seconds).Div(decimal.NewFromInt(3600)).Round(2)
}

// FormatDuration renders seconds as "1h 05m 09s".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}
