package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/shopspring/decimal"
)

var transitions = map[db.JobStatus][]db.JobStatus{
	db.StatusEnquiry:    {db.StatusScheduled, db.StatusCancelled},
	db.StatusScheduled:  {db.StatusInProgress, db.StatusCancelled},
	db.StatusInProgress: {db.StatusCompleted, db.StatusCancelled},
}

// ValidStatus reports whether s is a known job status.
func ValidStatus(s db.JobStatus) bool {
	switch s {
	case db.StatusEnquiry, db.StatusScheduled, db.StatusInProgress, db.StatusCompleted, db.StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from one status to another.
// Completed and cancelled are terminal.
func CanTransition(from, to db.JobStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TotalCost is actual hours times hourly rate rounded to cents, or null when either
// input is missing.
func TotalCost(actualHours, hourlyRate decimal.NullDecimal) decimal.NullDecimal {
	if !actualHours.Valid || !hourlyRate.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(actualHours.Decimal.Mul(hourlyRate.Decimal).Round(2))
}

// TransitionStatus moves a job to a new status. Completing a job with actual hours
// and an hourly rate records the total cost.
func (m *Manager) TransitionStatus(ctx context.Context, userID, jobID uuid.UUID, to db.JobStatus) (*db.Job, error) {
	if !ValidStatus(to) {
		return nil, apperr.Validation("status", "unknown status %q", to)
	}
	job, err := m.store.GetJob(ctx, userID, jobID)
	if err != nil {
		return nil, apperr.Storage("get job", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", jobID)
	}
	if !CanTransition(job.Status, to) {
		return nil, apperr.Validation("status", "cannot move job from %s to %s", job.Status, to)
	}

	from := job.Status
	job.Status = to
	if to == db.StatusCompleted {
		if cost := TotalCost(job.ActualHours, job.HourlyRate); cost.Valid {
			job.TotalCost = cost
		}
	}

	ok, err := m.store.UpdateJob(ctx, job)
	if err != nil {
		return nil, apperr.Storage("update job status", err)
	}
	if !ok {
		return nil, apperr.NotFound("job", jobID)
	}

	m.logger.Infow("Job status changed", "job_id", jobID, "from", from, "to", to)
	return job, nil
}
