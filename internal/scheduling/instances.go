package scheduling

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
)

// GenerateInstances creates the next batch of job instances for an active
// definition. Expansion starts at start_date, or the day after the latest existing
// instance when there is one, and dates that already have an instance are skipped,
// so re-running is safe. Generation only moves forward: a date removed with a
// single-scope delete, or a date before the latest instance opened up by an earlier
// start_date, is never filled in again. The created instances are returned in date
// order. When a write fails the instances created before it are returned together
// with the error.
func (m *Manager) GenerateInstances(ctx context.Context, userID, definitionID uuid.UUID) ([]db.Job, error) {
	def, err := m.GetDefinition(ctx, userID, definitionID)
	if err != nil {
		return nil, err
	}
	if !def.IsActive {
		return nil, apperr.Validation("is_active", "recurring job %s is inactive", definitionID)
	}

	from := def.StartDate
	latest, err := m.store.LatestInstanceDate(ctx, userID, definitionID)
	if err != nil {
		return nil, apperr.Storage("get latest instance date", err)
	}
	if latest != nil && !latest.Before(from) {
		from = latest.AddDays(1)
	}

	dates := Occurrences(def, from, m.cfg.MaxBatch, m.cfg.HorizonDays)

	var created []db.Job
	skipped := 0
	for _, date := range dates {
		exists, err := m.store.InstanceExists(ctx, userID, definitionID, date)
		if err != nil {
			return created, apperr.Storage("check instance existence", err)
		}
		if exists {
			skipped++
			continue
		}

		job := newInstance(def, date)
		if err := m.store.CreateJob(ctx, job); err != nil {
			m.logger.Warnw("Instance generation stopped on write failure",
				"recurring_job_id", definitionID,
				"scheduled_date", date.String(),
				"created", len(created),
				"error", err,
			)
			return created, apperr.Storage("create instance", err)
		}
		created = append(created, *job)
	}

	m.logger.Infow("Generated recurring job instances",
		"recurring_job_id", definitionID,
		"from", from.String(),
		"candidates", len(dates),
		"created", len(created),
		"skipped", skipped,
	)
	return created, nil
}

func newInstance(def *db.RecurringJob, date db.Date) *db.Job {
	recurringID := def.ID
	job := &db.Job{
		UserID:         def.UserID,
		ClientID:       def.ClientID,
		RecurringJobID: &recurringID,
		Title:          def.Title,
		Description:    def.Description,
		ScheduledDate:  date,
		ScheduledTime:  def.ScheduledTime,
		Status:         db.StatusScheduled,
	}
	if def.DurationHours.Valid {
		job.AgreedHours = def.DurationHours.Decimal
	}
	return job
}

// ListInstances returns every instance of a definition by scheduled_date.
func (m *Manager) ListInstances(ctx context.Context, userID, definitionID uuid.UUID) ([]db.Job, error) {
	if _, err := m.GetDefinition(ctx, userID, definitionID); err != nil {
		return nil, err
	}
	instances, err := m.store.ListInstances(ctx, userID, definitionID)
	if err != nil {
		return nil, apperr.Storage("list instances", err)
	}
	return instances, nil
}

// Direction selects a neighbour in NavigateInstances.
type Direction string

const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
)

// ParseDirection accepts "previous", "prev" and "next" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "previous", "prev":
		return DirectionPrevious, nil
	case "next":
		return DirectionNext, nil
	}
	return "", apperr.Validation("direction", "unknown direction %q (want previous or next)", s)
}

// NavigateInstances returns the instance adjacent to currentID in date order, or
// nil when currentID is the first (previous) or last (next) instance.
func (m *Manager) NavigateInstances(ctx context.Context, userID, definitionID, currentID uuid.UUID, direction Direction) (*db.Job, error) {
	if direction != DirectionPrevious && direction != DirectionNext {
		return nil, apperr.Validation("direction", "unknown direction %q", direction)
	}
	instances, err := m.ListInstances(ctx, userID, definitionID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range instances {
		if instances[i].ID == currentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("instance", currentID)
	}

	next := idx + 1
	if direction == DirectionPrevious {
		next = idx - 1
	}
	if next < 0 || next >= len(instances) {
		return nil, nil
	}
	return &instances[next], nil
}

// DeleteScope selects which instances DeleteDefinition removes.
type DeleteScope string

const (
	ScopeSingle DeleteScope = "single"
	ScopeFuture DeleteScope = "future"
	ScopeAll    DeleteScope = "all"
)

// ParseDeleteScope validates a scope string.
func ParseDeleteScope(s string) (DeleteScope, error) {
	switch scope := DeleteScope(strings.ToLower(strings.TrimSpace(s))); scope {
	case ScopeSingle, ScopeFuture, ScopeAll:
		return scope, nil
	}
	return "", apperr.Validation("scope", "unknown scope %q (want single, future or all)", s)
}

// DeleteResult reports what DeleteDefinition changed.
type DeleteResult struct {
	Deleted               int  `json:"deleted"`
	DefinitionDeleted     bool `json:"definition_deleted"`
	DefinitionDeactivated bool `json:"definition_deactivated"`
}

// DeleteDefinition removes instances according to scope. single deletes the
// reference instance; future deletes the reference and every later instance and
// deactivates the definition; all deletes every instance and then the definition.
// Steps run one after another without a surrounding transaction.
func (m *Manager) DeleteDefinition(ctx context.Context, userID, definitionID uuid.UUID, scope DeleteScope, instanceID *uuid.UUID) (*DeleteResult, error) {
	if _, err := m.GetDefinition(ctx, userID, definitionID); err != nil {
		return nil, err
	}

	var ref *db.Job
	if scope == ScopeSingle || scope == ScopeFuture {
		if instanceID == nil {
			return nil, apperr.Validation("instance_id", "is required for scope %s", scope)
		}
		job, err := m.store.GetJob(ctx, userID, *instanceID)
		if err != nil {
			return nil, apperr.Storage("get instance", err)
		}
		if job == nil || job.RecurringJobID == nil || *job.RecurringJobID != definitionID {
			return nil, apperr.NotFound("instance", *instanceID)
		}
		ref = job
	}

	result := &DeleteResult{}
	switch scope {
	case ScopeSingle:
		ok, err := m.store.DeleteJob(ctx, userID, ref.ID)
		if err != nil {
			return nil, apperr.Storage("delete instance", err)
		}
		if ok {
			result.Deleted = 1
		}

	case ScopeFuture:
		n, err := m.store.DeleteInstancesFrom(ctx, userID, definitionID, ref.ScheduledDate)
		if err != nil {
			return nil, apperr.Storage("delete future instances", err)
		}
		result.Deleted = n
		if _, err := m.store.SetRecurringJobActive(ctx, userID, definitionID, false); err != nil {
			return result, apperr.Storage("deactivate recurring job", err)
		}
		result.DefinitionDeactivated = true

	case ScopeAll:
		n, err := m.store.DeleteInstances(ctx, userID, definitionID)
		if err != nil {
			return nil, apperr.Storage("delete instances", err)
		}
		result.Deleted = n
		if _, err := m.store.DeleteRecurringJob(ctx, userID, definitionID); err != nil {
			return result, apperr.Storage("delete recurring job", err)
		}
		result.DefinitionDeleted = true

	default:
		return nil, apperr.Validation("scope", "unknown scope %q", scope)
	}

	m.logger.Infow("Deleted recurring job instances",
		"recurring_job_id", definitionID,
		"scope", string(scope),
		"deleted", result.Deleted,
	)
	return result, nil
}

