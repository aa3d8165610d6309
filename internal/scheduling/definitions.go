package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/shopspring/decimal"
)

// DefinitionPatch carries a partial update. Nil fields are left unchanged;
// ClearEndDate removes the end date.
type DefinitionPatch struct {
	ClientID      *uuid.UUID
	Title         *string
	Description   *string
	Frequency     *db.Frequency
	StartDate     *db.Date
	EndDate       *db.Date
	ClearEndDate  bool
	ScheduledTime *string
	DurationHours *decimal.Decimal
	IsActive      *bool
}

// Apply copies the set fields of p onto def.
func (p DefinitionPatch) Apply(def *db.RecurringJob) {
	if p.ClientID != nil {
		def.ClientID = *p.ClientID
	}
	if p.Title != nil {
		def.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		def.Description = *p.Description
	}
	if p.Frequency != nil {
		def.Frequency = *p.Frequency
	}
	if p.StartDate != nil {
		def.StartDate = *p.StartDate
	}
	if p.ClearEndDate {
		def.EndDate = nil
	} else if p.EndDate != nil {
		end := *p.EndDate
		def.EndDate = &end
	}
	if p.ScheduledTime != nil {
		def.ScheduledTime = *p.ScheduledTime
	}
	if p.DurationHours != nil {
		def.DurationHours = decimal.NewNullDecimal(*p.DurationHours)
	}
	if p.IsActive != nil {
		def.IsActive = *p.IsActive
	}
}

// ValidateDefinition checks the invariants of a definition independent of storage.
func ValidateDefinition(def *db.RecurringJob) error {
	if strings.TrimSpace(def.Title) == "" {
		return apperr.Validation("title", "is required")
	}
	if !def.Frequency.Valid() {
		return apperr.Validation("frequency", "unsupported frequency %q", def.Frequency)
	}
	if def.StartDate.IsZero() {
		return apperr.Validation("start_date", "is required")
	}
	if def.EndDate != nil && def.EndDate.Before(def.StartDate) {
		return apperr.Validation("end_date", "%s is before start_date %s", def.EndDate, def.StartDate)
	}
	if err := ValidateClock(def.ScheduledTime); err != nil {
		return apperr.Validation("scheduled_time", "%v", err)
	}
	if def.DurationHours.Valid && def.DurationHours.Decimal.IsNegative() {
		return apperr.Validation("duration_hours", "must not be negative")
	}
	return nil
}

// ValidateClock checks an HH:MM time of day.
func ValidateClock(s string) error {
	if _, err := time.Parse("15:04", s); err != nil {
		return fmt.Errorf("want HH:MM, got %q", s)
	}
	return nil
}

// CreateDefinition validates and stores a new definition for userID.
func (m *Manager) CreateDefinition(ctx context.Context, userID uuid.UUID, def *db.RecurringJob) error {
	def.UserID = userID
	def.Title = strings.TrimSpace(def.Title)
	if err := ValidateDefinition(def); err != nil {
		return err
	}
	if err := m.requireClient(ctx, userID, def.ClientID); err != nil {
		return err
	}
	if err := m.store.CreateRecurringJob(ctx, def); err != nil {
		return apperr.Storage("create recurring job", err)
	}
	m.logger.Infow("Created recurring job",
		"recurring_job_id", def.ID,
		"frequency", def.Frequency,
		"start_date", def.StartDate.String(),
	)
	return nil
}

// GetDefinition loads a definition owned by userID.
func (m *Manager) GetDefinition(ctx context.Context, userID, id uuid.UUID) (*db.RecurringJob, error) {
	def, err := m.store.GetRecurringJob(ctx, userID, id)
	if err != nil {
		return nil, apperr.Storage("get recurring job", err)
	}
	if def == nil {
		return nil, apperr.NotFound("recurring job", id)
	}
	return def, nil
}

// ListDefinitions returns every definition owned by userID.
func (m *Manager) ListDefinitions(ctx context.Context, userID uuid.UUID) ([]db.RecurringJob, error) {
	defs, err := m.store.ListRecurringJobs(ctx, userID)
	if err != nil {
		return nil, apperr.Storage("list recurring jobs", err)
	}
	return defs, nil
}

// UpdateDefinition applies patch to a definition and persists it. Instances that
// were already generated are never modified.
func (m *Manager) UpdateDefinition(ctx context.Context, userID, id uuid.UUID, patch DefinitionPatch) (*db.RecurringJob, error) {
	def, err := m.GetDefinition(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(def)
	if err := ValidateDefinition(def); err != nil {
		return nil, err
	}
	if patch.ClientID != nil {
		if err := m.requireClient(ctx, userID, def.ClientID); err != nil {
			return nil, err
		}
	}

	ok, err := m.store.UpdateRecurringJob(ctx, def)
	if err != nil {
		return nil, apperr.Storage("update recurring job", err)
	}
	if !ok {
		return nil, apperr.NotFound("recurring job", id)
	}
	return def, nil
}

// SetActive toggles whether a definition may generate instances.
func (m *Manager) SetActive(ctx context.Context, userID, id uuid.UUID, active bool) (*db.RecurringJob, error) {
	ok, err := m.store.SetRecurringJobActive(ctx, userID, id, active)
	if err != nil {
		return nil, apperr.Storage("set recurring job active", err)
	}
	if !ok {
		return nil, apperr.NotFound("recurring job", id)
	}
	return m.GetDefinition(ctx, userID, id)
}

func (m *Manager) requireClient(ctx context.Context, userID, clientID uuid.UUID) error {
	if clientID == uuid.Nil {
		return apperr.Validation("client_id", "is required")
	}
	client, err := m.store.GetClient(ctx, userID, clientID)
	if err != nil {
		return apperr.Storage("get client", err)
	}
	if client == nil {
		return apperr.NotFound("client", clientID)
	}
	return nil
}
