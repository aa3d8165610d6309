package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency is the repeat interval of a recurring job definition.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiWeekly Frequency = "bi_weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// JobStatus is the lifecycle state of a job instance.
type JobStatus string

const (
	StatusEnquiry    JobStatus = "enquiry"
	StatusScheduled  JobStatus = "scheduled"
	StatusInProgress JobStatus = "in_progress"
	StatusCompleted  JobStatus = "completed"
	StatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// RecurringJob is a recurring job definition (recurring_jobs).
type RecurringJob struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"user_id"`
	ClientID      uuid.UUID           `json:"client_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description,omitempty"`
	Frequency     Frequency           `json:"frequency"`
	StartDate     Date                `json:"start_date"`
	EndDate       *Date               `json:"end_date,omitempty"`
	ScheduledTime string              `json:"scheduled_time"` // HH:MM
	DurationHours decimal.NullDecimal `json:"duration_hours"`
	IsActive      bool                `json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// Job is a concrete job instance (jobs), either one-off or generated from a
// RecurringJob.
type Job struct {
	ID               uuid.UUID           `json:"id"`
	UserID           uuid.UUID           `json:"user_id"`
	ClientID         uuid.UUID           `json:"client_id"`
	RecurringJobID   *uuid.UUID          `json:"recurring_job_id,omitempty"`
	Title            string              `json:"title"`
	Description      string              `json:"description,omitempty"`
	ScheduledDate    Date                `json:"scheduled_date"`
	ScheduledTime    string              `json:"scheduled_time"`
	EndTime          *string             `json:"end_time,omitempty"`
	Status           JobStatus           `json:"status"`
	AgreedHours      decimal.Decimal     `json:"agreed_hours"`
	ActualHours      decimal.NullDecimal `json:"actual_hours"`
	HourlyRate       decimal.NullDecimal `json:"hourly_rate"`
	TotalCost        decimal.NullDecimal `json:"total_cost"`
	TimerStartedAt   *time.Time          `json:"timer_started_at,omitempty"`
	TotalTimeSeconds int64               `json:"total_time_seconds"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// JobFilters narrows ListJobs.
type JobFilters struct {
	From     *Date
	To       *Date
	ClientID *uuid.UUID
	Status   JobStatus
	Limit    int
}
