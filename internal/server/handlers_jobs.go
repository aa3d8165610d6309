package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/scheduling"
	"github.com/jonathan/cleanops/internal/timetrack"
	"github.com/jonathan/cleanops/internal/types"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------
// Job Handlers
// ---------------------------------------------------------------------

// maxJobListLimit caps ?limit on job listings.
const maxJobListLimit = 500

// timerResponse is a job with its timer rendered for display.
type timerResponse struct {
	*db.Job
	ElapsedSeconds int64  `json:"elapsed_seconds"`
	Elapsed        string `json:"elapsed"`
	Running        bool   `json:"running"`
}

// applyJobRequest copies the editable fields of req onto job. Status is only
// taken from the request on create; later changes go through the status endpoint.
func (s *Server) applyJobRequest(ctx context.Context, userID uuid.UUID, job *db.Job, req *types.JobRequest) error {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return apperr.Validation("client_id", "invalid UUID")
	}
	client, err := s.store.GetClient(ctx, userID, clientID)
	if err != nil {
		return apperr.Storage("get client", err)
	}
	if client == nil {
		return apperr.NotFound("client", clientID)
	}

	date, err := db.ParseDate(req.ScheduledDate)
	if err != nil {
		return apperr.Validation("scheduled_date", "want YYYY-MM-DD")
	}
	if req.EndTime != "" && req.EndTime <= req.ScheduledTime {
		return apperr.Validation("end_time", "must be after scheduled_time %s", req.ScheduledTime)
	}
	amounts := []struct {
		field string
		value *decimal.Decimal
	}{
		{"agreed_hours", req.AgreedHours},
		{"actual_hours", req.ActualHours},
		{"hourly_rate", req.HourlyRate},
	}
	for _, a := range amounts {
		if a.value != nil && a.value.IsNegative() {
			return apperr.Validation(a.field, "must not be negative")
		}
	}

	job.ClientID = clientID
	job.Title = strings.TrimSpace(req.Title)
	job.Description = req.Description
	job.ScheduledDate = date
	job.ScheduledTime = req.ScheduledTime
	job.EndTime = nil
	if req.EndTime != "" {
		end := req.EndTime
		job.EndTime = &end
	}
	job.AgreedHours = decimal.Zero
	if req.AgreedHours != nil {
		job.AgreedHours = *req.AgreedHours
	}
	job.ActualHours = decimal.NullDecimal{}
	if req.ActualHours != nil {
		job.ActualHours = decimal.NewNullDecimal(*req.ActualHours)
	}
	job.HourlyRate = decimal.NullDecimal{}
	if req.HourlyRate != nil {
		job.HourlyRate = decimal.NewNullDecimal(*req.HourlyRate)
	}
	if job.Status == db.StatusCompleted {
		job.TotalCost = scheduling.TotalCost(job.ActualHours, job.HourlyRate)
	}
	return nil
}

// jobFilters reads from, to, client_id, status and limit query parameters.
func jobFilters(r *http.Request) (db.JobFilters, error) {
	var f db.JobFilters
	q := r.URL.Query()

	if raw := q.Get("from"); raw != "" {
		d, err := db.ParseDate(raw)
		if err != nil {
			return f, apperr.Validation("from", "want YYYY-MM-DD")
		}
		f.From = &d
	}
	if raw := q.Get("to"); raw != "" {
		d, err := db.ParseDate(raw)
		if err != nil {
			return f, apperr.Validation("to", "want YYYY-MM-DD")
		}
		f.To = &d
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, apperr.Validation("to", "is before from")
	}
	if raw := q.Get("client_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, apperr.Validation("client_id", "invalid UUID")
		}
		f.ClientID = &id
	}
	if raw := q.Get("status"); raw != "" {
		status := db.JobStatus(raw)
		if !scheduling.ValidStatus(status) {
			return f, apperr.Validation("status", "unknown status %q", raw)
		}
		f.Status = status
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxJobListLimit {
			return f, apperr.Validation("limit", "want 1-%d", maxJobListLimit)
		}
		f.Limit = n
	}
	return f, nil
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	filters, err := jobFilters(r)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	jobs, err := s.store.ListJobs(r.Context(), userID, filters)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("list jobs", err))
		return
	}
	if jobs == nil {
		jobs = []db.Job{}
	}
	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req types.JobRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	job := db.Job{UserID: userID, Status: db.StatusScheduled}
	if req.Status != "" {
		job.Status = db.JobStatus(req.Status)
	}
	if err := s.applyJobRequest(r.Context(), userID, &job, &req); err != nil {
		s.serviceError(w, r, err)
		return
	}
	if err := s.store.CreateJob(r.Context(), &job); err != nil {
		s.serviceError(w, r, apperr.Storage("create job", err))
		return
	}
	s.logger.Infow("Created job", "job_id", job.ID, "scheduled_date", job.ScheduledDate.String())
	s.jsonResponse(w, http.StatusCreated, job)
}

func (s *Server) loadJob(ctx context.Context, userID, jobID uuid.UUID) (*db.Job, error) {
	job, err := s.store.GetJob(ctx, userID, jobID)
	if err != nil {
		return nil, apperr.Storage("get job", err)
	}
	if job == nil {
		return nil, apperr.NotFound("job", jobID)
	}
	return job, nil
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	job, err := s.loadJob(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	var req types.JobRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	job, err := s.loadJob(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if err := s.applyJobRequest(r.Context(), userID, job, &req); err != nil {
		s.serviceError(w, r, err)
		return
	}

	updated, err := s.store.UpdateJob(r.Context(), job)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("update job", err))
		return
	}
	if !updated {
		s.serviceError(w, r, apperr.NotFound("job", jobID))
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	deleted, err := s.store.DeleteJob(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("delete job", err))
		return
	}
	if !deleted {
		s.serviceError(w, r, apperr.NotFound("job", jobID))
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleTransitionStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	var req types.StatusRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	job, err := s.schedule.TransitionStatus(r.Context(), userID, jobID, db.JobStatus(req.Status))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	s.handleTimer(w, r, s.timer.Start)
}

func (s *Server) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	s.handleTimer(w, r, s.timer.Stop)
}

func (s *Server) handleTimer(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, jobID uuid.UUID) (*db.Job, error)) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	job, err := op(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	elapsed := timetrack.Elapsed(job, s.now())
	s.jsonResponse(w, http.StatusOK, timerResponse{
		Job:            job,
		ElapsedSeconds: elapsed,
		Elapsed:        timetrack.FormatDuration(elapsed),
		Running:        job.TimerStartedAt != nil,
	})
}
