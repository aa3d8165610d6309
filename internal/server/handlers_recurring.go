package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/scheduling"
	"github.com/jonathan/cleanops/internal/types"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------
// Recurring Job Handlers
// ---------------------------------------------------------------------

// recurringJobResponse is a definition plus any instances created with it.
type recurringJobResponse struct {
	*db.RecurringJob
	Instances []db.Job `json:"instances,omitempty"`
}

// generateResponse reports a generation run.
type generateResponse struct {
	Created   int      `json:"created"`
	Instances []db.Job `json:"instances"`
}

// navigateResponse carries the adjacent instance, or null at either end.
type navigateResponse struct {
	Instance *db.Job `json:"instance"`
}

// definitionFromRequest converts a validated request. Field formats are already
// checked by the request's struct tags.
func definitionFromRequest(req *types.RecurringJobRequest) (*db.RecurringJob, error) {
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		return nil, apperr.Validation("client_id", "invalid UUID")
	}
	start, err := db.ParseDate(req.StartDate)
	if err != nil {
		return nil, apperr.Validation("start_date", "want YYYY-MM-DD")
	}

	def := &db.RecurringJob{
		ClientID:      clientID,
		Title:         req.Title,
		Description:   req.Description,
		Frequency:     db.Frequency(req.Frequency),
		StartDate:     start,
		ScheduledTime: req.ScheduledTime,
		IsActive:      true,
	}
	if req.EndDate != "" {
		end, err := db.ParseDate(req.EndDate)
		if err != nil {
			return nil, apperr.Validation("end_date", "want YYYY-MM-DD")
		}
		def.EndDate = &end
	}
	if req.DurationHours != nil {
		def.DurationHours = decimal.NewNullDecimal(*req.DurationHours)
	}
	if req.IsActive != nil {
		def.IsActive = *req.IsActive
	}
	return def, nil
}

func patchFromRequest(req *types.RecurringJobPatchRequest) (scheduling.DefinitionPatch, error) {
	patch := scheduling.DefinitionPatch{
		Title:         req.Title,
		Description:   req.Description,
		ClearEndDate:  req.ClearEndDate,
		ScheduledTime: req.ScheduledTime,
		DurationHours: req.DurationHours,
		IsActive:      req.IsActive,
	}
	if req.ClientID != nil {
		id, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return patch, apperr.Validation("client_id", "invalid UUID")
		}
		patch.ClientID = &id
	}
	if req.Frequency != nil {
		f := db.Frequency(*req.Frequency)
		patch.Frequency = &f
	}
	if req.StartDate != nil {
		d, err := db.ParseDate(*req.StartDate)
		if err != nil {
			return patch, apperr.Validation("start_date", "want YYYY-MM-DD")
		}
		patch.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := db.ParseDate(*req.EndDate)
		if err != nil {
			return patch, apperr.Validation("end_date", "want YYYY-MM-DD")
		}
		patch.EndDate = &d
	}
	return patch, nil
}

func (s *Server) handleListRecurringJobs(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	defs, err := s.schedule.ListDefinitions(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if defs == nil {
		defs = []db.RecurringJob{}
	}
	s.jsonResponse(w, http.StatusOK, defs)
}

// handleCreateRecurringJob stores a definition and, when generate_now is set,
// creates its first batch of instances. A failed generation is reported after the
// definition has been saved.
func (s *Server) handleCreateRecurringJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req types.RecurringJobRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	def, err := definitionFromRequest(&req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if err := s.schedule.CreateDefinition(r.Context(), userID, def); err != nil {
		s.serviceError(w, r, err)
		return
	}

	resp := recurringJobResponse{RecurringJob: def}
	if req.GenerateNow && def.IsActive {
		instances, err := s.schedule.GenerateInstances(r.Context(), userID, def.ID)
		if err != nil {
			s.serviceError(w, r, err)
			return
		}
		resp.Instances = instances
	}
	s.jsonResponse(w, http.StatusCreated, resp)
}

func (s *Server) handleGetRecurringJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id", "recurring job")
	if !ok {
		return
	}

	def, err := s.schedule.GetDefinition(r.Context(), userID, id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, def)
}

func (s *Server) handleUpdateRecurringJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id", "recurring job")
	if !ok {
		return
	}

	var req types.RecurringJobPatchRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	patch, err := patchFromRequest(&req)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	def, err := s.schedule.UpdateDefinition(r.Context(), userID, id, patch)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, def)
}

// handleDeleteRecurringJob deletes by scope: ?scope=single|future|all, with
// instance_id naming the reference instance for single and future. The default
// scope is all.
func (s *Server) handleDeleteRecurringJob(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id", "recurring job")
	if !ok {
		return
	}

	query := r.URL.Query()
	rawScope := query.Get("scope")
	if rawScope == "" {
		rawScope = string(scheduling.ScopeAll)
	}
	scope, err := scheduling.ParseDeleteScope(rawScope)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	var instanceID *uuid.UUID
	if raw := query.Get("instance_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid instance ID")
			return
		}
		instanceID = &parsed
	}

	result, err := s.schedule.DeleteDefinition(r.Context(), userID, id, scope, instanceID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleSetRecurringJobActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id", "recurring job")
	if !ok {
		return
	}

	var req types.ActiveRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	def, err := s.schedule.SetActive(r.Context(), userID, id, *req.Active)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, def)
}

// handleGenerateInstances runs one generation batch. Instances created before a
// write failure are kept; the failure is still reported.
func (s *Server) handleGenerateInstances(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id", "recurring job")
	if !ok {
		return
	}

	instances, err := s.schedule.GenerateInstances(r.Context(), userID, id)
	if err != nil {
		if len(instances) > 0 {
			s.logger.Warnw("Generation partially completed", "recurring_job_id", id, "created", len(instances))
		}
		s.serviceError(w, r, err)
		return
	}
	if instances == nil {
		instances = []db.Job{}
	}
	s.jsonResponse(w, http.StatusOK, generateResponse{Created: len(instances), Instances: instances})
}

func (s *Server) handleListInstances(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id", "recurring job")
	if !ok {
		return
	}

	instances, err := s.schedule.ListInstances(r.Context(), userID, id)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if instances == nil {
		instances = []db.Job{}
	}
	s.jsonResponse(w, http.StatusOK, instances)
}

func (s *Server) handleNavigateInstances(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id", "recurring job")
	if !ok {
		return
	}
	instanceID, ok := s.pathID(w, r, "instance_id", "instance")
	if !ok {
		return
	}
	direction, err := scheduling.ParseDirection(r.PathValue("direction"))
	if err != nil {
		s.serviceError(w, r, err)
		return
	}

	job, err := s.schedule.NavigateInstances(r.Context(), userID, id, instanceID, direction)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, navigateResponse{Instance: job})
}
