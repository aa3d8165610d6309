package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/reporting"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------
// Customer Portal Handlers
// ---------------------------------------------------------------------

// portalJobLimit bounds the jobs listed on a portal page.
const portalJobLimit = 200

// portalView is the read-only page a client reaches through their portal link.
// It omits internal fields such as rates and notes.
type portalView struct {
	BusinessName string      `json:"business_name"`
	ClientName   string      `json:"client_name"`
	Upcoming     []portalJob `json:"upcoming"`
	Completed    []portalJob `json:"completed"`
}

type portalJob struct {
	ID            uuid.UUID           `json:"id"`
	Title         string              `json:"title"`
	ScheduledDate db.Date             `json:"scheduled_date"`
	ScheduledTime string              `json:"scheduled_time"`
	Status        db.JobStatus        `json:"status"`
	TotalCost     decimal.NullDecimal `json:"total_cost"`
	ReportPath    string              `json:"report_path,omitempty"`
}

// portalClient resolves the token in the path or writes a 404. Unknown tokens and
// missing tokens are indistinguishable.
func (s *Server) portalClient(w http.ResponseWriter, r *http.Request) (*db.Client, bool) {
	client, err := s.store.GetClientByPortalToken(r.Context(), r.PathValue("token"))
	if err != nil {
		s.serviceError(w, r, apperr.Storage("get client by portal token", err))
		return nil, false
	}
	if client == nil {
		s.errorResponse(w, http.StatusNotFound, "portal not found")
		return nil, false
	}
	return client, true
}

func (s *Server) handlePortal(w http.ResponseWriter, r *http.Request) {
	client, ok := s.portalClient(w, r)
	if !ok {
		return
	}

	owner, err := s.store.GetUser(r.Context(), client.UserID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("get user", err))
		return
	}
	jobs, err := s.store.ListJobs(r.Context(), client.UserID, db.JobFilters{
		ClientID: &client.ID,
		Limit:    portalJobLimit,
	})
	if err != nil {
		s.serviceError(w, r, apperr.Storage("list jobs", err))
		return
	}

	view := portalView{
		ClientName: client.Name,
		Upcoming:   []portalJob{},
		Completed:  []portalJob{},
	}
	if owner != nil {
		view.BusinessName = owner.BusinessName
	}
	for _, j := range jobs {
		pj := portalJob{
			ID:            j.ID,
			Title:         j.Title,
			ScheduledDate: j.ScheduledDate,
			ScheduledTime: j.ScheduledTime,
			Status:        j.Status,
		}
		switch j.Status {
		case db.StatusScheduled, db.StatusInProgress:
			view.Upcoming = append(view.Upcoming, pj)
		case db.StatusCompleted:
			pj.TotalCost = j.TotalCost
			pj.ReportPath = "/portal/" + r.PathValue("token") + "/jobs/" + j.ID.String() + "/report"
			view.Completed = append(view.Completed, pj)
		}
	}
	s.jsonResponse(w, http.StatusOK, view)
}

// handlePortalReport renders the HTML report of one of the client's completed jobs.
func (s *Server) handlePortalReport(w http.ResponseWriter, r *http.Request) {
	client, ok := s.portalClient(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "job_id", "job")
	if !ok {
		return
	}

	job, err := s.store.GetJob(r.Context(), client.UserID, jobID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("get job", err))
		return
	}
	if job == nil || job.ClientID != client.ID || job.Status != db.StatusCompleted {
		s.serviceError(w, r, apperr.NotFound("job", jobID))
		return
	}

	agg, err := s.reports.PrepareReportData(r.Context(), client.UserID, jobID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	html, err := reporting.Render(agg)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeHTML(w, html)
}
