package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/reporting"
	"github.com/jonathan/cleanops/internal/types"
)

// ---------------------------------------------------------------------
// Report Handlers
// ---------------------------------------------------------------------

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	agg, err := s.reports.PrepareReportData(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, agg)
}

func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	html, err := s.reports.RenderDocument(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	writeHTML(w, html)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	pdf, err := s.reports.RenderPDF(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.pdf"`, jobID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func writeHTML(w http.ResponseWriter, html []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

func (s *Server) handleUpdatePhotoSelection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}
	photoID, ok := s.pathID(w, r, "photo_id", "photo")
	if !ok {
		return
	}

	var req types.PhotoSelectionRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}
	sel := reporting.PhotoSelection{Include: *req.Include, Caption: req.Caption}
	if req.PhotoType != nil {
		pt := db.PhotoType(*req.PhotoType)
		sel.PhotoType = &pt
	}

	row, err := s.reports.UpdatePhotoSelection(r.Context(), userID, jobID, photoID, sel)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, row)
}

func (s *Server) handleUpdateTaskSelection(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}
	taskID, ok := s.pathID(w, r, "task_id", "task")
	if !ok {
		return
	}

	var req types.TaskSelectionRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	row, err := s.reports.UpdateTaskSelection(r.Context(), userID, jobID, taskID, *req.Include)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, row)
}

func (s *Server) handleGetReportConfiguration(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	cfg, err := s.reports.GetConfiguration(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, cfg)
}

// handleSaveReportConfiguration passes the raw body to the pipeline, which checks
// it against the configuration schema before decoding.
func (s *Server) handleSaveReportConfiguration(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cfg, err := s.reports.SaveConfiguration(r.Context(), userID, payload)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, cfg)
}
