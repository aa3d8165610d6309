package server

import (
	"net/http"
	"strings"

	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/types"
)

// ---------------------------------------------------------------------
// Task Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}
	if _, err := s.loadJob(r.Context(), userID, jobID); err != nil {
		s.serviceError(w, r, err)
		return
	}

	tasks, err := s.store.ListTasks(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("list tasks", err))
		return
	}
	if tasks == nil {
		tasks = []db.Task{}
	}
	s.jsonResponse(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	var req types.TaskRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	task := db.Task{
		JobID:       jobID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		IsCompleted: req.IsCompleted,
		OrderIndex:  req.OrderIndex,
	}
	created, err := s.store.CreateTask(r.Context(), userID, &task)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("create task", err))
		return
	}
	if !created {
		s.serviceError(w, r, apperr.NotFound("job", jobID))
		return
	}
	s.jsonResponse(w, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathID(w, r, "id", "task")
	if !ok {
		return
	}

	var req types.TaskRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	task, err := s.store.GetTask(r.Context(), userID, taskID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("get task", err))
		return
	}
	if task == nil {
		s.serviceError(w, r, apperr.NotFound("task", taskID))
		return
	}

	task.Title = strings.TrimSpace(req.Title)
	task.Description = req.Description
	task.IsCompleted = req.IsCompleted
	task.OrderIndex = req.OrderIndex

	updated, err := s.store.UpdateTask(r.Context(), userID, task)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("update task", err))
		return
	}
	if !updated {
		s.serviceError(w, r, apperr.NotFound("task", taskID))
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := s.pathID(w, r, "id", "task")
	if !ok {
		return
	}

	deleted, err := s.store.DeleteTask(r.Context(), userID, taskID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("delete task", err))
		return
	}
	if !deleted {
		s.serviceError(w, r, apperr.NotFound("task", taskID))
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---------------------------------------------------------------------
// Photo Handlers
// ---------------------------------------------------------------------

// photoResponse is a photo with its storage path resolved to a URL.
type photoResponse struct {
	db.Photo
	URL string `json:"url"`
}

func (s *Server) photoResponse(r *http.Request, p db.Photo) photoResponse {
	url, err := s.resolver.PublicURL(r.Context(), p.StoragePath)
	if err != nil {
		s.logger.Warnw("Failed to resolve storage path", "photo_id", p.ID, "error", err)
	}
	return photoResponse{Photo: p, URL: url}
}

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}
	if _, err := s.loadJob(r.Context(), userID, jobID); err != nil {
		s.serviceError(w, r, err)
		return
	}

	photos, err := s.store.ListPhotos(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("list photos", err))
		return
	}
	out := make([]photoResponse, 0, len(photos))
	for _, p := range photos {
		out = append(out, s.photoResponse(r, p))
	}
	s.jsonResponse(w, http.StatusOK, out)
}

// handleCreatePhoto records an uploaded object. The upload itself goes straight
// to the bucket; only the object key is stored here.
func (s *Server) handleCreatePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	var req types.PhotoRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	photo := db.Photo{
		JobID:       jobID,
		StoragePath: strings.TrimSpace(req.StoragePath),
		Caption:     req.Caption,
		PhotoType:   db.PhotoGeneral,
	}
	if req.PhotoType != "" {
		photo.PhotoType = db.PhotoType(req.PhotoType)
	}

	created, err := s.store.CreatePhoto(r.Context(), userID, &photo)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("create photo", err))
		return
	}
	if !created {
		s.serviceError(w, r, apperr.NotFound("job", jobID))
		return
	}
	s.jsonResponse(w, http.StatusCreated, s.photoResponse(r, photo))
}

func (s *Server) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	photoID, ok := s.pathID(w, r, "id", "photo")
	if !ok {
		return
	}

	deleted, err := s.store.DeletePhoto(r.Context(), userID, photoID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("delete photo", err))
		return
	}
	if !deleted {
		s.serviceError(w, r, apperr.NotFound("photo", photoID))
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ---------------------------------------------------------------------
// Note Handlers
// ---------------------------------------------------------------------

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}
	if _, err := s.loadJob(r.Context(), userID, jobID); err != nil {
		s.serviceError(w, r, err)
		return
	}

	notes, err := s.store.ListNotes(r.Context(), userID, jobID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("list notes", err))
		return
	}
	if notes == nil {
		notes = []db.Note{}
	}
	s.jsonResponse(w, http.StatusOK, notes)
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	jobID, ok := s.pathID(w, r, "id", "job")
	if !ok {
		return
	}

	var req types.NoteRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	note := db.Note{JobID: jobID, Content: req.Content}
	created, err := s.store.CreateNote(r.Context(), userID, &note)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("create note", err))
		return
	}
	if !created {
		s.serviceError(w, r, apperr.NotFound("job", jobID))
		return
	}
	s.jsonResponse(w, http.StatusCreated, note)
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	noteID, ok := s.pathID(w, r, "id", "note")
	if !ok {
		return
	}

	deleted, err := s.store.DeleteNote(r.Context(), userID, noteID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("delete note", err))
		return
	}
	if !deleted {
		s.serviceError(w, r, apperr.NotFound("note", noteID))
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
