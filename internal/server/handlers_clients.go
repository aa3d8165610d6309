package server

import (
	"net/http"
	"strings"

	"github.com/jonathan/cleanops/internal/apperr"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/types"
)

// ---------------------------------------------------------------------
// Client Handlers
// ---------------------------------------------------------------------

func clientFromRequest(req *types.ClientRequest) db.Client {
	return db.Client{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
		Notes:   req.Notes,
	}
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	clients, err := s.store.ListClients(r.Context(), userID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("list clients", err))
		return
	}
	if clients == nil {
		clients = []db.Client{}
	}
	s.jsonResponse(w, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}

	var req types.ClientRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	client := clientFromRequest(&req)
	client.UserID = userID
	if err := s.store.CreateClient(r.Context(), &client); err != nil {
		s.serviceError(w, r, apperr.Storage("create client", err))
		return
	}
	s.jsonResponse(w, http.StatusCreated, client)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	clientID, ok := s.pathID(w, r, "id", "client")
	if !ok {
		return
	}

	client, err := s.store.GetClient(r.Context(), userID, clientID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("get client", err))
		return
	}
	if client == nil {
		s.serviceError(w, r, apperr.NotFound("client", clientID))
		return
	}
	s.jsonResponse(w, http.StatusOK, client)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	clientID, ok := s.pathID(w, r, "id", "client")
	if !ok {
		return
	}

	var req types.ClientRequest
	if !s.decodeRequest(w, r, &req) {
		return
	}

	client := clientFromRequest(&req)
	client.ID = clientID
	client.UserID = userID
	updated, err := s.store.UpdateClient(r.Context(), &client)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("update client", err))
		return
	}
	if !updated {
		s.serviceError(w, r, apperr.NotFound("client", clientID))
		return
	}

	// Reload for the portal token and timestamps.
	fresh, err := s.store.GetClient(r.Context(), userID, clientID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("get client", err))
		return
	}
	if fresh == nil {
		s.serviceError(w, r, apperr.NotFound("client", clientID))
		return
	}
	s.jsonResponse(w, http.StatusOK, fresh)
}

// handleDeleteClient removes a client together with its jobs and recurring
// definitions.
func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.currentUser(w, r)
	if !ok {
		return
	}
	clientID, ok := s.pathID(w, r, "id", "client")
	if !ok {
		return
	}

	deleted, err := s.store.DeleteClient(r.Context(), userID, clientID)
	if err != nil {
		s.serviceError(w, r, apperr.Storage("delete client", err))
		return
	}
	if !deleted {
		s.serviceError(w, r, apperr.NotFound("client", clientID))
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}
