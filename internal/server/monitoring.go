package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/TrendIntel/internal/database"
)

type createTargetRequest struct {
	Type     string `json:"type" validate:"required,oneof=hashtag account keyword color style source"`
	Value    string `json:"value" validate:"required"`
	Platform string `json:"platform" validate:"required"`
	AddedBy  string `json:"added_by" validate:"required"`
}

type updateTargetRequest struct {
	Active *bool   `json:"active"`
	Value  *string `json:"value"`
}

func (s *Server) monitoringRoutes(r chi.Router) {
	r.Post("/targets", s.handleCreateTarget)
	r.Get("/targets", s.handleListTargets)
	r.Get("/targets/{id}", s.handleGetTarget)
	r.Put("/targets/{id}", s.handleUpdateTarget)
	r.Delete("/targets/{id}", s.handleDeleteTarget)
}

func (s *Server) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	var req createTargetRequest
	if !decode(w, r, &req) {
		return
	}
	t := &database.MonitoringTarget{
		Type:               req.Type,
		Value:              req.Value,
		Platform:           req.Platform,
		Active:             true,
		AddedBy:            req.AddedBy,
		TargetDemographics: []string{},
	}
	if err := s.db.CreateTarget(t); err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := database.TargetFilter{
		Type:     q.str("type"),
		Platform: q.str("platform"),
		Active:   q.boolPtr("active"),
		Limit:    q.intRange("limit", 50, 1, 100),
		Offset:   q.intRange("offset", 0, 0, 1<<30),
	}
	if !q.ok(w) {
		return
	}
	targets, err := s.db.ListTargets(f)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	if targets == nil {
		targets = []database.MonitoringTarget{}
	}
	writeJSON(w, http.StatusOK, targets)
}

// target loads {id} or writes a 404 reply.
func (s *Server) target(w http.ResponseWriter, r *http.Request) (*database.MonitoringTarget, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	t, err := s.db.GetTarget(id)
	if err != nil {
		internalError(w, r, err, "")
		return nil, false
	}
	if t == nil {
		notFound(w, "Monitoring target not found")
		return nil, false
	}
	return t, true
}

func (s *Server) handleGetTarget(w http.ResponseWriter, r *http.Request) {
	if t, ok := s.target(w, r); ok {
		writeJSON(w, http.StatusOK, t)
	}
}

func (s *Server) handleUpdateTarget(w http.ResponseWriter, r *http.Request) {
	t, ok := s.target(w, r)
	if !ok {
		return
	}
	var req updateTargetRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.db.UpdateTarget(t.ID, req.Active, req.Value); err != nil {
		internalError(w, r, err, "")
		return
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if req.Value != nil {
		t.Value = *req.Value
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTarget(w http.ResponseWriter, r *http.Request) {
	t, ok := s.target(w, r)
	if !ok {
		return
	}
	if _, err := s.db.DeleteTarget(t.ID); err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Monitoring target deleted successfully"})
}
