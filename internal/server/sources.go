package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/sources"
	"github.com/TobiSchelling/TrendIntel/internal/trends"
)

type bulkSourcesRequest struct {
	Sources []sources.Input `json:"sources" validate:"required,dive"`
}

type updateSourceRequest struct {
	Active             *bool     `json:"active"`
	Name               *string   `json:"name"`
	TargetDemographics *[]string `json:"target_demographics"`
	Frequency          *string   `json:"frequency" validate:"omitempty,oneof=manual hourly daily weekly"`
}

func (s *Server) sourceRoutes(r chi.Router) {
	r.Post("/", s.handleAddSource)
	r.Get("/", s.handleListSources)
	r.Post("/bulk", s.handleBulkSources)
	r.Post("/import", s.handleImportSources)
	r.Post("/discover-social", s.handleDiscoverSocial)
	r.Post("/suggestions", s.handleSuggestSources)
	r.Get("/{id}", s.handleGetSource)
	r.Put("/{id}", s.handleUpdateSource)
	r.Delete("/{id}", s.handleDeleteSource)
	r.Post("/{id}/analyze", s.handleAnalyzeFromSource)
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req sources.Input
	if !decode(w, r, &req) {
		return
	}
	t, err := s.sources.Add(req)
	switch {
	case errors.Is(err, database.ErrDuplicate):
		badRequest(w, "Source already exists")
	case errors.Is(err, sources.ErrInvalidURL):
		badRequest(w, err.Error())
	case err != nil:
		internalError(w, r, err, "")
	default:
		writeJSON(w, http.StatusOK, sources.View(*t))
	}
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := database.TargetFilter{
		Type:        database.TargetSource,
		Platform:    q.str("platform"),
		Demographic: q.str("demographic"),
		Active:      q.boolPtr("active"),
		Limit:       q.intRange("limit", 50, 1, 100),
		Offset:      q.intRange("offset", 0, 0, 1<<30),
	}
	if !q.ok(w) {
		return
	}
	targets, err := s.db.ListTargets(f)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sources.Views(targets))
}

func (s *Server) handleBulkSources(w http.ResponseWriter, r *http.Request) {
	var req bulkSourcesRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.sources.Bulk(req.Sources))
}

// handleImportSources accepts a CSV body with name, url and platform columns.
func (s *Server) handleImportSources(w http.ResponseWriter, r *http.Request) {
	inputs, err := sources.ReadCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, "Invalid CSV: "+err.Error())
		return
	}
	var bad []sources.Failure
	valid := inputs[:0]
	for _, in := range inputs {
		if err := validate.Struct(in); err != nil {
			bad = append(bad, sources.Failure{Name: in.Name, URL: in.URL, Reason: validationDetail(err)})
			continue
		}
		valid = append(valid, in)
	}
	res := s.sources.Bulk(valid)
	res.Failed = append(res.Failed, bad...)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDiscoverSocial(w http.ResponseWriter, r *http.Request) {
	d, err := s.sources.DiscoverSocial(r.Context())
	if errors.Is(err, sources.ErrNoEcommerce) {
		badRequest(w, err.Error())
		return
	}
	if err != nil {
		internalError(w, r, err, "AI discovery failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSuggestSources(w http.ResponseWriter, r *http.Request) {
	out, err := s.sources.Suggest(r.Context())
	if err != nil {
		internalError(w, r, err, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// source loads {id} or writes a 404 reply.
func (s *Server) source(w http.ResponseWriter, r *http.Request) (*database.MonitoringTarget, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	t, err := s.sources.Get(id)
	if errors.Is(err, sources.ErrNotFound) {
		notFound(w, "Source not found")
		return nil, false
	}
	if err != nil {
		internalError(w, r, err, "")
		return nil, false
	}
	return t, true
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	if t, ok := s.source(w, r); ok {
		writeJSON(w, http.StatusOK, sources.View(*t))
	}
}

func (s *Server) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	t, ok := s.source(w, r)
	if !ok {
		return
	}
	var req updateSourceRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.db.UpdateSource(t.ID, database.SourceUpdate{
		Name:               req.Name,
		Active:             req.Active,
		TargetDemographics: req.TargetDemographics,
		Frequency:          req.Frequency,
	})
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	if t, err = s.db.GetSource(t.ID); err != nil || t == nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sources.View(*t))
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	t, ok := s.source(w, r)
	if !ok {
		return
	}
	if _, err := s.db.DeleteTarget(t.ID); err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, message{Message: fmt.Sprintf("Source '%s' deleted", sources.View(*t).Name)})
}

func (s *Server) handleAnalyzeFromSource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	url := newQuery(r).str("url")
	if url == "" {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, "url query parameter is required")
		return
	}
	t, err := s.trends.AnalyzeFromSource(r.Context(), id, url)
	switch {
	case errors.Is(err, trends.ErrNotFound):
		notFound(w, "Source not found")
	case errors.Is(err, database.ErrDuplicate):
		badRequest(w, "URL already analyzed")
	case err != nil:
		internalError(w, r, err, err.Error())
	default:
		writeJSON(w, http.StatusOK, viewTrend(t))
	}
}
