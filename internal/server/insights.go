package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/TrendIntel/internal/insights"
)

type generateReply struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func (s *Server) insightRoutes(r chi.Router) {
	r.Post("/generate", s.handleGenerateInsights)
	r.Get("/status", s.handleInsightStatus)
	r.Get("/report", s.handleInsightReport)
	r.Get("/", s.handleListInsights)
}

// handleGenerateInsights starts a background generation unless one is
// already running. Either way the reply reports the running state.
func (s *Server) handleGenerateInsights(w http.ResponseWriter, r *http.Request) {
	msg := "Insights generation started"
	if !s.insights.Start(r.Context()) {
		msg = "Generation already in progress"
	}
	writeJSON(w, http.StatusOK, generateReply{Message: msg, Status: insights.StatusRunning})
}

func (s *Server) handleInsightStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.insights.Status())
}

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	o, err := insights.Latest(s.db, newQuery(r).str("demographic"))
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleInsightReport(w http.ResponseWriter, r *http.Request) {
	o, err := insights.Latest(s.db, newQuery(r).str("demographic"))
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	page, err := o.HTML()
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}
