package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/recommend"
)

type respondRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected dismissed"`
}

type respondReply struct {
	Status           string `json:"status"`
	RecommendationID int64  `json:"recommendation_id"`
}

type trendFeedbackRequest struct {
	FeedbackType string  `json:"feedback_type" validate:"required,oneof=thumbs_up thumbs_down"`
	Context      *string `json:"context"`
}

type trendFeedbackReply struct {
	Status   string `json:"status"`
	TrendID  int64  `json:"trend_id"`
	Feedback string `json:"feedback"`
}

func (s *Server) recommendationRoutes(r chi.Router) {
	r.Get("/", s.handleListRecommendations)
	r.Post("/generate", s.handleGenerateRecommendations)
	r.Get("/feedback/summary", s.handleFeedbackSummary)
	r.Post("/trends/{id}/feedback", s.handleTrendFeedback)
	r.Post("/{id}/feedback", s.handleRespond)
}

func (s *Server) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	status := q.oneOf("status", database.RecPending,
		database.RecPending, database.RecAccepted, database.RecRejected, database.RecDismissed)
	limit := q.intRange("limit", 10, 1, 50)
	if !q.ok(w) {
		return
	}
	recs, err := s.recs.List(status, limit)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleGenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	res, err := s.recs.Generate(r.Context())
	if err != nil {
		internalError(w, r, err, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req respondRequest
	if !decode(w, r, &req) {
		return
	}
	_, err := s.recs.Respond(id, req.Status)
	if errors.Is(err, recommend.ErrNotFound) {
		notFound(w, "Recommendation not found")
		return
	}
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, respondReply{Status: req.Status, RecommendationID: id})
}

func (s *Server) handleTrendFeedback(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req trendFeedbackRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.recs.TrendFeedback(id, req.FeedbackType, req.Context)
	if errors.Is(err, recommend.ErrNotFound) {
		notFound(w, "Trend not found")
		return
	}
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, trendFeedbackReply{Status: "recorded", TrendID: id, Feedback: req.FeedbackType})
}

func (s *Server) handleFeedbackSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.recs.Summary()
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
