package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/TrendIntel/internal/database"
)

func (s *Server) feedRoutes(r chi.Router) {
	r.Get("/posts", s.handleFeedPosts)
	r.Get("/stats", s.handleFeedStats)
	r.Get("/trends", s.handleFeedTrends)
}

func (s *Server) handleFeedPosts(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := database.PostFilter{
		Platform:   q.str("platform"),
		PersonID:   q.int64("person_id"),
		PersonType: q.str("person_type"),
		Days:       q.intRange("days", 30, 1, 365),
		SortBy:     q.oneOf("sort_by", "engagement", "engagement", "recent", "views"),
		Limit:      q.intRange("limit", 50, 1, 200),
		Offset:     q.intRange("offset", 0, 0, 1<<30),
	}
	if !q.ok(w) {
		return
	}
	page, err := s.feed.Posts(f)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleFeedStats(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	days := q.intRange("days", 7, 1, 365)
	if !q.ok(w) {
		return
	}
	st, err := s.feed.Stats(days)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleFeedTrends(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	days := q.intRange("days", 7, 1, 90)
	minMentions := q.intRange("min_mentions", 2, 1, 20)
	if !q.ok(w) {
		return
	}
	rep, err := s.feed.Analyze(days, minMentions)
	if err != nil {
		internalError(w, r, err, "Feed analysis failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
