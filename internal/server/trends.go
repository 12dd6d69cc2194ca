package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/trends"
)

// trendView adds the field aliases the dashboard client reads.
type trendView struct {
	*database.TrendItem
	Platform        string    `json:"platform"`
	EngagementCount int64     `json:"engagement_count"`
	AIAnalysis      *string   `json:"ai_analysis"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func viewTrend(t *database.TrendItem) trendView {
	return trendView{
		TrendItem:       t,
		Platform:        t.SourcePlatform,
		EngagementCount: t.Likes + t.Comments + t.Shares,
		AIAnalysis:      t.AIAnalysisText,
		CreatedAt:       t.SubmittedAt,
		UpdatedAt:       t.LastUpdated,
	}
}

func viewTrends(items []database.TrendItem) []trendView {
	out := make([]trendView, 0, len(items))
	for i := range items {
		out = append(out, viewTrend(&items[i]))
	}
	return out
}

type trendList struct {
	Items  []trendView `json:"items"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type metricsView struct {
	RecordedAt time.Time `json:"recorded_at"`
	Likes      int64     `json:"likes"`
	Comments   int64     `json:"comments"`
	Shares     int64     `json:"shares"`
	Views      int64     `json:"views"`
	TrendScore float64   `json:"trend_score"`
}

type submitRequest struct {
	URL            string `json:"url" validate:"required"`
	SourcePlatform string `json:"source_platform"`
	Platform       string `json:"platform"`
	SubmittedBy    string `json:"submitted_by"`
	ImageURL       string `json:"image_url"`
	Demographic    string `json:"demographic"`
}

func (s *Server) trendRoutes(r chi.Router) {
	r.Post("/submit", s.handleSubmitTrend)
	r.Get("/daily", s.handleDailyTrends)
	r.Post("/seed", s.handleSeedTrends)
	r.Get("/metrics/{id}", s.handleTrendMetrics)
	r.Get("/{id}", s.handleGetTrend)
	r.Post("/{id}/analyze", s.handleAnalyzeTrend)
}

func (s *Server) handleSubmitTrend(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decode(w, r, &req) {
		return
	}
	t, err := s.trends.Submit(r.Context(), trends.SubmitRequest{
		URL:            req.URL,
		SourcePlatform: req.SourcePlatform,
		Platform:       req.Platform,
		ImageURL:       req.ImageURL,
		SubmittedBy:    req.SubmittedBy,
		Demographic:    req.Demographic,
	})
	if errors.Is(err, database.ErrDuplicate) {
		badRequest(w, "URL already submitted")
		return
	}
	if err != nil {
		internalError(w, r, err, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewTrend(t))
}

func (s *Server) handleDailyTrends(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := database.TrendFilter{
		Status:      database.StatusActive,
		Category:    q.str("category"),
		Platform:    q.str("source_platform"),
		Demographic: q.str("demographic"),
		SortBy:      q.str("sort_by"),
		Limit:       q.intRange("limit", 200, 1, 500),
		Offset:      q.intRange("offset", 0, 0, 1<<30),
	}
	if f.Platform == "" {
		f.Platform = q.str("platform")
	}
	if !q.ok(w) {
		return
	}

	items, total, err := s.db.ListTrends(f)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, trendList{Items: viewTrends(items), Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (s *Server) handleSeedTrends(w http.ResponseWriter, r *http.Request) {
	res, err := s.trends.SeedFromSources(r.Context())
	if errors.Is(err, trends.ErrNoSources) {
		badRequest(w, "No ecommerce sources found.")
		return
	}
	if err != nil {
		internalError(w, r, err, "Seed generation failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTrendMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q := newQuery(r)
	hours := q.intRange("hours", 24, 1, 720)
	if !q.ok(w) {
		return
	}

	points, err := s.trends.Metrics(id, hours)
	if errors.Is(err, trends.ErrNotFound) {
		notFound(w, "Trend not found")
		return
	}
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	out := make([]metricsView, 0, len(points))
	for _, p := range points {
		out = append(out, metricsView{
			RecordedAt: p.RecordedAt,
			Likes:      p.Likes,
			Comments:   p.Comments,
			Shares:     p.Shares,
			Views:      p.Views,
			TrendScore: p.TrendScore,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTrend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := s.trends.Get(id)
	if errors.Is(err, trends.ErrNotFound) {
		notFound(w, "Trend not found")
		return
	}
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, viewTrend(t))
}

func (s *Server) handleAnalyzeTrend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := s.trends.Reanalyze(r.Context(), id)
	if errors.Is(err, trends.ErrNotFound) {
		notFound(w, "Trend not found")
		return
	}
	if err != nil {
		internalError(w, r, err, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, viewTrend(t))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	days := q.intRange("days", 7, 1, 90)
	demographic := q.str("demographic")
	if !q.ok(w) {
		return
	}
	sum, err := s.trends.Dashboard(days, demographic)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
