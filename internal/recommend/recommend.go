// Package recommend generates source recommendations and records feedback.
package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
)

// AddedBy is recorded on sources created by accepting a recommendation.
const AddedBy = "AI Recommendation"

// ErrNotFound is returned when the recommendation or trend does not exist.
var ErrNotFound = errors.New("not found")

// GenerateResult reports a generation run.
type GenerateResult struct {
	Created          int `json:"created"`
	TotalSuggestions int `json:"total_suggestions"`
}

// Summary aggregates feedback.
type Summary struct {
	TotalThumbsUp      int      `json:"total_thumbs_up"`
	TotalThumbsDown    int      `json:"total_thumbs_down"`
	LikedCategories    []string `json:"liked_categories"`
	DislikedCategories []string `json:"disliked_categories"`
	LikedSources       []string `json:"liked_sources"`
}

// Service generates recommendations from sources and feedback history.
type Service struct {
	db *database.DB
	ai *analysis.Service
}

// New creates a recommendation service.
func New(db *database.DB, ai *analysis.Service) *Service {
	return &Service{db: db, ai: ai}
}

// List returns recommendations with status (pending when empty).
func (s *Service) List(status string, limit int) ([]database.Recommendation, error) {
	recs, err := s.db.ListRecommendations(status, limit)
	if recs == nil && err == nil {
		recs = []database.Recommendation{}
	}
	return recs, err
}

// Generate asks the AI for new recommendations informed by active sources,
// the last 50 feedback entries and earlier rejections. Suggestions whose URL
// was already recommended are skipped.
func (s *Service) Generate(ctx context.Context) (*GenerateResult, error) {
	sources, err := s.db.ActiveSources()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		if src.SourceName != nil && *src.SourceName != "" {
			names = append(names, *src.SourceName)
		} else {
			names = append(names, src.Value)
		}
	}

	recent, err := s.db.RecentFeedback(50)
	if err != nil {
		return nil, err
	}
	var liked, disliked []string
	for _, fb := range recent {
		label := fmt.Sprintf("%s:%d", fb.EntityType, fb.EntityID)
		switch fb.FeedbackType {
		case database.ThumbsUp:
			liked = append(liked, label)
		case database.ThumbsDown:
			disliked = append(disliked, label)
		}
	}

	rejected, err := s.db.RejectedRecommendationURLs(50)
	if err != nil {
		return nil, err
	}

	suggestions, err := s.ai.GenerateRecommendations(ctx, names, head(liked, 20), head(disliked, 20), rejected)
	if err != nil {
		return nil, fmt.Errorf("Recommendation generation failed: %w", err)
	}

	res := &GenerateResult{TotalSuggestions: len(suggestions)}
	for _, sg := range suggestions {
		if sg.URL == "" {
			continue
		}
		exists, err := s.db.RecommendationURLExists(sg.URL)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		rec := &database.Recommendation{
			Type:            orDefault(sg.Type, "source"),
			Title:           sg.Title,
			Description:     &sg.Description,
			URL:             sg.URL,
			Platform:        ptr(orDefault(sg.Platform, "ecommerce")),
			Reason:          &sg.Reason,
			ConfidenceScore: sg.ConfidenceScore,
			Status:          database.RecPending,
		}
		if err := s.db.CreateRecommendation(rec); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				continue
			}
			return nil, err
		}
		res.Created++
	}
	logging.Info().Int("created", res.Created).Int("suggestions", res.TotalSuggestions).Msg("Recommendations generated")
	return res, nil
}

// Respond records a response to a recommendation. Accepting adds the
// recommended URL as an active source unless it is already watched. The
// response is also stored as feedback on the recommendation.
func (s *Service) Respond(id int64, status string) (*database.Recommendation, error) {
	rec, err := s.db.GetRecommendation(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}

	if err := s.db.SetRecommendationStatus(id, status); err != nil {
		return nil, err
	}
	rec.Status = status

	feedback := database.ThumbsDown
	if status == database.RecAccepted {
		feedback = database.ThumbsUp
		if err := s.adoptSource(rec); err != nil {
			return nil, err
		}
	}
	if err := s.db.UpsertFeedback(database.EntityRecommendation, id, feedback, nil); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) adoptSource(rec *database.Recommendation) error {
	exists, err := s.db.SourceURLExists(rec.URL)
	if err != nil || exists {
		return err
	}
	platform := "ecommerce"
	if rec.Platform != nil && *rec.Platform != "" {
		platform = *rec.Platform
	}
	url, title := rec.URL, rec.Title
	return s.db.CreateTarget(&database.MonitoringTarget{
		Type:               database.TargetSource,
		Value:              title,
		Platform:           platform,
		Active:             true,
		AddedBy:            AddedBy,
		SourceURL:          &url,
		SourceName:         &title,
		TargetDemographics: []string{},
		Frequency:          "manual",
	})
}

// TrendFeedback records thumbs up or down on a trend, replacing earlier
// feedback on it.
func (s *Service) TrendFeedback(trendID int64, feedbackType string, context *string) error {
	t, err := s.db.GetTrend(trendID)
	if err != nil {
		return err
	}
	if t == nil {
		return ErrNotFound
	}
	return s.db.UpsertFeedback(database.EntityTrend, trendID, feedbackType, context)
}

// Summary aggregates all recorded feedback.
func (s *Service) Summary() (*Summary, error) {
	var (
		sum Summary
		err error
	)
	if sum.TotalThumbsUp, err = s.db.CountFeedback(database.ThumbsUp); err != nil {
		return nil, err
	}
	if sum.TotalThumbsDown, err = s.db.CountFeedback(database.ThumbsDown); err != nil {
		return nil, err
	}
	if sum.LikedCategories, err = s.db.FeedbackTrendCategories(database.ThumbsUp); err != nil {
		return nil, err
	}
	if sum.DislikedCategories, err = s.db.FeedbackTrendCategories(database.ThumbsDown); err != nil {
		return nil, err
	}
	if sum.LikedSources, err = s.db.AcceptedRecommendationTitles(); err != nil {
		return nil, err
	}
	return &sum, nil
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func ptr[T any](v T) *T { return &v }
