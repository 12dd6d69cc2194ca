package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/TobiSchelling/TrendIntel/internal/llm"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/metrics"
)

// Brand is an ecommerce source used to seed trends and discover accounts.
type Brand struct {
	ID   int64
	Name string
	URL  string
}

// SeedTrend is a generated best-seller product for a brand.
type SeedTrend struct {
	ProductURL        string   `json:"product_url"`
	SourceID          *int64   `json:"source_id"`
	Category          string   `json:"category"`
	Colors            []string `json:"colors"`
	Patterns          []string `json:"patterns"`
	StyleTags         []string `json:"style_tags"`
	Fabrications      []string `json:"fabrications"`
	PricePoint        string   `json:"price_point"`
	Demographic       string   `json:"demographic"`
	Narrative         string   `json:"narrative"`
	EstimatedLikes    int64    `json:"estimated_likes"`
	EstimatedComments int64    `json:"estimated_comments"`
	EstimatedShares   int64    `json:"estimated_shares"`
	EstimatedViews    int64    `json:"estimated_views"`
}

// SocialAccount is a social profile belonging to a brand or influencer.
type SocialAccount struct {
	Platform           string `json:"platform"`
	Handle             string `json:"handle"`
	URL                string `json:"url"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	Description        string `json:"description"`
	EstimatedFollowers string `json:"estimated_followers"`
}

// BrandDiscovery groups the accounts found for one brand.
type BrandDiscovery struct {
	Brand              string          `json:"brand"`
	Accounts           []SocialAccount `json:"accounts"`
	RelatedInfluencers []SocialAccount `json:"related_influencers"`
	Hashtags           []string        `json:"hashtags"`
}

// ExistingSource describes a source already being watched.
type ExistingSource struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Platform string `json:"platform"`
}

// SourceSuggestion is a proposed new source.
type SourceSuggestion struct {
	Name               string   `json:"name"`
	URL                string   `json:"url"`
	Platform           string   `json:"platform"`
	Reason             string   `json:"reason"`
	TargetDemographics []string `json:"target_demographics"`
}

// Suggestion is a generated recommendation.
type Suggestion struct {
	Type            string  `json:"type"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	URL             string  `json:"url"`
	Platform        string  `json:"platform"`
	Reason          string  `json:"reason"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// CategoryData is the aggregate of active trends in one category.
type CategoryData struct {
	Category        string   `json:"category"`
	Count           int      `json:"count"`
	AvgScore        float64  `json:"avg_score"`
	TopColors       []string `json:"top_colors"`
	TopPatterns     []string `json:"top_patterns"`
	TopStyles       []string `json:"top_styles"`
	TopFabrications []string `json:"top_fabrications"`
	Demographics    []string `json:"demographics"`
	PricePoints     []string `json:"price_points"`
}

// CategoryInsight is the generated summary for a category.
type CategoryInsight struct {
	Category           string         `json:"category"`
	Summary            string         `json:"summary"`
	KeyCharacteristics map[string]any `json:"key_characteristics"`
}

// ThemedLookIdea is a generated outfit theme.
type ThemedLookIdea struct {
	ThemeName         string   `json:"theme_name"`
	Description       string   `json:"description"`
	ColorPalette      []string `json:"color_palette"`
	KeyItems          []string `json:"key_items"`
	StyleTags         []string `json:"style_tags"`
	MoodDescription   string   `json:"mood_description"`
	DemographicAppeal []string `json:"demographic_appeal"`
}

// generate runs a live prompt for task. Callers handle mock mode first.
func (s *Service) generate(ctx context.Context, task, prompt string, maxTokens int) (string, error) {
	text, err := s.provider.Generate(ctx, prompt, maxTokens)
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(task).Inc()
		logging.Warn().Err(err).Str("task", task).Msg("AI generation failed")
		return "", fmt.Errorf("%s: %w", task, err)
	}
	return text, nil
}

func parseFailure(task string) error {
	metrics.GenerationFailures.WithLabelValues(task).Inc()
	return fmt.Errorf("%s: AI response was not valid JSON", task)
}

func brandLines(brands []Brand) string {
	var b strings.Builder
	for _, br := range brands {
		fmt.Fprintf(&b, "- %s (id %d): %s\n", br.Name, br.ID, br.URL)
	}
	return b.String()
}

// GenerateSeedTrends proposes current best-selling products for each brand.
func (s *Service) GenerateSeedTrends(ctx context.Context, brands []Brand) ([]SeedTrend, error) {
	live, err := s.live()
	if err != nil {
		return nil, err
	}
	if !live {
		return s.mock.seedTrends(brands), nil
	}

	prompt := fmt.Sprintf(`You are a fashion merchandising analyst. For each of these ecommerce brands, list 3 products that are currently trending or best-selling with young shoppers.

Brands:
%s
Return a JSON array. Each element must have:
- product_url: A plausible product page URL on the brand's site
- source_id: The brand id given above
- category, colors (list), patterns (list), style_tags (list), fabrications (list)
- price_point: budget, mid, luxury or designer
- demographic: junior_girls, young_women, contemporary or kids
- narrative: One or two sentences on why it is trending
- estimated_likes, estimated_comments, estimated_shares, estimated_views: integers

Return ONLY valid JSON, no additional text.`, brandLines(brands))

	text, err := s.generate(ctx, "seed_trends", prompt, 4096)
	if err != nil {
		return nil, err
	}
	items := llm.ParseJSONArray(text)
	if items == nil {
		return nil, parseFailure("seed_trends")
	}

	out := make([]SeedTrend, 0, len(items))
	for _, m := range items {
		st := SeedTrend{
			ProductURL:        llm.String(m, "product_url"),
			Category:          llm.String(m, "category"),
			Colors:            llm.Strings(m, "colors"),
			Patterns:          llm.Strings(m, "patterns"),
			StyleTags:         llm.Strings(m, "style_tags"),
			Fabrications:      llm.Strings(m, "fabrications"),
			PricePoint:        llm.String(m, "price_point"),
			Demographic:       llm.String(m, "demographic"),
			Narrative:         llm.String(m, "narrative"),
			EstimatedLikes:    int64(llm.Int(m, "estimated_likes", 1000)),
			EstimatedComments: int64(llm.Int(m, "estimated_comments", 200)),
			EstimatedShares:   int64(llm.Int(m, "estimated_shares", 50)),
			EstimatedViews:    int64(llm.Int(m, "estimated_views", 10000)),
		}
		if id := llm.Int(m, "source_id", 0); id > 0 {
			sid := int64(id)
			st.SourceID = &sid
		}
		out = append(out, st)
	}
	return out, nil
}

// DiscoverSocialAccounts finds official accounts, related influencers and
// hashtags for each brand.
func (s *Service) DiscoverSocialAccounts(ctx context.Context, brands []Brand) ([]BrandDiscovery, error) {
	live, err := s.live()
	if err != nil {
		return nil, err
	}
	if !live {
		return s.mock.socialDiscovery(brands), nil
	}

	prompt := fmt.Sprintf(`For each fashion brand below, identify its official social media accounts, up to 3 influencers who frequently feature it, and its branded hashtags.

Brands:
%s
Return a JSON array with one element per brand:
{"brand": "...", "accounts": [{"platform": "instagram|tiktok|pinterest|youtube", "handle": "...", "url": "...", "name": "...", "type": "brand", "description": "...", "estimated_followers": "..."}], "related_influencers": [same fields], "hashtags": ["..."]}

Return ONLY valid JSON, no additional text.`, brandLines(brands))

	text, err := s.generate(ctx, "discover_social", prompt, 4096)
	if err != nil {
		return nil, err
	}
	items := llm.ParseJSONArray(text)
	if items == nil {
		return nil, parseFailure("discover_social")
	}

	out := make([]BrandDiscovery, 0, len(items))
	for _, m := range items {
		d := BrandDiscovery{
			Brand:              llm.String(m, "brand"),
			Accounts:           accounts(llm.Objects(m, "accounts"), ""),
			RelatedInfluencers: accounts(llm.Objects(m, "related_influencers"), "influencer"),
			Hashtags:           llm.Strings(m, "hashtags"),
		}
		out = append(out, d)
	}
	return out, nil
}

func accounts(objs []map[string]any, forceType string) []SocialAccount {
	out := make([]SocialAccount, 0, len(objs))
	for _, o := range objs {
		a := SocialAccount{
			Platform:           llm.String(o, "platform"),
			Handle:             strings.TrimPrefix(llm.String(o, "handle"), "@"),
			URL:                llm.String(o, "url"),
			Name:               llm.String(o, "name"),
			Type:               llm.String(o, "type"),
			Description:        llm.String(o, "description"),
			EstimatedFollowers: llm.String(o, "estimated_followers"),
		}
		if forceType != "" {
			a.Type = forceType
		}
		out = append(out, a)
	}
	return out
}

// SuggestSources proposes new sources similar to the existing ones.
func (s *Service) SuggestSources(ctx context.Context, existing []ExistingSource) ([]SourceSuggestion, error) {
	live, err := s.live()
	if err != nil {
		return nil, err
	}
	if !live {
		return s.mock.sourceSuggestions(existing), nil
	}

	var b strings.Builder
	for _, e := range existing {
		fmt.Fprintf(&b, "- %s (%s): %s\n", e.Name, e.Platform, e.URL)
	}
	prompt := fmt.Sprintf(`We track these fashion sources for junior and young women's trends:
%s
Suggest up to 8 additional ecommerce sites or fashion blogs we should watch. Do not repeat existing sources.

Return a JSON array of objects with: name, url, platform ("ecommerce" or "blog"), reason, target_demographics (list).

Return ONLY valid JSON, no additional text.`, b.String())

	text, err := s.generate(ctx, "suggest_sources", prompt, 2048)
	if err != nil {
		return nil, err
	}
	items := llm.ParseJSONArray(text)
	if items == nil {
		return nil, parseFailure("suggest_sources")
	}

	out := make([]SourceSuggestion, 0, len(items))
	for _, m := range items {
		out = append(out, SourceSuggestion{
			Name:               llm.String(m, "name"),
			URL:                llm.String(m, "url"),
			Platform:           llm.String(m, "platform"),
			Reason:             llm.String(m, "reason"),
			TargetDemographics: llm.Strings(m, "target_demographics"),
		})
	}
	return out, nil
}

// GenerateRecommendations proposes new sources informed by feedback history.
func (s *Service) GenerateRecommendations(ctx context.Context, existing, liked, disliked, rejectedURLs []string) ([]Suggestion, error) {
	live, err := s.live()
	if err != nil {
		return nil, err
	}
	if !live {
		return s.mock.recommendations(rejectedURLs), nil
	}

	prompt := fmt.Sprintf(`You recommend fashion sources (ecommerce brands, blogs and social accounts) for a trend research team.

Sources already watched: %s
Items the team liked: %s
Items the team disliked: %s
Do NOT suggest any of these previously rejected URLs: %s

Suggest up to 10 new sources. Return a JSON array of objects with: type ("source", "brand" or "account"), title, description, url, platform, reason, confidence_score (0.0-1.0).

Return ONLY valid JSON, no additional text.`,
		joinOrNone(existing), joinOrNone(liked), joinOrNone(disliked), joinOrNone(rejectedURLs))

	text, err := s.generate(ctx, "recommendations", prompt, 2048)
	if err != nil {
		return nil, err
	}
	items := llm.ParseJSONArray(text)
	if items == nil {
		return nil, parseFailure("recommendations")
	}

	out := make([]Suggestion, 0, len(items))
	for _, m := range items {
		out = append(out, Suggestion{
			Type:            llm.String(m, "type"),
			Title:           llm.String(m, "title"),
			Description:     llm.String(m, "description"),
			URL:             llm.String(m, "url"),
			Platform:        llm.String(m, "platform"),
			Reason:          llm.String(m, "reason"),
			ConfidenceScore: llm.Float(m, "confidence_score", 0.5),
		})
	}
	return out, nil
}

// GenerateCategoryInsights writes a summary and key characteristics per category.
func (s *Service) GenerateCategoryInsights(ctx context.Context, data []CategoryData) ([]CategoryInsight, error) {
	live, err := s.live()
	if err != nil {
		return nil, err
	}
	if !live {
		return s.mock.categoryInsights(data), nil
	}

	var b strings.Builder
	for _, c := range data {
		fmt.Fprintf(&b, "- %s: %d items, avg score %.1f; colors %s; patterns %s; styles %s; fabrications %s; demographics %s; price points %s\n",
			c.Category, c.Count, c.AvgScore,
			joinOrNone(c.TopColors), joinOrNone(c.TopPatterns), joinOrNone(c.TopStyles),
			joinOrNone(c.TopFabrications), joinOrNone(c.Demographics), joinOrNone(c.PricePoints))
	}
	prompt := fmt.Sprintf(`You are a fashion trend analyst. Here is aggregated data on currently trending items by category:

%s
For each category write a short trend summary (2-3 sentences) for a merchandising team and list its key characteristics.

Return a JSON array of objects with: category (exactly as given), summary, key_characteristics (object with keys such as colors, silhouettes, details, styling).

Return ONLY valid JSON, no additional text.`, b.String())

	text, err := s.generate(ctx, "category_insights", prompt, 4096)
	if err != nil {
		return nil, err
	}
	items := llm.ParseJSONArray(text)
	if items == nil {
		return nil, parseFailure("category_insights")
	}

	out := make([]CategoryInsight, 0, len(items))
	for _, m := range items {
		kc := llm.Object(m, "key_characteristics")
		if kc == nil {
			kc = map[string]any{}
		}
		out = append(out, CategoryInsight{
			Category:           llm.String(m, "category"),
			Summary:            llm.String(m, "summary"),
			KeyCharacteristics: kc,
		})
	}
	return out, nil
}

// GenerateThemedLooks creates outfit themes from an overall trend summary.
func (s *Service) GenerateThemedLooks(ctx context.Context, summary string, categories []string) ([]ThemedLookIdea, error) {
	live, err := s.live()
	if err != nil {
		return nil, err
	}
	if !live {
		return s.mock.themedLooks(categories), nil
	}

	prompt := fmt.Sprintf(`You are a fashion stylist. Based on this overview of current trends:

%s
Available categories: %s

Create 4-6 themed looks that combine these trends into cohesive outfits.

Return a JSON array of objects with: theme_name, description, color_palette (list), key_items (list), style_tags (list), mood_description, demographic_appeal (list of junior_girls, young_women, contemporary, kids).

Return ONLY valid JSON, no additional text.`, summary, joinOrNone(categories))

	text, err := s.generate(ctx, "themed_looks", prompt, 4096)
	if err != nil {
		return nil, err
	}
	items := llm.ParseJSONArray(text)
	if items == nil {
		return nil, parseFailure("themed_looks")
	}

	out := make([]ThemedLookIdea, 0, len(items))
	for _, m := range items {
		out = append(out, ThemedLookIdea{
			ThemeName:         llm.String(m, "theme_name"),
			Description:       llm.String(m, "description"),
			ColorPalette:      llm.Strings(m, "color_palette"),
			KeyItems:          llm.Strings(m, "key_items"),
			StyleTags:         llm.Strings(m, "style_tags"),
			MoodDescription:   llm.String(m, "mood_description"),
			DemographicAppeal: llm.Strings(m, "demographic_appeal"),
		})
	}
	return out, nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
