package database

import "time"

// Trend status values.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
	StatusFlagged  = "flagged"
)

// TrendItem is a submitted piece of fashion content with its classification and scores.
type TrendItem struct {
	ID                 int64            `json:"id"`
	URL                string           `json:"url"`
	SourcePlatform     string           `json:"source_platform"`
	ImageURL           *string          `json:"image_url"`
	SubmittedBy        string           `json:"submitted_by"`
	SubmittedAt        time.Time        `json:"submitted_at"`
	Category           *string          `json:"category"`
	Subcategory        *string          `json:"subcategory"`
	Colors             JSONList[string] `json:"colors"`
	Patterns           JSONList[string] `json:"patterns"`
	StyleTags          JSONList[string] `json:"style_tags"`
	PricePoint         *string          `json:"price_point"`
	Likes              int64            `json:"likes"`
	Comments           int64            `json:"comments"`
	Shares             int64            `json:"shares"`
	Views              int64            `json:"views"`
	EngagementRate     float64          `json:"engagement_rate"`
	TrendScore         float64          `json:"trend_score"`
	VelocityScore      float64          `json:"velocity_score"`
	CrossPlatformScore float64          `json:"cross_platform_score"`
	ScrapedAt          *time.Time       `json:"scraped_at"`
	LastUpdated        time.Time        `json:"last_updated"`
	Status             string           `json:"status"`
	AIAnalysisText     *string          `json:"ai_analysis_text"`
	Demographic        *string          `json:"demographic"`
	Fabrications       JSONList[string] `json:"fabrications"`
	SourceID           *int64           `json:"source_id"`
}

// MetricsPoint is one engagement snapshot of a trend.
type MetricsPoint struct {
	ID          int64     `json:"id"`
	TrendItemID int64     `json:"trend_item_id"`
	RecordedAt  time.Time `json:"recorded_at"`
	Likes       int64     `json:"likes"`
	Comments    int64     `json:"comments"`
	Shares      int64     `json:"shares"`
	Views       int64     `json:"views"`
	TrendScore  float64   `json:"trend_score"`
}

// MoodBoard is a named collection of trend ids.
type MoodBoard struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Category    *string         `json:"category"`
	Items       JSONList[int64] `json:"items"`
}

// MonitoringTarget is a hashtag, account, keyword, color, style or content
// source to watch. Targets of type "source" are the editorial sources.
type MonitoringTarget struct {
	ID                 int64            `json:"id"`
	Type               string           `json:"type"`
	Value              string           `json:"value"`
	Platform           string           `json:"platform"`
	Active             bool             `json:"active"`
	AddedBy            string           `json:"added_by"`
	AddedAt            time.Time        `json:"added_at"`
	SourceURL          *string          `json:"source_url"`
	SourceName         *string          `json:"source_name"`
	TargetDemographics JSONList[string] `json:"target_demographics"`
	Frequency          string           `json:"frequency"`
	TrendCount         int              `json:"trend_count"`
	LastScrapedAt      *time.Time       `json:"last_scraped_at"`
}

// TrendingHashtag is an aggregated hashtag count per platform.
type TrendingHashtag struct {
	ID           int64     `json:"id"`
	Hashtag      string    `json:"hashtag"`
	Platform     string    `json:"platform"`
	MentionCount int       `json:"mention_count"`
	GrowthRate   float64   `json:"growth_rate"`
	FirstSeen    time.Time `json:"first_seen"`
	LastUpdated  time.Time `json:"last_updated"`
}

// Recommendation status values.
const (
	RecPending   = "pending"
	RecAccepted  = "accepted"
	RecRejected  = "rejected"
	RecDismissed = "dismissed"
)

// Recommendation is an AI-suggested source, brand or account.
type Recommendation struct {
	ID              int64      `json:"id"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Description     *string    `json:"description"`
	URL             string     `json:"url"`
	Platform        *string    `json:"platform"`
	Reason          *string    `json:"reason"`
	ConfidenceScore float64    `json:"confidence_score"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	RespondedAt     *time.Time `json:"responded_at"`
}

// Feedback is a user reaction to a trend or recommendation. There is at most
// one row per entity.
type Feedback struct {
	ID           int64     `json:"id"`
	EntityType   string    `json:"entity_type"`
	EntityID     int64     `json:"entity_id"`
	FeedbackType string    `json:"feedback_type"`
	Context      *string   `json:"context"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// TrendInsight is the generated summary for one category.
type TrendInsight struct {
	ID                    int64      `json:"id"`
	Category              string     `json:"category"`
	Summary               string     `json:"summary"`
	KeyCharacteristics    JSONObject `json:"key_characteristics"`
	TrendingItemsCount    int        `json:"trending_items_count"`
	AvgTrendScore         float64    `json:"avg_trend_score"`
	StyleTagsDistribution JSONObject `json:"style_tags_distribution"`
	GeneratedAt           time.Time  `json:"generated_at"`
}

// ThemedLook is a generated outfit theme built from current trends.
type ThemedLook struct {
	ID                int64            `json:"id"`
	ThemeName         string           `json:"theme_name"`
	Description       *string          `json:"description"`
	ColorPalette      JSONList[string] `json:"color_palette"`
	KeyItems          JSONList[string] `json:"key_items"`
	StyleTags         JSONList[string] `json:"style_tags"`
	MoodDescription   *string          `json:"mood_description"`
	DemographicAppeal JSONList[string] `json:"demographic_appeal"`
	FeaturedTrendIDs  JSONList[int64]  `json:"featured_trend_ids"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// Person is a tracked celebrity, influencer, designer or brand account.
type Person struct {
	ID                 int64            `json:"id"`
	Name               string           `json:"name"`
	Type               string           `json:"type"`
	Tier               *string          `json:"tier"`
	Bio                *string          `json:"bio"`
	PrimaryRegion      *string          `json:"primary_region"`
	SecondaryRegions   JSONList[string] `json:"secondary_regions"`
	Demographics       JSONList[string] `json:"demographics"`
	StyleTags          JSONList[string] `json:"style_tags"`
	Categories         JSONList[string] `json:"categories"`
	FollowerCountTotal int64            `json:"follower_count_total"`
	AvgEngagementRate  float64          `json:"avg_engagement_rate"`
	RelevanceScore     float64          `json:"relevance_score"`
	Active             bool             `json:"active"`
	ScrapeFrequency    string           `json:"scrape_frequency"`
	Priority           int              `json:"priority"`
	AddedAt            time.Time        `json:"added_at"`
	LastScrapedAt      *time.Time       `json:"last_scraped_at"`
	Notes              *string          `json:"notes"`
	Platforms          []PersonPlatform `json:"platforms"`
}

// PersonPlatform is one social account of a person.
type PersonPlatform struct {
	ID             int64      `json:"id"`
	PersonID       int64      `json:"person_id"`
	Platform       string     `json:"platform"`
	Handle         string     `json:"handle"`
	ProfileURL     *string    `json:"profile_url"`
	FollowerCount  int64      `json:"follower_count"`
	EngagementRate float64    `json:"engagement_rate"`
	IsVerified     bool       `json:"is_verified"`
	LastChecked    *time.Time `json:"last_checked"`
	LastPostAt     *time.Time `json:"last_post_at"`
	ScrapeEnabled  bool       `json:"scrape_enabled"`
	ApifyActorID   *string    `json:"apify_actor_id"`
}

// ScrapedPost is a social post collected from a person's account.
type ScrapedPost struct {
	ID             int64            `json:"id"`
	PersonID       int64            `json:"person_id"`
	Platform       string           `json:"platform"`
	PlatformPostID string           `json:"platform_post_id"`
	PostURL        string           `json:"post_url"`
	ImageURLs      JSONList[string] `json:"image_urls"`
	Caption        *string          `json:"caption"`
	Hashtags       JSONList[string] `json:"hashtags"`
	Likes          int64            `json:"likes"`
	Comments       int64            `json:"comments"`
	Shares         int64            `json:"shares"`
	Views          int64            `json:"views"`
	EngagementRate float64          `json:"engagement_rate"`
	Analyzed       bool             `json:"analyzed"`
	Category       *string          `json:"category"`
	Colors         JSONList[string] `json:"colors"`
	Patterns       JSONList[string] `json:"patterns"`
	StyleTags      JSONList[string] `json:"style_tags"`
	AINarrative    *string          `json:"ai_narrative"`
	TrendItemID    *int64           `json:"trend_item_id"`
	PostedAt       *time.Time       `json:"posted_at"`
	ScrapedAt      time.Time        `json:"scraped_at"`

	// Populated by joins in feed queries.
	PersonName string  `json:"person_name,omitempty"`
	PersonType string  `json:"person_type,omitempty"`
	PersonTier *string `json:"person_tier,omitempty"`
}
