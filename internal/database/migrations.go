package database

// Migration represents a single schema migration step. SQL may use the
// type tokens understood by Dialect.render.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		SQL: `
CREATE TABLE IF NOT EXISTS monitoring_targets (
    id {{id}},
    type TEXT NOT NULL,
    value TEXT NOT NULL,
    platform TEXT NOT NULL,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    added_by TEXT NOT NULL,
    added_at {{ts}} NOT NULL,
    source_url TEXT,
    source_name TEXT,
    target_demographics {{json}},
    frequency TEXT NOT NULL DEFAULT 'manual',
    trend_count INTEGER NOT NULL DEFAULT 0,
    last_scraped_at {{ts}}
);

CREATE INDEX IF NOT EXISTS idx_monitoring_targets_type ON monitoring_targets(type);
CREATE INDEX IF NOT EXISTS idx_monitoring_targets_platform ON monitoring_targets(platform);
CREATE INDEX IF NOT EXISTS idx_monitoring_targets_source_url ON monitoring_targets(source_url);

CREATE TABLE IF NOT EXISTS trend_items (
    id {{id}},
    url TEXT UNIQUE NOT NULL,
    source_platform TEXT NOT NULL,
    image_url TEXT,
    submitted_by TEXT NOT NULL,
    submitted_at {{ts}} NOT NULL,
    category TEXT,
    subcategory TEXT,
    colors {{json}},
    patterns {{json}},
    style_tags {{json}},
    price_point TEXT,
    likes {{bigint}} NOT NULL DEFAULT 0,
    comments {{bigint}} NOT NULL DEFAULT 0,
    shares {{bigint}} NOT NULL DEFAULT 0,
    views {{bigint}} NOT NULL DEFAULT 0,
    engagement_rate {{float}} NOT NULL DEFAULT 0,
    trend_score {{float}} NOT NULL DEFAULT 0,
    velocity_score {{float}} NOT NULL DEFAULT 0,
    cross_platform_score {{float}} NOT NULL DEFAULT 0,
    scraped_at {{ts}},
    last_updated {{ts}} NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    ai_analysis_text TEXT,
    demographic TEXT,
    fabrications {{json}},
    source_id {{ref}} REFERENCES monitoring_targets(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_trend_items_category ON trend_items(category);
CREATE INDEX IF NOT EXISTS idx_trend_items_platform ON trend_items(source_platform);
CREATE INDEX IF NOT EXISTS idx_trend_items_score ON trend_items(trend_score);
CREATE INDEX IF NOT EXISTS idx_trend_items_submitted ON trend_items(submitted_at);

CREATE TABLE IF NOT EXISTS trend_metrics_history (
    id {{id}},
    trend_item_id {{ref}} NOT NULL REFERENCES trend_items(id) ON DELETE CASCADE,
    recorded_at {{ts}} NOT NULL,
    likes {{bigint}} NOT NULL DEFAULT 0,
    comments {{bigint}} NOT NULL DEFAULT 0,
    shares {{bigint}} NOT NULL DEFAULT 0,
    views {{bigint}} NOT NULL DEFAULT 0,
    trend_score {{float}} NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_metrics_trend ON trend_metrics_history(trend_item_id, recorded_at);

CREATE TABLE IF NOT EXISTS mood_boards (
    id {{id}},
    title TEXT NOT NULL,
    description TEXT,
    created_by TEXT NOT NULL,
    created_at {{ts}} NOT NULL,
    updated_at {{ts}} NOT NULL,
    category TEXT,
    items {{json}}
);

CREATE TABLE IF NOT EXISTS trending_hashtags (
    id {{id}},
    hashtag TEXT NOT NULL,
    platform TEXT NOT NULL,
    mention_count INTEGER NOT NULL DEFAULT 0,
    growth_rate {{float}} NOT NULL DEFAULT 0,
    first_seen {{ts}} NOT NULL,
    last_updated {{ts}} NOT NULL,
    UNIQUE (hashtag, platform)
);

CREATE TABLE IF NOT EXISTS recommendations (
    id {{id}},
    type TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    url TEXT NOT NULL,
    platform TEXT,
    reason TEXT,
    confidence_score {{float}} NOT NULL DEFAULT 0.5,
    status TEXT NOT NULL DEFAULT 'pending',
    created_at {{ts}} NOT NULL,
    responded_at {{ts}}
);

CREATE INDEX IF NOT EXISTS idx_recommendations_status ON recommendations(status);

CREATE TABLE IF NOT EXISTS user_feedback (
    id {{id}},
    entity_type TEXT NOT NULL,
    entity_id {{ref}} NOT NULL,
    feedback_type TEXT NOT NULL,
    context TEXT,
    recorded_at {{ts}} NOT NULL,
    UNIQUE (entity_type, entity_id)
);

CREATE TABLE IF NOT EXISTS trend_insights (
    id {{id}},
    category TEXT UNIQUE NOT NULL,
    summary TEXT NOT NULL,
    key_characteristics {{json}},
    trending_items_count INTEGER NOT NULL DEFAULT 0,
    avg_trend_score {{float}} NOT NULL DEFAULT 0,
    style_tags_distribution {{json}},
    generated_at {{ts}} NOT NULL
);

CREATE TABLE IF NOT EXISTS themed_looks (
    id {{id}},
    theme_name TEXT NOT NULL,
    description TEXT,
    color_palette {{json}},
    key_items {{json}},
    style_tags {{json}},
    mood_description TEXT,
    demographic_appeal {{json}},
    featured_trend_ids {{json}},
    generated_at {{ts}} NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "people, platforms and scraped posts",
		SQL: `
CREATE TABLE IF NOT EXISTS people (
    id {{id}},
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    tier TEXT,
    bio TEXT,
    primary_region TEXT,
    secondary_regions {{json}},
    demographics {{json}},
    style_tags {{json}},
    categories {{json}},
    follower_count_total {{bigint}} NOT NULL DEFAULT 0,
    avg_engagement_rate {{float}} NOT NULL DEFAULT 0,
    relevance_score {{float}} NOT NULL DEFAULT 50,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    scrape_frequency TEXT NOT NULL DEFAULT 'daily',
    priority INTEGER NOT NULL DEFAULT 5,
    added_at {{ts}} NOT NULL,
    last_scraped_at {{ts}},
    notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_people_name ON people(name);
CREATE INDEX IF NOT EXISTS idx_people_type ON people(type);
CREATE INDEX IF NOT EXISTS idx_people_priority ON people(priority);

CREATE TABLE IF NOT EXISTS people_platforms (
    id {{id}},
    person_id {{ref}} NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    platform TEXT NOT NULL,
    handle TEXT NOT NULL,
    profile_url TEXT,
    follower_count {{bigint}} NOT NULL DEFAULT 0,
    engagement_rate {{float}} NOT NULL DEFAULT 0,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    last_checked {{ts}},
    last_post_at {{ts}},
    scrape_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    apify_actor_id TEXT,
    UNIQUE (person_id, platform)
);

CREATE TABLE IF NOT EXISTS scraped_posts (
    id {{id}},
    person_id {{ref}} NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    platform TEXT NOT NULL,
    platform_post_id TEXT NOT NULL,
    post_url TEXT NOT NULL,
    image_urls {{json}},
    caption TEXT,
    hashtags {{json}},
    likes {{bigint}} NOT NULL DEFAULT 0,
    comments {{bigint}} NOT NULL DEFAULT 0,
    shares {{bigint}} NOT NULL DEFAULT 0,
    views {{bigint}} NOT NULL DEFAULT 0,
    engagement_rate {{float}} NOT NULL DEFAULT 0,
    analyzed BOOLEAN NOT NULL DEFAULT FALSE,
    category TEXT,
    colors {{json}},
    patterns {{json}},
    style_tags {{json}},
    ai_narrative TEXT,
    trend_item_id {{ref}} REFERENCES trend_items(id) ON DELETE SET NULL,
    posted_at {{ts}},
    scraped_at {{ts}} NOT NULL,
    UNIQUE (platform, platform_post_id)
);

CREATE INDEX IF NOT EXISTS idx_scraped_posts_person ON scraped_posts(person_id);
CREATE INDEX IF NOT EXISTS idx_scraped_posts_scraped ON scraped_posts(scraped_at);
`,
	},
}
