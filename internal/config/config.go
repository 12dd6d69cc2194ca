package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	App      App           `yaml:"app"`
	Database Database      `yaml:"database"`
	Server   Server        `yaml:"server"`
	AI       AI            `yaml:"ai"`
	Scraping Scraping      `yaml:"scraping"`
	Collect  Collect       `yaml:"collect"`
	Schedule []ScheduleJob `yaml:"schedule"`
	Output   Output        `yaml:"output"`
	Logging  Logging       `yaml:"logging"`
}

type App struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type Database struct {
	URL      string `yaml:"url"`
	URLEnv   string `yaml:"url_env"`
	MaxConns int32  `yaml:"max_conns"`
}

type Server struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
	RateLimit   int      `yaml:"rate_limit"`
}

type AI struct {
	UseMock         bool   `yaml:"use_mock"`
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	APIKeyEnv       string `yaml:"api_key_env"`
	MaxTokens       int    `yaml:"max_tokens"`
	OllamaURL       string `yaml:"ollama_url"`
	OpenAIModel     string `yaml:"openai_model"`
	OpenAIKeyEnv    string `yaml:"openai_key_env"`
	BreakerFailures uint32 `yaml:"breaker_failures"`
	Concurrency     int    `yaml:"concurrency"`
}

type Scraping struct {
	ApifyTokenEnv       string  `yaml:"apify_token_env"`
	MaxPostsPerPlatform int     `yaml:"max_posts_per_platform"`
	RequestsPerSecond   float64 `yaml:"requests_per_second"`
}

type Collect struct {
	DaysBack   int `yaml:"days_back"`
	MaxPerFeed int `yaml:"max_per_feed"`
}

// ScheduleJob is a recurring background job. An empty Weekdays list means
// every day; otherwise 0 (Sunday) through 6.
type ScheduleJob struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	Hour        int    `yaml:"hour"`
	Minute      int    `yaml:"minute"`
	Weekdays    []int  `yaml:"weekdays"`
	PriorityMax int    `yaml:"priority_max"`
	PersonType  string `yaml:"person_type"`
	Limit       int    `yaml:"limit"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ConfigDir returns the XDG config directory for trendintel.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "trendintel")
}

// DataDir returns the XDG data directory for trendintel.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "trendintel")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/trendintel/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'trendintel init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file, then applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// Default returns the embedded default configuration with environment overrides.
// Used when no config file exists, e.g. in container deployments.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	applyEnv(cfg)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		App: App{
			Name:    "Trend Intelligence Dashboard",
			Version: "1.0.0",
		},
		Database: Database{
			URLEnv:   "DATABASE_URL",
			MaxConns: 10,
		},
		Server: Server{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			RateLimit:   300,
		},
		AI: AI{
			UseMock:         true,
			Provider:        "claude",
			Model:           "claude-3-5-sonnet-20241022",
			APIKeyEnv:       "CLAUDE_API_KEY",
			MaxTokens:       1024,
			OllamaURL:       "http://localhost:11434",
			OpenAIModel:     "gpt-4o-mini",
			OpenAIKeyEnv:    "OPENAI_API_KEY",
			BreakerFailures: 3,
			Concurrency:     4,
		},
		Scraping: Scraping{
			ApifyTokenEnv:       "APIFY_TOKEN",
			MaxPostsPerPlatform: 10,
			RequestsPerSecond:   1,
		},
		Collect: Collect{
			DaysBack:   3,
			MaxPerFeed: 20,
		},
		Logging: Logging{Level: "info", Format: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Schedule == nil {
		cfg.Schedule = DefaultSchedule()
	}
	for i := range cfg.Schedule {
		if err := cfg.Schedule[i].validate(); err != nil {
			return nil, fmt.Errorf("schedule entry %d: %w", i, err)
		}
	}

	return cfg, nil
}

// DefaultSchedule mirrors the nightly, morning, midday and weekly scrape cadence.
func DefaultSchedule() []ScheduleJob {
	return []ScheduleJob{
		{Name: "nightly-scrape-priority", Kind: "scrape_priority", Hour: 2, PriorityMax: 3, Limit: 50},
		{Name: "morning-scrape-celebrities", Kind: "scrape_type", Hour: 7, PersonType: "celebrity", Limit: 30},
		{Name: "midday-scrape-influencers", Kind: "scrape_type", Hour: 12, PersonType: "influencer", Limit: 30},
		{Name: "weekly-full-scrape", Kind: "scrape_priority", Hour: 1, Weekdays: []int{0}, PriorityMax: 10, Limit: 200},
	}
}

func (j ScheduleJob) validate() error {
	switch j.Kind {
	case "scrape_priority", "scrape_type", "collect", "rescore", "insights":
	default:
		return fmt.Errorf("unknown job kind %q", j.Kind)
	}
	if j.Hour < 0 || j.Hour > 23 {
		return fmt.Errorf("hour %d out of range", j.Hour)
	}
	if j.Minute < 0 || j.Minute > 59 {
		return fmt.Errorf("minute %d out of range", j.Minute)
	}
	for _, d := range j.Weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("weekday %d out of range", d)
		}
	}
	if j.Kind == "scrape_type" && j.PersonType == "" {
		return fmt.Errorf("scrape_type job %q needs person_type", j.Name)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = ParseOrigins(v)
	}
	if v := os.Getenv("USE_MOCK_AI"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AI.UseMock = b
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
}

// ParseOrigins splits a comma-separated origin list. "*" allows any origin.
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// DatabaseURL returns the effective database URL. The environment variable
// named by url_env wins over the file value. An empty result means the local
// SQLite fallback in the data directory.
func (c *Config) DatabaseURL() string {
	u := c.Database.URL
	if c.Database.URLEnv != "" {
		if v := os.Getenv(c.Database.URLEnv); v != "" {
			u = v
		}
	}
	if strings.HasPrefix(u, "postgres://") {
		u = "postgresql://" + strings.TrimPrefix(u, "postgres://")
	}
	if u == "" {
		u = "sqlite://" + filepath.Join(c.GetDataDir(), "trendintel.db")
	}
	return u
}

// APIKey returns the LLM API key from the configured environment variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.AI.APIKeyEnv)
}

// OpenAIKey returns the OpenAI key used when the primary provider is unavailable.
func (c *Config) OpenAIKey() string {
	return os.Getenv(c.AI.OpenAIKeyEnv)
}

// ApifyToken returns the Apify token from the configured environment variable.
func (c *Config) ApifyToken() string {
	return os.Getenv(c.Scraping.ApifyTokenEnv)
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
