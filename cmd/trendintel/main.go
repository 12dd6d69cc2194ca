package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/TrendIntel/internal/analysis"
	"github.com/TobiSchelling/TrendIntel/internal/collect"
	"github.com/TobiSchelling/TrendIntel/internal/config"
	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/fetch"
	"github.com/TobiSchelling/TrendIntel/internal/insights"
	"github.com/TobiSchelling/TrendIntel/internal/llm"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/people"
	"github.com/TobiSchelling/TrendIntel/internal/pipeline"
	"github.com/TobiSchelling/TrendIntel/internal/scrape"
	"github.com/TobiSchelling/TrendIntel/internal/server"
	"github.com/TobiSchelling/TrendIntel/internal/sources"
	"github.com/TobiSchelling/TrendIntel/internal/supervisor"
	"github.com/TobiSchelling/TrendIntel/internal/trends"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "trendintel",
	Short:   "Fashion trend intelligence backend",
	Long:    "trendintel tracks fashion trends from shops, feeds and social accounts, scores them and serves the dashboard API.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "version" {
			logging.Init(logging.Config{Level: "info", Format: "console", Timestamp: true})
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			// The embedded defaults are enough to run locally.
			if configPath != "" {
				return err
			}
			cfg = config.Default()
		} else if cfg, err = config.Load(path); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format, Caller: verbose, Timestamp: true})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(rescoreCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(seedPeopleCmd)
	rootCmd.AddCommand(seedTrendsCmd)
	rootCmd.AddCommand(sourcesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("trendintel", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/trendintel/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}
		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure the database, AI provider and scrape schedule.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		counts, err := db.TableCounts()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}
		v, err := db.SchemaVersion()
		if err != nil {
			return err
		}

		fmt.Printf("Database: %s (schema v%d)\n\n", db.Dialect(), v)
		names := make([]string, 0, len(counts))
		for n := range counts {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Printf("  %-24s %d\n", n, counts[n])
		}

		fmt.Println("\nServices:")
		fmt.Printf("  AI mode:  %s\n", aiMode())
		apify := "not configured"
		if cfg.ApifyToken() != "" {
			apify = "configured"
		}
		fmt.Printf("  Apify:    %s\n", apify)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		v, err := db.SchemaVersion()
		if err != nil {
			return err
		}
		fmt.Printf("Schema is at version %d\n", v)
		return nil
	},
}

// --- serve command ---

var (
	servePort   int
	noScheduler bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and the scrape scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		ai := newAI()
		scraper := newScraper(db)
		job := insights.New(db, ai)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
		tree.AddAPIService(server.NewService(server.New(cfg, db, ai, scraper, job)))
		if !noScheduler {
			pipe := pipeline.New(cfg, db, ai, scraper, job)
			tree.AddJobService(supervisor.NewScheduler(cfg.Schedule, pipe))
			logging.Info().Int("jobs", len(cfg.Schedule)).Msg("Scheduler enabled")
		}

		fmt.Printf("Starting %s at http://localhost:%d\n", cfg.App.Name, cfg.Server.Port)
		fmt.Println("Press Ctrl+C to stop")
		err = tree.Serve(ctx)
		job.Wait()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Do not run scheduled scrape jobs")
}

// --- run command ---

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full refresh: collect -> scrape -> rescore -> insights",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		pipe := pipeline.New(cfg, db, newAI(), newScraper(db), nil)
		var result *pipeline.Result
		if dryRun {
			result = pipe.DryRun()
		} else {
			result = pipe.Run(ctx)
		}

		for i, step := range result.Steps {
			fmt.Printf("\nStep %d/%d: %s\n", i+1, len(result.Steps), step.Name)
			if step.Err != nil {
				fmt.Printf("  Error: %v\n", step.Err)
			} else {
				fmt.Printf("  %s\n", step.Summary)
			}
		}
		if result.Failed() {
			return errors.New("pipeline finished with errors")
		}
		if !dryRun {
			fmt.Println("\nPipeline complete! Run 'trendintel serve' to open the API.")
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
}

// --- collect command ---

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect trends from watched RSS and blog sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		fmt.Println("Collecting entries from feed sources...")
		collector := collect.New(db, trends.New(db, newAI()), cfg.Collect)
		result, err := collector.Collect(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("\nCollection complete:")
		fmt.Printf("  Feeds checked: %d\n", result.SourcesChecked)
		fmt.Printf("  Entries found: %d\n", result.EntriesFound)
		fmt.Printf("  New trends: %d\n", result.NewTrends)
		fmt.Printf("  Duplicates skipped: %d\n", result.Duplicates)
		fmt.Printf("  Errors: %d\n", result.Errors)

		if len(result.Sources) > 0 {
			fmt.Println("\nTrends by source:")
			type kv struct {
				key string
				val int
			}
			var sorted []kv
			for k, v := range result.Sources {
				sorted = append(sorted, kv{k, v})
			}
			sort.Slice(sorted, func(i, j int) bool { return sorted[i].val > sorted[j].val })
			for _, s := range sorted {
				fmt.Printf("  %s: %d\n", s.key, s.val)
			}
		}
		return nil
	},
}

// --- scrape command ---

var (
	scrapePerson      int64
	scrapeType        string
	scrapeRegion      string
	scrapePriorityMax int
	scrapeLimit       int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape social posts of tracked people through Apify",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cfg.ApifyToken() == "" {
			return fmt.Errorf("%s is not set", cfg.Scraping.ApifyTokenEnv)
		}
		scraper := newScraper(db)

		if scrapePerson != 0 {
			p, err := db.GetPerson(scrapePerson)
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("person %d not found", scrapePerson)
			}
			res, err := scraper.ScrapePerson(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d new posts\n", p.Name, res.NewPosts)
			for _, line := range res.Debug {
				fmt.Printf("  %s\n", line)
			}
			return nil
		}

		res, err := scraper.ScrapeBatch(cmd.Context(), database.ScrapeFilter{
			PriorityMax: scrapePriorityMax,
			Type:        scrapeType,
			Region:      scrapeRegion,
			Limit:       scrapeLimit,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Scraped %d people, %d new posts\n", res.TotalPeople, res.TotalNewPosts)
		for _, e := range res.Errors {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
		return nil
	},
}

func init() {
	scrapeCmd.Flags().Int64Var(&scrapePerson, "person", 0, "Scrape a single person by ID")
	scrapeCmd.Flags().StringVar(&scrapeType, "type", "", "Only people of this type (celebrity, influencer, ...)")
	scrapeCmd.Flags().StringVar(&scrapeRegion, "region", "", "Only people from this primary region")
	scrapeCmd.Flags().IntVar(&scrapePriorityMax, "priority-max", 5, "Highest priority number to include (1 = most important)")
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 20, "Maximum number of people")
}

// --- rescore command ---

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute scores for all active trends",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := trends.New(db, newAI()).Rescore(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Rescored %d trends (%d errors)\n", res.Rescored, res.Errors)
		return nil
	},
}

// --- insights command ---

var (
	reportPath  string
	demographic string
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Generate category insights and themed looks",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := insights.New(db, newAI()).Run(cmd.Context()); err != nil {
			return err
		}
		o, err := insights.Latest(db, demographic)
		if err != nil {
			return err
		}
		fmt.Printf("Generated %d category insights and %d themed looks\n", len(o.CategoryInsights), len(o.ThemedLooks))

		if reportPath == "" {
			return nil
		}
		var out string
		if strings.HasSuffix(strings.ToLower(reportPath), ".html") {
			if out, err = o.HTML(); err != nil {
				return err
			}
		} else {
			out = o.Markdown()
		}
		if err := os.WriteFile(reportPath, []byte(out), 0o644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("Report written to %s\n", reportPath)
		return nil
	},
}

func init() {
	insightsCmd.Flags().StringVar(&reportPath, "report", "", "Write a markdown (or .html) report to this file")
	insightsCmd.Flags().StringVar(&demographic, "demographic", "", "Only include themed looks for this demographic")
}

// --- seed commands ---

var seedPeopleCmd = &cobra.Command{
	Use:   "seed-people",
	Short: "Add the built-in list of tracked people",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := people.New(db).Seed()
		if err != nil {
			return err
		}
		fmt.Println(res.Message)
		for _, e := range res.Errors {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
		return nil
	},
}

var seedTrendsCmd = &cobra.Command{
	Use:   "seed-trends",
	Short: "Generate starter trends from active ecommerce sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		res, err := trends.New(db, newAI()).SeedFromSources(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Created %d trends from %d sources (%d skipped, %d errors)\n",
			res.Created, res.SourcesProcessed, res.Skipped, res.Errors)
		return nil
	},
}

// --- sources command ---

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage watched sources",
}

var sourcesImportCmd = &cobra.Command{
	Use:   "import [file.csv]",
	Short: "Import sources from a CSV file with name, url and platform columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		inputs, err := sources.ReadCSV(f)
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		res := sources.New(db, newAI()).Bulk(inputs)
		fmt.Printf("Imported %d sources\n", res.Succeeded)
		for _, fail := range res.Failed {
			fmt.Printf("  %s (%s): %s\n", fail.Name, fail.URL, fail.Reason)
		}
		return nil
	},
}

func init() {
	sourcesCmd.AddCommand(sourcesImportCmd)
}

func openDB() (*database.DB, error) {
	url := cfg.DatabaseURL()
	if strings.HasPrefix(url, "sqlite://") {
		if err := os.MkdirAll(filepath.Dir(strings.TrimPrefix(url, "sqlite://")), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	return database.Open(url, database.WithMaxConns(cfg.Database.MaxConns))
}

// newAI builds the analysis service. Real providers sit behind a circuit
// breaker and get readable page context.
func newAI() *analysis.Service {
	if cfg.AI.UseMock {
		return analysis.New(cfg.AI, nil)
	}
	var provider llm.Provider
	if p := llm.CreateProvider(cfg.AI, cfg.APIKey(), cfg.OpenAIKey()); p != nil {
		provider = llm.NewBreakerProvider(p, cfg.AI.BreakerFailures, time.Minute)
	}
	return analysis.New(cfg.AI, provider, analysis.WithPages(fetch.New(15*time.Second)))
}

func aiMode() string {
	if cfg.AI.UseMock {
		return "mock"
	}
	return cfg.AI.Provider
}

func newScraper(db *database.DB) *scrape.Scraper {
	apify := scrape.NewApifyClient(cfg.ApifyToken(), cfg.Scraping.RequestsPerSecond)
	return scrape.New(db, apify, cfg.Scraping.MaxPostsPerPlatform)
}
