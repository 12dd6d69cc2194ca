// Package people manages the tracked celebrities, influencers, brands and
// editors whose social posts feed the trend analysis.
package people

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/logging"
	"github.com/TobiSchelling/TrendIntel/internal/scrape"
)

//go:embed seed.yaml
var seedYAML []byte

// ErrNotFound is returned when the person does not exist.
var ErrNotFound = errors.New("person not found")

// PlatformInput describes one social account of a new person.
type PlatformInput struct {
	Platform      string `json:"platform" yaml:"platform" validate:"required"`
	Handle        string `json:"handle" yaml:"handle" validate:"required"`
	ProfileURL    string `json:"profile_url" yaml:"profile_url"`
	FollowerCount int64  `json:"follower_count" yaml:"follower_count" validate:"gte=0"`
	IsVerified    bool   `json:"is_verified" yaml:"is_verified"`
}

// Input describes a person to add.
type Input struct {
	Name             string          `json:"name" yaml:"name" validate:"required"`
	Type             string          `json:"type" yaml:"type" validate:"required"`
	Tier             *string         `json:"tier" yaml:"tier"`
	Bio              *string         `json:"bio" yaml:"bio"`
	PrimaryRegion    *string         `json:"primary_region" yaml:"primary_region"`
	SecondaryRegions []string        `json:"secondary_regions" yaml:"secondary_regions"`
	Demographics     []string        `json:"demographics" yaml:"demographics"`
	StyleTags        []string        `json:"style_tags" yaml:"style_tags"`
	Categories       []string        `json:"categories" yaml:"categories"`
	ScrapeFrequency  string          `json:"scrape_frequency" yaml:"scrape_frequency"`
	Priority         int             `json:"priority" yaml:"priority" validate:"omitempty,min=1,max=10"`
	Notes            *string         `json:"notes" yaml:"notes"`
	Platforms        []PlatformInput `json:"platforms" yaml:"platforms" validate:"dive"`
}

// ImportError names a person that could not be added.
type ImportError struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// BulkResult reports a bulk import.
type BulkResult struct {
	Created int           `json:"created"`
	Skipped int           `json:"skipped"`
	Errors  []ImportError `json:"errors"`
}

// SeedResult reports a seed run.
type SeedResult struct {
	Message     string        `json:"message"`
	Created     int           `json:"created"`
	Skipped     int           `json:"skipped"`
	Errors      []ImportError `json:"errors"`
	TotalInSeed int           `json:"total_in_seed"`
}

// Service adds people and their platform accounts.
type Service struct {
	db *database.DB
}

// New creates a people service.
func New(db *database.DB) *Service {
	return &Service{db: db}
}

// Create stores a person with its platforms. Missing profile URLs are built
// from the handle.
func (s *Service) Create(in Input) (*database.Person, error) {
	p := &database.Person{
		Name:             in.Name,
		Type:             in.Type,
		Tier:             in.Tier,
		Bio:              in.Bio,
		PrimaryRegion:    in.PrimaryRegion,
		SecondaryRegions: in.SecondaryRegions,
		Demographics:     in.Demographics,
		StyleTags:        in.StyleTags,
		Categories:       in.Categories,
		ScrapeFrequency:  in.ScrapeFrequency,
		Priority:         in.Priority,
		Notes:            in.Notes,
	}
	for _, pi := range in.Platforms {
		p.Platforms = append(p.Platforms, platform(pi))
	}
	if err := s.db.CreatePerson(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddPlatform attaches an account to an existing person. Returns
// database.ErrDuplicate when the person already has that platform.
func (s *Service) AddPlatform(personID int64, in PlatformInput) (*database.PersonPlatform, error) {
	p, err := s.db.GetPerson(personID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	for _, existing := range p.Platforms {
		if existing.Platform == in.Platform {
			return nil, database.ErrDuplicate
		}
	}
	pp := platform(in)
	pp.PersonID = personID
	if err := s.db.AddPlatform(&pp); err != nil {
		return nil, err
	}
	return &pp, nil
}

// Bulk adds people, skipping names that already exist (ignoring case).
func (s *Service) Bulk(inputs []Input) *BulkResult {
	res := &BulkResult{Errors: []ImportError{}}
	for _, in := range inputs {
		exists, err := s.db.PersonNameExists(in.Name)
		if err != nil {
			res.Errors = append(res.Errors, importError(in.Name, err))
			continue
		}
		if exists {
			res.Skipped++
			continue
		}
		if _, err := s.Create(in); err != nil {
			res.Errors = append(res.Errors, importError(in.Name, err))
			continue
		}
		res.Created++
	}
	return res
}

// Seed adds the built-in list of fashion figures.
func (s *Service) Seed() (*SeedResult, error) {
	seed, err := SeedPeople()
	if err != nil {
		return nil, err
	}
	b := s.Bulk(seed)
	logging.Info().Int("created", b.Created).Int("skipped", b.Skipped).Msg("People seeded")
	return &SeedResult{
		Message:     fmt.Sprintf("Seeded %d people (%d already existed)", b.Created, b.Skipped),
		Created:     b.Created,
		Skipped:     b.Skipped,
		Errors:      b.Errors,
		TotalInSeed: len(seed),
	}, nil
}

// SeedPeople returns the embedded seed list.
func SeedPeople() ([]Input, error) {
	var doc struct {
		People []Input `yaml:"people"`
	}
	if err := yaml.Unmarshal(seedYAML, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed people: %w", err)
	}
	return doc.People, nil
}

func platform(in PlatformInput) database.PersonPlatform {
	handle := strings.TrimPrefix(in.Handle, "@")
	pp := database.PersonPlatform{
		Platform:      in.Platform,
		Handle:        handle,
		FollowerCount: in.FollowerCount,
		IsVerified:    in.IsVerified,
	}
	u := in.ProfileURL
	if u == "" {
		u = scrape.ProfileURL(in.Platform, handle)
	}
	if u != "" {
		pp.ProfileURL = &u
	}
	return pp
}

func importError(name string, err error) ImportError {
	msg := err.Error()
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return ImportError{Name: name, Error: msg}
}
