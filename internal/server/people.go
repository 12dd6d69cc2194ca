package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TobiSchelling/TrendIntel/internal/database"
	"github.com/TobiSchelling/TrendIntel/internal/people"
)

type bulkPeopleRequest struct {
	People []people.Input `json:"people" validate:"required,dive"`
}

type updatePersonRequest struct {
	Name            *string   `json:"name"`
	Type            *string   `json:"type"`
	Tier            *string   `json:"tier"`
	Bio             *string   `json:"bio"`
	PrimaryRegion   *string   `json:"primary_region"`
	Demographics    *[]string `json:"demographics"`
	StyleTags       *[]string `json:"style_tags"`
	Categories      *[]string `json:"categories"`
	Active          *bool     `json:"active"`
	ScrapeFrequency *string   `json:"scrape_frequency"`
	Priority        *int      `json:"priority" validate:"omitempty,min=1,max=10"`
	RelevanceScore  *float64  `json:"relevance_score" validate:"omitempty,min=0,max=100"`
	Notes           *string   `json:"notes"`
}

type scrapeResponse struct {
	Status   string   `json:"status"`
	NewPosts int      `json:"new_posts"`
	Person   string   `json:"person"`
	Debug    []string `json:"debug"`
}

func (s *Server) peopleRoutes(r chi.Router) {
	r.Get("/stats", s.handlePeopleStats)
	r.Post("/", s.handleAddPerson)
	r.Get("/", s.handleListPeople)
	r.Post("/bulk", s.handleBulkPeople)
	r.Post("/seed", s.handleSeedPeople)
	r.Post("/scrape-batch", s.handleScrapeBatch)
	r.Get("/{id}", s.handleGetPerson)
	r.Put("/{id}", s.handleUpdatePerson)
	r.Delete("/{id}", s.handleDeletePerson)
	r.Post("/{id}/platforms", s.handleAddPlatform)
	r.Post("/{id}/scrape", s.handleScrapePerson)
	r.Get("/{id}/posts", s.handlePersonPosts)
}

func (s *Server) handlePeopleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.db.GetPeopleStats()
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var req people.Input
	if !decode(w, r, &req) {
		return
	}
	p, err := s.people.Create(req)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, withPlatforms(p))
}

func (s *Server) handleBulkPeople(w http.ResponseWriter, r *http.Request) {
	var req bulkPeopleRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.people.Bulk(req.People))
}

func (s *Server) handleSeedPeople(w http.ResponseWriter, r *http.Request) {
	res, err := s.people.Seed()
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := database.PeopleFilter{
		Type:     q.str("type"),
		Tier:     q.str("tier"),
		Region:   q.str("region"),
		Platform: q.str("platform"),
		Active:   q.boolPtr("active"),
		Search:   q.str("search"),
		SortBy:   q.oneOf("sort_by", "relevance_score", "relevance_score", "follower_count_total", "name", "added_at"),
		Limit:    q.intRange("limit", 50, 1, 500),
		Offset:   q.intRange("offset", 0, 0, 1<<30),
	}
	if !q.ok(w) {
		return
	}
	list, err := s.db.ListPeople(f)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	out := make([]database.Person, 0, len(list))
	for i := range list {
		out = append(out, *withPlatforms(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// person loads {id} or writes a 404 reply.
func (s *Server) person(w http.ResponseWriter, r *http.Request) (*database.Person, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}
	p, err := s.db.GetPerson(id)
	if err != nil {
		internalError(w, r, err, "")
		return nil, false
	}
	if p == nil {
		notFound(w, "Person not found")
		return nil, false
	}
	return p, true
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.person(w, r); ok {
		writeJSON(w, http.StatusOK, withPlatforms(p))
	}
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	p, ok := s.person(w, r)
	if !ok {
		return
	}
	var req updatePersonRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.db.UpdatePerson(p.ID, database.PersonUpdate{
		Name:            req.Name,
		Type:            req.Type,
		Tier:            req.Tier,
		Bio:             req.Bio,
		PrimaryRegion:   req.PrimaryRegion,
		Demographics:    req.Demographics,
		StyleTags:       req.StyleTags,
		Categories:      req.Categories,
		Active:          req.Active,
		ScrapeFrequency: req.ScrapeFrequency,
		Priority:        req.Priority,
		RelevanceScore:  req.RelevanceScore,
		Notes:           req.Notes,
	})
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	if p, err = s.db.GetPerson(p.ID); err != nil || p == nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, withPlatforms(p))
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	p, ok := s.person(w, r)
	if !ok {
		return
	}
	if _, err := s.db.DeletePerson(p.ID); err != nil {
		internalError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Deleted " + p.Name})
}

func (s *Server) handleAddPlatform(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req people.PlatformInput
	if !decode(w, r, &req) {
		return
	}
	pp, err := s.people.AddPlatform(id, req)
	switch {
	case errors.Is(err, people.ErrNotFound):
		notFound(w, "Person not found")
	case errors.Is(err, database.ErrDuplicate):
		badRequest(w, fmt.Sprintf("Already has %s handle", req.Platform))
	case err != nil:
		internalError(w, r, err, "")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "added", "platform": pp.Platform, "handle": pp.Handle})
	}
}

func (s *Server) handleScrapePerson(w http.ResponseWriter, r *http.Request) {
	p, ok := s.person(w, r)
	if !ok {
		return
	}
	res, err := s.scraper.ScrapePerson(r.Context(), p)
	if err != nil {
		internalError(w, r, err, "Scraping failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, scrapeResponse{Status: "completed", NewPosts: res.NewPosts, Person: p.Name, Debug: res.Debug})
}

func (s *Server) handlePersonPosts(w http.ResponseWriter, r *http.Request) {
	p, ok := s.person(w, r)
	if !ok {
		return
	}
	q := newQuery(r)
	limit := q.intRange("limit", 20, 1, 100)
	analyzed := q.boolPtr("analyzed_only")
	if !q.ok(w) {
		return
	}
	posts, err := s.db.PostsForPerson(p.ID, limit, analyzed != nil && *analyzed)
	if err != nil {
		internalError(w, r, err, "")
		return
	}
	if posts == nil {
		posts = []database.ScrapedPost{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleScrapeBatch(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r)
	f := database.ScrapeFilter{
		Type:        q.str("type"),
		Region:      q.str("region"),
		PriorityMax: q.intRange("priority_max", 5, 1, 10),
		Limit:       q.intRange("limit", 20, 1, 100),
	}
	if !q.ok(w) {
		return
	}
	res, err := s.scraper.ScrapeBatch(r.Context(), f)
	if err != nil {
		internalError(w, r, err, "Scraping failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func withPlatforms(p *database.Person) *database.Person {
	if p.Platforms == nil {
		p.Platforms = []database.PersonPlatform{}
	}
	return p
}
