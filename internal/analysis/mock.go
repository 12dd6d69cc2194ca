package analysis

import (
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
)

// mocker produces randomized but plausible data for development and for
// falling back when the AI provider fails.
type mocker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newMocker(seed uint64) *mocker {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &mocker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (m *mocker) intn(lo, hi int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return lo + m.rng.IntN(hi-lo+1)
}

func (m *mocker) choice(list []string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return list[m.rng.IntN(len(list))]
}

// sample returns n distinct elements of list in random order.
func (m *mocker) sample(list []string, n int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(list) {
		n = len(list)
	}
	out := make([]string, 0, n)
	for _, i := range m.rng.Perm(len(list))[:n] {
		out = append(out, list[i])
	}
	return out
}

func (m *mocker) analysis() *Result {
	return &Result{
		Category:           m.choice(Categories),
		Colors:             m.sample(Colors, m.intn(1, 3)),
		Patterns:           m.sample(Patterns, m.intn(1, 2)),
		StyleTags:          m.sample(StyleTags, m.intn(2, 4)),
		PricePoint:         m.choice(PricePoints),
		EngagementEstimate: m.intn(100, 50000),
		Narrative:          MockNarrative,
		Fabrications:       []string{},
		Mode:               ModeMock,
	}
}

func (m *mocker) seedTrends(brands []Brand) []SeedTrend {
	var out []SeedTrend
	for _, b := range brands {
		base := strings.TrimRight(b.URL, "/")
		if base == "" {
			base = "https://" + slug(b.Name) + ".example.com"
		}
		for i := 0; i < 3; i++ {
			cat := m.choice(Categories)
			id := b.ID
			out = append(out, SeedTrend{
				ProductURL:        fmt.Sprintf("%s/products/%s-%d", base, slug(cat), m.intn(1000, 99999)),
				SourceID:          &id,
				Category:          cat,
				Colors:            m.sample(Colors, m.intn(1, 3)),
				Patterns:          m.sample(Patterns, 1),
				StyleTags:         m.sample(StyleTags, m.intn(2, 3)),
				Fabrications:      m.sample(Fabrications, m.intn(1, 2)),
				PricePoint:        m.choice(PricePoints),
				Demographic:       m.choice(Demographics[:2]),
				Narrative:         fmt.Sprintf("A %s from %s that reflects current best-seller momentum.", cat, b.Name),
				EstimatedLikes:    int64(m.intn(500, 20000)),
				EstimatedComments: int64(m.intn(50, 2000)),
				EstimatedShares:   int64(m.intn(10, 800)),
				EstimatedViews:    int64(m.intn(5000, 250000)),
			})
		}
	}
	return out
}

func (m *mocker) socialDiscovery(brands []Brand) []BrandDiscovery {
	out := make([]BrandDiscovery, 0, len(brands))
	for _, b := range brands {
		handle := strings.ReplaceAll(slug(b.Name), "-", "")
		d := BrandDiscovery{
			Brand: b.Name,
			Accounts: []SocialAccount{
				{Platform: "instagram", Handle: handle, URL: "https://www.instagram.com/" + handle + "/", Name: b.Name, Type: "brand", EstimatedFollowers: "100K-500K"},
				{Platform: "tiktok", Handle: handle, URL: "https://www.tiktok.com/@" + handle, Name: b.Name, Type: "brand", EstimatedFollowers: "50K-200K"},
			},
			Hashtags: []string{handle, handle + "style", "ootd"},
		}
		for i := 0; i < 2; i++ {
			tag := strings.ReplaceAll(m.choice(StyleTags), " ", "")
			h := fmt.Sprintf("%s.%s%d", tag, handle, m.intn(1, 99))
			d.RelatedInfluencers = append(d.RelatedInfluencers, SocialAccount{
				Platform:           "instagram",
				Handle:             h,
				URL:                "https://www.instagram.com/" + h + "/",
				Name:               h,
				Type:               "influencer",
				Description:        fmt.Sprintf("Styles %s regularly with a %s aesthetic", b.Name, tag),
				EstimatedFollowers: "10K-100K",
			})
		}
		out = append(out, d)
	}
	return out
}

var mockSources = []SourceSuggestion{
	{Name: "Princess Polly", URL: "https://us.princesspolly.com", Platform: "ecommerce", Reason: "Fast-moving junior styles with weekly drops", TargetDemographics: []string{"junior_girls", "young_women"}},
	{Name: "Edikted", URL: "https://edikted.com", Platform: "ecommerce", Reason: "Y2K and going-out trends popular with Gen Z", TargetDemographics: []string{"junior_girls"}},
	{Name: "Aritzia", URL: "https://www.aritzia.com", Platform: "ecommerce", Reason: "Elevated basics and quiet luxury staples", TargetDemographics: []string{"young_women", "contemporary"}},
	{Name: "Who What Wear", URL: "https://www.whowhatwear.com", Platform: "blog", Reason: "Editorial trend reports and street style", TargetDemographics: []string{"young_women", "contemporary"}},
	{Name: "Vogue Runway", URL: "https://www.vogue.com/fashion-shows", Platform: "blog", Reason: "Runway signals that filter into mass market", TargetDemographics: []string{"contemporary"}},
	{Name: "Depop", URL: "https://www.depop.com", Platform: "ecommerce", Reason: "Resale marketplace surfacing vintage revivals", TargetDemographics: []string{"junior_girls", "young_women"}},
}

func (m *mocker) sourceSuggestions(existing []ExistingSource) []SourceSuggestion {
	known := make(map[string]bool, len(existing))
	for _, e := range existing {
		known[normalizeURL(e.URL)] = true
		known[strings.ToLower(e.Name)] = true
	}
	var out []SourceSuggestion
	for _, s := range mockSources {
		if known[normalizeURL(s.URL)] || known[strings.ToLower(s.Name)] {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (m *mocker) recommendations(rejected []string) []Suggestion {
	skip := make(map[string]bool, len(rejected))
	for _, u := range rejected {
		skip[normalizeURL(u)] = true
	}
	var out []Suggestion
	for _, s := range mockSources {
		if skip[normalizeURL(s.URL)] {
			continue
		}
		out = append(out, Suggestion{
			Type:            "source",
			Title:           s.Name,
			Description:     s.Reason,
			URL:             s.URL,
			Platform:        s.Platform,
			Reason:          "Matches the styles in your watched sources",
			ConfidenceScore: float64(m.intn(55, 90)) / 100,
		})
	}
	return out
}

func (m *mocker) categoryInsights(data []CategoryData) []CategoryInsight {
	out := make([]CategoryInsight, 0, len(data))
	for _, c := range data {
		summary := fmt.Sprintf("%s is showing steady momentum with %d active items and an average score of %.1f.",
			titleCase(c.Category), c.Count, c.AvgScore)
		if len(c.TopStyles) > 0 {
			summary += fmt.Sprintf(" The dominant aesthetic is %s.", c.TopStyles[0])
		}
		out = append(out, CategoryInsight{
			Category: c.Category,
			Summary:  summary,
			KeyCharacteristics: map[string]any{
				"colors":       c.TopColors,
				"patterns":     c.TopPatterns,
				"styles":       c.TopStyles,
				"fabrications": c.TopFabrications,
				"price_points": c.PricePoints,
			},
		})
	}
	return out
}

func (m *mocker) themedLooks(categories []string) []ThemedLookIdea {
	n := m.intn(3, 5)
	out := make([]ThemedLookIdea, 0, n)
	for _, tag := range m.sample(StyleTags, n) {
		items := categories
		if len(items) > 4 {
			items = items[:4]
		}
		if len(items) == 0 {
			items = m.sample(Categories, 3)
		}
		out = append(out, ThemedLookIdea{
			ThemeName:         titleCase(tag) + " Edit",
			Description:       fmt.Sprintf("A %s take on this season's strongest pieces.", tag),
			ColorPalette:      m.sample(Colors, 3),
			KeyItems:          append([]string(nil), items...),
			StyleTags:         []string{tag},
			MoodDescription:   "Effortless, layered and camera-ready.",
			DemographicAppeal: m.sample(Demographics[:3], m.intn(1, 2)),
		})
	}
	return out
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
		} else if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return strings.TrimRight(strings.ToLower(raw), "/")
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.") + strings.TrimRight(u.Path, "/")
}
