package people

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/TobiSchelling/TrendIntel/internal/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateBuildsProfileURLs(t *testing.T) {
	svc := New(openTestDB(t))

	p, err := svc.Create(Input{
		Name: "Test Person",
		Type: "influencer",
		Platforms: []PlatformInput{
			{Platform: "instagram", Handle: "@tester", FollowerCount: 100},
			{Platform: "tiktok", Handle: "tester", FollowerCount: 50, ProfileURL: "https://custom.example/t"},
			{Platform: "myspace", Handle: "tester"},
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.FollowerCountTotal != 150 || p.Priority != 5 || p.ScrapeFrequency != "daily" {
		t.Errorf("person = %+v", p)
	}
	if got := *p.Platforms[0].ProfileURL; got != "https://www.instagram.com/tester/" {
		t.Errorf("instagram url = %q", got)
	}
	if p.Platforms[0].Handle != "tester" {
		t.Errorf("handle = %q, want without @", p.Platforms[0].Handle)
	}
	if got := *p.Platforms[1].ProfileURL; got != "https://custom.example/t" {
		t.Errorf("tiktok url = %q", got)
	}
	if p.Platforms[2].ProfileURL != nil {
		t.Errorf("unknown platform url = %v, want nil", *p.Platforms[2].ProfileURL)
	}
}

func TestAddPlatform(t *testing.T) {
	db := openTestDB(t)
	svc := New(db)
	p, err := svc.Create(Input{Name: "A", Type: "brand", Platforms: []PlatformInput{{Platform: "instagram", Handle: "a", FollowerCount: 10}}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	pp, err := svc.AddPlatform(p.ID, PlatformInput{Platform: "tiktok", Handle: "a", FollowerCount: 5})
	if err != nil {
		t.Fatalf("AddPlatform: %v", err)
	}
	if pp.ProfileURL == nil || *pp.ProfileURL != "https://www.tiktok.com/@a" {
		t.Errorf("profile url = %v", pp.ProfileURL)
	}
	got, _ := db.GetPerson(p.ID)
	if got.FollowerCountTotal != 15 || len(got.Platforms) != 2 {
		t.Errorf("person after add = %+v", got)
	}

	if _, err := svc.AddPlatform(p.ID, PlatformInput{Platform: "tiktok", Handle: "b"}); !errors.Is(err, database.ErrDuplicate) {
		t.Errorf("duplicate platform = %v, want ErrDuplicate", err)
	}
	if _, err := svc.AddPlatform(999, PlatformInput{Platform: "tiktok", Handle: "b"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing person = %v, want ErrNotFound", err)
	}
}

func TestBulkSkipsExistingNames(t *testing.T) {
	svc := New(openTestDB(t))
	if _, err := svc.Create(Input{Name: "Zendaya", Type: "celebrity"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	res := svc.Bulk([]Input{
		{Name: "zendaya", Type: "celebrity"},
		{Name: "New One", Type: "influencer"},
	})
	if res.Created != 1 || res.Skipped != 1 || len(res.Errors) != 0 {
		t.Errorf("bulk = %+v", res)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := New(openTestDB(t))

	seed, err := SeedPeople()
	if err != nil {
		t.Fatalf("SeedPeople: %v", err)
	}
	if len(seed) < 20 {
		t.Fatalf("seed has %d people", len(seed))
	}

	first, err := svc.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if first.Created != len(seed) || first.TotalInSeed != len(seed) || len(first.Errors) != 0 {
		t.Fatalf("first seed = %+v", first)
	}

	second, err := svc.Seed()
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if second.Created != 0 || second.Skipped != len(seed) {
		t.Errorf("second seed = %+v", second)
	}
}
