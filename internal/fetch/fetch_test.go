package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

const productPage = `<!DOCTYPE html>
<html><head>
<title>Linen Midi Dress in Sage</title>
<meta name="description" content="A relaxed linen midi dress with a square neckline.">
<meta property="og:image" content="/img/dress.jpg">
</head><body>
<article>
<h1>Linen Midi Dress in Sage</h1>
<p>This relaxed linen midi dress features a square neckline, puff sleeves and a tiered skirt.
It is cut from breathable European linen and finished with covered buttons down the back.</p>
<p>Pair it with ballet flats and a woven tote for an easy cottagecore look that works from
brunch to evening. Available in sage, cream and butter yellow.</p>
</article>
</body></html>`

func TestFetchExtractsPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "TrendIntel/") {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(productPage))
	}))
	defer srv.Close()

	f := New(0)
	page, err := f.Fetch(context.Background(), srv.URL+"/products/dress")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(page.Title, "Linen Midi Dress") {
		t.Errorf("unexpected title %q", page.Title)
	}
	if !strings.Contains(page.Text, "square neckline") {
		t.Errorf("expected article text, got %q", page.Text)
	}
	if page.Image != "" && !strings.HasPrefix(page.Image, srv.URL) {
		t.Errorf("expected absolute image url, got %q", page.Image)
	}
}

func TestFetchSkipsFailedDomain(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(0)
	if _, err := f.Fetch(context.Background(), srv.URL+"/a"); err == nil {
		t.Fatal("expected error for 404")
	}
	_, err := f.Fetch(context.Background(), srv.URL+"/b")
	if !errors.Is(err, ErrDomainSkipped) {
		t.Fatalf("expected ErrDomainSkipped, got %v", err)
	}
	if hits != 1 {
		t.Errorf("expected one request, got %d", hits)
	}

	f.Reset()
	if _, err := f.Fetch(context.Background(), srv.URL+"/c"); errors.Is(err, ErrDomainSkipped) {
		t.Error("expected domain to be retried after Reset")
	}
}

func TestFetchInvalidURL(t *testing.T) {
	if _, err := New(0).Fetch(context.Background(), "not a url"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestPageSummary(t *testing.T) {
	p := &Page{Title: "T", Text: strings.Repeat("x", 50)}
	got := p.Summary(10)
	if !strings.Contains(got, "Title: T") || !strings.Contains(got, "xxxxxxxxxx...") {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestFailedDomainExpires(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := New(0)
	f.now = func() time.Time { return clock }

	f.Fetch(context.Background(), srv.URL+"/a")
	clock = clock.Add(DefaultSkipFor - time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL+"/b"); !errors.Is(err, ErrDomainSkipped) {
		t.Fatalf("expected ErrDomainSkipped before expiry, got %v", err)
	}
	clock = clock.Add(time.Second)
	if _, err := f.Fetch(context.Background(), srv.URL+"/c"); errors.Is(err, ErrDomainSkipped) {
		t.Error("expected domain to be retried after expiry")
	}
	if hits != 2 {
		t.Errorf("expected two requests, got %d", hits)
	}
}

func TestPageSummaryKeepsRunes(t *testing.T) {
	p := &Page{Excerpt: strings.Repeat("é", 20)}
	got := p.Summary(5)
	if !utf8.ValidString(got) || !strings.Contains(got, "ééééé...") {
		t.Errorf("unexpected summary %q", got)
	}
}
