package collect

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Entry is one feed item inside the collection window.
type Entry struct {
	URL       string
	Title     string
	Published *time.Time
	ImageURL  string
}

// parseFeed returns up to max entries from feedURL that are not older than
// cutoff. Items without a date are kept.
func parseFeed(ctx context.Context, parser *gofeed.Parser, feedURL string, cutoff time.Time, max int) ([]Entry, error) {
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, item := range feed.Items {
		if max > 0 && len(entries) >= max {
			break
		}
		e, ok := parseItem(item)
		if !ok {
			continue
		}
		if e.Published != nil && e.Published.Before(cutoff) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseItem(item *gofeed.Item) (Entry, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		link = strings.TrimSpace(item.GUID)
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return Entry{}, false
	}

	e := Entry{URL: link, Title: strings.TrimSpace(item.Title)}
	switch {
	case item.PublishedParsed != nil:
		e.Published = item.PublishedParsed
	case item.UpdatedParsed != nil:
		e.Published = item.UpdatedParsed
	}

	if item.Image != nil && item.Image.URL != "" {
		e.ImageURL = item.Image.URL
	} else {
		for _, enc := range item.Enclosures {
			if enc != nil && strings.HasPrefix(enc.Type, "image/") {
				e.ImageURL = enc.URL
				break
			}
		}
	}
	return e, true
}

// sourceName derives a display name from a feed URL's host.
func sourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil || u.Hostname() == "" {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())
	for _, prefix := range []string{"www.", "blog.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}
	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
