package insights

import (
	"bytes"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/TrendIntel/internal/database"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Overview is the stored output of the latest generation.
type Overview struct {
	CategoryInsights []database.TrendInsight `json:"category_insights"`
	ThemedLooks      []database.ThemedLook   `json:"themed_looks"`
	GeneratedAt      *time.Time              `json:"generated_at"`
}

// Latest returns stored insights, most trending category first, and the
// themed looks appealing to demographic (all when empty), newest first.
func Latest(db *database.DB, demographic string) (*Overview, error) {
	ins, err := db.ListInsights()
	if err != nil {
		return nil, err
	}
	looks, err := db.ListThemedLooks()
	if err != nil {
		return nil, err
	}

	o := &Overview{CategoryInsights: ins, ThemedLooks: []database.ThemedLook{}}
	if o.CategoryInsights == nil {
		o.CategoryInsights = []database.TrendInsight{}
	}
	for i := len(looks) - 1; i >= 0; i-- {
		if demographic == "" || database.Contains(looks[i].DemographicAppeal, demographic) {
			o.ThemedLooks = append(o.ThemedLooks, looks[i])
		}
	}
	for _, in := range ins {
		if o.GeneratedAt == nil || in.GeneratedAt.After(*o.GeneratedAt) {
			t := in.GeneratedAt
			o.GeneratedAt = &t
		}
	}
	return o, nil
}

// Markdown renders the overview as a markdown document.
func (o *Overview) Markdown() string {
	var b strings.Builder
	b.WriteString("# Trend Insights\n\n")
	if o.GeneratedAt != nil {
		fmt.Fprintf(&b, "_Generated %s_\n\n", o.GeneratedAt.Format("2006-01-02 15:04 MST"))
	}
	if len(o.CategoryInsights) == 0 && len(o.ThemedLooks) == 0 {
		b.WriteString("No insights generated yet.\n")
		return b.String()
	}

	if len(o.CategoryInsights) > 0 {
		b.WriteString("## Categories\n\n")
		b.WriteString("| Category | Items | Avg score |\n|---|---:|---:|\n")
		for _, in := range o.CategoryInsights {
			fmt.Fprintf(&b, "| %s | %d | %.1f |\n", in.Category, in.TrendingItemsCount, in.AvgTrendScore)
		}
		b.WriteString("\n")

		for _, in := range o.CategoryInsights {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", in.Category, in.Summary)
			keys := make([]string, 0, len(in.KeyCharacteristics))
			for k := range in.KeyCharacteristics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if v := characteristic(in.KeyCharacteristics[k]); v != "" {
					fmt.Fprintf(&b, "- **%s**: %s\n", k, v)
				}
			}
			if len(keys) > 0 {
				b.WriteString("\n")
			}
		}
	}

	if len(o.ThemedLooks) > 0 {
		b.WriteString("## Themed Looks\n\n")
		for _, l := range o.ThemedLooks {
			fmt.Fprintf(&b, "### %s\n\n", l.ThemeName)
			if l.Description != nil && *l.Description != "" {
				fmt.Fprintf(&b, "%s\n\n", *l.Description)
			}
			if l.MoodDescription != nil && *l.MoodDescription != "" {
				fmt.Fprintf(&b, "> %s\n\n", *l.MoodDescription)
			}
			writeList(&b, "Palette", l.ColorPalette)
			writeList(&b, "Key items", l.KeyItems)
			writeList(&b, "Style", l.StyleTags)
			writeList(&b, "Appeals to", l.DemographicAppeal)
			if n := len(l.FeaturedTrendIDs); n > 0 {
				fmt.Fprintf(&b, "- **Featured trends**: %d\n", n)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// HTML renders the overview markdown to HTML.
func (o *Overview) HTML() (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(o.Markdown()), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "- **%s**: %s\n", label, strings.Join(items, ", "))
}

func characteristic(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, ", ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, e := range x {
			parts = append(parts, fmt.Sprint(e))
		}
		return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), ", ")
	default:
		return fmt.Sprint(x)
	}
}
