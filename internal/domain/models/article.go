package models

import (
	"strings"
	"time"
)

// FreshnessHorizon is how far back an article may be dated and still count.
const FreshnessHorizon = 48 * time.Hour

// Article is one news item for an instrument. Identity for deduplication
// is the normalized lowercase title.
type Article struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NormalizedTitle lowercases and collapses whitespace for dedup identity.
func (a Article) NormalizedTitle() string {
	return strings.Join(strings.Fields(strings.ToLower(a.Title)), " ")
}

// Fresh reports whether PublishedAt falls inside the freshness horizon
// and is not in the future.
func (a Article) Fresh(now time.Time) bool {
	if a.PublishedAt.IsZero() || a.PublishedAt.After(now) {
		return false
	}
	return now.Sub(a.PublishedAt) <= FreshnessHorizon
}

// Valid reports whether the article is usable at all.
func (a Article) Valid(now time.Time) bool {
	return strings.TrimSpace(a.Title) != "" && strings.TrimSpace(a.URL) != "" && a.Fresh(now)
}

// DedupeArticles drops later articles whose normalized title was already seen.
func DedupeArticles(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		key := a.NormalizedTitle()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}
