package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/cache"
	"TrendPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

type noopMetrics struct{}

func (noopMetrics) RecordSourceWin(string, string)      {}
func (noopMetrics) RecordSourceError(string, string)    {}
func (noopMetrics) RecordError(string)                  {}
func (noopMetrics) RecordAgentCall(bool, time.Duration) {}
func (noopMetrics) SetCacheDegraded(bool)               {}
func (noopMetrics) RecordPickSetSize(int)               {}
func (noopMetrics) RecordRefreshDuration(time.Duration) {}

type stubNews struct {
	name     string
	articles []models.Article
	err      error
	calls    int
}

func (s *stubNews) Name() string { return s.name }

func (s *stubNews) Articles(context.Context, string) ([]models.Article, error) {
	s.calls++
	return s.articles, s.err
}

func newTestAggregator(t *testing.T, sources ...repository.NewsSource) (*Aggregator, *cache.Memory) {
	t.Helper()
	mem := cache.NewMemory()
	t.Cleanup(func() { mem.Close() })
	agg := NewAggregatorWithSources(sources, mem, 10*time.Minute, 5*time.Second, 8, noopMetrics{}, testLogger(t))
	return agg, mem
}

func article(title string, age time.Duration) models.Article {
	return models.Article{
		Title:       title,
		Summary:     "summary of " + title,
		URL:         "https://example.com/" + title,
		PublishedAt: time.Now().Add(-age),
	}
}

func TestNewsFirstHealthySourceWins(t *testing.T) {
	broken := &stubNews{name: "search", err: errors.New("quota")}
	healthy := &stubNews{name: "general", articles: []models.Article{article("tcs beats estimates", time.Hour)}}
	never := &stubNews{name: "finance", articles: []models.Article{article("unused", time.Hour)}}

	agg, _ := newTestAggregator(t, broken, healthy, never)
	got := agg.NewsForSymbol(context.Background(), "TCS")
	require.Len(t, got, 1)
	assert.Equal(t, "tcs beats estimates", got[0].Title)
	assert.Zero(t, never.calls)
}

func TestNewsDropsStaleAndDuplicateArticles(t *testing.T) {
	src := &stubNews{name: "general", articles: []models.Article{
		article("TCS Beats Estimates", time.Hour),
		article("tcs  beats   estimates", 2 * time.Hour), // same normalized title
		article("old quarterly recap", 72 * time.Hour),   // outside the horizon
		{Title: "no url", PublishedAt: time.Now().Add(-time.Hour)},
	}}

	agg, _ := newTestAggregator(t, src)
	got := agg.NewsForSymbol(context.Background(), "TCS")
	require.Len(t, got, 1)
	assert.Equal(t, "TCS Beats Estimates", got[0].Title)
}

func TestNewsSanitizesAndCapsPerSymbol(t *testing.T) {
	long := make([]rune, 1000)
	for i := range long {
		long[i] = 'x'
	}

	var articles []models.Article
	for i := 0; i < 12; i++ {
		a := article(string(rune('a'+i))+" headline", time.Hour)
		a.Summary = "<p>" + string(long) + "</p>"
		articles = append(articles, a)
	}
	src := &stubNews{name: "general", articles: articles}

	agg, _ := newTestAggregator(t, src)
	got := agg.NewsForSymbol(context.Background(), "INFY")
	require.Len(t, got, 8)
	for _, a := range got {
		assert.NotContains(t, a.Summary, "<p>")
		assert.LessOrEqual(t, len([]rune(a.Summary)), summaryMaxRunes)
	}
}

func TestNewsCacheHitSkipsSources(t *testing.T) {
	src := &stubNews{name: "general", articles: []models.Article{article("sbin rallies", time.Hour)}}
	agg, _ := newTestAggregator(t, src)

	first := agg.NewsForSymbol(context.Background(), "SBIN")
	calls := src.calls
	second := agg.NewsForSymbol(context.Background(), "SBIN")

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].URL, second[i].URL)
		assert.True(t, first[i].PublishedAt.Equal(second[i].PublishedAt),
			"timestamps must survive the cache round-trip")
	}
	assert.Equal(t, calls, src.calls, "second lookup must come from cache")
}

func TestNewsAllSourcesFailYieldsEmpty(t *testing.T) {
	agg, _ := newTestAggregator(t, &stubNews{name: "search", err: errors.New("down")})
	assert.Empty(t, agg.NewsForSymbol(context.Background(), "LT"))
}

func TestNewsEmptyResultNotCached(t *testing.T) {
	src := &stubNews{name: "general"}
	agg, _ := newTestAggregator(t, src)

	agg.NewsForSymbol(context.Background(), "LT")
	src.articles = []models.Article{article("lt wins order", time.Hour)}
	got := agg.NewsForSymbol(context.Background(), "LT")
	require.Len(t, got, 1, "a later lookup must retry the sources")
}
