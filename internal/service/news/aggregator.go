package news

import (
	"context"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/cache"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
	"TrendPulse/pkg/util"
)

// summaryMaxRunes caps sanitized article summaries.
const summaryMaxRunes = 400

// queryVariants are appended to the symbol when searching, tried in order
// per source.
var queryVariants = []string{" stock NSE", " share news"}

// Aggregator resolves per-symbol news through an ordered source chain with
// a short-lived cache in front. It never returns an error: a symbol with no
// reachable news simply yields an empty slice.
type Aggregator struct {
	sources      []repository.NewsSource
	store        cache.Store
	ttl          time.Duration
	timeout      time.Duration
	maxPerSymbol int
	metrics      repository.Metrics
	log          *logger.Logger
	now          func() time.Time
}

// NewAggregator builds the source chain from config: keyed search first
// when configured, then the public feeds in order.
func NewAggregator(cfg *config.Config, client *xhttp.Client, store cache.Store, metrics repository.Metrics, log *logger.Logger) *Aggregator {
	var sources []repository.NewsSource
	if cfg.News.Search.APIKey != "" {
		sources = append(sources, NewSearchSource(client, cfg.News.Search.BaseURL, cfg.News.Search.APIKey, log))
	}
	for _, feed := range []struct{ name, url string }{
		{"general", cfg.News.GeneralFeedURL},
		{"finance", cfg.News.FinanceFeedURL},
		{"regional", cfg.News.RegionalFeedURL},
		{"secondary", cfg.News.SecondaryFeedURL},
	} {
		if feed.url != "" {
			sources = append(sources, NewRSSSource(client, feed.name, feed.url, log))
		}
	}

	return &Aggregator{
		sources:      sources,
		store:        store,
		ttl:          cfg.News.CacheTTL,
		timeout:      cfg.News.Timeout,
		maxPerSymbol: cfg.News.MaxPerSymbol,
		metrics:      metrics,
		log:          log,
		now:          time.Now,
	}
}

// NewAggregatorWithSources wires an explicit chain, used by tests.
func NewAggregatorWithSources(sources []repository.NewsSource, store cache.Store, ttl, timeout time.Duration, maxPerSymbol int, metrics repository.Metrics, log *logger.Logger) *Aggregator {
	return &Aggregator{
		sources:      sources,
		store:        store,
		ttl:          ttl,
		timeout:      timeout,
		maxPerSymbol: maxPerSymbol,
		metrics:      metrics,
		log:          log,
		now:          time.Now,
	}
}

// NewsForSymbol returns fresh, deduplicated articles for symbol, at most
// maxPerSymbol of them.
func (a *Aggregator) NewsForSymbol(ctx context.Context, symbol string) []models.Article {
	key := cache.Key("news", symbol)

	var cached []models.Article
	if err := a.store.Get(ctx, key, &cached); err == nil {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	articles := a.resolve(ctx, symbol)
	if len(articles) == 0 {
		return nil
	}

	if err := a.store.Set(ctx, key, articles, a.ttl); err != nil {
		a.log.Warn("news cache write failed",
			logger.String("symbol", symbol),
			logger.Error(err))
	}
	return articles
}

// resolve walks sources in priority order, trying each query variant; the
// first batch with at least one fresh valid article wins.
func (a *Aggregator) resolve(ctx context.Context, symbol string) []models.Article {
	now := a.now()
	for _, source := range a.sources {
		for _, variant := range queryVariants {
			raw, err := source.Articles(ctx, symbol+variant)
			if err != nil {
				a.metrics.RecordSourceError("news", source.Name())
				a.log.Debug("news source failed",
					logger.String("source", source.Name()),
					logger.String("symbol", symbol),
					logger.Error(err))
				continue
			}

			kept := a.clean(raw, now)
			if len(kept) == 0 {
				continue
			}
			a.metrics.RecordSourceWin("news", source.Name())
			return kept
		}
	}
	return nil
}

// clean sanitizes, drops stale or incomplete articles, dedupes by
// normalized title, and caps the batch.
func (a *Aggregator) clean(raw []models.Article, now time.Time) []models.Article {
	kept := make([]models.Article, 0, len(raw))
	for _, article := range raw {
		article.Title = util.StripHTML(article.Title)
		article.Summary = util.TruncateRunes(util.StripHTML(article.Summary), summaryMaxRunes)
		if !article.Valid(now) {
			continue
		}
		kept = append(kept, article)
	}
	kept = models.DedupeArticles(kept)
	if len(kept) > a.maxPerSymbol {
		kept = kept[:a.maxPerSymbol]
	}
	return kept
}
