package marketdata

import (
	"context"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
)

// DailyProvider serves previous-session quotes from daily bars.
type DailyProvider interface {
	PreviousSession(ctx context.Context, symbols []string) ([]models.Quote, error)
}

// Overlay patches quotes with fresher data, e.g. streamed last trades.
type Overlay interface {
	Apply(quotes []models.Quote) []models.Quote
}

// Fetcher walks the ordered source chain and returns the first snapshot
// containing at least one valid quote. A snapshot never partially merges
// across sources.
type Fetcher struct {
	universe *UniverseResolver
	sources  []repository.QuoteSource
	daily    DailyProvider
	overlay  Overlay
	metrics  repository.Metrics
	log      *logger.Logger
}

// NewFetcher builds the full source chain from config. overlay may be nil.
func NewFetcher(cfg *config.Config, client *xhttp.Client, overlay Overlay, metrics repository.Metrics, log *logger.Logger) *Fetcher {
	r := runner{
		concurrency: cfg.Market.Concurrency,
		timeout:     cfg.Market.SymbolTimeout,
		attempts:    cfg.Market.FetchAttempts,
		backoffBase: cfg.Market.BackoffBase,
		backoffCap:  cfg.Market.BackoffCap,
	}

	intraday := NewIntradaySource(client, cfg.Market.IntradayBaseURL, r, log)
	sources := []repository.QuoteSource{
		intraday,
		NewDirectQuoteSource(client, cfg.Market.QuoteBaseURL, r, log),
	}
	if cfg.Market.Secondary.APIKey != "" {
		sources = append(sources, NewSecondarySource(client, cfg.Market.Secondary.BaseURL, cfg.Market.Secondary.APIKey, r, log))
	}
	sources = append(sources, NewSyntheticSource())

	return &Fetcher{
		universe: NewUniverseResolver(client, cfg.Market.RegistryURL, log),
		sources:  sources,
		daily:    intraday,
		overlay:  overlay,
		metrics:  metrics,
		log:      log,
	}
}

// NewFetcherWithSources wires an explicit chain, used by tests.
func NewFetcherWithSources(universe *UniverseResolver, sources []repository.QuoteSource, daily DailyProvider, metrics repository.Metrics, log *logger.Logger) *Fetcher {
	return &Fetcher{universe: universe, sources: sources, daily: daily, metrics: metrics, log: log}
}

// Snapshot returns the current market snapshot. The synthetic tail of the
// chain guarantees a non-empty result.
func (f *Fetcher) Snapshot(ctx context.Context) []models.Quote {
	symbols := f.universe.Resolve(ctx)

	started := time.Now()
	for _, source := range f.sources {
		quotes, err := source.Quotes(ctx, symbols)
		if err != nil || len(quotes) == 0 {
			f.metrics.RecordSourceError("snapshot", source.Name())
			f.log.Warn("snapshot source failed",
				logger.String("source", source.Name()),
				logger.Error(err))
			continue
		}

		quotes = dedupeQuotes(quotes)
		if f.overlay != nil {
			quotes = f.overlay.Apply(quotes)
		}
		f.metrics.RecordSourceWin("snapshot", source.Name())
		f.metrics.RecordRefreshDuration(time.Since(started))
		f.log.Info("snapshot fetched",
			logger.String("source", source.Name()),
			logger.Int("quotes", len(quotes)),
			logger.Duration("elapsed", time.Since(started)))
		return quotes
	}

	// Unreachable while the synthetic source terminates the chain.
	return nil
}

// PreviousSessionSnapshot rebuilds quotes for the most recent completed
// session from daily bars. Returns nil when daily data is unavailable.
func (f *Fetcher) PreviousSessionSnapshot(ctx context.Context) []models.Quote {
	symbols := f.universe.Resolve(ctx)

	quotes, err := f.daily.PreviousSession(ctx, symbols)
	if err != nil {
		f.metrics.RecordSourceError("previous_session", "intraday")
		f.log.Warn("previous session rebuild failed", logger.Error(err))
		return nil
	}
	f.metrics.RecordSourceWin("previous_session", "intraday")
	return dedupeQuotes(quotes)
}

// dedupeQuotes keeps the first occurrence per symbol and drops quotes with
// non-finite fields.
func dedupeQuotes(quotes []models.Quote) []models.Quote {
	out := make([]models.Quote, 0, len(quotes))
	seen := make(map[string]struct{}, len(quotes))
	for _, q := range quotes {
		if !q.Finite() {
			continue
		}
		if _, ok := seen[q.Symbol]; ok {
			continue
		}
		seen[q.Symbol] = struct{}{}
		out = append(out, q)
	}
	return out
}
