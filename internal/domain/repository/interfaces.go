package repository

import (
	"context"
	"time"

	"TrendPulse/internal/domain/models"
)

// QuoteSource produces snapshot quotes for a symbol set. Sources are tried
// in strict priority order; the first returning at least one valid quote
// wins outright.
type QuoteSource interface {
	Name() string
	Quotes(ctx context.Context, symbols []string) ([]models.Quote, error)
}

// NewsSource produces candidate articles for a search query.
type NewsSource interface {
	Name() string
	Articles(ctx context.Context, query string) ([]models.Article, error)
}

// Snapshots is the market snapshot surface the orchestrator consumes.
type Snapshots interface {
	Snapshot(ctx context.Context) []models.Quote
	PreviousSessionSnapshot(ctx context.Context) []models.Quote
}

// News is the per-symbol news surface the enrichment path consumes.
type News interface {
	NewsForSymbol(ctx context.Context, symbol string) []models.Article
}

// Classifier is the external LLM-based classifier client.
type Classifier interface {
	Enabled() bool
	Classify(ctx context.Context, symbols []string, news map[string][]models.Article) ([]models.ClassifiedPick, error)
	Health(ctx context.Context) error
	Metrics() models.AgentMetrics
}

// PickPublisher fans finalized pick-sets out to downstream consumers.
type PickPublisher interface {
	Publish(ctx context.Context, ps *models.SessionPickSet) error
	Close() error
}

// PickHistory persists finalized pick-sets for historical analysis.
type PickHistory interface {
	Insert(ctx context.Context, ps *models.SessionPickSet) error
}

// Metrics is the pipeline's observability surface.
type Metrics interface {
	RecordSourceWin(component, source string)
	RecordSourceError(component, source string)
	RecordError(kind string)
	RecordAgentCall(ok bool, elapsed time.Duration)
	SetCacheDegraded(degraded bool)
	RecordPickSetSize(n int)
	RecordRefreshDuration(elapsed time.Duration)
}
