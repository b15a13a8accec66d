package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/cache"
	"TrendPulse/pkg/config"
	"TrendPulse/pkg/logger"
)

// pickSetKey is the cache key holding the current session pick-set.
const pickSetKey = "session:picks"

// newsConcurrency bounds parallel per-symbol news lookups during
// enrichment.
const newsConcurrency = 4

// Recommender turns filtered quotes plus news into recommendations.
type Recommender interface {
	Recommend(ctx context.Context, quotes []models.Quote, news map[string][]models.Article) []models.Recommendation
}

// Orchestrator owns the session state machine. While the market is open it
// refreshes the pick-set on an interval; closed, it serves the last set
// from memory, then cache, then a previous-session rebuild. The in-memory
// pick-set is replaced atomically and only ever as a whole.
type Orchestrator struct {
	snapshots repository.Snapshots
	news      repository.News
	engine    Recommender
	store     cache.Store
	publisher repository.PickPublisher
	history   repository.PickHistory
	hours     *Hours
	filter    FilterRule
	metrics   repository.Metrics
	log       *logger.Logger

	topCandidates   int
	pickSetTTL      time.Duration
	refreshInterval time.Duration
	eodDelay        time.Duration
	offHoursNews    bool

	now func() time.Time

	mu          sync.RWMutex
	current     *models.SessionPickSet
	lastRefresh time.Time
	eodDone     string
}

// NewOrchestrator wires the pipeline. publisher and history may be nil
// when those sinks are disabled.
func NewOrchestrator(
	cfg *config.Config,
	snapshots repository.Snapshots,
	news repository.News,
	engine Recommender,
	store cache.Store,
	publisher repository.PickPublisher,
	history repository.PickHistory,
	hours *Hours,
	metrics repository.Metrics,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		snapshots:       snapshots,
		news:            news,
		engine:          engine,
		store:           store,
		publisher:       publisher,
		history:         history,
		hours:           hours,
		filter:          FilterFromConfig(cfg),
		metrics:         metrics,
		log:             log,
		topCandidates:   cfg.Session.TopCandidates,
		pickSetTTL:      cfg.Session.PickSetTTL,
		refreshInterval: cfg.Market.RefreshInterval,
		eodDelay:        cfg.Session.EODDelay,
		offHoursNews:    cfg.News.OffHoursRefresh,
		now:             time.Now,
	}
}

// Run drives the refresh loop until ctx is cancelled. Intended to run on
// its own goroutine.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.refreshInterval)
	defer ticker.Stop()

	o.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context) {
	now := o.now()
	if o.hours.IsOpen(now) {
		o.Refresh(ctx)
		return
	}
	o.maybeFinalize(ctx, now)
}

// Picks serves the current pick-set. When the market is open a stale set
// triggers a synchronous refresh; closed, it falls through memory, cache,
// and finally a previous-session rebuild.
func (o *Orchestrator) Picks(ctx context.Context) *models.SessionPickSet {
	now := o.now()

	if o.hours.IsOpen(now) {
		if ps, at := o.currentPicks(); ps != nil && now.Sub(at) <= o.refreshInterval {
			return ps
		}
		return o.Refresh(ctx)
	}

	if ps, _ := o.currentPicks(); ps != nil {
		return ps
	}

	var cached models.SessionPickSet
	if err := o.store.Get(ctx, pickSetKey, &cached); err == nil && len(cached.Results) > 0 {
		o.setCurrent(&cached)
		o.log.Info("pick-set restored from cache",
			logger.String("session", cached.SessionDate),
			logger.Int("picks", len(cached.Results)))
		return &cached
	}

	return o.rebuildPreviousSession(ctx)
}

// Refresh rebuilds the pick-set from a live snapshot and replaces the
// current one atomically.
func (o *Orchestrator) Refresh(ctx context.Context) *models.SessionPickSet {
	now := o.now()
	started := now

	quotes := o.snapshots.Snapshot(ctx)
	candidates := o.topByChange(o.filter.Apply(quotes))

	newsBySymbol := o.collectNews(ctx, candidates)
	recs := o.engine.Recommend(ctx, candidates, newsBySymbol)

	ps := &models.SessionPickSet{
		SessionDate: o.hours.SessionDate(now),
		AsOf:        now,
		Results:     recs,
	}
	o.setCurrent(ps)
	o.persist(ctx, ps)

	o.metrics.RecordPickSetSize(len(recs))
	o.log.Info("pick-set refreshed",
		logger.String("session", ps.SessionDate),
		logger.Int("universe", len(quotes)),
		logger.Int("picks", len(recs)),
		logger.Duration("elapsed", time.Since(started)))
	return ps
}

// topByChange keeps the biggest movers, preserving input order on ties.
func (o *Orchestrator) topByChange(quotes []models.Quote) []models.Quote {
	if o.topCandidates <= 0 || len(quotes) <= o.topCandidates {
		return quotes
	}
	ranked := make([]models.Quote, len(quotes))
	copy(ranked, quotes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].PercentChange > ranked[j].PercentChange
	})
	return ranked[:o.topCandidates]
}

// rebuildPreviousSession reconstructs picks for the last completed session
// from daily bars. News enrichment off-hours is opt-in.
func (o *Orchestrator) rebuildPreviousSession(ctx context.Context) *models.SessionPickSet {
	now := o.now()

	quotes := o.snapshots.PreviousSessionSnapshot(ctx)
	candidates := o.topByChange(o.filter.Apply(quotes))

	var newsBySymbol map[string][]models.Article
	if o.offHoursNews {
		newsBySymbol = o.collectNews(ctx, candidates)
	}
	recs := o.engine.Recommend(ctx, candidates, newsBySymbol)

	ps := &models.SessionPickSet{
		SessionDate: o.hours.PreviousSessionDate(now),
		AsOf:        now,
		Results:     recs,
	}
	o.setCurrent(ps)
	o.persist(ctx, ps)

	o.metrics.RecordPickSetSize(len(recs))
	o.log.Info("pick-set rebuilt from previous session",
		logger.String("session", ps.SessionDate),
		logger.Int("picks", len(recs)))
	return ps
}

// collectNews fans per-symbol news lookups out over a small worker pool.
// The aggregator absorbs failures, so every slot gets an answer.
func (o *Orchestrator) collectNews(ctx context.Context, quotes []models.Quote) map[string][]models.Article {
	results := make([][]models.Article, len(quotes))
	sem := make(chan struct{}, newsConcurrency)
	var wg sync.WaitGroup

	for i, q := range quotes {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = o.news.NewsForSymbol(ctx, symbol)
		}(i, q.Symbol)
	}
	wg.Wait()

	out := make(map[string][]models.Article, len(quotes))
	for i, q := range quotes {
		if len(results[i]) > 0 {
			out[q.Symbol] = results[i]
		}
	}
	return out
}

// maybeFinalize runs the end-of-day job exactly once per session, eodDelay
// after the close: one last rebuild with freshly fetched news, persisted
// with the long TTL so the off-hours view survives restarts.
func (o *Orchestrator) maybeFinalize(ctx context.Context, now time.Time) {
	if !o.hours.IsTradingDay(now) {
		return
	}
	closeAt := o.hours.CloseAt(now)
	if now.Before(closeAt.Add(o.eodDelay)) {
		return
	}

	session := o.hours.SessionDate(now)
	ps, _ := o.currentPicks()
	if ps == nil || ps.SessionDate != session {
		return
	}

	o.mu.Lock()
	if o.eodDone == session {
		o.mu.Unlock()
		return
	}
	o.eodDone = session
	o.mu.Unlock()

	quotes := o.snapshots.Snapshot(ctx)
	candidates := o.topByChange(o.filter.Apply(quotes))
	newsBySymbol := o.collectNews(ctx, candidates)
	recs := o.engine.Recommend(ctx, candidates, newsBySymbol)

	final := &models.SessionPickSet{
		SessionDate: session,
		AsOf:        now,
		Results:     recs,
	}
	o.setCurrent(final)
	o.persist(ctx, final)
	if o.history != nil {
		if err := o.history.Insert(ctx, final); err != nil {
			o.metrics.RecordError("eod_history")
			o.log.Error("end-of-day history insert failed", logger.Error(err))
		}
	}
	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, final); err != nil {
			o.metrics.RecordError("eod_publish")
			o.log.Error("end-of-day publish failed", logger.Error(err))
		}
	}
	o.log.Info("session finalized",
		logger.String("session", session),
		logger.Int("picks", len(final.Results)))
}

func (o *Orchestrator) persist(ctx context.Context, ps *models.SessionPickSet) {
	if err := o.store.Set(ctx, pickSetKey, ps, o.pickSetTTL); err != nil {
		o.metrics.RecordError("pickset_persist")
		o.log.Warn("pick-set persistence failed", logger.Error(err))
	}
}

func (o *Orchestrator) currentPicks() (*models.SessionPickSet, time.Time) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current, o.lastRefresh
}

func (o *Orchestrator) setCurrent(ps *models.SessionPickSet) {
	o.mu.Lock()
	o.current = ps
	o.lastRefresh = o.now()
	o.mu.Unlock()
}
