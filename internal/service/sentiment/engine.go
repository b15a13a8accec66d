package sentiment

import (
	"context"
	"math"
	"sort"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/config"
	"TrendPulse/pkg/logger"
)

// Options are the escalation and prediction knobs.
type Options struct {
	BigMoveThreshold    float64
	HighVolumeThreshold float64
	NeutralBand         float64
	ConflictBand        float64
	MaxEscalations      int
	SentimentGain       float64
	MomentumGain        float64
	PredictionLimit     float64
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BigMoveThreshold:    cfg.Engine.BigMoveThreshold,
		HighVolumeThreshold: cfg.Engine.HighVolumeThreshold,
		NeutralBand:         cfg.Engine.NeutralBand,
		ConflictBand:        cfg.Engine.ConflictBand,
		MaxEscalations:      cfg.Engine.MaxEscalations,
		SentimentGain:       cfg.Engine.SentimentGain,
		MomentumGain:        cfg.Engine.MomentumGain,
		PredictionLimit:     cfg.Engine.PredictionLimit,
	}
}

// Engine produces recommendations in two tiers: the local lexicon scores
// everything, then a bounded subset escalates to the external classifier.
// The engine is pure over its inputs: same quotes and news, same output.
type Engine struct {
	classifier repository.Classifier
	opts       Options
	predictor  Predictor
	metrics    repository.Metrics
	log        *logger.Logger
}

func NewEngine(classifier repository.Classifier, opts Options, metrics repository.Metrics, log *logger.Logger) *Engine {
	return &Engine{
		classifier: classifier,
		opts:       opts,
		predictor: Predictor{
			SentimentGain:       opts.SentimentGain,
			MomentumGain:        opts.MomentumGain,
			PredictionLimit:     opts.PredictionLimit,
			HighVolumeThreshold: opts.HighVolumeThreshold,
		},
		metrics: metrics,
		log:     log,
	}
}

// Recommend enriches quotes into recommendations. Classifier failure is
// absorbed: the whole batch falls back to local results.
func (e *Engine) Recommend(ctx context.Context, quotes []models.Quote, news map[string][]models.Article) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(quotes))
	for _, q := range quotes {
		recs = append(recs, e.localRecommendation(q, news[q.Symbol]))
	}

	escalate := e.selectEscalations(recs, news)
	if len(escalate) == 0 || e.classifier == nil || !e.classifier.Enabled() {
		return recs
	}

	symbols := make([]string, 0, len(escalate))
	subset := make(map[string][]models.Article, len(escalate))
	for _, i := range escalate {
		symbol := recs[i].Symbol
		symbols = append(symbols, symbol)
		subset[symbol] = news[symbol]
	}

	picks, err := e.classifier.Classify(ctx, symbols, subset)
	if err != nil {
		e.metrics.RecordError("classifier_batch")
		e.log.Warn("classifier batch failed, keeping local results",
			logger.Int("symbols", len(symbols)),
			logger.Error(err))
		return recs
	}

	bySymbol := make(map[string]models.ClassifiedPick, len(picks))
	for _, p := range picks {
		bySymbol[p.Symbol] = p
	}
	for _, i := range escalate {
		pick, ok := bySymbol[recs[i].Symbol]
		if !ok {
			continue
		}
		e.applyClassified(&recs[i], pick, len(news[recs[i].Symbol]))
	}
	return recs
}

func (e *Engine) localRecommendation(q models.Quote, articles []models.Article) models.Recommendation {
	result := ScoreArticles(articles)
	return models.Recommendation{
		Quote:          q,
		Sentiment:      result,
		SentimentScore: result.Compound,
		SentimentLabel: models.PickLabelForSentiment(result.Label),
		Reason:         "lexicon",
		Prediction:     e.predictor.Predict(q, result.Compound),
	}
}

func (e *Engine) applyClassified(rec *models.Recommendation, pick models.ClassifiedPick, articleCount int) {
	score := models.ClampScore(pick.SentimentScore)
	rec.Sentiment = models.SentimentResult{
		Compound: score,
		Label:    models.LabelForCompound(score),
		Count:    articleCount,
		Source:   models.SourceExternal,
	}
	rec.SentimentScore = score
	rec.SentimentLabel = models.NormalizePickLabel(pick.SentimentLabel)
	rec.Reason = pick.Reason
	if rec.Reason == "" {
		rec.Reason = "classifier verdict"
	}
	rec.Prediction = e.predictor.Predict(rec.Quote, score)
}

// selectEscalations returns indexes of recommendations worth a classifier
// call, highest priority first, capped at MaxEscalations.
func (e *Engine) selectEscalations(recs []models.Recommendation, news map[string][]models.Article) []int {
	type candidate struct {
		index    int
		priority float64
	}

	var candidates []candidate
	for i, rec := range recs {
		if !e.needsEscalation(rec) {
			continue
		}
		articles := len(news[rec.Symbol])
		priority := 10*math.Abs(rec.PercentChange) + math.Log10(float64(rec.Volume)+1)
		if articles > 0 {
			priority += 20
		}
		candidates = append(candidates, candidate{index: i, priority: priority})
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].priority > candidates[b].priority
	})
	if e.opts.MaxEscalations > 0 && len(candidates) > e.opts.MaxEscalations {
		candidates = candidates[:e.opts.MaxEscalations]
	}

	out := make([]int, len(candidates))
	for i, c := range candidates {
		out[i] = c.index
	}
	return out
}

func (e *Engine) needsEscalation(rec models.Recommendation) bool {
	// Big movers always get a second opinion.
	if math.Abs(rec.PercentChange) >= e.opts.BigMoveThreshold {
		return true
	}
	// Heavy volume is worth a look even on a quiet tape.
	if float64(rec.Volume) >= e.opts.HighVolumeThreshold {
		return true
	}
	// The lexicon could not make up its mind.
	if math.Abs(rec.SentimentScore) < e.opts.NeutralBand {
		return true
	}
	// Sentiment and price disagree on a move that is not noise.
	if math.Abs(rec.PercentChange) >= e.opts.ConflictBand &&
		rec.SentimentScore*rec.PercentChange < 0 {
		return true
	}
	return false
}
