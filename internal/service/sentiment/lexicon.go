package sentiment

import (
	"strings"

	"TrendPulse/internal/domain/models"
)

// titleWeight is how much of an article's score comes from its title.
const titleWeight = 0.7

var positiveWords = map[string]struct{}{
	"gain": {}, "gains": {}, "surge": {}, "surges": {}, "rally": {},
	"rallies": {}, "beats": {}, "beat": {}, "profit": {}, "profits": {},
	"upgrade": {}, "upgraded": {}, "buyback": {}, "record": {}, "strong": {},
	"growth": {}, "jump": {}, "jumps": {}, "wins": {}, "win": {},
	"bullish": {}, "outperform": {}, "expands": {}, "expansion": {},
	"dividend": {}, "soar": {}, "soars": {}, "positive": {}, "recovery": {},
	"recovers": {}, "upbeat": {}, "boost": {}, "boosts": {},
}

var negativeWords = map[string]struct{}{
	"fall": {}, "falls": {}, "drop": {}, "drops": {}, "loss": {},
	"losses": {}, "plunge": {}, "plunges": {}, "downgrade": {},
	"downgraded": {}, "weak": {}, "miss": {}, "misses": {}, "decline": {},
	"declines": {}, "probe": {}, "fraud": {}, "bearish": {}, "slump": {},
	"slumps": {}, "cut": {}, "cuts": {}, "lawsuit": {}, "recall": {},
	"default": {}, "crash": {}, "crashes": {}, "negative": {},
	"warns": {}, "warning": {}, "layoffs": {}, "slowdown": {},
}

// scoreText scores one text fragment into [-1, 1] from the balance of
// positive and negative word hits. Zero hits scores zero.
func scoreText(text string) float64 {
	var pos, neg int
	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,:;!?'\"()[]")
		if _, ok := positiveWords[token]; ok {
			pos++
			continue
		}
		if _, ok := negativeWords[token]; ok {
			neg++
		}
	}
	hits := pos + neg
	if hits == 0 {
		return 0
	}
	return float64(pos-neg) / float64(hits)
}

// ScoreArticles runs the local lexicon over a symbol's articles. Titles
// dominate the per-article score; the batch compound is the plain average.
// No articles means a neutral zero result.
func ScoreArticles(articles []models.Article) models.SentimentResult {
	if len(articles) == 0 {
		return models.SentimentResult{
			Label:  models.SentimentNeutral,
			Source: models.SourceLocal,
		}
	}

	var sum float64
	for _, a := range articles {
		sum += titleWeight*scoreText(a.Title) + (1-titleWeight)*scoreText(a.Summary)
	}
	compound := models.ClampScore(sum / float64(len(articles)))

	return models.SentimentResult{
		Compound: compound,
		Label:    models.LabelForCompound(compound),
		Count:    len(articles),
		Source:   models.SourceLocal,
	}
}
