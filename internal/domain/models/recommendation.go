package models

import "strings"

// PickLabel is the action classification attached to a recommendation.
type PickLabel string

const (
	PickBullish PickLabel = "BULLISH"
	PickWatch   PickLabel = "WATCH"
	PickSkip    PickLabel = "SKIP"
)

// NormalizePickLabel coerces free-form classifier output into the enum;
// anything unrecognized becomes WATCH.
func NormalizePickLabel(s string) PickLabel {
	switch PickLabel(strings.ToUpper(strings.TrimSpace(s))) {
	case PickBullish:
		return PickBullish
	case PickSkip:
		return PickSkip
	default:
		return PickWatch
	}
}

// PickLabelForSentiment maps a tone label to an action label.
func PickLabelForSentiment(l SentimentLabel) PickLabel {
	switch l {
	case SentimentPositive:
		return PickBullish
	case SentimentNegative:
		return PickSkip
	default:
		return PickWatch
	}
}

// PriceTargets is the projected price implied by the prediction.
type PriceTargets struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
}

// Prediction is the rule-based intraday movement estimate. It is an
// explainable blend of signals, not a trained model.
type Prediction struct {
	PredictedChangePct float64      `json:"predicted_change_pct"`
	Trend              string       `json:"trend"`
	Confidence         float64      `json:"confidence"`
	RiskLevel          string       `json:"risk_level"`
	Volatility         float64      `json:"volatility"`
	PriceTargets       PriceTargets `json:"price_targets"`
}

// Recommendation is one enriched candidate in a session pick-set.
type Recommendation struct {
	Quote
	Sentiment      SentimentResult `json:"sentiment"`
	SentimentScore float64         `json:"sentiment_score"`
	SentimentLabel PickLabel       `json:"sentiment_label"`
	Reason         string          `json:"reason"`
	Prediction     Prediction      `json:"prediction"`
}
