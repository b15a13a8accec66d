package sentiment

import (
	"math"

	"TrendPulse/internal/domain/models"
)

const (
	trendBand     = 0.15
	minConfidence = 0.2
	maxConfidence = 0.95

	boostTier1 = 0.3
	boostTier2 = 0.6
)

// Predictor is the rule-based movement estimator. All knobs come from the
// engine configuration so the formula stays tunable without code changes.
type Predictor struct {
	SentimentGain       float64
	MomentumGain        float64
	PredictionLimit     float64
	HighVolumeThreshold float64
}

// volumeBoost steps at the high-volume threshold and again at three times it.
func (p Predictor) volumeBoost(volume int64) float64 {
	v := float64(volume)
	switch {
	case v >= 3*p.HighVolumeThreshold:
		return boostTier2
	case v >= p.HighVolumeThreshold:
		return boostTier1
	}
	return 0
}

// Predict estimates next-move percent change for a quote given its blended
// sentiment score.
func (p Predictor) Predict(q models.Quote, score float64) models.Prediction {
	momentum := clamp(q.PercentChange, -p.PredictionLimit, p.PredictionLimit)
	boost := p.volumeBoost(q.Volume)

	predicted := clamp(
		score*p.SentimentGain+boost+momentum*p.MomentumGain,
		-p.PredictionLimit, p.PredictionLimit,
	)

	trend := "Sideways"
	switch {
	case predicted >= trendBand:
		trend = "Bullish"
	case predicted <= -trendBand:
		trend = "Bearish"
	}

	var momentumNorm float64
	if p.PredictionLimit > 0 {
		momentumNorm = math.Abs(momentum) / p.PredictionLimit
	}
	confidence := clamp(
		0.6*math.Abs(score)+0.25*momentumNorm+0.15*(boost/boostTier2),
		minConfidence, maxConfidence,
	)

	risk := "High"
	switch {
	case confidence >= 0.75:
		risk = "Low"
	case confidence >= 0.5:
		risk = "Medium"
	}

	return models.Prediction{
		PredictedChangePct: predicted,
		Trend:              trend,
		Confidence:         confidence,
		RiskLevel:          risk,
		Volatility:         math.Abs(q.PercentChange),
		PriceTargets: models.PriceTargets{
			Current: q.LastPrice,
			Target:  math.Round(q.LastPrice*(1+predicted/100)*100) / 100,
		},
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
