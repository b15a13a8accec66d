package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TrendPulse/internal/domain/models"
)

func testPredictor() Predictor {
	return Predictor{
		SentimentGain:       2.0,
		MomentumGain:        0.25,
		PredictionLimit:     3.0,
		HighVolumeThreshold: 1_000_000,
	}
}

func TestPredictBounded(t *testing.T) {
	p := testPredictor()
	q := models.Quote{Symbol: "TCS", Open: 3500, LastPrice: 3700, PercentChange: 9.5, Volume: 5_000_000}

	// score*2 + 0.6 + clamp(9.5)*0.25 = 3.35, clamped to the limit.
	got := p.Predict(q, 1.0)
	assert.Equal(t, 3.0, got.PredictedChangePct)
	assert.Equal(t, maxConfidence, got.Confidence)
}

func TestPredictDirectionFollowsSentiment(t *testing.T) {
	p := testPredictor()
	q := models.Quote{Symbol: "SBIN", Open: 600, LastPrice: 606, PercentChange: 1.0, Volume: 200_000}

	up := p.Predict(q, 0.6)
	assert.Equal(t, "Bullish", up.Trend)
	assert.Greater(t, up.PriceTargets.Target, up.PriceTargets.Current)

	down := p.Predict(models.Quote{Symbol: "SBIN", Open: 600, LastPrice: 594, PercentChange: -1.0, Volume: 200_000}, -0.6)
	assert.Equal(t, "Bearish", down.Trend)
	assert.Less(t, down.PriceTargets.Target, down.PriceTargets.Current)
}

func TestPredictSidewaysOnWeakSignal(t *testing.T) {
	p := testPredictor()
	q := models.Quote{Symbol: "ITC", Open: 450, LastPrice: 450.2, PercentChange: 0.05, Volume: 100_000}

	got := p.Predict(q, 0.0)
	assert.Equal(t, "Sideways", got.Trend)
	assert.Equal(t, minConfidence, got.Confidence)
	assert.Equal(t, "High", got.RiskLevel)
}

func TestPredictVolumeBoostTiers(t *testing.T) {
	p := testPredictor()
	base := models.Quote{Symbol: "INFY", Open: 1500, LastPrice: 1530, PercentChange: 2.0, Volume: 100_000}

	tier1 := base
	tier1.Volume = 2_000_000
	tier2 := base
	tier2.Volume = 6_000_000

	quiet := p.Predict(base, 0.5)
	heavy := p.Predict(tier1, 0.5)
	heaviest := p.Predict(tier2, 0.5)

	// 1.0 + 0.5, then +0.3, then +0.6.
	assert.InDelta(t, 1.5, quiet.PredictedChangePct, 1e-9)
	assert.InDelta(t, 1.8, heavy.PredictedChangePct, 1e-9)
	assert.InDelta(t, 2.1, heaviest.PredictedChangePct, 1e-9)
	assert.Greater(t, heavy.Confidence, quiet.Confidence)
	assert.Greater(t, heaviest.Confidence, heavy.Confidence)
}

func TestPredictRoundsPriceTarget(t *testing.T) {
	p := testPredictor()
	q := models.Quote{Symbol: "NTPC", Open: 330, LastPrice: 333.33, PercentChange: 1.0, Volume: 100_000}

	// 0.5*2 + 1.0*0.25 = 1.25% on 333.33 is 337.4966..., rounded to paise.
	got := p.Predict(q, 0.5)
	assert.Equal(t, 337.5, got.PriceTargets.Target)
}

func TestPredictRiskBands(t *testing.T) {
	p := testPredictor()

	// 0.6*0.9 + 0.25*(2/3) + 0.15*0.5 = 0.782 -> Low.
	confident := p.Predict(models.Quote{Symbol: "LT", Open: 3600, LastPrice: 3672, PercentChange: 2.0, Volume: 2_000_000}, 0.9)
	assert.Equal(t, "Low", confident.RiskLevel)

	// 0.6*0.6 + 0.25*(2/3) = 0.527 -> Medium.
	mid := p.Predict(models.Quote{Symbol: "LT", Open: 3600, LastPrice: 3672, PercentChange: 2.0, Volume: 100_000}, 0.6)
	assert.Equal(t, "Medium", mid.RiskLevel)

	// Floored at 0.2 -> High.
	weak := p.Predict(models.Quote{Symbol: "LT", Open: 3600, LastPrice: 3618, PercentChange: 0.5, Volume: 100_000}, 0.1)
	assert.Equal(t, "High", weak.RiskLevel)
}
