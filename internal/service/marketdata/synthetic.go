package marketdata

import (
	"context"
	"math/rand"

	"TrendPulse/internal/domain/models"
)

// SyntheticSource generates plausible random quotes. Terminal entry in the
// fallback chain so a snapshot is always available, even fully offline.
type SyntheticSource struct{}

func NewSyntheticSource() *SyntheticSource { return &SyntheticSource{} }

func (s *SyntheticSource) Name() string { return "synthetic" }

func (s *SyntheticSource) Quotes(_ context.Context, symbols []string) ([]models.Quote, error) {
	quotes := make([]models.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		open := 50 + rand.Float64()*1950
		pct := -4 + rand.Float64()*8
		quotes = append(quotes, models.Quote{
			Symbol:        symbol,
			Open:          open,
			LastPrice:     open * (1 + pct/100),
			PercentChange: pct,
			Volume:        50_000 + rand.Int63n(5_000_000),
		})
	}
	return quotes, nil
}
