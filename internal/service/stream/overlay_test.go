package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"TrendPulse/internal/domain/models"
)

func TestOverlayPatchesFreshTrades(t *testing.T) {
	now := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	o := NewOverlay(2 * time.Minute)
	o.now = func() time.Time { return now }

	o.Record("TCS", 3600, now.Add(-30*time.Second))

	quotes := o.Apply([]models.Quote{
		// baseline implied by pct: 3550 / 1.014... = 3500
		{Symbol: "TCS", Open: 3520, LastPrice: 3550, PercentChange: (3550.0 - 3500.0) / 3500.0 * 100, Volume: 100000},
		{Symbol: "INFY", Open: 1500, LastPrice: 1510, PercentChange: 0.5, Volume: 200000},
	})

	assert.Equal(t, 3600.0, quotes[0].LastPrice)
	assert.InDelta(t, (3600.0-3500.0)/3500.0*100, quotes[0].PercentChange, 1e-9)
	assert.Equal(t, 1510.0, quotes[1].LastPrice, "symbols without trades untouched")
}

func TestOverlayIgnoresStaleTrades(t *testing.T) {
	now := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	o := NewOverlay(2 * time.Minute)
	o.now = func() time.Time { return now }

	o.Record("TCS", 9999, now.Add(-10*time.Minute))

	quotes := o.Apply([]models.Quote{
		{Symbol: "TCS", Open: 3500, LastPrice: 3550, PercentChange: 1.4, Volume: 100000},
	})
	assert.Equal(t, 3550.0, quotes[0].LastPrice)
}

func TestOverlayRejectsNonPositivePrices(t *testing.T) {
	o := NewOverlay(time.Minute)
	o.Record("TCS", 0, time.Now())
	o.Record("TCS", -5, time.Now())

	quotes := o.Apply([]models.Quote{{Symbol: "TCS", Open: 100, LastPrice: 101, PercentChange: 1, Volume: 1000}})
	assert.Equal(t, 101.0, quotes[0].LastPrice)
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "TCS", normalizeSymbol("NSE:TCS"))
	assert.Equal(t, "TCS", normalizeSymbol("TCS.NS"))
	assert.Equal(t, "TCS", normalizeSymbol("TCS"))
}
