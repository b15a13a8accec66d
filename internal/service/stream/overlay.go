package stream

import (
	"sync"
	"time"

	"TrendPulse/internal/domain/models"
)

// lastTrade is the most recent streamed trade observed per symbol.
type lastTrade struct {
	price float64
	at    time.Time
}

// Overlay keeps the latest streamed trade per symbol and patches snapshot
// quotes with it. Trades older than maxAge are ignored so a stalled stream
// cannot pin stale prices onto fresh snapshots.
type Overlay struct {
	mu     sync.RWMutex
	trades map[string]lastTrade
	maxAge time.Duration
	now    func() time.Time
}

func NewOverlay(maxAge time.Duration) *Overlay {
	return &Overlay{
		trades: make(map[string]lastTrade),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Record stores a streamed trade price for symbol.
func (o *Overlay) Record(symbol string, price float64, at time.Time) {
	if price <= 0 {
		return
	}
	o.mu.Lock()
	o.trades[symbol] = lastTrade{price: price, at: at}
	o.mu.Unlock()
}

// Apply patches each quote's last price, and its percent change relative to
// the original baseline, with a fresh streamed trade when one exists.
func (o *Overlay) Apply(quotes []models.Quote) []models.Quote {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(o.trades) == 0 {
		return quotes
	}

	cutoff := o.now().Add(-o.maxAge)
	for i, q := range quotes {
		t, ok := o.trades[q.Symbol]
		if !ok || t.at.Before(cutoff) {
			continue
		}
		// Recover the baseline the original percent change was computed
		// against, then recompute against the streamed price.
		baseline := q.Open
		if q.PercentChange != 0 {
			baseline = q.LastPrice / (1 + q.PercentChange/100)
		}
		quotes[i].LastPrice = t.price
		if baseline > 0 {
			quotes[i].PercentChange = (t.price - baseline) / baseline * 100
		}
	}
	return quotes
}
