package session

import (
	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/config"
)

// FilterRule is the numeric candidate gate: a bounded positive move on a
// non-penny, liquid instrument.
type FilterRule struct {
	MinChangePct float64
	MaxChangePct float64
	MinOpen      float64
	MinVolume    float64
}

func FilterFromConfig(cfg *config.Config) FilterRule {
	return FilterRule{
		MinChangePct: cfg.Filter.MinChangePct,
		MaxChangePct: cfg.Filter.MaxChangePct,
		MinOpen:      cfg.Filter.MinOpen,
		MinVolume:    cfg.Filter.MinVolume,
	}
}

// Match reports whether a single quote passes the gate.
func (f FilterRule) Match(q models.Quote) bool {
	return q.PercentChange >= f.MinChangePct &&
		q.PercentChange <= f.MaxChangePct &&
		q.Open > f.MinOpen &&
		float64(q.Volume) >= f.MinVolume
}

// Apply keeps matching quotes in their original order.
func (f FilterRule) Apply(quotes []models.Quote) []models.Quote {
	out := make([]models.Quote, 0, len(quotes))
	for _, q := range quotes {
		if f.Match(q) {
			out = append(out, q)
		}
	}
	return out
}
