package models

import "math"

// Quote is one instrument's snapshot row. Quotes are ephemeral: they are
// regenerated on every fetch cycle and never persisted on their own.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Open          float64 `json:"open"`
	LastPrice     float64 `json:"lastPrice"`
	PercentChange float64 `json:"percentChange"`
	Volume        int64   `json:"volume"`
}

// Finite reports whether all numeric fields are usable. Producers discard
// quotes with NaN or infinite values.
func (q Quote) Finite() bool {
	for _, v := range []float64{q.Open, q.LastPrice, q.PercentChange} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
