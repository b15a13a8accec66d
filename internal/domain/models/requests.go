package models

// PicksRequest narrows the served pick-set.
type PicksRequest struct {
	Limit int    `query:"limit" validate:"omitempty,gte=1,lte=100"`
	Label string `query:"label" validate:"omitempty,oneof=BULLISH WATCH SKIP"`
}

// NewsRequest tunes the per-symbol news lookup.
type NewsRequest struct {
	Limit int `query:"limit" default:"8" validate:"gte=1,lte=20"`
}
