package models

// SentimentLabel is the 3-value tone classification.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
)

// SentimentSource records which tier produced a result.
type SentimentSource string

const (
	SourceLocal    SentimentSource = "local"
	SourceExternal SentimentSource = "external"
)

// SentimentResult is a scored tone for one instrument's news.
type SentimentResult struct {
	Compound float64         `json:"compound"`
	Label    SentimentLabel  `json:"label"`
	Count    int             `json:"count"`
	Source   SentimentSource `json:"source"`
}

// ClampScore hard-clamps a sentiment score into [-1, 1].
func ClampScore(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// LabelForCompound maps a compound score to a label using the
// +-0.05 thresholds.
func LabelForCompound(c float64) SentimentLabel {
	switch {
	case c >= 0.05:
		return SentimentPositive
	case c <= -0.05:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
