package models

// ClassifiedPick is one symbol's verdict from the external classifier.
// Labels arrive free-form and are normalized before use.
type ClassifiedPick struct {
	Symbol         string  `json:"symbol"`
	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel string  `json:"sentiment_label"`
	Reason         string  `json:"reason"`
}
