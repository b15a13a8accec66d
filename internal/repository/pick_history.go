package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TrendPulse/internal/domain/models"
	drepo "TrendPulse/internal/domain/repository"
)

// PickHistorySchema creates the pick history table, one row per
// recommendation per session.
func PickHistorySchema(database, table string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			session_date Date,
			as_of DateTime,
			symbol String,
			open Float64,
			last_price Float64,
			percent_change Float64,
			volume Int64,
			sentiment_score Float64,
			sentiment_label LowCardinality(String),
			sentiment_source LowCardinality(String),
			reason String,
			predicted_change_pct Float64,
			trend LowCardinality(String),
			confidence Float64,
			risk_level LowCardinality(String)
		) ENGINE = ReplacingMergeTree
		ORDER BY (session_date, symbol)`, database, table),
	}
}

// ClickHousePickHistory persists finalized pick-sets for later analysis.
type ClickHousePickHistory struct {
	db    *sql.DB
	table string
}

func NewClickHousePickHistory(db *sql.DB, table string) drepo.PickHistory {
	return &ClickHousePickHistory{db: db, table: table}
}

// Insert writes every recommendation of the pick-set in one multi-row
// statement. Re-inserting a session replaces it via the table engine.
func (s *ClickHousePickHistory) Insert(ctx context.Context, ps *models.SessionPickSet) error {
	if len(ps.Results) == 0 {
		return nil
	}

	const cols = 15
	values := make([]string, 0, len(ps.Results))
	args := make([]interface{}, 0, len(ps.Results)*cols)
	for _, rec := range ps.Results {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			ps.SessionDate,
			ps.AsOf,
			rec.Symbol,
			rec.Open,
			rec.LastPrice,
			rec.PercentChange,
			rec.Volume,
			rec.SentimentScore,
			string(rec.SentimentLabel),
			string(rec.Sentiment.Source),
			rec.Reason,
			rec.Prediction.PredictedChangePct,
			rec.Prediction.Trend,
			rec.Prediction.Confidence,
			rec.Prediction.RiskLevel,
		)
	}

	q := fmt.Sprintf(
		"INSERT INTO %s (session_date, as_of, symbol, open, last_price, percent_change, volume, sentiment_score, sentiment_label, sentiment_source, reason, predicted_change_pct, trend, confidence, risk_level) VALUES %s",
		s.table, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}
