package marketdata

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/domain/repository"
	"TrendPulse/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

type stubSource struct {
	name   string
	quotes []models.Quote
	err    error
	calls  int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Quotes(context.Context, []string) ([]models.Quote, error) {
	s.calls++
	return s.quotes, s.err
}

type stubDaily struct {
	quotes []models.Quote
	err    error
}

func (s *stubDaily) PreviousSession(context.Context, []string) ([]models.Quote, error) {
	return s.quotes, s.err
}

type recordingMetrics struct {
	wins   []string
	errors []string
}

func (m *recordingMetrics) RecordSourceWin(_, source string)       { m.wins = append(m.wins, source) }
func (m *recordingMetrics) RecordSourceError(_, source string)     { m.errors = append(m.errors, source) }
func (m *recordingMetrics) RecordError(string)                     {}
func (m *recordingMetrics) RecordAgentCall(bool, time.Duration)    {}
func (m *recordingMetrics) SetCacheDegraded(bool)                  {}
func (m *recordingMetrics) RecordPickSetSize(int)                  {}
func (m *recordingMetrics) RecordRefreshDuration(time.Duration)    {}

func newTestFetcher(t *testing.T, sources []repository.QuoteSource, daily DailyProvider, metrics repository.Metrics) *Fetcher {
	t.Helper()
	universe := NewUniverseResolver(nil, "", testLogger(t))
	return NewFetcherWithSources(universe, sources, daily, metrics, testLogger(t))
}

func TestSnapshotFirstHealthySourceWins(t *testing.T) {
	broken := &stubSource{name: "intraday", err: errors.New("boom")}
	healthy := &stubSource{name: "quote", quotes: []models.Quote{
		{Symbol: "TCS", Open: 3500, LastPrice: 3550, PercentChange: 1.4, Volume: 250000},
	}}
	never := &stubSource{name: "secondary", quotes: []models.Quote{{Symbol: "X", Open: 1, LastPrice: 1, Volume: 1}}}

	metrics := &recordingMetrics{}
	f := newTestFetcher(t, []repository.QuoteSource{broken, healthy, never}, nil, metrics)

	got := f.Snapshot(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "TCS", got[0].Symbol)
	assert.Zero(t, never.calls, "chain must stop at the first healthy source")
	assert.Equal(t, []string{"quote"}, metrics.wins)
	assert.Equal(t, []string{"intraday"}, metrics.errors)
}

func TestSnapshotEmptyResultCountsAsFailure(t *testing.T) {
	empty := &stubSource{name: "intraday"}
	healthy := &stubSource{name: "quote", quotes: []models.Quote{
		{Symbol: "SBIN", Open: 600, LastPrice: 612, PercentChange: 2, Volume: 900000},
	}}

	f := newTestFetcher(t, []repository.QuoteSource{empty, healthy}, nil, &recordingMetrics{})

	got := f.Snapshot(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "SBIN", got[0].Symbol)
}

func TestSnapshotDedupesAndDropsNonFinite(t *testing.T) {
	src := &stubSource{name: "intraday", quotes: []models.Quote{
		{Symbol: "INFY", Open: 1500, LastPrice: 1520, PercentChange: 1.3, Volume: 400000},
		{Symbol: "INFY", Open: 1, LastPrice: 1, PercentChange: 0, Volume: 1},
		{Symbol: "WIPRO", Open: 400, LastPrice: math.NaN(), PercentChange: 1, Volume: 100000},
		{Symbol: "LT", Open: 3600, LastPrice: math.Inf(1), PercentChange: 1, Volume: 100000},
	}}

	f := newTestFetcher(t, []repository.QuoteSource{src}, nil, &recordingMetrics{})

	got := f.Snapshot(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "INFY", got[0].Symbol)
	assert.Equal(t, 1520.0, got[0].LastPrice, "first occurrence wins")
}

func TestSnapshotSyntheticTailAlwaysServes(t *testing.T) {
	broken := &stubSource{name: "intraday", err: errors.New("offline")}
	f := newTestFetcher(t, []repository.QuoteSource{broken, NewSyntheticSource()}, nil, &recordingMetrics{})

	got := f.Snapshot(context.Background())
	require.NotEmpty(t, got)
	for _, q := range got {
		assert.True(t, q.Finite(), "synthetic quote must be finite: %+v", q)
		assert.GreaterOrEqual(t, q.Open, 50.0)
	}
}

func TestPreviousSessionSnapshot(t *testing.T) {
	daily := &stubDaily{quotes: []models.Quote{
		{Symbol: "TITAN", Open: 3200, LastPrice: 3264, PercentChange: 2.0, Volume: 300000},
		{Symbol: "TITAN", Open: 1, LastPrice: 1, PercentChange: 0, Volume: 1},
	}}
	f := newTestFetcher(t, nil, daily, &recordingMetrics{})

	got := f.PreviousSessionSnapshot(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, 3264.0, got[0].LastPrice)
}

func TestPreviousSessionSnapshotUnavailable(t *testing.T) {
	f := newTestFetcher(t, nil, &stubDaily{err: errors.New("no bars")}, &recordingMetrics{})
	assert.Nil(t, f.PreviousSessionSnapshot(context.Background()))
}
