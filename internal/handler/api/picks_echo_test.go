package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/internal/service/session"
	"TrendPulse/pkg/cache"
	"TrendPulse/pkg/config"
	xlogger "TrendPulse/pkg/logger"
)

type fakeSnapshots struct {
	quotes []models.Quote
}

func (f *fakeSnapshots) Snapshot(context.Context) []models.Quote                { return f.quotes }
func (f *fakeSnapshots) PreviousSessionSnapshot(context.Context) []models.Quote { return f.quotes }

type fakeNews struct {
	articles []models.Article
}

func (f *fakeNews) NewsForSymbol(context.Context, string) []models.Article { return f.articles }

type fakeClassifier struct {
	enabled   bool
	healthErr error
	stats     models.AgentMetrics
}

func (f *fakeClassifier) Enabled() bool { return f.enabled }

func (f *fakeClassifier) Classify(context.Context, []string, map[string][]models.Article) ([]models.ClassifiedPick, error) {
	return nil, nil
}

func (f *fakeClassifier) Health(context.Context) error { return f.healthErr }
func (f *fakeClassifier) Metrics() models.AgentMetrics { return f.stats }

type labelEngine struct{}

func (labelEngine) Recommend(_ context.Context, quotes []models.Quote, _ map[string][]models.Article) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(quotes))
	for i, q := range quotes {
		label := models.PickBullish
		if i%2 == 1 {
			label = models.PickWatch
		}
		recs = append(recs, models.Recommendation{Quote: q, SentimentLabel: label})
	}
	return recs
}

type silentMetrics struct{}

func (silentMetrics) RecordSourceWin(string, string)      {}
func (silentMetrics) RecordSourceError(string, string)    {}
func (silentMetrics) RecordError(string)                  {}
func (silentMetrics) RecordAgentCall(bool, time.Duration) {}
func (silentMetrics) SetCacheDegraded(bool)               {}
func (silentMetrics) RecordPickSetSize(int)               {}
func (silentMetrics) RecordRefreshDuration(time.Duration) {}

func testHandler(t *testing.T) (*PicksEchoHandler, *echo.Echo) {
	t.Helper()
	log, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Market.Timezone = "Asia/Kolkata"
	cfg.Market.OpenTime = "09:15"
	cfg.Market.CloseTime = "15:30"
	cfg.Market.RefreshInterval = 30 * time.Second
	cfg.Filter.MinChangePct = 1.0
	cfg.Filter.MaxChangePct = 3.0
	cfg.Filter.MinOpen = 50
	cfg.Filter.MinVolume = 100_000
	cfg.Session.TopCandidates = 50
	cfg.Session.PickSetTTL = time.Hour
	cfg.Session.EODDelay = 15 * time.Minute

	hours, err := session.NewHours(cfg)
	require.NoError(t, err)

	snapshots := &fakeSnapshots{quotes: []models.Quote{
		{Symbol: "TCS", Open: 3500, LastPrice: 3570, PercentChange: 2.0, Volume: 500_000},
		{Symbol: "SBIN", Open: 600, LastPrice: 609, PercentChange: 1.5, Volume: 900_000},
		{Symbol: "INFY", Open: 1500, LastPrice: 1527, PercentChange: 1.8, Volume: 400_000},
	}}
	newsProvider := &fakeNews{articles: []models.Article{
		{Title: "headline", URL: "https://example.com", PublishedAt: time.Now().Add(-time.Hour)},
	}}
	store := cache.NewMemory()
	t.Cleanup(func() { store.Close() })

	orch := session.NewOrchestrator(cfg, snapshots, newsProvider, labelEngine{}, store, nil, nil, hours, silentMetrics{}, log)
	clf := &fakeClassifier{enabled: true, stats: models.AgentMetrics{TotalCalls: 3, LastStatus: "ok"}}

	h := NewPicksEchoHandler(log, orch, snapshots, newsProvider, clf, func() bool { return false })
	e := echo.New()
	h.RegisterRoutes(e)
	return h, e
}

func doRequest(e *echo.Echo, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func resultsOf(t *testing.T, body map[string]interface{}) []interface{} {
	t.Helper()
	data, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "body: %v", body)
	results, ok := data["results"].([]interface{})
	require.True(t, ok)
	return results
}

func TestPicksEndpoint(t *testing.T) {
	_, e := testHandler(t)

	rec, body := doRequest(e, "/api/picks")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resultsOf(t, body), 3)
}

func TestPicksEndpointLabelFilter(t *testing.T) {
	_, e := testHandler(t)

	rec, body := doRequest(e, "/api/picks?label=BULLISH")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, r := range resultsOf(t, body) {
		assert.Equal(t, "BULLISH", r.(map[string]interface{})["sentiment_label"])
	}
}

func TestPicksEndpointLimit(t *testing.T) {
	_, e := testHandler(t)

	rec, body := doRequest(e, "/api/picks?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resultsOf(t, body), 1)
}

func TestPicksEndpointRejectsBadLabel(t *testing.T) {
	_, e := testHandler(t)

	rec, body := doRequest(e, "/api/picks?label=HOLD")
	require.Equal(t, http.StatusOK, rec.Code, "envelope carries the real status")
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}

func TestSnapshotEndpoint(t *testing.T) {
	_, e := testHandler(t)

	rec, body := doRequest(e, "/api/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]interface{})
	assert.Len(t, data, 3)
}

func TestNewsEndpoint(t *testing.T) {
	_, e := testHandler(t)

	rec, body := doRequest(e, "/api/news/tcs")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	assert.Len(t, rows, 1)
	assert.Equal(t, float64(1), data["total"])
}

func TestAgentHealthEndpoint(t *testing.T) {
	h, e := testHandler(t)
	h.classifier.(*fakeClassifier).healthErr = fmt.Errorf("connection refused")

	rec, body := doRequest(e, "/api/agent/health")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "unreachable", data["agent"])
	assert.Equal(t, false, data["cache_degraded"])
}

func TestAgentMetricsEndpoint(t *testing.T) {
	_, e := testHandler(t)

	rec, body := doRequest(e, "/api/agent/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["totalCalls"])
	assert.Equal(t, "ok", data["lastStatus"])
}

func TestHealthzEndpoint(t *testing.T) {
	_, e := testHandler(t)

	rec, body := doRequest(e, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}
