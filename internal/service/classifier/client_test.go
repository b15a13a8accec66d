package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
	"TrendPulse/pkg/config"
	xhttp "TrendPulse/pkg/http"
	"TrendPulse/pkg/logger"
)

type agentCallMetrics struct {
	ok     int
	failed int
}

func (m *agentCallMetrics) RecordSourceWin(string, string)   {}
func (m *agentCallMetrics) RecordSourceError(string, string) {}
func (m *agentCallMetrics) RecordError(string)               {}

func (m *agentCallMetrics) RecordAgentCall(ok bool, _ time.Duration) {
	if ok {
		m.ok++
	} else {
		m.failed++
	}
}

func (m *agentCallMetrics) SetCacheDegraded(bool)               {}
func (m *agentCallMetrics) RecordPickSetSize(int)               {}
func (m *agentCallMetrics) RecordRefreshDuration(time.Duration) {}

func testClient(t *testing.T, baseURL string, retries int) (*Client, *agentCallMetrics) {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Agent.Enabled = true
	cfg.Agent.BaseURL = baseURL
	cfg.Agent.Timeout = 2 * time.Second
	cfg.Agent.Retries = retries

	metrics := &agentCallMetrics{}
	return NewClient(cfg, xhttp.NewClient(), metrics, log), metrics
}

func articles(n int) []models.Article {
	out := make([]models.Article, n)
	for i := range out {
		out[i] = models.Article{
			Title:       fmt.Sprintf("headline %d", i),
			Summary:     "body",
			URL:         fmt.Sprintf("https://example.com/%d", i),
			PublishedAt: time.Now().Add(-time.Hour),
		}
	}
	return out
}

func TestClassifyRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/picks", r.URL.Path)

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"TCS", "INFY"}, req.Symbols)
		assert.Len(t, req.News["TCS"], maxArticlesPerSymbol, "news payload capped per symbol")

		fmt.Fprint(w, `{"data":[
			{"symbol":"TCS","sentiment_score":0.72,"sentiment_label":"BULLISH","reason":"strong results"},
			{"symbol":"INFY","sentiment_score":0.0,"sentiment_label":"WATCH","reason":"agent_error"}
		],"ts":"2026-02-10T11:00:00Z"}`)
	}))
	defer srv.Close()

	c, metrics := testClient(t, srv.URL, 0)
	picks, err := c.Classify(context.Background(), []string{"TCS", "INFY"}, map[string][]models.Article{
		"TCS":  articles(12),
		"INFY": nil,
	})
	require.NoError(t, err)
	require.Len(t, picks, 2)

	assert.Equal(t, "TCS", picks[0].Symbol)
	assert.Equal(t, 0.72, picks[0].SentimentScore)
	assert.Equal(t, "agent_error", picks[1].Reason, "per-symbol degradation passes through")

	assert.Equal(t, 1, metrics.ok)
	stats := c.Metrics()
	assert.Equal(t, int64(1), stats.TotalCalls)
	assert.Equal(t, "ok", stats.LastStatus)
	assert.False(t, stats.LastOkAt.IsZero())
}

func TestClassifyRetriesThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"data":[],"ts":"2026-02-10T11:00:00Z"}`)
	}))
	defer srv.Close()

	c, metrics := testClient(t, srv.URL, 2)
	_, err := c.Classify(context.Background(), []string{"TCS"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, metrics.ok)
	assert.Equal(t, 1, metrics.failed, "the failed attempt is still counted")

	stats := c.Metrics()
	assert.Equal(t, int64(2), stats.TotalCalls, "every attempt counts")
	assert.Equal(t, int64(0), stats.TotalFailures, "the batch itself succeeded")
	assert.Equal(t, "ok", stats.LastStatus)
}

func TestClassifyBatchFailureCountsOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, metrics := testClient(t, srv.URL, 1)
	_, err := c.Classify(context.Background(), []string{"TCS"}, nil)
	require.Error(t, err)

	stats := c.Metrics()
	assert.Equal(t, int64(2), stats.TotalCalls, "both attempts counted")
	assert.Equal(t, int64(1), stats.TotalFailures, "one failure for the whole batch")
	assert.Equal(t, "error", stats.LastStatus)
	assert.NotEmpty(t, stats.LastError)
	assert.Equal(t, 2, metrics.failed)
}

func TestClassifyDisabled(t *testing.T) {
	c, _ := testClient(t, "http://localhost:0", 0)
	c.enabled = false
	assert.False(t, c.Enabled())
	_, err := c.Classify(context.Background(), []string{"TCS"}, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		fmt.Fprint(w, `{"agent":"ok","redis":"ok"}`)
	}))
	defer srv.Close()

	c, _ := testClient(t, srv.URL, 0)
	assert.NoError(t, c.Health(context.Background()))
}

func TestHealthUnreachable(t *testing.T) {
	c, _ := testClient(t, "http://127.0.0.1:1", 0)
	assert.Error(t, c.Health(context.Background()))
}
