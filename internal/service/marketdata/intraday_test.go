package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xhttp "TrendPulse/pkg/http"
)

func testRunner() runner {
	return runner{
		concurrency: 4,
		timeout:     2 * time.Second,
		attempts:    1,
		backoffBase: time.Millisecond,
		backoffCap:  10 * time.Millisecond,
	}
}

func chartBody(price, prevClose float64, opens, closes, volumes string) string {
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"regularMarketPrice":%g,"chartPreviousClose":%g,"regularMarketVolume":500000},
		"indicators":{"quote":[{"open":%s,"close":%s,"volume":%s}]}
	}],"error":null}}`, price, prevClose, opens, closes, volumes)
}

func TestIntradayQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/RELIANCE.NS", r.URL.Path)
		assert.Equal(t, "5m", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody(2550, 2500, `[null,2510,2515]`, `[2512,2530,2550]`, `[1000,2000,3000]`))
	}))
	defer srv.Close()

	src := NewIntradaySource(xhttp.NewClient(), srv.URL, testRunner(), testLogger(t))
	quotes, err := src.Quotes(context.Background(), []string{"RELIANCE"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "RELIANCE", q.Symbol)
	assert.Equal(t, 2510.0, q.Open, "first non-null open bar")
	assert.Equal(t, 2550.0, q.LastPrice)
	assert.InDelta(t, 2.0, q.PercentChange, 1e-9, "change anchored to previous close")
	assert.Equal(t, int64(500000), q.Volume)
}

func TestIntradayPreviousSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody(0, 0, `[980,1000,1010]`, `[990,1000,1020]`, `[5000,6000,7000]`))
	}))
	defer srv.Close()

	src := NewIntradaySource(xhttp.NewClient(), srv.URL, testRunner(), testLogger(t))
	quotes, err := src.PreviousSession(context.Background(), []string{"TCS"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, 1010.0, q.Open)
	assert.Equal(t, 1020.0, q.LastPrice)
	assert.InDelta(t, 2.0, q.PercentChange, 1e-9, "day-over-day on the last two closes")
	assert.Equal(t, int64(7000), q.Volume)
}

func TestIntradayPreviousSessionNeedsTwoBars(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(0, 0, `[1000]`, `[1020]`, `[5000]`))
	}))
	defer srv.Close()

	src := NewIntradaySource(xhttp.NewClient(), srv.URL, testRunner(), testLogger(t))
	_, err := src.PreviousSession(context.Background(), []string{"TCS"})
	assert.Error(t, err)
}

func TestIntradayQuotesAllSymbolsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	src := NewIntradaySource(xhttp.NewClient(), srv.URL, testRunner(), testLogger(t))
	_, err := src.Quotes(context.Background(), []string{"TCS", "INFY"})
	assert.Error(t, err, "a source with zero resolved symbols must report failure")
}
