package news

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

func TestRSSSourceParsesFeed(t *testing.T) {
	pub := time.Now().Add(-2 * time.Hour).Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TCS stock NSE", r.URL.Query().Get("q"))
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <item>
    <title>TCS announces buyback</title>
    <description>&lt;b&gt;Board approves&lt;/b&gt; plan</description>
    <link>https://example.com/buyback</link>
    <pubDate>%s</pubDate>
  </item>
  <item>
    <title>Markets open flat</title>
    <link>https://example.com/flat</link>
    <pubDate>not a date</pubDate>
  </item>
</channel></rss>`, pub)
	}))
	defer srv.Close()

	src := NewRSSSource(xhttp.NewClient(), "general", srv.URL, testLogger(t))
	got, err := src.Articles(context.Background(), "TCS stock NSE")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "TCS announces buyback", got[0].Title)
	assert.Equal(t, "https://example.com/buyback", got[0].URL)
	assert.False(t, got[0].PublishedAt.IsZero())
	assert.True(t, got[1].PublishedAt.IsZero(), "unparseable dates left zero for the freshness filter")
}

func TestRSSSourceBadXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"xml"}`)
	}))
	defer srv.Close()

	src := NewRSSSource(xhttp.NewClient(), "general", srv.URL, testLogger(t))
	_, err := src.Articles(context.Background(), "TCS")
	assert.Error(t, err)
}
