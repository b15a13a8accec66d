package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	xhttp "TrendPulse/pkg/http"
)

func TestUniverseFromRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"symbol":"tcs"},{"symbol":"INFY"},{"symbol":"TCS"},{"symbol":""}]}`)
	}))
	defer srv.Close()

	u := NewUniverseResolver(xhttp.NewClient(), srv.URL, testLogger(t))
	got := u.Resolve(context.Background())
	assert.Equal(t, []string{"TCS", "INFY"}, got, "uppercased, deduped, blanks dropped")
}

func TestUniverseFallsBackToBundledList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	u := NewUniverseResolver(xhttp.NewClient(), srv.URL, testLogger(t))
	assert.Equal(t, staticUniverse, u.Resolve(context.Background()))
}

func TestUniverseMemoized(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"data":[{"symbol":"SBIN"}]}`)
	}))
	defer srv.Close()

	u := NewUniverseResolver(xhttp.NewClient(), srv.URL, testLogger(t))
	u.Resolve(context.Background())
	u.Resolve(context.Background())
	assert.Equal(t, 1, hits)
}
