package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TrendPulse/internal/domain/models"
)

func testFilter() FilterRule {
	return FilterRule{MinChangePct: 1.0, MaxChangePct: 3.0, MinOpen: 50, MinVolume: 100_000}
}

func TestFilterMatch(t *testing.T) {
	f := testFilter()

	cases := []struct {
		name string
		q    models.Quote
		want bool
	}{
		{"inside band", models.Quote{Open: 500, PercentChange: 2.0, Volume: 200_000}, true},
		{"lower boundary", models.Quote{Open: 500, PercentChange: 1.0, Volume: 100_000}, true},
		{"upper boundary", models.Quote{Open: 500, PercentChange: 3.0, Volume: 100_000}, true},
		{"too small a move", models.Quote{Open: 500, PercentChange: 0.5, Volume: 200_000}, false},
		{"too big a move", models.Quote{Open: 500, PercentChange: 4.0, Volume: 200_000}, false},
		{"negative move", models.Quote{Open: 500, PercentChange: -2.0, Volume: 200_000}, false},
		{"penny stock", models.Quote{Open: 50, PercentChange: 2.0, Volume: 200_000}, false},
		{"illiquid", models.Quote{Open: 500, PercentChange: 2.0, Volume: 99_999}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Match(tc.q))
		})
	}
}

func TestFilterApplyKeepsOrder(t *testing.T) {
	f := testFilter()
	got := f.Apply([]models.Quote{
		{Symbol: "A", Open: 500, PercentChange: 2.0, Volume: 200_000},
		{Symbol: "B", Open: 500, PercentChange: 0.1, Volume: 200_000},
		{Symbol: "C", Open: 500, PercentChange: 1.5, Volume: 200_000},
	})
	assert.Equal(t, "A", got[0].Symbol)
	assert.Equal(t, "C", got[1].Symbol)
	assert.Len(t, got, 2)
}
