package session

import (
	"fmt"
	"time"

	"TrendPulse/pkg/config"
	"TrendPulse/pkg/util"
)

// Hours answers market-state questions for one exchange calendar. Weekends
// are closed; holidays are not modeled, a holiday just behaves like a
// session with no movement.
type Hours struct {
	loc          *time.Location
	openMinutes  int
	closeMinutes int
}

func NewHours(cfg *config.Config) (*Hours, error) {
	loc, err := time.LoadLocation(cfg.Market.Timezone)
	if err != nil {
		return nil, fmt.Errorf("market timezone: %w", err)
	}
	open := cfg.MarketOpenMinutes()
	closeM := cfg.MarketCloseMinutes()
	if open >= closeM {
		return nil, fmt.Errorf("market open %d not before close %d", open, closeM)
	}
	return &Hours{loc: loc, openMinutes: open, closeMinutes: closeM}, nil
}

// IsOpen reports whether the market trades at instant t.
func (h *Hours) IsOpen(t time.Time) bool {
	local := t.In(h.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minutes := local.Hour()*60 + local.Minute()
	return minutes >= h.openMinutes && minutes < h.closeMinutes
}

// SessionDate is the calendar date of the session containing t.
func (h *Hours) SessionDate(t time.Time) string {
	return util.SessionDate(t, h.loc)
}

// CloseAt returns the close instant of t's calendar day in market time.
func (h *Hours) CloseAt(t time.Time) time.Time {
	local := t.In(h.loc)
	return time.Date(local.Year(), local.Month(), local.Day(),
		h.closeMinutes/60, h.closeMinutes%60, 0, 0, h.loc)
}

// IsTradingDay reports whether t's calendar day has a session at all.
func (h *Hours) IsTradingDay(t time.Time) bool {
	switch t.In(h.loc).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// PreviousSessionDate walks back from t to the most recent completed
// session's date.
func (h *Hours) PreviousSessionDate(t time.Time) string {
	local := t.In(h.loc)
	// Today counts once its session has closed.
	if h.IsTradingDay(local) && !local.Before(h.CloseAt(local)) {
		return h.SessionDate(local)
	}
	day := local.AddDate(0, 0, -1)
	for !h.IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	return h.SessionDate(day)
}
