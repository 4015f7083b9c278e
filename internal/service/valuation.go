package service

import (
	"sort"
	"time"

	"github.com/fund-tracker/internal/models"
	"github.com/fund-tracker/internal/types"
)

// NAVHistory holds one fund's NAV series, ordered by date ascending with a
// single authoritative observation per date. It is a pure in-memory value:
// building one never touches storage, so valuation stays side-effect free.
type NAVHistory struct {
	dates []time.Time
	navs  []float64
}

// NewNAVHistory builds a history from raw observations. Input order does
// not matter; duplicate dates collapse to the most recently inserted
// observation.
func NewNAVHistory(observations []*models.NAVObservation) *NAVHistory {
	byDate := make(map[time.Time]*models.NAVObservation, len(observations))
	for _, obs := range observations {
		date := types.DateOnly(obs.Date)
		current, ok := byDate[date]
		if !ok || obs.InsertedAt.After(current.InsertedAt) {
			byDate[date] = obs
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	navs := make([]float64, len(dates))
	for i, date := range dates {
		navs[i] = byDate[date].NAV
	}

	return &NAVHistory{dates: dates, navs: navs}
}

// Len returns the number of observations in the history
func (h *NAVHistory) Len() int {
	return len(h.dates)
}

// AsOf returns the NAV with the latest observation date not after the
// target date. The second result is false when the fund has no observation
// on or before that date.
func (h *NAVHistory) AsOf(date time.Time) (float64, bool) {
	target := types.DateOnly(date)

	// First index strictly after the target, minus one.
	idx := sort.Search(len(h.dates), func(i int) bool {
		return h.dates[i].After(target)
	})
	if idx == 0 {
		return 0, false
	}

	return h.navs[idx-1], true
}

// Latest returns the most recent NAV in the history
func (h *NAVHistory) Latest() (float64, bool) {
	if len(h.navs) == 0 {
		return 0, false
	}
	return h.navs[len(h.navs)-1], true
}

// Cursor returns a most-recent-as-of reader that advances monotonically
// through the history. The time-series builder walks one cursor per fund
// across its date window instead of re-scanning the history every day.
type Cursor struct {
	history *NAVHistory
	idx     int
}

// Cursor creates a new cursor positioned before the first observation
func (h *NAVHistory) Cursor() *Cursor {
	return &Cursor{history: h, idx: -1}
}

// Advance moves the cursor to the latest observation not after the given
// date and returns its NAV. Dates must be passed in non-decreasing order;
// passing an earlier date than a previous call returns the already-reached
// observation.
func (c *Cursor) Advance(date time.Time) (float64, bool) {
	target := types.DateOnly(date)
	for c.idx+1 < len(c.history.dates) && !c.history.dates[c.idx+1].After(target) {
		c.idx++
	}
	if c.idx < 0 {
		return 0, false
	}
	return c.history.navs[c.idx], true
}

// InvestmentValue returns the monetary value of a single investment on the
// target date. An investment made after the target date, or whose fund has
// no NAV observation on or before it, contributes zero.
func InvestmentValue(inv *models.Investment, history *NAVHistory, date time.Time) float64 {
	if types.DateOnly(inv.InvestmentDate).After(types.DateOnly(date)) {
		return 0
	}

	nav, ok := history.AsOf(date)
	if !ok {
		return 0
	}

	return inv.Units * nav
}
